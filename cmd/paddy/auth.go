package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/paddy/internal/auth"
	"github.com/Veraticus/paddy/internal/cli"
	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/model"
	"github.com/Veraticus/paddy/internal/workflow"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session",
		Long: `Sign in with an email and password, or with a Google account.

The session is saved so later commands and the terminal UI start signed in.
Email and password are read from --email and --password, or prompted for.`,
		RunE: runLogin,
	}

	cmd.Flags().Bool("google", false, "Sign in with Google in the browser")
	cmd.Flags().String("email", "", "Account email")
	cmd.Flags().String("password", "", "Account password (prompted when omitted)")

	return cmd
}

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE:  runRegister,
	}

	cmd.Flags().Bool("google", false, "Sign up with Google in the browser")
	cmd.Flags().String("email", "", "Account email")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), viper.GetViper())
			if err != nil {
				return err
			}
			defer a.Close()

			a.workflow.Initial(cmd.Context())
			a.workflow.Logout(cmd.Context())
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Signed out."))
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), viper.GetViper())
			if err != nil {
				return err
			}
			defer a.Close()

			state := a.workflow.Initial(cmd.Context())
			if !state.Authenticated() {
				return common.NewUserError(workflow.MsgNotLoggedIn, common.ErrNotLoggedIn)
			}
			printIdentity(cmd, state.Identity)
			return nil
		},
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	google, _ := cmd.Flags().GetBool("google")

	a, err := newApp(ctx, viper.GetViper())
	if err != nil {
		return err
	}
	defer a.Close()

	if google {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Opening the Google sign-in page in your browser..."))
		return finishAuth(cmd, a.workflow.LoginWithProvider(ctx))
	}

	cred, err := readCredential(cmd, cli.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	return finishAuth(cmd, a.workflow.Login(ctx, cred))
}

func runRegister(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	google, _ := cmd.Flags().GetBool("google")

	a, err := newApp(ctx, viper.GetViper())
	if err != nil {
		return err
	}
	defer a.Close()

	if a.session.Mode() != auth.ModeRegister {
		a.workflow.ToggleMode()
	}

	if google {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Opening the Google sign-up page in your browser..."))
		return finishAuth(cmd, a.workflow.LoginWithProvider(ctx))
	}

	prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
	cred, err := readCredential(cmd, prompter)
	if err != nil {
		return err
	}
	confirm, err := prompter.ReadPassword(ctx, "Confirm password")
	if err != nil {
		return err
	}
	return finishAuth(cmd, a.workflow.Register(ctx, cred, confirm))
}

// readCredential takes the email and password from flags, prompting for
// whatever is missing.
func readCredential(cmd *cobra.Command, prompter *cli.Prompter) (model.Credential, error) {
	ctx := cmd.Context()
	email, _ := cmd.Flags().GetString("email")
	var password string
	if cmd.Flags().Lookup("password") != nil {
		password, _ = cmd.Flags().GetString("password")
	}

	var err error
	if email == "" {
		if email, err = prompter.ReadLine(ctx, "Email"); err != nil {
			return model.Credential{}, err
		}
	}
	if password == "" {
		if password, err = prompter.ReadPassword(ctx, "Password"); err != nil {
			return model.Credential{}, err
		}
	}
	return model.Credential{Email: email, Password: password}, nil
}

// finishAuth prints the outcome of a login or registration action.
func finishAuth(cmd *cobra.Command, action workflow.Action) error {
	switch act := action.(type) {
	case workflow.LoginSucceeded:
		printIdentity(cmd, act.Identity)
		return nil
	case workflow.AuthFailed:
		return common.NewUserError(act.Message, act.Err)
	default:
		return fmt.Errorf("unexpected action %T", action)
	}
}

func printIdentity(cmd *cobra.Command, identity *model.Identity) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, cli.FormatSuccess("Signed in as "+identity.Email))
	if !identity.ExpiresAt.IsZero() {
		_, _ = fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("Provider %s, session valid until %s",
			identity.Provider, identity.ExpiresAt.Local().Format(time.RFC1123))))
	}
}
