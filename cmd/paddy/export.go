package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/paddy/internal/cli"
	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/config"
	"github.com/Veraticus/paddy/internal/sheets"
	"github.com/Veraticus/paddy/internal/workflow"
)

func historyExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export past predictions to Google Sheets",
		Long: `Write every saved prediction to a Google Sheets spreadsheet, replacing
its contents. Without --spreadsheet-id a new spreadsheet is created.

Authenticate with sheets.service_account_file, or with sheets.refresh_token
together with google.client_id and google.client_secret.`,
		RunE: runHistoryExport,
	}

	cmd.Flags().String("spreadsheet-id", "", "Existing spreadsheet to overwrite")
	cmd.Flags().String("name", "", "Title for a newly created spreadsheet")

	return cmd
}

func runHistoryExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, viper.GetViper())
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.workflow.Initial(ctx).Authenticated() {
		return common.NewUserError(workflow.MsgNotLoggedIn, common.ErrNotLoggedIn)
	}

	sheetsConfig := sheetsConfigFrom(a.settings)
	if id, _ := cmd.Flags().GetString("spreadsheet-id"); id != "" {
		sheetsConfig.SpreadsheetID = id
	}
	if name, _ := cmd.Flags().GetString("name"); name != "" {
		sheetsConfig.SpreadsheetName = name
	}

	writer, err := sheets.NewWriter(ctx, sheetsConfig, slog.Default())
	if err != nil {
		return err
	}

	var loaded workflow.HistoryLoaded
	switch act := a.workflow.FetchHistory(ctx).(type) {
	case workflow.HistoryFailed:
		return common.NewUserError(act.Message, act.Err)
	case workflow.SessionExpired:
		return common.NewUserError(act.Message, act.Err)
	case workflow.HistoryLoaded:
		loaded = act
	default:
		return fmt.Errorf("unexpected action %T", act)
	}

	var spreadsheetID string
	err = cli.WithSpinner(cmd.ErrOrStderr(), "Exporting to Google Sheets", func() error {
		var writeErr error
		spreadsheetID, writeErr = writer.Write(ctx, loaded.Records)
		return writeErr
	})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf(
		"Exported %d predictions to https://docs.google.com/spreadsheets/d/%s", len(loaded.Records), spreadsheetID)))
	return nil
}

// sheetsConfigFrom builds the exporter configuration. A service account
// takes precedence over the user's refresh token.
func sheetsConfigFrom(s *config.Settings) sheets.Config {
	cfg := sheets.DefaultConfig()
	cfg.SpreadsheetID = s.Sheets.SpreadsheetID
	if s.Sheets.SpreadsheetName != "" {
		cfg.SpreadsheetName = s.Sheets.SpreadsheetName
	}
	if s.Sheets.TimeZone != "" {
		cfg.TimeZone = s.Sheets.TimeZone
	}

	if s.Sheets.ServiceAccountFile != "" {
		cfg.ServiceAccountPath = s.Sheets.ServiceAccountFile
		return cfg
	}
	cfg.ClientID = s.Google.ClientID
	cfg.ClientSecret = s.Google.ClientSecret
	cfg.RefreshToken = s.Sheets.RefreshToken
	return cfg
}
