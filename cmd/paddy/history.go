package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/paddy/internal/cli"
	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/tui"
	"github.com/Veraticus/paddy/internal/workflow"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past predictions",
		Long:  `List every saved prediction in the order the history store returns them.`,
		RunE:  runHistory,
	}

	cmd.Flags().Bool("json", false, "Print records as JSON")

	cmd.AddCommand(historyExportCmd())

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := newApp(ctx, viper.GetViper())
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.workflow.Initial(ctx).Authenticated() {
		return common.NewUserError(workflow.MsgNotLoggedIn, common.ErrNotLoggedIn)
	}

	switch act := a.workflow.FetchHistory(ctx).(type) {
	case workflow.HistoryFailed:
		return common.NewUserError(act.Message, act.Err)
	case workflow.SessionExpired:
		return common.NewUserError(act.Message, act.Err)
	case workflow.HistoryLoaded:
		out := cmd.OutOrStdout()
		if asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if act.Records == nil {
				return enc.Encode([]any{})
			}
			return enc.Encode(act.Records)
		}

		if len(act.Records) == 0 {
			_, _ = fmt.Fprintln(out, cli.FormatInfo("No predictions yet."))
			return nil
		}
		_, _ = fmt.Fprintln(out, cli.FormatTitle("Past Predictions"))
		for _, record := range act.Records {
			_, _ = fmt.Fprintln(out, tui.FormatRecord(record))
		}
		return nil
	default:
		return fmt.Errorf("unexpected action %T", act)
	}
}
