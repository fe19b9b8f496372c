package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/paddy/internal/cli"
	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/config"
	"github.com/Veraticus/paddy/internal/model"
	"github.com/Veraticus/paddy/internal/workflow"
)

// tabularFlags maps command-line flags onto sample field names.
var tabularFlags = []struct {
	flag  string
	field string
}{
	{flag: "max-temp", field: model.FieldMaximumTemperature},
	{flag: "min-temp", field: model.FieldMinimumTemperature},
	{flag: "temp", field: model.FieldTemperature},
	{flag: "precipitation", field: model.FieldPrecipitation},
	{flag: "soil-ph", field: model.FieldSoilPH},
	{flag: "humidity", field: model.FieldRelativeHumidity},
}

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Submit a sample for prediction",
		Long: `Submit a rice plant photo or a set of field measurements to the
prediction service. Successful predictions are saved to history.`,
	}

	cmd.AddCommand(predictImageCmd())
	cmd.AddCommand(predictTabularCmd())

	return cmd
}

func predictImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "image <file>",
		Short: "Predict from a photo of a rice plant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, workflow.FormImage, func(wf *workflow.Workflow) error {
				if act, ok := wf.SelectImage(config.ExpandPath(args[0])).(workflow.SubmitRejected); ok {
					return common.NewUserError(act.Message, act.Err)
				}
				return nil
			})
		},
	}
}

func predictTabularCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tabular",
		Short: "Predict from environmental measurements",
		Example: `  paddy predict tabular --max-temp 34 --min-temp 24 --temp 29 \
    --precipitation 12.5 --soil-ph 6.2 --humidity 80`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPredict(cmd, workflow.FormTabular, func(wf *workflow.Workflow) error {
				for _, f := range tabularFlags {
					value, _ := cmd.Flags().GetString(f.flag)
					if err := wf.Form().SetField(f.field, value); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}

	for _, f := range tabularFlags {
		cmd.Flags().String(f.flag, "", model.FieldLabel(f.field))
	}

	return cmd
}

// runPredict restores the session, fills the form with fill, and submits it
// behind a spinner.
func runPredict(cmd *cobra.Command, f workflow.Form, fill func(*workflow.Workflow) error) error {
	a, err := newApp(cmd.Context(), viper.GetViper())
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.workflow.Initial(cmd.Context()).Authenticated() {
		return common.NewUserError(workflow.MsgNotLoggedIn, common.ErrNotLoggedIn)
	}
	if err := fill(a.workflow); err != nil {
		return err
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx, stop := handler.HandleInterrupts(cmd.Context(), "Submission")
	defer stop()

	var action workflow.Action
	err = cli.WithSpinner(cmd.ErrOrStderr(), "Waiting for prediction", func() error {
		action = submit(ctx, a.workflow, f)
		return nil
	})
	if err != nil {
		return err
	}

	return printSettled(cmd, action)
}

func submit(ctx context.Context, wf *workflow.Workflow, f workflow.Form) workflow.Action {
	if f == workflow.FormImage {
		return wf.SubmitImage(ctx)
	}
	return wf.SubmitTabular(ctx)
}

// printSettled prints a prediction result and any history warning.
func printSettled(cmd *cobra.Command, action workflow.Action) error {
	switch act := action.(type) {
	case workflow.SubmitSettled:
		if act.Err != nil {
			return common.NewUserError(act.Message, act.Err)
		}
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, cli.FormatResult(act.Message))
		if act.Warning != "" {
			_, _ = fmt.Fprintln(out, cli.FormatWarning(act.Warning))
		}
		return nil
	case workflow.SubmitRejected:
		return common.NewUserError(act.Message, act.Err)
	case workflow.SessionExpired:
		return common.NewUserError(act.Message, act.Err)
	default:
		return fmt.Errorf("unexpected action %T", action)
	}
}
