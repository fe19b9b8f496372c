package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/config"
	"github.com/Veraticus/paddy/internal/tui"
)

func uiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive terminal UI",
		Long: `Open the interactive screen: sign in or register, submit photos and
measurements, and browse past predictions.

Logs are written to logging.file while the screen is open.`,
		RunE: runUI,
	}
}

func runUI(cmd *cobra.Command, _ []string) error {
	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return err
	}
	closeLog, err := common.RedirectLogger(config.ExpandPath(viper.GetString("logging.file")), level, viper.GetString("logging.format"))
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	a, err := newApp(cmd.Context(), viper.GetViper())
	if err != nil {
		return err
	}
	defer a.Close()

	slog.Info("Starting terminal UI")
	return tui.Run(cmd.Context(), a.workflow, tui.WithTimeout(a.settings.Prediction.Timeout))
}
