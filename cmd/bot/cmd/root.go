package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"racebot/cmd/bot/cmd/sync"
	"racebot/internal/app/bot"
	"racebot/internal/app/bot/config"
	"racebot/internal/utils/logger"
)

var (
	cfg   *config.Config
	log   *slog.Logger
	app   *bot.App
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "racebot",
	Short: "Racebot - Discord guild sync for the team site",
	Long: `Racebot keeps a Discord racing guild and the team site in step:
roles and members are mirrored to the remote store on guild events,
reconciled on a fixed interval, and exposed to riders through slash
commands for profiles and account linking.`,
	PersistentPreRunE: setupApp,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg = config.MustLoad()
	if debug {
		cfg.Debug = true
	}

	log = logger.New(cfg.Env)

	var err error
	app, err = bot.New(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize bot: %w", err)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), sync.AppKey, app))
	return nil
}

func init() {
	cobra.OnInitialize()

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug commands and verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sync.SyncCmd)
}
