package cmd

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot daemon",
	Long: `Connects to the Discord gateway and stays online: guild events drive
sync requests, a periodic reconciliation repairs drift, and slash commands
serve riders until the process receives a termination signal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run()
	},
}
