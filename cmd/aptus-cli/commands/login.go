package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Logs into the portal with the configured credentials and reports the outcome.",
	Run: func(cmd *cobra.Command, args []string) {
		createClient(cmd.Context())
		slog.Info("login succeeded")
	},
}
