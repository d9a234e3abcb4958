package commands

import (
	"errors"
	"log/slog"
	"strconv"
	"aptusassist-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(unbookCmd)
}

var unbookCmd = &cobra.Command{
	Use:   "unbook <bookingId>",
	Short: "Cancels an existing booking by its portal-side id.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		bookingId, err := strconv.Atoi(args[0])
		if err != nil {
			serviceutil.Fatal("failed to parse booking id", err)
		}

		client, _ := createClient(cmd.Context())

		confirmed, err := client.Unbook(cmd.Context(), bookingId)
		if err != nil {
			serviceutil.Fatal("cancellation failed", err)
		}
		if !confirmed {
			serviceutil.Fatal("cancellation not confirmed", errors.New("the portal did not acknowledge the cancellation"))
		}
		slog.Info("cancelled", "booking_id", bookingId)
	},
}
