package commands

import (
	"errors"
	"log/slog"
	"strconv"
	"time"
	"aptusassist-backend/lib/serviceutil"
	"aptusassist-backend/lib/timezone"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(bookCmd)
}

var bookCmd = &cobra.Command{
	Use:   "book <date> <passNo>",
	Short: "Books the given pass, e.g. book 2025-06-02 3.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		date, err := time.ParseInLocation("2006-01-02", args[0], timezone.Location)
		if err != nil {
			serviceutil.Fatal("failed to parse date", err)
		}
		passNo, err := strconv.Atoi(args[1])
		if err != nil {
			serviceutil.Fatal("failed to parse pass number", err)
		}

		client, cfg := createClient(cmd.Context())

		confirmed, err := client.Book(cmd.Context(), date, passNo, cfg.BookingGroupId)
		if err != nil {
			serviceutil.Fatal("booking failed", err)
		}
		if !confirmed {
			serviceutil.Fatal("booking not confirmed", errors.New("the portal did not acknowledge the booking"))
		}
		slog.Info("booked", "date", args[0], "pass", passNo, "time", client.Schedule().Label(passNo))
	},
}
