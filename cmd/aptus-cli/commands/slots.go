package commands

import (
	"os"
	"time"
	"aptusassist-backend/lib/serviceutil"
	"aptusassist-backend/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var slotsWeek *string
var slotsFreeOnly *bool

func init() {
	slotsWeek = slotsCmd.Flags().String("week", "", "A date inside the week to show, e.g. 2025-06-02. Defaults to the current week.")
	slotsFreeOnly = slotsCmd.Flags().Bool("free", false, "Only show bookable passes.")
	rootCmd.AddCommand(slotsCmd)
}

var slotsCmd = &cobra.Command{
	Use:   "slots [--week <date>] [--free]",
	Short: "Scrapes one week of the booking calendar and prints it.",
	Run: func(cmd *cobra.Command, args []string) {
		client, cfg := createClient(cmd.Context())

		date := timezone.Now()
		if *slotsWeek != "" {
			parsed, err := time.ParseInLocation("2006-01-02", *slotsWeek, timezone.Location)
			if err != nil {
				serviceutil.Fatal("failed to parse --week", err)
			}
			date = parsed
		}
		weekStart := timezone.MostRecentMonday(date)

		slots, err := client.FetchWeek(cmd.Context(), weekStart, cfg.BookingGroupId)
		if err != nil {
			serviceutil.Fatal("failed to scrape week", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Date", "Pass", "Time", "Status"})
		for _, slot := range slots {
			if *slotsFreeOnly && slot.Status != "free" {
				continue
			}
			t.AppendRow(table.Row{
				slot.Date.Format("2006-01-02"),
				slot.PassNo,
				client.Schedule().Label(slot.PassNo),
				slot.Status,
			})
		}
		t.Render()
	},
}
