package commands

import (
	"context"
	"fmt"
	"os"
	"time"
	"aptusassist-backend/lib/configutil"
	"aptusassist-backend/lib/restyutil"
	"aptusassist-backend/lib/scrapers/aptus"
	"aptusassist-backend/lib/serviceutil"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aptus-cli",
	Short: "aptus-cli pokes the booking portal directly for debugging scrapes and bookings.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type Config struct {
	BaseUrl        string `json:"baseUrl"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	BookingGroupId int    `json:"bookingGroupId"`
}

// createClient logs into the portal with the configured credentials, dumping
// every request/response pair for inspection.
func createClient(ctx context.Context) (*aptus.Client, Config) {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	client, err := aptus.NewClient(ctx, aptus.ClientOptions{
		BaseUrl: cfg.BaseUrl,
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize portal client", err)
	}
	restyutil.InstrumentClient(client.Http, restyutil.NewFilesystemOutput(".dev/resty/aptus"))

	err = client.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		serviceutil.Fatal("failed to login to the portal", err)
	}

	return client, cfg
}
