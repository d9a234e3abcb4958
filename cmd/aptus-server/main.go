package main

import (
	"flag"
	"net/http"
	"os"
	"time"
	"aptusassist-backend/lib/configutil"
	configsqlite "aptusassist-backend/lib/configutil/sqlite"
	"aptusassist-backend/lib/pushstore"
	pushdb "aptusassist-backend/lib/pushstore/db"
	"aptusassist-backend/lib/serviceutil"
	"aptusassist-backend/lib/slotstore"
	"aptusassist-backend/lib/slotstore/db"
	"aptusassist-backend/lib/telegram"
	"aptusassist-backend/lib/telemetry"
	"aptusassist-backend/services/booking"
)

type TelegramConfig struct {
	Token  string `json:"token"`
	ChatId int64  `json:"chatId"`
}

type SyncConfig struct {
	IntervalMinutes int `json:"intervalMinutes"`
	WeeksAhead      int `json:"weeksAhead"`
}

type Config struct {
	Portal   booking.PortalConfig `json:"portal"`
	Database configsqlite.Struct  `json:"database"`
	Telegram TelegramConfig       `json:"telegram"`
	Push     booking.VapidConfig  `json:"push"`
	Sync     SyncConfig           `json:"sync"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(*verbose)
	tel, err := telemetry.SetupFromEnv(ctx, "aptus-server")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("init telemetry", err)
	}
	if err == nil {
		defer tel.Shutdown(ctx)
		telemetry.InstrumentPerfStats(ctx)
	}

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	database, err := cfg.Database.OpenDB(db.Schema + pushdb.Schema)
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	defer database.Close()

	var bot *booking.TelegramBot
	var notifier booking.Notifier
	if cfg.Telegram.Token != "" {
		bot = booking.NewTelegramBot(telegram.NewClient(cfg.Telegram.Token), cfg.Telegram.ChatId)
		notifier = bot
	}

	svc := booking.NewService(booking.Options{
		Portal:     cfg.Portal,
		Store:      slotstore.NewStore(database),
		WeeksAhead: cfg.Sync.WeeksAhead,
		Notifier:   notifier,
	})

	interval := time.Duration(cfg.Sync.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Minute * 15
	}
	go svc.SyncDaemon(ctx, interval)
	if bot != nil {
		go bot.Run(ctx, svc)
	}

	mux := http.NewServeMux()
	svc.RegisterHandlers(mux)
	if cfg.Push.Enabled() {
		pushSender := booking.NewPushSender(pushstore.NewStore(database), cfg.Push)
		pushSender.RegisterHandlers(mux)
	}

	go serviceutil.StartHttpServer(8000, mux)
	<-ctx.Done()
}
