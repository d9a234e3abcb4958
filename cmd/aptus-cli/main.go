package main

import (
	"context"
	"aptusassist-backend/cmd/aptus-cli/commands"
	"aptusassist-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "aptus-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
