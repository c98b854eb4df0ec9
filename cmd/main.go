package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"cloudpico-reporter/internal/app"
	"cloudpico-reporter/internal/config"
	"cloudpico-reporter/internal/logging"
	"cloudpico-reporter/internal/watchdog"
)

var version = "dev"
var appName = "cloudpico-reporter"

// exitReset tells the service manager the watchdog expired and the agent
// should be started again.
const exitReset = 3

func main() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "error loading .env file: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	slog.Info("starting",
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
		"reset_mode", cfg.ResetMode,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for cycle := 1; ; cycle++ {
		err := app.Run(ctx, cfg)
		switch {
		case errors.Is(err, watchdog.ErrExpired) && cfg.ResetMode == "restart":
			slog.Info("watchdog reset, starting next cycle", "cycle", cycle+1)
			continue
		case errors.Is(err, watchdog.ErrExpired):
			slog.Info("watchdog reset, exiting for restart")
			stop()
			os.Exit(exitReset)
		case err != nil && !errors.Is(err, context.Canceled):
			slog.Error("run failed", "err", err)
			stop()
			os.Exit(1)
		}
		break
	}

	slog.Info("shutting down")
}
