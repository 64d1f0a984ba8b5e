package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"github.com/magabrotheeeer/conference-registration/internal/app/notifier"
	"github.com/magabrotheeeer/conference-registration/internal/config"
	"github.com/magabrotheeeer/conference-registration/internal/lib/sl"
)

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting notifier", slog.String("env", cfg.Env))

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Environment: cfg.Env}); err != nil {
			logger.Error("sentry init failed", sl.Err(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := notifier.New(ctx, cfg, logger)
	if err != nil {
		sl.Fatal(logger, sentry.CurrentHub(), "failed to initialize notifier", err)
	}

	if err := app.Run(ctx); err != nil {
		sl.Fatal(logger, sentry.CurrentHub(), "notifier stopped with error", err)
	}

	logger.Info("notifier stopped gracefully")
}
