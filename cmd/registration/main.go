// Package main Conference Registration API
//
// @title           Conference Registration API
// @version         1.0
// @description     API регистрации участников конференции: квитанции об оплате, тезисы и консоль проверки.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	_ "github.com/magabrotheeeer/conference-registration/docs"
	"github.com/magabrotheeeer/conference-registration/internal/app/registration"
	"github.com/magabrotheeeer/conference-registration/internal/config"
	"github.com/magabrotheeeer/conference-registration/internal/lib/sl"
)

func main() {
	// .env необязателен: в контейнере переменные приходят из окружения.
	_ = godotenv.Load()

	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting conference-registration", slog.String("env", cfg.Env))
	logger.Debug("config loaded", slog.String("config", cfg.String()))

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Env,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
		}); err != nil {
			logger.Error("sentry init failed", sl.Err(err))
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := registration.New(ctx, cfg, logger)
	if err != nil {
		sl.Fatal(logger, sentry.CurrentHub(), "failed to initialize app", err)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sl.Fatal(logger, sentry.CurrentHub(), "app stopped with error", err)
	}

	logger.Info("conference-registration stopped gracefully")
}
