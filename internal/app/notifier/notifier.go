// Package notifier собирает фоновый сервис, который читает решения
// проверяющих из RabbitMQ и рассылает письма участникам.
package notifier

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/conference-registration/internal/config"
	"github.com/magabrotheeeer/conference-registration/internal/lib/mailer"
	"github.com/magabrotheeeer/conference-registration/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/conference-registration/internal/lib/sl"
	"github.com/magabrotheeeer/conference-registration/internal/metrics"
	"github.com/magabrotheeeer/conference-registration/internal/services/notification"
)

// App — потребитель очереди решений и сервер метрик.
type App struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	service *notification.Service
	metrics *http.Server
	logger  *slog.Logger
}

// New подключается к брокеру и SMTP.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	m, err := mailer.New(cfg.SMTP)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.Delay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mtr := metrics.New(reg)

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &App{
		conn:    conn,
		ch:      ch,
		service: notification.NewService(m, mtr, logger),
		metrics: &http.Server{
			Addr:              cfg.NotifierMetricsAddress,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}, nil
}

// Run потребляет очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	go func() {
		a.logger.Info("metrics server starting on", slog.String("address", a.metrics.Addr))
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", sl.Err(err))
		}
	}()

	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.DecisionQueue, a.handle)
	if err != nil {
		a.logger.Error("failed to start decision consumer", sl.Err(err))
		a.shutdown()
		return err
	}

	<-ctx.Done()
	a.logger.Info("notifier shutting down gracefully")
	a.shutdown()
	return nil
}

// handle передаёт сообщение сервису и отправляет ошибки доставки в Sentry.
func (a *App) handle(body []byte) error {
	err := a.service.HandleDecision(body)
	if err != nil {
		sentry.CaptureException(err)
	}
	return err
}

func (a *App) shutdown() {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.metrics.Shutdown(timeoutCtx); err != nil {
		a.logger.Error("failed to stop metrics server", sl.Err(err))
	}
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
}
