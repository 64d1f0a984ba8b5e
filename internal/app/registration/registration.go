package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/conference-registration/internal/cache"
	"github.com/magabrotheeeer/conference-registration/internal/config"
	"github.com/magabrotheeeer/conference-registration/internal/http/handlers/health"
	"github.com/magabrotheeeer/conference-registration/internal/lib/jwt"
	"github.com/magabrotheeeer/conference-registration/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/conference-registration/internal/lib/sl"
	"github.com/magabrotheeeer/conference-registration/internal/metrics"
	"github.com/magabrotheeeer/conference-registration/internal/migrations"
	"github.com/magabrotheeeer/conference-registration/internal/objectstore"
	"github.com/magabrotheeeer/conference-registration/internal/services/auth"
	"github.com/magabrotheeeer/conference-registration/internal/services/review"
	"github.com/magabrotheeeer/conference-registration/internal/services/submission"
	"github.com/magabrotheeeer/conference-registration/internal/storage/repository"
	"github.com/magabrotheeeer/conference-registration/internal/workflow"
)

// App — HTTP-сервис вместе с его подключениями.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	cache     *cache.Cache
	conn      *amqp.Connection
	publisher *rabbitmq.Publisher
	store     *objectstore.Store
}

// New подключается к зависимостям, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.registration.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err = repository.CheckDatabaseReady(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.Retries, cfg.RabbitMQ.Delay)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch, rabbitmq.DecisionRoutingKey)

	store, err := objectstore.Open(ctx, cfg.ObjectStore,
		workflow.DomainPayment.Bucket(), workflow.DomainAbstract.Bucket())
	if err != nil {
		_ = publisher.Close()
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	tokens := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	deps := Deps{
		Auth:       auth.NewService(db, tokens, cfg.AdminRegistrationCode, logger),
		Submission: submission.NewService(db, store, cacheRedis, m, logger),
		Review:     review.NewService(db, cacheRedis, publisher, m, cfg.Review, logger),
		Roles:      db,
		Metrics:    m,
		Files:      store.Handler(),
		Health: health.New(logger, map[string]health.Check{
			"postgres": db.DB.PingContext,
			"redis": func(ctx context.Context) error {
				return cacheRedis.Db.Ping(ctx).Err()
			},
			"rabbitmq": func(context.Context) error {
				if conn.IsClosed() {
					return amqp.ErrClosed
				}
				return nil
			},
		}),
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	if sentry.CurrentHub().Client() != nil {
		deps.Sentry = sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, deps)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:    srv,
		logger:    logger,
		db:        db,
		cache:     cacheRedis,
		conn:      conn,
		publisher: publisher,
		store:     store,
	}, nil
}

// Run обслуживает запросы до отмены ctx, затем останавливает сервер
// и закрывает подключения.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	a.close()
	return err
}

func (a *App) close() {
	if err := a.publisher.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close object store", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
