// Package registration собирает HTTP-сервис регистрации участников конференции.
package registration

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/conference-registration/internal/http/handlers/admin/abstracts"
	"github.com/magabrotheeeer/conference-registration/internal/http/handlers/admin/overview"
	"github.com/magabrotheeeer/conference-registration/internal/http/handlers/admin/payments"
	"github.com/magabrotheeeer/conference-registration/internal/http/handlers/admin/users"
	"github.com/magabrotheeeer/conference-registration/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/conference-registration/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/conference-registration/internal/http/handlers/health"
	"github.com/magabrotheeeer/conference-registration/internal/http/handlers/participant/abstract"
	"github.com/magabrotheeeer/conference-registration/internal/http/handlers/participant/dashboard"
	"github.com/magabrotheeeer/conference-registration/internal/http/handlers/participant/receipt"
	"github.com/magabrotheeeer/conference-registration/internal/http/middlewarectx"
	"github.com/magabrotheeeer/conference-registration/internal/metrics"
	"github.com/magabrotheeeer/conference-registration/internal/services/auth"
	"github.com/magabrotheeeer/conference-registration/internal/services/review"
	"github.com/magabrotheeeer/conference-registration/internal/services/submission"
)

// Лимиты запросов в секунду: вход и регистрация по адресу клиента,
// загрузки по пользователю.
const (
	authRPS     = 5
	authBurst   = 10
	uploadRPS   = 1
	uploadBurst = 5
)

// Deps — всё, что нужно маршрутам.
type Deps struct {
	Auth           *auth.Service
	Submission     *submission.Service
	Review         *review.Service
	Roles          middlewarectx.RoleChecker
	Metrics        *metrics.Metrics
	Files          http.Handler
	Health         *health.Handler
	Sentry         func(http.Handler) http.Handler
	MaxUploadBytes int64
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)
	if d.Sentry != nil {
		r.Use(d.Sentry)
	}
	r.Use(d.Metrics.Middleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, authRPS, authBurst, middlewarectx.ByClientIP))
			r.Post("/register", register.New(logger, d.Auth).ServeHTTP)
			r.Post("/admin/register", register.NewAdmin(logger, d.Auth).ServeHTTP)
			r.Post("/login", login.New(logger, d.Auth).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Auth, logger))

			r.Get("/dashboard", dashboard.New(logger, d.Submission).ServeHTTP)
			r.Get("/abstract", abstract.NewGet(logger, d.Submission).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RateLimitMiddleware(logger, uploadRPS, uploadBurst, middlewarectx.ByActor))
				r.Post("/payment/receipt", receipt.New(logger, d.Submission, d.MaxUploadBytes).ServeHTTP)
				r.Post("/abstract", abstract.NewSubmit(logger, d.Submission, d.MaxUploadBytes).ServeHTTP)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(d.Roles, logger))
				r.Get("/overview", overview.New(logger, d.Review).ServeHTTP)

				r.Get("/payments", payments.NewList(logger, d.Review).ServeHTTP)
				r.Post("/payments/{id}/verify", payments.NewVerify(logger, d.Review).ServeHTTP)
				r.Post("/payments/{id}/reject", payments.NewReject(logger, d.Review).ServeHTTP)

				r.Get("/abstracts", abstracts.NewList(logger, d.Review).ServeHTTP)
				r.Post("/abstracts/{id}/approve", abstracts.NewApprove(logger, d.Review).ServeHTTP)
				r.Post("/abstracts/{id}/reject", abstracts.NewReject(logger, d.Review).ServeHTTP)

				r.Get("/users", users.NewList(logger, d.Review).ServeHTTP)
				r.Post("/users/{id}/grant-admin", users.NewGrantAdmin(logger, d.Review).ServeHTTP)
			})
		})
	})

	r.Get("/health", d.Health.ServeHTTP)
	r.Handle("/files/*", http.StripPrefix("/files", d.Files))
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
