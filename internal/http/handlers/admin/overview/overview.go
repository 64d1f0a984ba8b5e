// Package overview отдаёт сводную статистику консоли администратора.
package overview

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/conference-registration/internal/http/middlewarectx"
	"github.com/magabrotheeeer/conference-registration/internal/http/response"
	"github.com/magabrotheeeer/conference-registration/internal/lib/sl"
	"github.com/magabrotheeeer/conference-registration/internal/models"
)

// Service возвращает счётчики пользователей и заявок.
type Service interface {
	Overview(ctx context.Context, actor models.Actor) (models.OverviewStats, error)
}

// Stats — ответ обработчика.
type Stats struct {
	models.OverviewStats
	PendingReviews int `json:"pending_reviews"`
}

// Handler обрабатывает GET /api/v1/admin/overview.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Сводка для администратора
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=Stats}
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/overview [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.overview"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	actor, ok := middlewarectx.ActorFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	stats, err := h.service.Overview(r.Context(), actor)
	if err != nil {
		log.Error("failed to load overview", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(Stats{
		OverviewStats:  stats,
		PendingReviews: stats.PendingReviews(),
	}))
}
