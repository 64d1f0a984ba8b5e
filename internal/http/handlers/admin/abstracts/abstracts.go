// Package abstracts содержит обработчики консоли проверки тезисов.
package abstracts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/conference-registration/internal/http/middlewarectx"
	"github.com/magabrotheeeer/conference-registration/internal/http/response"
	"github.com/magabrotheeeer/conference-registration/internal/lib/sl"
	"github.com/magabrotheeeer/conference-registration/internal/models"
)

// Service — операции проверяющего над тезисами.
type Service interface {
	ListAbstracts(ctx context.Context, actor models.Actor, query string) ([]models.AbstractView, error)
	ApproveAbstract(ctx context.Context, actor models.Actor, id, notes string) ([]models.AbstractView, error)
	RejectAbstract(ctx context.Context, actor models.Actor, id, notes string) ([]models.AbstractView, error)
}

// DecisionRequest — заметки проверяющего. При отклонении обязательны.
type DecisionRequest struct {
	Notes string `json:"notes" example:"Please narrow the scope to one case study"`
}

// ListHandler обрабатывает GET /api/v1/admin/abstracts.
type ListHandler struct {
	log     *slog.Logger
	service Service
}

// NewList создаёт ListHandler.
func NewList(log *slog.Logger, service Service) *ListHandler {
	return &ListHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список тезисов
// @Description Поиск по названию, авторам, владельцу и статусу.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param q query string false "Строка поиска"
// @Success 200 {object} response.Response{data=[]models.AbstractView}
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/abstracts [get]
func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.abstracts.list"

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

	list, err := h.service.ListAbstracts(r.Context(), actor, r.URL.Query().Get("q"))
	if err != nil {
		log.Error("failed to list abstracts", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(list))
}

// DecisionHandler обрабатывает POST /api/v1/admin/abstracts/{id}/approve
// и POST /api/v1/admin/abstracts/{id}/reject.
type DecisionHandler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
	reject   bool
}

// NewApprove создаёт обработчик одобрения.
func NewApprove(log *slog.Logger, service Service) *DecisionHandler {
	return &DecisionHandler{log: log, service: service, validate: validator.New()}
}

// NewReject создаёт обработчик отклонения.
func NewReject(log *slog.Logger, service Service) *DecisionHandler {
	return &DecisionHandler{log: log, service: service, validate: validator.New(), reject: true}
}

// ServeHTTP godoc
// @Summary Одобрить или отклонить тезисы
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID тезисов"
// @Param request body DecisionRequest false "Заметки проверяющего"
// @Success 200 {object} response.Response{data=[]models.AbstractView}
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /admin/abstracts/{id}/approve [post]
// @Router /admin/abstracts/{id}/reject [post]
func (h *DecisionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.abstracts.decision"

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

	id := chi.URLParam(r, "id")
	if err := h.validate.Var(id, "required,uuid"); err != nil {
		log.Warn("invalid abstract id", slog.String("id", id))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("invalid abstract id"))
		return
	}

	var req DecisionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	var (
		list []models.AbstractView
		err  error
	)
	if h.reject {
		list, err = h.service.RejectAbstract(r.Context(), actor, id, req.Notes)
	} else {
		list, err = h.service.ApproveAbstract(r.Context(), actor, id, req.Notes)
	}
	if err != nil {
		log.Error("abstract decision failed", slog.String("abstract_id", id), sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("abstract reviewed",
		slog.String("abstract_id", id),
		slog.String("reviewer_id", actor.UserID),
		slog.Bool("rejected", h.reject),
	)
	render.JSON(w, r, response.StatusOKWithData(list))
}
