// Package payments содержит обработчики консоли проверки оплат:
// список заявок с поиском, подтверждение и отклонение квитанции.
//
// Обработчики решений возвращают обновлённый список заявок, чтобы консоль
// могла перерисоваться без отдельного запроса.
package payments

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

// Service — операции проверяющего над оплатами.
type Service interface {
	ListPayments(ctx context.Context, actor models.Actor, query string) ([]models.PaymentView, error)
	VerifyPayment(ctx context.Context, actor models.Actor, id string) ([]models.PaymentView, error)
	RejectPayment(ctx context.Context, actor models.Actor, id, reason string) ([]models.PaymentView, error)
}

// RejectRequest — тело запроса на отклонение.
type RejectRequest struct {
	Reason string `json:"reason" example:"Amount does not match the ticket price"`
}

// ListHandler обрабатывает GET /api/v1/admin/payments.
type ListHandler struct {
	log     *slog.Logger
	service Service
}

// NewList создаёт ListHandler.
func NewList(log *slog.Logger, service Service) *ListHandler {
	return &ListHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список оплат
// @Description Поиск по имени, email и статусу без учёта регистра.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param q query string false "Строка поиска"
// @Success 200 {object} response.Response{data=[]models.PaymentView}
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/payments [get]
func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.payments.list"

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

	list, err := h.service.ListPayments(r.Context(), actor, r.URL.Query().Get("q"))
	if err != nil {
		log.Error("failed to list payments", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(list))
}

// DecisionHandler обрабатывает POST /api/v1/admin/payments/{id}/verify
// и POST /api/v1/admin/payments/{id}/reject.
type DecisionHandler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
	reject   bool
}

// NewVerify создаёт обработчик подтверждения.
func NewVerify(log *slog.Logger, service Service) *DecisionHandler {
	return &DecisionHandler{log: log, service: service, validate: validator.New()}
}

// NewReject создаёт обработчик отклонения. Причина обязательна.
func NewReject(log *slog.Logger, service Service) *DecisionHandler {
	return &DecisionHandler{log: log, service: service, validate: validator.New(), reject: true}
}

// ServeHTTP godoc
// @Summary Подтвердить или отклонить оплату
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заявки"
// @Param request body RejectRequest false "Причина отклонения (только для reject)"
// @Success 200 {object} response.Response{data=[]models.PaymentView}
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Заявка уже проверена"
// @Failure 422 {object} response.ErrorResponse
// @Router /admin/payments/{id}/verify [post]
// @Router /admin/payments/{id}/reject [post]
func (h *DecisionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.payments.decision"

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
		log.Warn("invalid payment id", slog.String("id", id))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("invalid payment id"))
		return
	}

	var (
		list []models.PaymentView
		err  error
	)
	if h.reject {
		var req RejectRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
			log.Error("failed to decode request", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid request body"))
			return
		}
		list, err = h.service.RejectPayment(r.Context(), actor, id, req.Reason)
	} else {
		list, err = h.service.VerifyPayment(r.Context(), actor, id)
	}
	if err != nil {
		log.Error("payment decision failed", slog.String("payment_id", id), sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("payment reviewed",
		slog.String("payment_id", id),
		slog.String("reviewer_id", actor.UserID),
		slog.Bool("rejected", h.reject),
	)
	render.JSON(w, r, response.StatusOKWithData(list))
}
