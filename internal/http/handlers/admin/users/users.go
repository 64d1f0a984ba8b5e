// Package users содержит обработчики управления пользователями:
// список с ролями и выдачу роли администратора.
package users

import (
	"context"
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

// Service — операции над пользователями.
type Service interface {
	ListUsers(ctx context.Context, actor models.Actor, query string) ([]models.UserView, error)
	GrantAdmin(ctx context.Context, actor models.Actor, userID string) (bool, error)
}

// ListHandler обрабатывает GET /api/v1/admin/users.
type ListHandler struct {
	log     *slog.Logger
	service Service
}

// NewList создаёт ListHandler.
func NewList(log *slog.Logger, service Service) *ListHandler {
	return &ListHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список пользователей
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param q query string false "Поиск по имени и email"
// @Success 200 {object} response.Response{data=[]models.UserView}
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/users [get]
func (h *ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users.list"

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

	list, err := h.service.ListUsers(r.Context(), actor, r.URL.Query().Get("q"))
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(list))
}

// GrantAdminHandler обрабатывает POST /api/v1/admin/users/{id}/grant-admin.
type GrantAdminHandler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// NewGrantAdmin создаёт GrantAdminHandler.
func NewGrantAdmin(log *slog.Logger, service Service) *GrantAdminHandler {
	return &GrantAdminHandler{log: log, service: service, validate: validator.New()}
}

// ServeHTTP godoc
// @Summary Выдать роль администратора
// @Description Повторная выдача не считается ошибкой: в ответе already_admin=true.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /admin/users/{id}/grant-admin [post]
func (h *GrantAdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users.grant"

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

	userID := chi.URLParam(r, "id")
	if err := h.validate.Var(userID, "required,uuid"); err != nil {
		log.Warn("invalid user id", slog.String("id", userID))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("invalid user id"))
		return
	}

	already, err := h.service.GrantAdmin(r.Context(), actor, userID)
	if err != nil {
		log.Error("failed to grant admin role", slog.String("user_id", userID), sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("admin role granted",
		slog.String("user_id", userID),
		slog.String("granted_by", actor.UserID),
		slog.Bool("already_admin", already),
	)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_id":       userID,
		"already_admin": already,
	}))
}
