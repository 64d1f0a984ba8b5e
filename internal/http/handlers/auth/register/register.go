// Package register реализует HTTP-обработчики регистрации участника
// и администратора (по коду регистрации).
package register

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/conference-registration/internal/http/response"
	"github.com/magabrotheeeer/conference-registration/internal/lib/sl"
	"github.com/magabrotheeeer/conference-registration/internal/models"
	"github.com/magabrotheeeer/conference-registration/internal/services/auth"
)

// Request — входные данные для регистрации участника.
type Request struct {
	FullName    string `json:"full_name" validate:"required,max=200"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	TicketType  string `json:"ticket_type" validate:"omitempty,oneof=student adult"`
	Affiliation string `json:"affiliation" validate:"max=300"`
}

// AdminRequest — регистрация администратора с кодом.
type AdminRequest struct {
	Request
	Code string `json:"registration_code" validate:"required"`
}

// Service описывает регистрацию в сервисе auth.
type Service interface {
	Register(ctx context.Context, in auth.RegisterInput) (string, error)
	RegisterAdmin(ctx context.Context, in auth.RegisterInput, code string) (string, error)
}

// Handler обрабатывает POST /api/v1/register.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт обработчик регистрации участника.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (r Request) input() auth.RegisterInput {
	return auth.RegisterInput{
		FullName:    r.FullName,
		Email:       r.Email,
		Password:    r.Password,
		TicketType:  models.TicketType(r.TicketType),
		Affiliation: r.Affiliation,
	}
}

// ServeHTTP godoc
// @Summary Регистрация участника
// @Description Создаёт учётную запись участника с ролью participant и пустой заявкой об оплате.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body Request true "Данные участника"
// @Success 201 {object} response.Response "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "Email уже зарегистрирован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id, err := h.service.Register(r.Context(), req.input())
	if err != nil {
		log.Error("registration failed", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("participant registered", slog.String("user_id", id))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_id": id,
		"message": "user created successfully",
	}))
}

// AdminHandler обрабатывает POST /api/v1/admin/register.
type AdminHandler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// NewAdmin создаёт обработчик регистрации администратора.
func NewAdmin(log *slog.Logger, service Service) *AdminHandler {
	return &AdminHandler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Регистрация администратора
// @Description Создаёт учётную запись с ролями participant и admin. Требует код регистрации из конфигурации.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body AdminRequest true "Данные администратора и код"
// @Success 201 {object} response.Response "Администратор создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Неверный код регистрации"
// @Failure 409 {object} response.ErrorResponse "Email уже зарегистрирован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /admin/register [post]
func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register_admin"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req AdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id, err := h.service.RegisterAdmin(r.Context(), req.input(), req.Code)
	if err != nil {
		log.Error("admin registration failed", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("admin registered", slog.String("user_id", id))
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_id": id,
		"message": "admin created successfully",
	}))
}
