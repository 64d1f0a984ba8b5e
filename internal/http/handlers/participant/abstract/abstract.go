// Package abstract отдаёт и принимает тезисы участника.
package abstract

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/conference-registration/internal/http/handlers/participant/receipt"
	"github.com/magabrotheeeer/conference-registration/internal/http/middlewarectx"
	"github.com/magabrotheeeer/conference-registration/internal/http/response"
	"github.com/magabrotheeeer/conference-registration/internal/lib/sl"
	"github.com/magabrotheeeer/conference-registration/internal/lib/upload"
	"github.com/magabrotheeeer/conference-registration/internal/models"
	"github.com/magabrotheeeer/conference-registration/internal/workflow"
)

// Service — операции с тезисами.
type Service interface {
	GetAbstract(ctx context.Context, actor models.Actor) (*models.Abstract, error)
	CanSubmitAbstract(ctx context.Context, userID string) (bool, error)
	SubmitAbstract(ctx context.Context, actor models.Actor, meta workflow.AbstractMeta, file *upload.File) (*models.Abstract, error)
}

// View — тезисы с бейджем и признаком допуска.
type View struct {
	Abstract  *models.Abstract `json:"abstract"`
	Badge     workflow.Badge   `json:"badge"`
	CanSubmit bool             `json:"can_submit"`
}

// GetHandler обрабатывает GET /api/v1/abstract.
type GetHandler struct {
	log     *slog.Logger
	service Service
}

// NewGet создаёт обработчик чтения.
func NewGet(log *slog.Logger, service Service) *GetHandler {
	return &GetHandler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Тезисы участника
// @Tags Participant
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=View}
// @Failure 401 {object} response.ErrorResponse
// @Router /abstract [get]
func (h *GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.participant.abstract.get"

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

	a, err := h.service.GetAbstract(r.Context(), actor)
	if err != nil {
		log.Error("failed to read abstract", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	canSubmit, err := h.service.CanSubmitAbstract(r.Context(), actor.UserID)
	if err != nil {
		log.Error("failed to check abstract gate", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	view := View{Abstract: a, CanSubmit: canSubmit, Badge: workflow.BadgeFor(workflow.DomainAbstract, workflow.StatusNotUploaded)}
	if a != nil {
		view.Badge = workflow.BadgeFor(workflow.DomainAbstract, a.Status)
	}
	render.JSON(w, r, response.StatusOKWithData(view))
}

// SubmitHandler обрабатывает POST /api/v1/abstract.
type SubmitHandler struct {
	log      *slog.Logger
	service  Service
	maxBytes int64
}

// NewSubmit создаёт обработчик отправки. maxBytes ограничивает всё тело запроса.
func NewSubmit(log *slog.Logger, service Service, maxBytes int64) *SubmitHandler {
	return &SubmitHandler{log: log, service: service, maxBytes: maxBytes}
}

// ServeHTTP godoc
// @Summary Отправка тезисов
// @Description Доступна после подтверждения оплаты. Файл (PDF, DOC, DOCX до 10 МБ) можно не прикладывать при повторной отправке.
// @Tags Participant
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Название"
// @Param authors formData string true "Авторы"
// @Param affiliation formData string true "Организация"
// @Param subtheme formData string true "Направление" Enums(green_technology, stem_education, entrepreneurship)
// @Param file formData file false "Файл тезисов"
// @Success 200 {object} response.Response{data=models.Abstract}
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse "Оплата не подтверждена"
// @Failure 422 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /abstract [post]
func (h *SubmitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.participant.abstract.submit"

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

	if err := upload.ParseForm(w, r, h.maxBytes); err != nil {
		log.Warn("failed to parse form", sl.Err(err))
		response.WriteError(w, r, receipt.FormError(err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	meta := workflow.AbstractMeta{
		Title:       r.FormValue("title"),
		Authors:     r.FormValue("authors"),
		Affiliation: r.FormValue("affiliation"),
		Subtheme:    workflow.Subtheme(r.FormValue("subtheme")),
	}

	file, closer, err := upload.FormFile(r, "file")
	switch {
	case errors.Is(err, upload.ErrNoFile):
		file = nil
	case err != nil:
		log.Warn("failed to read file", sl.Err(err))
		response.WriteError(w, r, receipt.FormError(err))
		return
	default:
		defer closer.Close()
	}

	a, err := h.service.SubmitAbstract(r.Context(), actor, meta, file)
	if err != nil {
		log.Error("abstract submission failed", slog.String("user_id", actor.UserID), sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("abstract submitted", slog.String("user_id", actor.UserID), slog.String("abstract_id", a.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"abstract": a,
		"badge":    workflow.BadgeFor(workflow.DomainAbstract, a.Status),
		"message":  "Abstract submitted successfully",
	}))
}
