// Package receipt принимает квитанцию об оплате (multipart, поле file).
package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/conference-registration/internal/http/middlewarectx"
	"github.com/magabrotheeeer/conference-registration/internal/http/response"
	"github.com/magabrotheeeer/conference-registration/internal/lib/sl"
	"github.com/magabrotheeeer/conference-registration/internal/lib/upload"
	"github.com/magabrotheeeer/conference-registration/internal/models"
	"github.com/magabrotheeeer/conference-registration/internal/workflow"
)

// Service загружает квитанцию.
type Service interface {
	UploadReceipt(ctx context.Context, actor models.Actor, file upload.File) (*models.Payment, error)
}

// Handler обрабатывает POST /api/v1/payment/receipt.
type Handler struct {
	log      *slog.Logger
	service  Service
	maxBytes int64
}

// New создаёт обработчик. maxBytes ограничивает всё тело запроса.
func New(log *slog.Logger, service Service, maxBytes int64) *Handler {
	return &Handler{log: log, service: service, maxBytes: maxBytes}
}

// FormError переводит ошибки разбора формы в ошибки валидации.
func FormError(err error) error {
	switch {
	case errors.Is(err, upload.ErrNoFile):
		return fmt.Errorf("%w: %w", workflow.ErrMissingFile, err)
	case errors.Is(err, upload.ErrTooLarge):
		return fmt.Errorf("%w: %w", workflow.ErrFileTooLarge, err)
	}
	return fmt.Errorf("%w: malformed multipart form: %w", workflow.ErrMissingFields, err)
}

// ServeHTTP godoc
// @Summary Загрузка квитанции об оплате
// @Description JPEG, PNG или PDF до 5 МБ. Тип определяется по содержимому. Заявка переходит в pending.
// @Tags Participant
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Квитанция"
// @Success 200 {object} response.Response{data=models.Payment}
// @Failure 401 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Оплата уже подтверждена"
// @Failure 422 {object} response.ErrorResponse "Недопустимый тип или размер"
// @Failure 502 {object} response.ErrorResponse "Ошибка записи"
// @Router /payment/receipt [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.participant.receipt"

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
		response.WriteError(w, r, FormError(err))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, closer, err := upload.FormFile(r, "file")
	if err != nil {
		log.Warn("failed to read file", sl.Err(err))
		response.WriteError(w, r, FormError(err))
		return
	}
	defer closer.Close()

	p, err := h.service.UploadReceipt(r.Context(), actor, *file)
	if err != nil {
		log.Error("receipt upload failed", slog.String("user_id", actor.UserID), sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("receipt uploaded", slog.String("user_id", actor.UserID), slog.String("content_type", file.ContentType))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"payment": p,
		"badge":   workflow.BadgeFor(workflow.DomainPayment, p.Status),
		"message": "Receipt uploaded successfully",
	}))
}
