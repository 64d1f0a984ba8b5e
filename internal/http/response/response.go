// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков: успешных ответов, ошибок
// предметной области и сообщений валидации.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/conference-registration/internal/workflow"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Status — статус запроса ("OK" или "Error").
// Поле Error — текст ошибки (опционально, при неуспехе).
// Поле Data — данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"Validation failed: invalid file type"`
}

const (
	// StatusOK — значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError — значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// HTTPStatus выбирает код ответа по классу ошибки.
func HTTPStatus(err error) int {
	switch workflow.KindOf(err) {
	case workflow.KindValidation:
		return http.StatusUnprocessableEntity
	case workflow.KindRemoteWrite:
		return http.StatusBadGateway
	case workflow.KindAuthorization:
		return http.StatusForbidden
	case workflow.KindConflict:
		return http.StatusConflict
	case workflow.KindNotFound:
		return http.StatusNotFound
	case workflow.KindUnauthenticated:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// ErrorFrom формирует уведомление "<заголовок>: <сообщение>" для ошибки
// предметной области. Неклассифицированные ошибки не раскрываются клиенту.
func ErrorFrom(err error) ErrorResponse {
	kind := workflow.KindOf(err)
	if kind == workflow.KindUnknown {
		return Error("internal error")
	}
	return Error(kind.Title() + ": " + domainMessage(err))
}

// domainMessage возвращает текст сентинела и уточнение после него,
// отбрасывая префиксы op из цепочки обёрток.
func domainMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{
		workflow.ErrInvalidFileType, workflow.ErrFileTooLarge, workflow.ErrMissingFields,
		workflow.ErrMissingFile, workflow.ErrInvalidSubtheme, workflow.ErrMissingReason,
		workflow.ErrStorageWriteFailed, workflow.ErrRowWriteFailed,
		workflow.ErrForbidden, workflow.ErrGateLocked,
		workflow.ErrInvalidTransition, workflow.ErrUploadNotAllowed,
		workflow.ErrNotFound, workflow.ErrEmailTaken, workflow.ErrInvalidCredentials,
	} {
		if !errors.Is(err, sentinel) {
			continue
		}
		if i := strings.Index(msg, sentinel.Error()); i >= 0 {
			return msg[i:]
		}
		return sentinel.Error()
	}
	return msg
}

// WriteError пишет ответ с кодом и телом, соответствующими ошибке.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	w.WriteHeader(HTTPStatus(err))
	render.JSON(w, r, ErrorFrom(err))
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at least %s characters", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s characters", err.Field(), err.Param()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
