package upload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// memoryLimit — часть multipart-формы, хранимая в памяти, остальное уходит во временные файлы.
const memoryLimit = 1 << 20

var (
	ErrNoFile   = errors.New("no file in form")
	ErrTooLarge = errors.New("request body too large")
)

// ParseForm разбирает multipart-форму, ограничивая тело запроса maxBytes.
func ParseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	const op = "upload.ParseForm"
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%s: %w: limit is %d bytes", op, ErrTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FormFile открывает файл из уже разобранной формы и определяет его тип.
// Закрыть нужно возвращённый io.Closer.
func FormFile(r *http.Request, field string) (*File, io.Closer, error) {
	const op = "upload.FormFile"
	f, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, fmt.Errorf("%s: %w: %s", op, ErrNoFile, field)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	inspected, err := Inspect(f, header.Filename, header.Size)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return &inspected, f, nil
}
