// Package thumbnail строит превью квитанций для консоли проверки.
package thumbnail

import (
	"bytes"
	"fmt"
	"io"

	"github.com/disintegration/imaging"
)

// DefaultWidth — ширина превью по умолчанию.
const DefaultWidth = 320

// Suffix добавляется к ключу объекта квитанции для ключа превью.
const Suffix = ".thumb.jpg"

// Make декодирует изображение, при необходимости уменьшает его до maxWidth
// с сохранением пропорций и кодирует в JPEG.
func Make(r io.Reader, maxWidth int) ([]byte, error) {
	const op = "thumbnail.Make"
	if maxWidth <= 0 {
		maxWidth = DefaultWidth
	}
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return buf.Bytes(), nil
}

// Key возвращает ключ превью для ключа квитанции.
func Key(objectKey string) string {
	return objectKey + Suffix
}
