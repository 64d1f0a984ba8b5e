// Package upload определяет фактический тип загружаемого файла по содержимому.
//
// Заголовок Content-Type из multipart не используется: клиент может прислать
// что угодно, поэтому тип берётся из сигнатуры первых байт (mimetype).
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen — сколько байт читается для определения типа.
const sniffLen = 3072

// containers — контейнерные форматы, конкретный тип которых уточняется расширением.
var containers = map[string]map[string]string{
	"application/zip": {
		"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	},
	"application/x-ole-storage": {
		"doc": "application/msword",
	},
}

// File — загружаемый файл с определённым типом.
// Body отдаёт содержимое целиком, включая прочитанный для анализа заголовок.
type File struct {
	Name        string
	ContentType string
	Ext         string
	Size        int64
	Body        io.Reader
}

// Inspect читает начало r, определяет MIME-тип и расширение.
func Inspect(r io.Reader, name string, size int64) (File, error) {
	const op = "upload.Inspect"

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return File{}, fmt.Errorf("%s: %w", op, err)
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	contentType := baseType(detected.String())
	ext := strings.TrimPrefix(detected.Extension(), ".")
	nameExt := extension(name)

	if byExt, ok := containers[contentType]; ok {
		if ct, ok := byExt[nameExt]; ok {
			contentType = ct
			ext = nameExt
		}
	}
	if ext == "" {
		ext = nameExt
	}
	if ext == "" {
		ext = "bin"
	}

	return File{
		Name:        name,
		ContentType: contentType,
		Ext:         ext,
		Size:        size,
		Body:        io.MultiReader(bytes.NewReader(head), r),
	}, nil
}

func baseType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
