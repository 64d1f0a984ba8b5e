package workflow

import (
	"fmt"
	"strings"
)

const mib = 1 << 20

// FileRules — ограничения на загружаемый файл для домена.
type FileRules struct {
	MaxBytes     int64
	AllowedTypes []string // MIME-типы
}

var rules = map[Domain]FileRules{
	DomainPayment: {
		MaxBytes:     5 * mib,
		AllowedTypes: []string{"image/jpeg", "image/png", "application/pdf"},
	},
	DomainAbstract: {
		MaxBytes: 10 * mib,
		AllowedTypes: []string{
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		},
	},
}

// RulesFor возвращает ограничения для домена.
func RulesFor(d Domain) FileRules {
	return rules[d]
}

// Allows сообщает, входит ли MIME-тип в список разрешённых.
// Параметры вида "; charset=..." отбрасываются, image/jpg считается image/jpeg.
func (r FileRules) Allows(contentType string) bool {
	ct := normalizeType(contentType)
	for _, t := range r.AllowedTypes {
		if t == ct {
			return true
		}
	}
	return false
}

func normalizeType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	if ct == "image/jpg" || ct == "image/pjpeg" {
		return "image/jpeg"
	}
	return ct
}

// ValidateFile проверяет тип и размер файла до любых сетевых вызовов.
func ValidateFile(d Domain, contentType string, size int64) error {
	r, ok := rules[d]
	if !ok {
		return fmt.Errorf("%w: unknown domain %q", ErrInvalidFileType, d)
	}
	if !r.Allows(contentType) {
		return fmt.Errorf("%w: %s is not accepted for %s", ErrInvalidFileType, contentType, d)
	}
	if size > r.MaxBytes {
		return fmt.Errorf("%w: %d bytes, limit is %d MB", ErrFileTooLarge, size, r.MaxBytes/mib)
	}
	return nil
}

// Subtheme — тематическое направление конференции.
type Subtheme string

const (
	SubthemeGreenTechnology  Subtheme = "green_technology"
	SubthemeSTEMEducation    Subtheme = "stem_education"
	SubthemeEntrepreneurship Subtheme = "entrepreneurship"
)

// Valid сообщает, является ли значение одним из трёх направлений.
func (s Subtheme) Valid() bool {
	switch s {
	case SubthemeGreenTechnology, SubthemeSTEMEducation, SubthemeEntrepreneurship:
		return true
	}
	return false
}

// AbstractMeta — метаданные тезисов из формы отправки.
type AbstractMeta struct {
	Title       string
	Authors     string
	Affiliation string
	Subtheme    Subtheme
}

// Trimmed возвращает копию с обрезанными пробелами.
func (m AbstractMeta) Trimmed() AbstractMeta {
	return AbstractMeta{
		Title:       strings.TrimSpace(m.Title),
		Authors:     strings.TrimSpace(m.Authors),
		Affiliation: strings.TrimSpace(m.Affiliation),
		Subtheme:    Subtheme(strings.TrimSpace(string(m.Subtheme))),
	}
}

// ValidateAbstractMeta требует заполненности всех четырёх полей.
func ValidateAbstractMeta(m AbstractMeta) error {
	m = m.Trimmed()
	var missing []string
	if m.Title == "" {
		missing = append(missing, "title")
	}
	if m.Authors == "" {
		missing = append(missing, "authors")
	}
	if m.Affiliation == "" {
		missing = append(missing, "affiliation")
	}
	if m.Subtheme == "" {
		missing = append(missing, "subtheme")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	if !m.Subtheme.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSubtheme, m.Subtheme)
	}
	return nil
}

// ValidateReason требует непустую причину отклонения.
func ValidateReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return ErrMissingReason
	}
	return nil
}
