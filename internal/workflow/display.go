package workflow

import "strings"

// Tone — цветовая группа бейджа в интерфейсе.
type Tone string

const (
	ToneMuted   Tone = "muted"
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneDanger  Tone = "danger"
)

// Badge — отображаемое представление состояния.
type Badge struct {
	Status Status `json:"status"`
	Label  string `json:"label"`
	Tone   Tone   `json:"tone"`
}

// BadgeFor возвращает бейдж для любого состояния. Неизвестное состояние
// отображается как есть, с нейтральным тоном.
func BadgeFor(d Domain, s Status) Badge {
	switch s {
	case StatusNotUploaded:
		return Badge{Status: s, Label: "Not Uploaded", Tone: ToneMuted}
	case StatusPending:
		if d == DomainPayment {
			return Badge{Status: s, Label: "Pending Verification", Tone: ToneInfo}
		}
		return Badge{Status: s, Label: "Under Review", Tone: ToneInfo}
	case StatusVerified:
		return Badge{Status: s, Label: "Verified", Tone: ToneSuccess}
	case StatusApproved:
		return Badge{Status: s, Label: "Approved", Tone: ToneSuccess}
	case StatusRejected:
		return Badge{Status: s, Label: "Rejected", Tone: ToneDanger}
	}
	return Badge{Status: s, Label: string(s), Tone: ToneMuted}
}

// Matches выполняет регистронезависимый поиск подстроки по набору полей.
// Пустой запрос совпадает со всем.
func Matches(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
