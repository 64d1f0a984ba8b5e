// Package models содержит доменные структуры участника конференции:
// учётную запись, профиль, роли и заявки (оплата, тезисы),
// а также представления для консоли администратора.
package models

import "time"

// TicketType — категория билета участника.
type TicketType string

const (
	TicketStudent TicketType = "student"
	TicketAdult   TicketType = "adult"
)

// Role — роль пользователя. Роли только добавляются, понижения нет.
type Role string

const (
	RoleParticipant Role = "participant"
	RoleAdmin       Role = "admin"
)

// User представляет учётную запись (email + хэш пароля).
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile — публичные данные участника.
type Profile struct {
	ID          string      `json:"id"`
	FullName    string      `json:"full_name"`
	Email       string      `json:"email"`
	Affiliation *string     `json:"affiliation,omitempty"`
	TicketType  *TicketType `json:"ticket_type,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// UserView — профиль вместе с выданными ролями, для списка пользователей.
type UserView struct {
	Profile
	Roles []Role `json:"roles"`
}

// IsAdmin сообщает, выдана ли пользователю роль admin.
func (u UserView) IsAdmin() bool {
	for _, r := range u.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}

// Actor — личность, от имени которой выполняется операция.
// Передаётся явно в каждый сервисный вызов.
type Actor struct {
	UserID string
	Email  string
	Roles  []Role
}

// IsAdmin сообщает, есть ли у действующего лица роль admin.
func (a Actor) IsAdmin() bool {
	for _, r := range a.Roles {
		if r == RoleAdmin {
			return true
		}
	}
	return false
}
