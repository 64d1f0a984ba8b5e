package models

import (
	"time"

	"github.com/magabrotheeeer/conference-registration/internal/workflow"
)

// Payment — заявка на подтверждение оплаты (одна на пользователя).
// ReceiptURL пуст тогда и только тогда, когда статус not_uploaded.
type Payment struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	Status            workflow.Status `json:"receipt_status"`
	ReceiptURL        *string         `json:"receipt_url"`
	ReceiptUploadedAt *time.Time      `json:"receipt_uploaded_at"`
	RejectionReason   *string         `json:"receipt_rejection_reason"`
	VerifiedAt        *time.Time      `json:"verified_at"`
	VerifiedBy        *string         `json:"verified_by"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Abstract — тезисы доклада (одна запись на пользователя, создаётся при первой отправке).
type Abstract struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id"`
	Title         string            `json:"title"`
	Authors       string            `json:"authors"`
	Affiliation   string            `json:"affiliation"`
	Subtheme      workflow.Subtheme `json:"subtheme"`
	Status        workflow.Status   `json:"abstract_status"`
	AbstractURL   *string           `json:"abstract_url"`
	UploadedAt    *time.Time        `json:"abstract_uploaded_at"`
	ReviewedAt    *time.Time        `json:"reviewed_at"`
	ReviewedBy    *string           `json:"reviewed_by"`
	ReviewerNotes *string           `json:"reviewer_notes"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Owner содержит данные владельца заявки из profiles.
type Owner struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// PaymentView описывает строку консоли проверки оплат.
type PaymentView struct {
	Payment
	Owner Owner          `json:"profiles"`
	Badge workflow.Badge `json:"badge"`
}

// AbstractView описывает строку консоли проверки тезисов.
type AbstractView struct {
	Abstract
	Owner Owner          `json:"profiles"`
	Badge workflow.Badge `json:"badge"`
}

// UploadRecord записывается в строку заявки при загрузке файла.
type UploadRecord struct {
	UserID     string
	URL        string
	Status     workflow.Status
	UploadedAt time.Time
}

// Review — решение проверяющего, записываемое атомарно со статусом.
type Review struct {
	SubmissionID string
	Status       workflow.Status
	Notes        *string // причина отклонения (оплата) или заметки (тезисы)
	ReviewerID   string
	ReviewedAt   time.Time
	// обновлять строку только в состоянии pending
	RequirePending bool
}

// ReviewDecision — событие о решении проверяющего, публикуется в RabbitMQ.
type ReviewDecision struct {
	Domain       workflow.Domain `json:"domain"`
	SubmissionID string          `json:"submission_id"`
	UserID       string          `json:"user_id"`
	Email        string          `json:"email"`
	FullName     string          `json:"full_name"`
	Status       workflow.Status `json:"status"`
	Notes        string          `json:"notes,omitempty"`
	Title        string          `json:"title,omitempty"`
	ReviewedAt   time.Time       `json:"reviewed_at"`
}

// OverviewStats — сводка для главной страницы консоли администратора.
type OverviewStats struct {
	TotalUsers       int `json:"total_users"`
	TotalPayments    int `json:"total_payments"`
	TotalAbstracts   int `json:"total_abstracts"`
	PendingPayments  int `json:"pending_payments"`
	PendingAbstracts int `json:"pending_abstracts"`
}

// PendingReviews возвращает число заявок, ожидающих проверки.
func (s OverviewStats) PendingReviews() int {
	return s.PendingPayments + s.PendingAbstracts
}

// Dashboard — состояние личного кабинета участника.
type Dashboard struct {
	Profile       Profile         `json:"profile"`
	Payment       *Payment        `json:"payment"`
	PaymentBadge  workflow.Badge  `json:"payment_badge"`
	Abstract      *Abstract       `json:"abstract,omitempty"`
	AbstractBadge *workflow.Badge `json:"abstract_badge,omitempty"`
	// допуск на момент чтения
	CanSubmitAbstract bool `json:"can_submit_abstract"`
}
