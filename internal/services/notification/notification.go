// Package notification отправляет участникам письма о решениях проверяющего.
package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/conference-registration/internal/lib/mailer"
	"github.com/magabrotheeeer/conference-registration/internal/lib/sl"
	"github.com/magabrotheeeer/conference-registration/internal/metrics"
	"github.com/magabrotheeeer/conference-registration/internal/models"
	"github.com/magabrotheeeer/conference-registration/internal/workflow"
)

// ErrUnsupportedDecision — событие, для которого нет шаблона письма.
var ErrUnsupportedDecision = errors.New("unsupported decision")

// Sender отправляет письмо.
type Sender interface {
	Send(msg mailer.Message) error
}

// Service превращает события ReviewDecision в письма.
type Service struct {
	sender  Sender
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewService создаёт сервис уведомлений.
func NewService(sender Sender, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		sender:  sender,
		metrics: m,
		log:     log,
	}
}

// HandleDecision обрабатывает тело сообщения из очереди. Нечитаемые и
// неподдерживаемые события логируются и подтверждаются, чтобы не
// возвращаться в очередь бесконечно. Ошибка отправки возвращается вызывающему.
func (s *Service) HandleDecision(body []byte) error {
	const op = "notification.HandleDecision"

	var d models.ReviewDecision
	if err := json.Unmarshal(body, &d); err != nil {
		s.metrics.Notifications.WithLabelValues(metrics.ResultRejected).Inc()
		s.log.Error("failed to unmarshal review decision", slog.String("op", op), sl.Err(err))
		return nil
	}
	if d.Email == "" {
		s.metrics.Notifications.WithLabelValues(metrics.ResultRejected).Inc()
		s.log.Error("review decision without recipient", slog.String("op", op), slog.String("submission_id", d.SubmissionID))
		return nil
	}

	msg, err := Render(d)
	if err != nil {
		s.metrics.Notifications.WithLabelValues(metrics.ResultRejected).Inc()
		s.log.Error("failed to render notification", slog.String("op", op), sl.Err(err))
		return nil
	}

	if err := s.sender.Send(msg); err != nil {
		s.metrics.Notifications.WithLabelValues(metrics.ResultFailed).Inc()
		s.log.Error("failed to send notification",
			slog.String("op", op),
			slog.String("submission_id", d.SubmissionID),
			sl.Err(err),
		)
		return fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.Notifications.WithLabelValues(metrics.ResultOK).Inc()
	s.log.Info("notification sent",
		slog.String("domain", string(d.Domain)),
		slog.String("submission_id", d.SubmissionID),
		slog.String("status", string(d.Status)),
	)
	return nil
}

// Render собирает письмо по домену и итоговому статусу.
func Render(d models.ReviewDecision) (mailer.Message, error) {
	name := strings.TrimSpace(d.FullName)
	if name == "" {
		name = "participant"
	}

	var subject string
	var b strings.Builder
	fmt.Fprintf(&b, "Hello, %s!\n\n", name)

	switch {
	case d.Domain == workflow.DomainPayment && d.Status == workflow.StatusVerified:
		subject = "Your payment has been verified"
		b.WriteString("Your registration payment has been verified.\n")
		b.WriteString("You can now submit your abstract from the dashboard.\n")
	case d.Domain == workflow.DomainPayment && d.Status == workflow.StatusRejected:
		subject = "Your payment receipt was rejected"
		b.WriteString("Unfortunately we could not verify your payment receipt.\n")
		if d.Notes != "" {
			fmt.Fprintf(&b, "\nReason: %s\n", d.Notes)
		}
		b.WriteString("\nPlease upload a new receipt from the dashboard.\n")
	case d.Domain == workflow.DomainAbstract && d.Status == workflow.StatusApproved:
		subject = "Your abstract has been approved"
		fmt.Fprintf(&b, "Your abstract %q has been approved.\n", d.Title)
		if d.Notes != "" {
			fmt.Fprintf(&b, "\nReviewer notes: %s\n", d.Notes)
		}
	case d.Domain == workflow.DomainAbstract && d.Status == workflow.StatusRejected:
		subject = "Your abstract was not accepted"
		fmt.Fprintf(&b, "Your abstract %q was not accepted.\n", d.Title)
		if d.Notes != "" {
			fmt.Fprintf(&b, "\nReviewer notes: %s\n", d.Notes)
		}
		b.WriteString("\nYou may revise it and submit again from the dashboard.\n")
	default:
		return mailer.Message{}, fmt.Errorf("%w: %s %s", ErrUnsupportedDecision, d.Domain, d.Status)
	}

	return mailer.Message{
		To:      []string{d.Email},
		Subject: subject,
		Text:    b.String(),
	}, nil
}
