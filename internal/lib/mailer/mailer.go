// Package mailer отправляет письма участникам через SMTP (go-mail).
package mailer

import (
	"crypto/tls"
	"errors"
	"fmt"

	mail "github.com/go-mail/mail/v2"

	"github.com/magabrotheeeer/conference-registration/internal/config"
)

// ErrNotConfigured возвращается, если не заданы host или from.
var ErrNotConfigured = errors.New("smtp not configured")

// Message — письмо одному или нескольким получателям.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Dialer — часть *mail.Dialer, которой пользуется Mailer.
type Dialer interface {
	DialAndSend(m ...*mail.Message) error
}

// Mailer собирает mail.Message и отправляет его через Dialer.
type Mailer struct {
	from   string
	dialer Dialer
}

// New создаёт Mailer с STARTTLS-диалером по настройкам SMTP.
// На портах 465 go-mail сам включает неявный TLS.
func New(cfg config.SMTP) (*Mailer, error) {
	const op = "mailer.New"
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	if cfg.SkipTLSVerify {
		d.StartTLSPolicy = mail.OpportunisticStartTLS
	} else {
		d.StartTLSPolicy = mail.MandatoryStartTLS
	}
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.SkipTLSVerify, //nolint:gosec // только для локального mailhog
		MinVersion:         tls.VersionTLS12,
	}
	return &Mailer{from: cfg.From, dialer: d}, nil
}

// NewWithDialer создаёт Mailer поверх произвольного Dialer.
func NewWithDialer(from string, d Dialer) *Mailer {
	return &Mailer{from: from, dialer: d}
}

// Send отправляет письмо. Пустой список получателей не ошибка.
func (m *Mailer) Send(msg Message) error {
	const op = "mailer.Send"
	if len(msg.To) == 0 {
		return nil
	}
	mm := mail.NewMessage()
	mm.SetHeader("From", m.from)
	mm.SetHeader("To", msg.To...)
	mm.SetHeader("Subject", msg.Subject)
	switch {
	case msg.Text != "" && msg.HTML != "":
		mm.SetBody("text/plain", msg.Text)
		mm.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		mm.SetBody("text/html", msg.HTML)
	default:
		mm.SetBody("text/plain", msg.Text)
	}
	if err := m.dialer.DialAndSend(mm); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
