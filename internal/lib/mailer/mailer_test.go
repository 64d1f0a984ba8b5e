package mailer

import (
	"bytes"
	"errors"
	"testing"

	mail "github.com/go-mail/mail/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/conference-registration/internal/config"
)

type captureDialer struct {
	sent []*mail.Message
	err  error
}

func (d *captureDialer) DialAndSend(m ...*mail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func render(t *testing.T, m *mail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestNew_RequiresHostAndFrom(t *testing.T) {
	_, err := New(config.SMTP{Host: "smtp.example.com"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = New(config.SMTP{From: "no-reply@example.com"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	m, err := New(config.SMTP{Host: "smtp.example.com", Port: 587, From: "no-reply@example.com"})
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestSend(t *testing.T) {
	d := &captureDialer{}
	m := NewWithDialer("Conference <no-reply@example.com>", d)

	err := m.Send(Message{
		To:      []string{"ana@example.com"},
		Subject: "Payment verified",
		Text:    "Your payment receipt has been verified.",
	})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	raw := render(t, d.sent[0])
	assert.Contains(t, raw, "Subject: Payment verified")
	assert.Contains(t, raw, "To: ana@example.com")
	assert.Contains(t, raw, "text/plain")
	assert.Contains(t, raw, "Your payment receipt has been verified.")
}

func TestSend_Alternative(t *testing.T) {
	d := &captureDialer{}
	m := NewWithDialer("no-reply@example.com", d)

	require.NoError(t, m.Send(Message{
		To:      []string{"ana@example.com"},
		Subject: "Abstract approved",
		Text:    "approved",
		HTML:    "<p>approved</p>",
	}))
	raw := render(t, d.sent[0])
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "text/html")
}

func TestSend_NoRecipients(t *testing.T) {
	d := &captureDialer{}
	m := NewWithDialer("no-reply@example.com", d)

	require.NoError(t, m.Send(Message{Subject: "nobody"}))
	assert.Empty(t, d.sent)
}

func TestSend_DialError(t *testing.T) {
	d := &captureDialer{err: errors.New("connection refused")}
	m := NewWithDialer("no-reply@example.com", d)

	err := m.Send(Message{To: []string{"ana@example.com"}, Subject: "x", Text: "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mailer.Send")
}
