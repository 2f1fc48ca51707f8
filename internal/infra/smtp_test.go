package infra

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/darielruizg/Puntodeventa/internal/config"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailer_NotConfigured(t *testing.T) {
	m := NewMailer(&config.Config{})
	assert.False(t, m.Configurado())
	assert.ErrorIs(t, m.SendComprobante("a@b.c", "s", "b", ""), ErrSMTPNoDisponible)
}

func TestMailer_SendsThroughBreaker(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "smtp.local", SMTPPort: 25, SMTPUser: "pos@local"})
	var got *email.Email
	var addr string
	m.send = func(e *email.Email, a string, _ smtp.Auth) error {
		got, addr = e, a
		return nil
	}

	require.NoError(t, m.SendComprobante("cliente@example.com", "Ticket", "Gracias", ""))
	require.NotNil(t, got)
	assert.Equal(t, "smtp.local:25", addr)
	assert.Equal(t, []string{"cliente@example.com"}, got.To)
	assert.Equal(t, "pos@local", got.From)
	assert.Equal(t, "closed", m.Estado())
}

func TestMailer_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "smtp.local", SMTPPort: 25})
	llamadas := 0
	m.send = func(*email.Email, string, smtp.Auth) error {
		llamadas++
		return errors.New("dial tcp: connection refused")
	}

	for i := 0; i < 3; i++ {
		err := m.SendComprobante("a@b.c", "s", "b", "")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrSMTPNoDisponible)
	}
	assert.Equal(t, "open", m.Estado())

	err := m.SendComprobante("a@b.c", "s", "b", "")
	assert.ErrorIs(t, err, ErrSMTPNoDisponible)
	assert.Equal(t, 3, llamadas)
}

func TestMailer_MissingAttachment(t *testing.T) {
	m := NewMailer(&config.Config{SMTPHost: "smtp.local", SMTPPort: 25})
	m.send = func(*email.Email, string, smtp.Auth) error { return nil }
	err := m.SendComprobante("a@b.c", "s", "b", "/no/existe/ticket.pdf")
	assert.Error(t, err)
}
