package infra

import (
	"errors"
	"fmt"
	"net/smtp"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/config"

	"github.com/jordan-wright/email"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// ErrSMTPNoDisponible is returned while the breaker is open or when no
// SMTP host is configured.
var ErrSMTPNoDisponible = errors.New("mailer: smtp no disponible")

// Mailer wraps SMTP configuration for sending emails with PDF attachments.
// Sends go through a circuit breaker so a dead relay fails fast instead of
// stalling every worker on dial timeouts.
type Mailer struct {
	host     string
	user     string
	password string
	addr     string
	cb       *gobreaker.CircuitBreaker
	send     func(e *email.Email, addr string, auth smtp.Auth) error
}

func NewMailer(cfg *config.Config) *Mailer {
	m := &Mailer{
		host:     cfg.SMTPHost,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
		addr:     fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
	m.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "smtp",
		MaxRequests: 1,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("mailer: circuit breaker state changed")
		},
	})
	return m
}

// Configurado reports whether an SMTP host was given.
func (m *Mailer) Configurado() bool { return m != nil && m.host != "" }

// Estado exposes the breaker state for health output.
func (m *Mailer) Estado() string {
	if !m.Configurado() {
		return "disabled"
	}
	return m.cb.State().String()
}

// SendComprobante sends a PDF receipt to the customer email.
func (m *Mailer) SendComprobante(to, subject, body, pdfPath string) error {
	if !m.Configurado() {
		return ErrSMTPNoDisponible
	}
	e := email.NewEmail()
	e.From = m.user
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	if pdfPath != "" {
		if _, err := e.AttachFile(pdfPath); err != nil {
			return fmt.Errorf("mailer: attach PDF: %w", err)
		}
	}

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}
	_, err := m.cb.Execute(func() (interface{}, error) {
		return nil, m.send(e, m.addr, auth)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrSMTPNoDisponible, err)
	}
	return err
}
