package worker

// email_worker.go
// Processes ticket_email jobs from QueueEmail: renders the receipt of a
// committed sale to PDF and mails it to the address given at checkout.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// VentaLoader is the slice of the sale repository the worker needs.
type VentaLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
}

// Sender delivers a mail with an optional attachment. *infra.Mailer
// satisfies it.
type Sender interface {
	SendComprobante(to, subject, body, pdfPath string) error
}

// TicketRenderer writes the receipt PDF, with dates in loc, and returns its
// path.
type TicketRenderer func(venta *model.Venta, negocio, storagePath string, loc *time.Location) (string, error)

// EmailWorker processes ticket email jobs from QueueEmail.
type EmailWorker struct {
	ventas      VentaLoader
	mailer      Sender
	render      TicketRenderer
	negocio     string
	storagePath string
	loc         *time.Location
}

// NewEmailWorker creates an EmailWorker with the provided SMTP mailer. loc
// is the store's zone; nil means time.Local.
func NewEmailWorker(ventas VentaLoader, mailer Sender, render TicketRenderer, negocio, storagePath string, loc *time.Location) *EmailWorker {
	if loc == nil {
		loc = time.Local
	}
	return &EmailWorker{
		ventas:      ventas,
		mailer:      mailer,
		render:      render,
		negocio:     negocio,
		storagePath: storagePath,
		loc:         loc,
	}
}

// Process sends the receipt of the sale as a PDF attachment.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload TicketEmailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return permanente("payload invalido: %v", err)
	}
	if payload.ToEmail == "" {
		log.Warn().Str("venta_id", payload.VentaID).Msg("email_worker: empty to_email — skipping")
		return nil
	}
	id, err := uuid.Parse(payload.VentaID)
	if err != nil {
		return permanente("venta_id invalido %q", payload.VentaID)
	}

	venta, err := w.ventas.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return permanente("venta %s no existe", id)
	}
	if err != nil {
		return fmt.Errorf("email_worker: load venta: %w", err)
	}

	pdfPath, err := w.render(venta, w.negocio, w.storagePath, w.loc)
	if err != nil {
		return fmt.Errorf("email_worker: render ticket: %w", err)
	}

	subject := fmt.Sprintf("%s - Ticket #%s", w.negocio, venta.ID.String()[:8])
	body := fmt.Sprintf("Gracias por su compra.\nTotal: $%s\nAdjuntamos su ticket.", venta.Total.StringFixed(2))
	if err := w.mailer.SendComprobante(payload.ToEmail, subject, body, pdfPath); err != nil {
		return fmt.Errorf("email_worker: send: %w", err)
	}
	log.Info().Str("to", payload.ToEmail).Str("venta_id", payload.VentaID).Msg("email_worker: ticket sent")
	return nil
}
