package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ItemVentaRequest is a cart line as the terminal holds it: name and price
// are the snapshot that will be stored, not looked up again.
type ItemVentaRequest struct {
	SKU      string          `json:"sku"      validate:"required"`
	Nombre   string          `json:"nombre"   validate:"required"`
	Precio   decimal.Decimal `json:"precio"   validate:"min=0"`
	Cantidad int             `json:"cantidad" validate:"required,min=1"`
}

type RegistrarVentaRequest struct {
	Items      []ItemVentaRequest `json:"items"       validate:"dive"`
	MetodoPago string             `json:"metodo_pago"`
	// ClienteEmail: optional, when present the email worker mails the PDF receipt.
	ClienteEmail *string `json:"cliente_email" validate:"omitempty,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	SKU      string          `json:"sku"`
	Nombre   string          `json:"nombre"`
	Precio   decimal.Decimal `json:"precio"`
	Cantidad int             `json:"cantidad"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type VentaResponse struct {
	ID         string              `json:"id"`
	Fecha      string              `json:"fecha"`
	Items      []ItemVentaResponse `json:"items"`
	Total      decimal.Decimal     `json:"total"`
	MetodoPago string              `json:"metodo_pago"`
}
