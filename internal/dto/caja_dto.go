package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// Amounts are pointers so an omitted field is rejected instead of read as 0.
type FijarFondoRequest struct {
	Monto *decimal.Decimal `json:"monto" validate:"required,min=0"`
}

type CerrarDiaRequest struct {
	EfectivoContado *decimal.Decimal `json:"efectivo_contado" validate:"required,min=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// CajaDiaResponse: FondoPorDefecto is true when no closing record exists yet
// and FondoInicial is the configured default.
type CajaDiaResponse struct {
	Fecha            string           `json:"fecha"`
	FondoInicial     decimal.Decimal  `json:"fondo_inicial"`
	FondoPorDefecto  bool             `json:"fondo_por_defecto"`
	VentasEfectivo   decimal.Decimal  `json:"ventas_efectivo"`
	EfectivoEsperado decimal.Decimal  `json:"efectivo_esperado"`
	EfectivoContado  *decimal.Decimal `json:"efectivo_contado"`
	Cerrado          bool             `json:"cerrado"`
}

type DesvioResponse struct {
	Monto         decimal.Decimal `json:"monto"`
	Porcentaje    decimal.Decimal `json:"porcentaje"`
	Clasificacion string          `json:"clasificacion"` // normal | advertencia | critico
}

type CierreResponse struct {
	CajaDiaResponse
	Desvio DesvioResponse `json:"desvio"`
}
