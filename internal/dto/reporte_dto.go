package dto

import "github.com/shopspring/decimal"

// ReporteFilter is bound from the query string of GET /v1/reportes/ventas.
type ReporteFilter struct {
	Periodo string `form:"periodo,default=dia" validate:"oneof=dia mes anio"`
	Ancla   string `form:"ancla"` // YYYY-MM-DD | YYYY-MM | YYYY; empty = today
}

type TotalPorMetodo struct {
	MetodoPago string          `json:"metodo_pago"`
	Cantidad   int             `json:"cantidad"`
	Total      decimal.Decimal `json:"total"`
}

type ResumenVentas struct {
	Cantidad  int              `json:"cantidad"`
	Total     decimal.Decimal  `json:"total"`
	PorMetodo []TotalPorMetodo `json:"por_metodo"`
}

type ReporteVentasResponse struct {
	Periodo string          `json:"periodo"`
	Desde   string          `json:"desde"`
	Hasta   string          `json:"hasta"`
	Resumen ResumenVentas   `json:"resumen"`
	Ventas  []VentaResponse `json:"ventas"`
}
