package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type StockDetalle struct {
	Tienda     int `json:"tienda"     validate:"min=0"`
	Bodega     int `json:"bodega"     validate:"min=0"`
	Exhibicion int `json:"exhibicion" validate:"min=0"`
}

// CrearProductoRequest: SKU is generated when empty; Stock is ignored when
// StockDetalle is present.
type CrearProductoRequest struct {
	SKU          string           `json:"sku"           validate:"omitempty,max=64"`
	Nombre       string           `json:"nombre"        validate:"max=120"`
	Precio       *decimal.Decimal `json:"precio"`
	Stock        int              `json:"stock"`
	StockDetalle *StockDetalle    `json:"stock_detalle" validate:"omitempty"`
}

// ActualizarProductoRequest is a partial update: nil fields are left alone.
type ActualizarProductoRequest struct {
	SKU          *string          `json:"sku"           validate:"omitempty,min=1,max=64"`
	Nombre       *string          `json:"nombre"        validate:"omitempty,min=1,max=120"`
	Precio       *decimal.Decimal `json:"precio"`
	Stock        *int             `json:"stock"`
	StockDetalle *StockDetalle    `json:"stock_detalle" validate:"omitempty"`
}

// ImportarProductoRecord is one bulk upsert row, already parsed from a file.
type ImportarProductoRecord struct {
	SKU          string
	Nombre       string
	Precio       decimal.Decimal
	Stock        int
	StockDetalle *StockDetalle
}

type EtiquetasRequest struct {
	IDs    []string `json:"ids"    validate:"required,min=1,dive,uuid"`
	Copias int      `json:"copias" validate:"omitempty,min=1,max=50"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductoFilter struct {
	Q     string `form:"q"`
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	Nombre       string          `json:"nombre"`
	Precio       decimal.Decimal `json:"precio"`
	Stock        int             `json:"stock"`
	StockDetalle *StockDetalle   `json:"stock_detalle"`
}

type ProductoListResponse struct {
	Data       []ProductoResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

type ImportarResultado struct {
	Creados      int `json:"creados"`
	Actualizados int `json:"actualizados"`
}

type MovimientoStockResponse struct {
	ID            string  `json:"id"`
	SKU           string  `json:"sku"`
	Tipo          string  `json:"tipo"`
	Cantidad      int     `json:"cantidad"`
	StockAnterior int     `json:"stock_anterior"`
	StockNuevo    int     `json:"stock_nuevo"`
	Motivo        string  `json:"motivo"`
	ReferenciaID  *string `json:"referencia_id"`
	CreatedAt     string  `json:"created_at"`
}
