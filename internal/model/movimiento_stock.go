package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MovimientoVenta       = "venta"
	MovimientoAjuste      = "ajuste"
	MovimientoImportacion = "importacion"
	MovimientoAlta        = "alta"
)

// MovimientoStock registra cada cambio de stock en un producto.
// Se crea al vender, ajustar manualmente o importar una planilla.
// Keyed by SKU so the trail survives deletion of the product.
type MovimientoStock struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	SKU           string    `gorm:"not null;index"`
	Tipo          string    `gorm:"not null"`
	Cantidad      int       `gorm:"not null"` // positive = entrada, negative = salida
	StockAnterior int       `gorm:"not null"`
	StockNuevo    int       `gorm:"not null"`
	Motivo        string
	ReferenciaID  *uuid.UUID `gorm:"type:uuid"` // venta_id when Tipo == "venta"
	CreatedAt     time.Time
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }

func (m *MovimientoStock) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
