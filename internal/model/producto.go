package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockDetalle is the three-way location breakdown of a product's stock.
// Stored as a JSON column; nil means no breakdown was ever recorded.
type StockDetalle struct {
	Tienda     int `json:"tienda"`
	Bodega     int `json:"bodega"`
	Exhibicion int `json:"exhibicion"`
}

// Total returns tienda + bodega + exhibicion.
func (d StockDetalle) Total() int { return d.Tienda + d.Bodega + d.Exhibicion }

// Producto is a catalog entry. Stock is the authoritative total and must
// equal StockDetalle.Total() whenever StockDetalle is present.
type Producto struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SKU          string          `gorm:"uniqueIndex;not null"`
	Nombre       string          `gorm:"index;not null"`
	Precio       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock        int             `gorm:"not null;default:0"`
	StockDetalle *StockDetalle   `gorm:"serializer:json;type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// BeforeCreate assigns the surrogate key. Done here rather than with a
// database default so the embedded SQLite store behaves like Postgres.
func (p *Producto) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// DetalleEfectivo returns the breakdown, synthesizing {tienda: stock} when
// none was recorded.
func (p *Producto) DetalleEfectivo() StockDetalle {
	if p.StockDetalle != nil {
		return *p.StockDetalle
	}
	return StockDetalle{Tienda: p.Stock}
}
