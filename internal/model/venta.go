package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment methods accepted at commit.
const (
	MetodoEfectivo      = "cash"
	MetodoTarjeta       = "card"
	MetodoTransferencia = "transfer"
	MetodoRappi         = "rappi"
)

// MetodosPago lists the payment methods in display order.
var MetodosPago = []string{MetodoEfectivo, MetodoTarjeta, MetodoTransferencia, MetodoRappi}

// Venta is an immutable sale. Total equals the sum of Precio*Cantidad over
// Items at commit time and is never recomputed.
type Venta struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Fecha      time.Time       `gorm:"not null;index"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MetodoPago string          `gorm:"type:varchar(20);not null;index"`

	Items []VentaItem `gorm:"foreignKey:VentaID"`
}

func (v *Venta) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// VentaItem is a line snapshot: Nombre and Precio are copied from the
// catalog at sale time and never re-derived. No foreign key to productos.
type VentaItem struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VentaID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Orden    int             `gorm:"not null"`
	SKU      string          `gorm:"not null"`
	Nombre   string          `gorm:"not null"`
	Precio   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Cantidad int             `gorm:"not null"`
}

func (i *VentaItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Subtotal returns Precio * Cantidad.
func (i VentaItem) Subtotal() decimal.Decimal {
	return i.Precio.Mul(decimal.NewFromInt(int64(i.Cantidad)))
}

// EtiquetaMetodo returns the Spanish label shown on receipts and exports.
func EtiquetaMetodo(m string) string {
	switch m {
	case MetodoEfectivo:
		return "Efectivo"
	case MetodoTarjeta:
		return "Tarjeta"
	case MetodoRappi:
		return "Rappi"
	case MetodoTransferencia:
		return "Transferencia"
	default:
		return m
	}
}
