package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FormatoFecha is the layout of CierreDiario.Fecha.
const FormatoFecha = "2006-01-02"

// CierreDiario is the cash record of one calendar day, keyed by "YYYY-MM-DD".
// Created lazily the first time an opening float is saved. FondoInicial stays
// editable until Cerrado is set.
type CierreDiario struct {
	Fecha           string           `gorm:"type:varchar(10);primaryKey"`
	FondoInicial    decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	EfectivoContado *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Cerrado         bool             `gorm:"not null;default:false"`
	CerradoAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName keeps the Spanish plural.
func (CierreDiario) TableName() string { return "cierres_diarios" }
