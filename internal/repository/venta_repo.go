package repository

import (
	"context"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VentaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	// ListEntre returns sales with desde <= fecha <= hasta, oldest first,
	// items in cart order.
	ListEntre(ctx context.Context, desde, hasta time.Time) ([]model.Venta, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error {
	if tx == nil {
		tx = r.db
	}
	// Fechas se guardan en UTC para que el rango sea comparable en ambos drivers.
	v.Fecha = v.Fecha.UTC()
	return tx.WithContext(ctx).Create(v).Error
}

func itemsOrdenados(db *gorm.DB) *gorm.DB { return db.Order("orden ASC") }

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Items", itemsOrdenados).Where("id = ?", id).First(&v).Error
	return &v, err
}

func (r *ventaRepo) ListEntre(ctx context.Context, desde, hasta time.Time) ([]model.Venta, error) {
	var ventas []model.Venta
	err := r.db.WithContext(ctx).
		Preload("Items", itemsOrdenados).
		Where("fecha >= ? AND fecha <= ?", desde.UTC(), hasta.UTC()).
		Order("fecha ASC").
		Find(&ventas).Error
	return ventas, err
}
