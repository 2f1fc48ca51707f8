package repository

import (
	"context"

	"github.com/darielruizg/Puntodeventa/internal/model"

	"gorm.io/gorm"
)

type MovimientoStockRepository interface {
	CreateTx(tx *gorm.DB, m *model.MovimientoStock) error
	ListBySKU(ctx context.Context, sku string, limit int) ([]model.MovimientoStock, error)
}

type movimientoStockRepo struct{ db *gorm.DB }

func NewMovimientoStockRepository(db *gorm.DB) MovimientoStockRepository {
	return &movimientoStockRepo{db: db}
}

func (r *movimientoStockRepo) CreateTx(tx *gorm.DB, m *model.MovimientoStock) error {
	if tx == nil {
		tx = r.db
	}
	return tx.Create(m).Error
}

func (r *movimientoStockRepo) ListBySKU(ctx context.Context, sku string, limit int) ([]model.MovimientoStock, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	var movimientos []model.MovimientoStock
	err := r.db.WithContext(ctx).Where("sku = ?", sku).
		Order("created_at DESC").Limit(limit).
		Find(&movimientos).Error
	return movimientos, err
}
