package repository

import (
	"context"

	"github.com/darielruizg/Puntodeventa/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CierreRepository interface {
	FindByFecha(ctx context.Context, fecha string) (*model.CierreDiario, error)
	// Upsert inserts the row or overwrites every column of the existing one.
	Upsert(ctx context.Context, c *model.CierreDiario) error
}

type cierreRepo struct{ db *gorm.DB }

func NewCierreRepository(db *gorm.DB) CierreRepository { return &cierreRepo{db: db} }

func (r *cierreRepo) FindByFecha(ctx context.Context, fecha string) (*model.CierreDiario, error) {
	var c model.CierreDiario
	err := r.db.WithContext(ctx).Where("fecha = ?", fecha).First(&c).Error
	return &c, err
}

func (r *cierreRepo) Upsert(ctx context.Context, c *model.CierreDiario) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "fecha"}},
		DoUpdates: clause.AssignmentColumns([]string{"fondo_inicial", "efectivo_contado", "cerrado", "cerrado_at", "updated_at"}),
	}).Create(c).Error
}
