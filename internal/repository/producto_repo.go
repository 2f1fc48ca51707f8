package repository

import (
	"context"
	"strings"

	"github.com/darielruizg/Puntodeventa/internal/dto"
	"github.com/darielruizg/Puntodeventa/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via in-memory stubs.
//
// Methods taking tx run on that transaction when it is non-nil and on the
// repository's own connection otherwise.
type ProductoRepository interface {
	Create(ctx context.Context, tx *gorm.DB, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Producto, error)
	FindBySKU(ctx context.Context, tx *gorm.DB, sku string) (*model.Producto, error)
	List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error)
	ListAll(ctx context.Context) ([]model.Producto, error)
	// ListStockBajo returns products with stock < umbral, lowest first.
	ListStockBajo(ctx context.Context, umbral int) ([]model.Producto, error)
	Update(ctx context.Context, tx *gorm.DB, p *model.Producto) error
	Delete(ctx context.Context, id uuid.UUID) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) DB() *gorm.DB { return r.db }

func (r *productoRepo) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

func (r *productoRepo) Create(ctx context.Context, tx *gorm.DB, p *model.Producto) error {
	return r.conn(ctx, tx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	return &p, err
}

func (r *productoRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Producto, error) {
	var productos []model.Producto
	if len(ids) == 0 {
		return productos, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("nombre ASC").Find(&productos).Error
	return productos, err
}

// FindBySKU locks the row (SELECT ... FOR UPDATE) when called inside a
// postgres transaction, so two sales of the same SKU decrement in turn.
// SQLite serializes writers on its own.
func (r *productoRepo) FindBySKU(ctx context.Context, tx *gorm.DB, sku string) (*model.Producto, error) {
	var p model.Producto
	q := r.conn(ctx, tx)
	if tx != nil && q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Where("sku = ?", sku).First(&p).Error
	return &p, err
}

func (r *productoRepo) List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Producto{})

	if filter.Q != "" {
		// LOWER + LIKE instead of ILIKE so the same query runs on SQLite.
		like := "%" + strings.ToLower(filter.Q) + "%"
		q = q.Where("LOWER(nombre) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("nombre ASC").Limit(filter.Limit).Offset(offset).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) ListAll(ctx context.Context) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).Order("nombre ASC").Find(&productos).Error
	return productos, err
}

func (r *productoRepo) ListStockBajo(ctx context.Context, umbral int) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).Where("stock < ?", umbral).
		Order("stock ASC").Order("nombre ASC").
		Find(&productos).Error
	return productos, err
}

func (r *productoRepo) Update(ctx context.Context, tx *gorm.DB, p *model.Producto) error {
	// Select("*") so zero values (stock 0, nil breakdown) are written too.
	return r.conn(ctx, tx).Model(p).Select("*").Omit("created_at").Updates(p).Error
}

func (r *productoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Producto{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
