package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/dto"
	"github.com/darielruizg/Puntodeventa/internal/infra"
	"github.com/darielruizg/Puntodeventa/internal/model"
	"github.com/darielruizg/Puntodeventa/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := infra.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// ── Productos ─────────────────────────────────────────────────────────────────

func TestProductoRepo_UpdateEscribeCeros(t *testing.T) {
	db := newDB(t)
	repo := repository.NewProductoRepository(db)
	ctx := context.Background()

	p := &model.Producto{
		SKU: "779", Nombre: "Harina", Precio: decimal.NewFromInt(800), Stock: 6,
		StockDetalle: &model.StockDetalle{Tienda: 2, Bodega: 4},
	}
	require.NoError(t, repo.Create(ctx, nil, p))
	require.NotEqual(t, uuid.Nil, p.ID)

	p.Stock = 0
	p.Precio = decimal.Zero
	p.StockDetalle = nil
	require.NoError(t, repo.Update(ctx, nil, p))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock)
	assert.True(t, got.Precio.IsZero())
	assert.Nil(t, got.StockDetalle)
	assert.Equal(t, "Harina", got.Nombre)
}

func TestProductoRepo_DesgloseRoundTrip(t *testing.T) {
	db := newDB(t)
	repo := repository.NewProductoRepository(db)
	ctx := context.Background()

	p := &model.Producto{
		SKU: "D1", Nombre: "Detergente", Precio: decimal.RequireFromString("1250.50"), Stock: 9,
		StockDetalle: &model.StockDetalle{Tienda: 1, Bodega: 5, Exhibicion: 3},
	}
	require.NoError(t, repo.Create(ctx, nil, p))

	got, err := repo.FindBySKU(ctx, nil, "D1")
	require.NoError(t, err)
	require.NotNil(t, got.StockDetalle)
	assert.Equal(t, *p.StockDetalle, *got.StockDetalle)
	assert.Equal(t, "1250.5", got.Precio.String())
}

func TestProductoRepo_SKUUnico(t *testing.T) {
	db := newDB(t)
	repo := repository.NewProductoRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, nil, &model.Producto{SKU: "U", Nombre: "Uno"}))
	assert.Error(t, repo.Create(ctx, nil, &model.Producto{SKU: "U", Nombre: "Dos"}))
}

func TestProductoRepo_NoEncontrado(t *testing.T) {
	db := newDB(t)
	repo := repository.NewProductoRepository(db)
	ctx := context.Background()

	_, err := repo.FindBySKU(ctx, nil, "nada")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), gorm.ErrRecordNotFound)
}

func TestProductoRepo_ListYStockBajo(t *testing.T) {
	db := newDB(t)
	repo := repository.NewProductoRepository(db)
	ctx := context.Background()

	for _, p := range []model.Producto{
		{SKU: "A-1", Nombre: "Agua mineral", Stock: 10},
		{SKU: "B-1", Nombre: "Bizcochos", Stock: 2},
		{SKU: "C-1", Nombre: "Cafe", Stock: -3},
		{SKU: "AG-2", Nombre: "Agua tonica", Stock: 0},
	} {
		p := p
		require.NoError(t, repo.Create(ctx, nil, &p))
	}

	ps, total, err := repo.List(ctx, dto.ProductoFilter{Q: "AGUA", Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, ps, 1)
	assert.Equal(t, "Agua mineral", ps[0].Nombre)

	bajos, err := repo.ListStockBajo(ctx, 3)
	require.NoError(t, err)
	require.Len(t, bajos, 3)
	assert.Equal(t, "C-1", bajos[0].SKU)
	assert.Equal(t, "AG-2", bajos[1].SKU)
	assert.Equal(t, "B-1", bajos[2].SKU)

	todos, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, todos, 4)
}

func TestProductoRepo_TransaccionRevierte(t *testing.T) {
	db := newDB(t)
	repo := repository.NewProductoRepository(db)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.Create(ctx, tx, &model.Producto{SKU: "T", Nombre: "Temporal"}); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)

	_, err = repo.FindBySKU(ctx, nil, "T")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProductoRepo_FindBySKUBloqueaEnTransaccion(t *testing.T) {
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=127.0.0.1 user=pos dbname=pos sslmode=disable"}),
		&gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	var sqls []string
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:sql", func(d *gorm.DB) {
		sqls = append(sqls, d.Statement.SQL.String())
	}))
	repo := repository.NewProductoRepository(db)
	ctx := context.Background()

	_, _ = repo.FindBySKU(ctx, db, "779")
	_, _ = repo.FindBySKU(ctx, nil, "779")
	require.Len(t, sqls, 2)
	assert.Contains(t, sqls[0], "FOR UPDATE")
	assert.NotContains(t, sqls[1], "FOR UPDATE")
}

func TestProductoRepo_FindBySKUEnTransaccionSQLite(t *testing.T) {
	db := newDB(t)
	repo := repository.NewProductoRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, nil, &model.Producto{SKU: "L", Nombre: "Leche", Stock: 2}))

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		p, err := repo.FindBySKU(ctx, tx, "L")
		if err != nil {
			return err
		}
		p.Stock--
		return repo.Update(ctx, tx, p)
	}))
	p, err := repo.FindBySKU(ctx, nil, "L")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)
}

// ── Ventas ────────────────────────────────────────────────────────────────────

func TestVentaRepo_ListEntreInclusivo(t *testing.T) {
	db := newDB(t)
	repo := repository.NewVentaRepository(db)
	ctx := context.Background()
	loc := time.FixedZone("UTC-5", -5*3600)

	desde := time.Date(2026, 2, 28, 0, 0, 0, 0, loc)
	hasta := time.Date(2026, 2, 28, 23, 59, 59, 999_000_000, loc)

	nueva := func(f time.Time, total int64) *model.Venta {
		return &model.Venta{
			Fecha: f, Total: decimal.NewFromInt(total), MetodoPago: model.MetodoEfectivo,
			Items: []model.VentaItem{
				{Orden: 1, SKU: "B", Nombre: "Segundo", Precio: decimal.NewFromInt(1), Cantidad: 1},
				{Orden: 0, SKU: "A", Nombre: "Primero", Precio: decimal.NewFromInt(total - 1), Cantidad: 1},
			},
		}
	}
	for _, v := range []*model.Venta{
		nueva(hasta, 30),
		nueva(desde, 10),
		nueva(desde.Add(-time.Second), 99),
		nueva(hasta.Add(time.Millisecond), 99),
		nueva(time.Date(2026, 2, 28, 12, 0, 0, 0, loc), 20),
	} {
		require.NoError(t, repo.Create(ctx, nil, v))
	}

	ventas, err := repo.ListEntre(ctx, desde, hasta)
	require.NoError(t, err)
	require.Len(t, ventas, 3)
	assert.Equal(t, "10", ventas[0].Total.String())
	assert.Equal(t, "20", ventas[1].Total.String())
	assert.Equal(t, "30", ventas[2].Total.String())

	require.Len(t, ventas[0].Items, 2)
	assert.Equal(t, "A", ventas[0].Items[0].SKU)
	assert.Equal(t, "B", ventas[0].Items[1].SKU)
}

func TestVentaRepo_FindByID(t *testing.T) {
	db := newDB(t)
	repo := repository.NewVentaRepository(db)
	ctx := context.Background()

	v := &model.Venta{Fecha: time.Now(), Total: decimal.NewFromInt(5), MetodoPago: model.MetodoTarjeta,
		Items: []model.VentaItem{{SKU: "X", Nombre: "X", Precio: decimal.NewFromInt(5), Cantidad: 1}}}
	require.NoError(t, repo.Create(ctx, nil, v))

	got, err := repo.FindByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MetodoTarjeta, got.MetodoPago)
	assert.Len(t, got.Items, 1)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

// ── Cierres ───────────────────────────────────────────────────────────────────

func TestCierreRepo_Upsert(t *testing.T) {
	db := newDB(t)
	repo := repository.NewCierreRepository(db)
	ctx := context.Background()

	_, err := repo.FindByFecha(ctx, "2026-03-10")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.Upsert(ctx, &model.CierreDiario{Fecha: "2026-03-10", FondoInicial: decimal.NewFromInt(1000)}))
	require.NoError(t, repo.Upsert(ctx, &model.CierreDiario{Fecha: "2026-03-10", FondoInicial: decimal.NewFromInt(1500)}))

	c, err := repo.FindByFecha(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, "1500", c.FondoInicial.String())
	assert.False(t, c.Cerrado)
	assert.Nil(t, c.EfectivoContado)

	contado := decimal.NewFromInt(1490)
	ahora := time.Now()
	c.EfectivoContado = &contado
	c.Cerrado = true
	c.CerradoAt = &ahora
	require.NoError(t, repo.Upsert(ctx, c))

	c, err = repo.FindByFecha(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.True(t, c.Cerrado)
	require.NotNil(t, c.EfectivoContado)
	assert.Equal(t, "1490", c.EfectivoContado.String())

	var n int64
	require.NoError(t, db.Model(&model.CierreDiario{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

// ── Movimientos ───────────────────────────────────────────────────────────────

func TestMovimientoRepo_ListBySKU(t *testing.T) {
	db := newDB(t)
	repo := repository.NewMovimientoStockRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.CreateTx(nil, &model.MovimientoStock{
			SKU: "M", Tipo: model.MovimientoAjuste, Cantidad: i + 1, CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, repo.CreateTx(nil, &model.MovimientoStock{SKU: "OTRO", Tipo: model.MovimientoAlta, Cantidad: 1}))

	movs, err := repo.ListBySKU(ctx, "M", 2)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, 3, movs[0].Cantidad)
	assert.Equal(t, 2, movs[1].Cantidad)
}
