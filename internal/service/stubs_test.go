package service_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/dto"
	"github.com/darielruizg/Puntodeventa/internal/eventos"
	"github.com/darielruizg/Puntodeventa/internal/model"
	"github.com/darielruizg/Puntodeventa/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// stubProductoRepo is an in-memory ProductoRepository. It stores copies so a
// service only changes state through Create/Update, like the real store.
type stubProductoRepo struct {
	productos map[uuid.UUID]model.Producto
	failSKU   error // returned by FindBySKU when set
}

func newStubProductoRepo(ps ...model.Producto) *stubProductoRepo {
	r := &stubProductoRepo{productos: make(map[uuid.UUID]model.Producto)}
	for _, p := range ps {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		r.productos[p.ID] = p
	}
	return r
}

func (r *stubProductoRepo) Create(_ context.Context, _ *gorm.DB, p *model.Producto) error {
	for _, o := range r.productos {
		if o.SKU == p.SKU {
			return errors.New("duplicate sku")
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.productos[p.ID] = copiar(p)
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := copiar(&p)
	return &c, nil
}

func (r *stubProductoRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]model.Producto, error) {
	var out []model.Producto
	for _, id := range ids {
		if p, ok := r.productos[id]; ok {
			out = append(out, copiar(&p))
		}
	}
	return out, nil
}

func (r *stubProductoRepo) FindBySKU(_ context.Context, _ *gorm.DB, sku string) (*model.Producto, error) {
	if r.failSKU != nil {
		return nil, r.failSKU
	}
	for _, p := range r.productos {
		if p.SKU == sku {
			c := copiar(&p)
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductoRepo) List(_ context.Context, f dto.ProductoFilter) ([]model.Producto, int64, error) {
	all, _ := r.ListAll(context.Background())
	var match []model.Producto
	for _, p := range all {
		q := strings.ToLower(f.Q)
		if q == "" || strings.Contains(strings.ToLower(p.Nombre), q) || strings.Contains(strings.ToLower(p.SKU), q) {
			match = append(match, p)
		}
	}
	total := int64(len(match))
	from := (f.Page - 1) * f.Limit
	if from > len(match) {
		from = len(match)
	}
	to := from + f.Limit
	if to > len(match) {
		to = len(match)
	}
	return match[from:to], total, nil
}

func (r *stubProductoRepo) ListAll(_ context.Context) ([]model.Producto, error) {
	out := make([]model.Producto, 0, len(r.productos))
	for _, p := range r.productos {
		out = append(out, copiar(&p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *stubProductoRepo) ListStockBajo(ctx context.Context, umbral int) ([]model.Producto, error) {
	all, _ := r.ListAll(ctx)
	var out []model.Producto
	for _, p := range all {
		if p.Stock < umbral {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out, nil
}

func (r *stubProductoRepo) Update(_ context.Context, _ *gorm.DB, p *model.Producto) error {
	if _, ok := r.productos[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.productos[p.ID] = copiar(p)
	return nil
}

func (r *stubProductoRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.productos[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.productos, id)
	return nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

func (r *stubProductoRepo) porSKU(sku string) model.Producto {
	for _, p := range r.productos {
		if p.SKU == sku {
			return p
		}
	}
	return model.Producto{}
}

func copiar(p *model.Producto) model.Producto {
	c := *p
	if p.StockDetalle != nil {
		d := *p.StockDetalle
		c.StockDetalle = &d
	}
	return c
}

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

type stubMovimientoRepo struct {
	movs []model.MovimientoStock
}

func (r *stubMovimientoRepo) CreateTx(_ *gorm.DB, m *model.MovimientoStock) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.movs = append(r.movs, *m)
	return nil
}

func (r *stubMovimientoRepo) ListBySKU(_ context.Context, sku string, limit int) ([]model.MovimientoStock, error) {
	var out []model.MovimientoStock
	for i := len(r.movs) - 1; i >= 0 && len(out) < limit; i-- {
		if r.movs[i].SKU == sku {
			out = append(out, r.movs[i])
		}
	}
	return out, nil
}

var _ repository.MovimientoStockRepository = (*stubMovimientoRepo)(nil)

// stubVentaRepo is an in-memory VentaRepository.
type stubVentaRepo struct {
	ventas []model.Venta
}

func (r *stubVentaRepo) Create(_ context.Context, _ *gorm.DB, v *model.Venta) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.ventas = append(r.ventas, *v)
	return nil
}

func (r *stubVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	for i := range r.ventas {
		if r.ventas[i].ID == id {
			v := r.ventas[i]
			return &v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubVentaRepo) ListEntre(_ context.Context, desde, hasta time.Time) ([]model.Venta, error) {
	var out []model.Venta
	for _, v := range r.ventas {
		if !v.Fecha.Before(desde) && !v.Fecha.After(hasta) {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Fecha.Before(out[j].Fecha) })
	return out, nil
}

func (r *stubVentaRepo) DB() *gorm.DB { return nil }

func (r *stubVentaRepo) agregar(fecha time.Time, metodo string, total string) {
	r.ventas = append(r.ventas, model.Venta{
		ID:         uuid.New(),
		Fecha:      fecha,
		MetodoPago: metodo,
		Total:      dec(total),
	})
}

var _ repository.VentaRepository = (*stubVentaRepo)(nil)

type stubCierreRepo struct {
	cierres map[string]model.CierreDiario
	upserts int
}

func newStubCierreRepo() *stubCierreRepo {
	return &stubCierreRepo{cierres: make(map[string]model.CierreDiario)}
}

func (r *stubCierreRepo) FindByFecha(_ context.Context, fecha string) (*model.CierreDiario, error) {
	c, ok := r.cierres[fecha]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *stubCierreRepo) Upsert(_ context.Context, c *model.CierreDiario) error {
	r.cierres[c.Fecha] = *c
	r.upserts++
	return nil
}

var _ repository.CierreRepository = (*stubCierreRepo)(nil)

// recorder captures published change events.
type recorder struct {
	mu  sync.Mutex
	evs []eventos.Evento
}

func (r *recorder) Publicar(_ context.Context, ev eventos.Evento) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, ev)
}

func (r *recorder) Suscribir(ctx context.Context) (<-chan eventos.Evento, func()) {
	return eventos.Nop{}.Suscribir(ctx)
}

func (r *recorder) entidades() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.evs))
	for _, ev := range r.evs {
		out = append(out, ev.Entidad+":"+ev.Accion)
	}
	return out
}

var _ eventos.Publicador = (*recorder)(nil)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }
