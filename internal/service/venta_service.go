package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/dto"
	"github.com/darielruizg/Puntodeventa/internal/eventos"
	"github.com/darielruizg/Puntodeventa/internal/metrics"
	"github.com/darielruizg/Puntodeventa/internal/model"
	"github.com/darielruizg/Puntodeventa/internal/repository"
	"github.com/darielruizg/Puntodeventa/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VentaService is the only writer of Venta records.
type VentaService interface {
	RegistrarVenta(ctx context.Context, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	ObtenerVenta(ctx context.Context, id uuid.UUID) (*model.Venta, error)
}

type ventaService struct {
	repo       repository.VentaRepository
	inventario InventarioService
	dispatcher *worker.Dispatcher
	feed       eventos.Publicador
	m          *metrics.Metrics
	loc        *time.Location
	now        func() time.Time
}

// NewVentaService: dispatcher, feed and m may be nil. loc is the store's
// zone, used to render sale dates; nil means time.Local.
func NewVentaService(
	repo repository.VentaRepository,
	inventario InventarioService,
	dispatcher *worker.Dispatcher,
	feed eventos.Publicador,
	m *metrics.Metrics,
	loc *time.Location,
) VentaService {
	if feed == nil {
		feed = eventos.Nop{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &ventaService{
		repo:       repo,
		inventario: inventario,
		dispatcher: dispatcher,
		feed:       feed,
		m:          m,
		loc:        loc,
		now:        time.Now,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
//   1. Validate: non-empty cart, known payment method
//   2. Total = Σ precio × cantidad of the cart snapshot
//   3. BEGIN TX: insert venta + items, descontar stock per line (missing SKUs skipped)
//   4. COMMIT, then drop cached lookups and publish change events
//   5. (async) enqueue the receipt email if the customer left an address
//
// Without a database (unit tests) step 3 runs without rollback: a failure
// after the insert leaves the sale recorded and the stock untouched.

func (s *ventaService) RegistrarVenta(ctx context.Context, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	if len(req.Items) == 0 {
		return nil, nuevaValidacion("items", "el carrito esta vacio")
	}
	if !metodoValido(req.MetodoPago) {
		return nil, nuevaValidacion("metodo_pago", "debe ser uno de: "+strings.Join(model.MetodosPago, ", "))
	}
	for i, it := range req.Items {
		campo := fmt.Sprintf("items[%d]", i)
		switch {
		case strings.TrimSpace(it.SKU) == "":
			return nil, nuevaValidacion(campo, "sku requerido")
		case it.Cantidad < 1:
			return nil, nuevaValidacion(campo, "cantidad debe ser al menos 1")
		case it.Precio.IsNegative():
			return nil, nuevaValidacion(campo, "precio negativo")
		}
	}

	venta := model.Venta{
		Fecha:      s.now(),
		MetodoPago: req.MetodoPago,
		Total:      decimal.Zero,
	}
	for i, it := range req.Items {
		item := model.VentaItem{
			Orden:    i,
			SKU:      it.SKU,
			Nombre:   it.Nombre,
			Precio:   it.Precio,
			Cantidad: it.Cantidad,
		}
		venta.Total = venta.Total.Add(item.Subtotal())
		venta.Items = append(venta.Items, item)
	}

	var tocados []*model.Producto
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, &venta); err != nil {
			return fmt.Errorf("registrar venta: %w", err)
		}
		for _, it := range venta.Items {
			p, err := s.inventario.DescontarPorVentaTx(ctx, tx, it.SKU, it.Cantidad, venta.ID)
			if err != nil {
				return fmt.Errorf("descontar stock de %s: %w", it.SKU, err)
			}
			if p != nil {
				tocados = append(tocados, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.inventario.NotificarCambios(ctx, tocados)
	s.feed.Publicar(ctx, eventos.Evento{Entidad: eventos.EntidadVenta, Accion: eventos.AccionCreado, ID: venta.ID.String()})
	s.m.RecordVenta(venta.MetodoPago, venta.Total)
	log.Info().
		Str("venta_id", venta.ID.String()).
		Str("metodo", venta.MetodoPago).
		Str("total", venta.Total.StringFixed(2)).
		Int("items", len(venta.Items)).
		Msg("venta registrada")

	// Best-effort, never part of the commit.
	if s.dispatcher != nil && req.ClienteEmail != nil && *req.ClienteEmail != "" {
		if err := s.dispatcher.EnqueueTicketEmail(ctx, worker.TicketEmailPayload{
			VentaID: venta.ID.String(),
			ToEmail: *req.ClienteEmail,
		}); err != nil {
			log.Warn().Err(err).Str("venta_id", venta.ID.String()).Msg("no se pudo encolar el ticket por email")
		}
	}

	return VentaToResponse(&venta, s.loc), nil
}

func (s *ventaService) ObtenerVenta(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "venta")
	}
	return v, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func metodoValido(m string) bool {
	for _, ok := range model.MetodosPago {
		if m == ok {
			return true
		}
	}
	return false
}

// VentaToResponse renders a committed sale; Fecha is RFC 3339 in loc, the
// same zone the day windows are cut in.
func VentaToResponse(v *model.Venta, loc *time.Location) *dto.VentaResponse {
	items := make([]dto.ItemVentaResponse, 0, len(v.Items))
	for _, it := range v.Items {
		items = append(items, dto.ItemVentaResponse{
			SKU:      it.SKU,
			Nombre:   it.Nombre,
			Precio:   it.Precio,
			Cantidad: it.Cantidad,
			Subtotal: it.Subtotal(),
		})
	}
	return &dto.VentaResponse{
		ID:         v.ID.String(),
		Fecha:      v.Fecha.In(loc).Format(time.RFC3339),
		Items:      items,
		Total:      v.Total,
		MetodoPago: v.MetodoPago,
	}
}
