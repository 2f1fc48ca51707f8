package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/darielruizg/Puntodeventa/internal/dto"
	"github.com/darielruizg/Puntodeventa/internal/eventos"
	"github.com/darielruizg/Puntodeventa/internal/metrics"
	"github.com/darielruizg/Puntodeventa/internal/model"
	"github.com/darielruizg/Puntodeventa/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// InventarioService owns Producto records and their stock. It is the only
// writer of stock fields: creation, manual edit, bulk upsert and the
// per-line decrement of a sale.
type InventarioService interface {
	BuscarPorCodigo(ctx context.Context, sku string) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	ObtenerVarios(ctx context.Context, ids []uuid.UUID) ([]model.Producto, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	ParaReponer(ctx context.Context) ([]dto.ProductoResponse, error)
	Exportar(ctx context.Context) ([]dto.ImportarProductoRecord, error)
	Movimientos(ctx context.Context, id uuid.UUID) ([]dto.MovimientoStockResponse, error)

	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	ImportarMasivo(ctx context.Context, recs []dto.ImportarProductoRecord) (*dto.ImportarResultado, error)

	// DescontarPorVentaTx runs inside the sale transaction. It returns the
	// updated product, or nil when the SKU is no longer in the catalog.
	DescontarPorVentaTx(ctx context.Context, tx *gorm.DB, sku string, cantidad int, ventaID uuid.UUID) (*model.Producto, error)
	// NotificarCambios drops cached lookups and publishes change events for
	// products mutated inside a transaction that has now committed.
	NotificarCambios(ctx context.Context, productos []*model.Producto)
}

type inventarioService struct {
	repo        repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
	rdb         *redis.Client
	feed        eventos.Publicador
	m           *metrics.Metrics
	umbral      int
}

// NewInventarioService: rdb and m may be nil; umbral is the restock
// threshold (stock strictly below it is listed).
func NewInventarioService(
	repo repository.ProductoRepository,
	movimientos repository.MovimientoStockRepository,
	rdb *redis.Client,
	feed eventos.Publicador,
	m *metrics.Metrics,
	umbral int,
) InventarioService {
	if feed == nil {
		feed = eventos.Nop{}
	}
	return &inventarioService{
		repo:        repo,
		movimientos: movimientos,
		rdb:         rdb,
		feed:        feed,
		m:           m,
		umbral:      umbral,
	}
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *inventarioService) BuscarPorCodigo(ctx context.Context, sku string) (*dto.ProductoResponse, error) {
	if resp, ok := s.cacheGet(ctx, sku); ok {
		return resp, nil
	}
	return s.cacheFill(ctx, sku, func() (*dto.ProductoResponse, error) {
		p, err := s.repo.FindBySKU(ctx, nil, sku)
		if err != nil {
			return nil, noEncontrado(err, "producto "+sku)
		}
		return productoToResponse(p), nil
	})
}

func (s *inventarioService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "producto")
	}
	return productoToResponse(p), nil
}

func (s *inventarioService) ObtenerVarios(ctx context.Context, ids []uuid.UUID) ([]model.Producto, error) {
	productos, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("buscar productos: %w", err)
	}
	return productos, nil
}

func (s *inventarioService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	productos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listar productos: %w", err)
	}
	data := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		data = append(data, *productoToResponse(&productos[i]))
	}
	totalPages := int(total) / filter.Limit
	if int(total)%filter.Limit != 0 {
		totalPages++
	}
	return &dto.ProductoListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

func (s *inventarioService) ParaReponer(ctx context.Context) ([]dto.ProductoResponse, error) {
	productos, err := s.repo.ListStockBajo(ctx, s.umbral)
	if err != nil {
		return nil, fmt.Errorf("listar stock bajo: %w", err)
	}
	resp := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		resp = append(resp, *productoToResponse(&productos[i]))
	}
	return resp, nil
}

func (s *inventarioService) Exportar(ctx context.Context) ([]dto.ImportarProductoRecord, error) {
	productos, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("exportar productos: %w", err)
	}
	recs := make([]dto.ImportarProductoRecord, 0, len(productos))
	for i := range productos {
		p := &productos[i]
		rec := dto.ImportarProductoRecord{
			SKU:    p.SKU,
			Nombre: p.Nombre,
			Precio: p.Precio,
			Stock:  p.Stock,
		}
		if p.StockDetalle != nil {
			rec.StockDetalle = detalleToDTO(p.StockDetalle)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *inventarioService) Movimientos(ctx context.Context, id uuid.UUID) ([]dto.MovimientoStockResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "producto")
	}
	movs, err := s.movimientos.ListBySKU(ctx, p.SKU, 100)
	if err != nil {
		return nil, fmt.Errorf("listar movimientos: %w", err)
	}
	resp := make([]dto.MovimientoStockResponse, 0, len(movs))
	for _, m := range movs {
		r := dto.MovimientoStockResponse{
			ID:            m.ID.String(),
			SKU:           m.SKU,
			Tipo:          m.Tipo,
			Cantidad:      m.Cantidad,
			StockAnterior: m.StockAnterior,
			StockNuevo:    m.StockNuevo,
			Motivo:        m.Motivo,
			CreatedAt:     m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if m.ReferenciaID != nil {
			ref := m.ReferenciaID.String()
			r.ReferenciaID = &ref
		}
		resp = append(resp, r)
	}
	return resp, nil
}

// ── Crear ─────────────────────────────────────────────────────────────────────

func (s *inventarioService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	fields := map[string]string{}
	nombre := strings.TrimSpace(req.Nombre)
	if nombre == "" {
		fields["nombre"] = "requerido"
	}
	if req.Precio == nil {
		fields["precio"] = "requerido"
	} else if req.Precio.IsNegative() {
		fields["precio"] = "debe ser mayor o igual a 0"
	}
	if req.StockDetalle != nil && detalleNegativo(req.StockDetalle) {
		fields["stock_detalle"] = "no admite valores negativos"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	sku := strings.TrimSpace(req.SKU)
	if sku == "" {
		generado, err := s.generarSKU(ctx)
		if err != nil {
			return nil, err
		}
		sku = generado
	} else if err := s.skuLibre(ctx, sku, uuid.Nil); err != nil {
		return nil, err
	}

	p := &model.Producto{
		SKU:    sku,
		Nombre: nombre,
		Precio: *req.Precio,
		Stock:  req.Stock,
	}
	aplicarDetalle(p, req.StockDetalle)

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, p); err != nil {
			return fmt.Errorf("crear producto: %w", err)
		}
		if p.Stock == 0 {
			return nil
		}
		return s.movimientos.CreateTx(tx, &model.MovimientoStock{
			SKU:        p.SKU,
			Tipo:       model.MovimientoAlta,
			Cantidad:   p.Stock,
			StockNuevo: p.Stock,
			Motivo:     "Alta de producto",
		})
	})
	if err != nil {
		return nil, err
	}

	s.feed.Publicar(ctx, eventos.Evento{Entidad: eventos.EntidadProducto, Accion: eventos.AccionCreado, ID: p.ID.String()})
	return productoToResponse(p), nil
}

// ── Actualizar ────────────────────────────────────────────────────────────────
// Partial update. A breakdown in the request always wins: stock becomes its
// sum. A bare stock edit on a product that has a breakdown moves the
// difference into the tienda bucket so the two stay equal.

func (s *inventarioService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, noEncontrado(err, "producto")
	}
	skuAnterior := p.SKU
	stockAnterior := p.Stock

	fields := map[string]string{}
	if req.Nombre != nil {
		if n := strings.TrimSpace(*req.Nombre); n == "" {
			fields["nombre"] = "requerido"
		} else {
			p.Nombre = n
		}
	}
	if req.Precio != nil {
		if req.Precio.IsNegative() {
			fields["precio"] = "debe ser mayor o igual a 0"
		} else {
			p.Precio = *req.Precio
		}
	}
	if req.StockDetalle != nil && detalleNegativo(req.StockDetalle) {
		fields["stock_detalle"] = "no admite valores negativos"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if req.SKU != nil {
		sku := strings.TrimSpace(*req.SKU)
		if sku == "" {
			return nil, nuevaValidacion("sku", "no puede quedar vacio")
		}
		if sku != p.SKU {
			if err := s.skuLibre(ctx, sku, p.ID); err != nil {
				return nil, err
			}
			p.SKU = sku
		}
	}

	switch {
	case req.StockDetalle != nil:
		aplicarDetalle(p, req.StockDetalle)
	case req.Stock != nil && p.StockDetalle != nil:
		d := *p.StockDetalle
		d.Tienda += *req.Stock - p.Stock
		p.StockDetalle = &d
		p.Stock = d.Total()
	case req.Stock != nil:
		p.Stock = *req.Stock
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Update(ctx, tx, p); err != nil {
			return fmt.Errorf("actualizar producto: %w", err)
		}
		if p.Stock == stockAnterior {
			return nil
		}
		return s.movimientos.CreateTx(tx, &model.MovimientoStock{
			SKU:           p.SKU,
			Tipo:          model.MovimientoAjuste,
			Cantidad:      p.Stock - stockAnterior,
			StockAnterior: stockAnterior,
			StockNuevo:    p.Stock,
			Motivo:        "Ajuste manual",
		})
	})
	if err != nil {
		return nil, err
	}

	s.cacheDel(ctx, skuAnterior, p.SKU)
	s.feed.Publicar(ctx, eventos.Evento{Entidad: eventos.EntidadProducto, Accion: eventos.AccionActualizado, ID: p.ID.String()})
	return productoToResponse(p), nil
}

// ── Eliminar ──────────────────────────────────────────────────────────────────
// Hard delete. Sales keep their item snapshots, so nothing cascades.

func (s *inventarioService) Eliminar(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return noEncontrado(err, "producto")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return noEncontrado(err, "producto")
	}
	s.cacheDel(ctx, p.SKU)
	s.feed.Publicar(ctx, eventos.Evento{Entidad: eventos.EntidadProducto, Accion: eventos.AccionEliminado, ID: id.String()})
	return nil
}

// ── ImportarMasivo ────────────────────────────────────────────────────────────
// Upsert keyed by SKU in one transaction. An existing product keeps its id
// and has every other field replaced; a breakdown, when given, sets stock.

func (s *inventarioService) ImportarMasivo(ctx context.Context, recs []dto.ImportarProductoRecord) (*dto.ImportarResultado, error) {
	for i, r := range recs {
		campo := fmt.Sprintf("fila_%d", i+1)
		switch {
		case strings.TrimSpace(r.Nombre) == "":
			return nil, nuevaValidacion(campo, "nombre requerido")
		case r.Precio.IsNegative():
			return nil, nuevaValidacion(campo, "precio negativo")
		case r.StockDetalle != nil && detalleNegativo(r.StockDetalle):
			return nil, nuevaValidacion(campo, "stock negativo en el desglose")
		}
	}

	res := &dto.ImportarResultado{}
	var tocados []*model.Producto
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, r := range recs {
			sku := strings.TrimSpace(r.SKU)
			if sku == "" {
				sku = nuevoSKU()
			}

			p := &model.Producto{}
			stockAnterior := 0
			existente, err := s.repo.FindBySKU(ctx, tx, sku)
			switch {
			case err == nil:
				p.ID = existente.ID
				p.CreatedAt = existente.CreatedAt
				stockAnterior = existente.Stock
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return fmt.Errorf("buscar %s: %w", sku, err)
			}

			p.SKU = sku
			p.Nombre = strings.TrimSpace(r.Nombre)
			p.Precio = r.Precio
			p.Stock = r.Stock
			aplicarDetalle(p, r.StockDetalle)

			if p.ID == uuid.Nil {
				if err := s.repo.Create(ctx, tx, p); err != nil {
					return fmt.Errorf("crear %s: %w", sku, err)
				}
				res.Creados++
			} else {
				if err := s.repo.Update(ctx, tx, p); err != nil {
					return fmt.Errorf("actualizar %s: %w", sku, err)
				}
				res.Actualizados++
			}
			tocados = append(tocados, p)

			if p.Stock != stockAnterior {
				if err := s.movimientos.CreateTx(tx, &model.MovimientoStock{
					SKU:           sku,
					Tipo:          model.MovimientoImportacion,
					Cantidad:      p.Stock - stockAnterior,
					StockAnterior: stockAnterior,
					StockNuevo:    p.Stock,
					Motivo:        "Importacion de planilla",
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.NotificarCambios(ctx, tocados)
	log.Info().Int("creados", res.Creados).Int("actualizados", res.Actualizados).Msg("importacion masiva aplicada")
	return res, nil
}

// ── DescontarPorVentaTx ───────────────────────────────────────────────────────
// Sales always come out of the tienda bucket. No clamp at zero: overselling
// is recorded, logged and counted, never blocked.

func (s *inventarioService) DescontarPorVentaTx(ctx context.Context, tx *gorm.DB, sku string, cantidad int, ventaID uuid.UUID) (*model.Producto, error) {
	p, err := s.repo.FindBySKU(ctx, tx, sku)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn().Str("sku", sku).Str("venta_id", ventaID.String()).Msg("sku vendido ya no existe en el catalogo; se omite el descuento")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("buscar %s: %w", sku, err)
	}

	stockAnterior := p.Stock
	d := p.DetalleEfectivo()
	d.Tienda -= cantidad
	p.StockDetalle = &d
	p.Stock -= cantidad

	if err := s.repo.Update(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("descontar %s: %w", sku, err)
	}
	ref := ventaID
	if err := s.movimientos.CreateTx(tx, &model.MovimientoStock{
		SKU:           sku,
		Tipo:          model.MovimientoVenta,
		Cantidad:      -cantidad,
		StockAnterior: stockAnterior,
		StockNuevo:    p.Stock,
		Motivo:        "Venta",
		ReferenciaID:  &ref,
	}); err != nil {
		return nil, err
	}

	if p.Stock < 0 {
		log.Warn().Str("sku", sku).Int("stock", p.Stock).Str("venta_id", ventaID.String()).Msg("stock negativo tras la venta")
		s.m.RecordStockNegativo()
	}
	return p, nil
}

func (s *inventarioService) NotificarCambios(ctx context.Context, productos []*model.Producto) {
	for _, p := range productos {
		if p == nil {
			continue
		}
		s.cacheDel(ctx, p.SKU)
		s.feed.Publicar(ctx, eventos.Evento{Entidad: eventos.EntidadProducto, Accion: eventos.AccionActualizado, ID: p.ID.String()})
	}
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// nuevoSKU returns an 8-character uppercase token.
func nuevoSKU() string {
	return strings.ToUpper(uuid.NewString()[:8])
}

func (s *inventarioService) generarSKU(ctx context.Context) (string, error) {
	for i := 0; i < 5; i++ {
		sku := nuevoSKU()
		_, err := s.repo.FindBySKU(ctx, nil, sku)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return sku, nil
		}
		if err != nil {
			return "", fmt.Errorf("generar sku: %w", err)
		}
	}
	return "", errors.New("generar sku: demasiadas colisiones")
}

// skuLibre fails with a ValidationError if sku belongs to a product other than self.
func (s *inventarioService) skuLibre(ctx context.Context, sku string, self uuid.UUID) error {
	otro, err := s.repo.FindBySKU(ctx, nil, sku)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("verificar sku: %w", err)
	case otro.ID != self:
		return nuevaValidacion("sku", "ya existe un producto con ese codigo")
	}
	return nil
}

func detalleNegativo(d *dto.StockDetalle) bool {
	return d.Tienda < 0 || d.Bodega < 0 || d.Exhibicion < 0
}

// aplicarDetalle sets the breakdown and recomputes stock from it. A nil
// breakdown leaves the product without one and keeps p.Stock.
func aplicarDetalle(p *model.Producto, d *dto.StockDetalle) {
	if d == nil {
		p.StockDetalle = nil
		return
	}
	p.StockDetalle = &model.StockDetalle{Tienda: d.Tienda, Bodega: d.Bodega, Exhibicion: d.Exhibicion}
	p.Stock = p.StockDetalle.Total()
}

func detalleToDTO(d *model.StockDetalle) *dto.StockDetalle {
	if d == nil {
		return nil
	}
	return &dto.StockDetalle{Tienda: d.Tienda, Bodega: d.Bodega, Exhibicion: d.Exhibicion}
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	return &dto.ProductoResponse{
		ID:           p.ID.String(),
		SKU:          p.SKU,
		Nombre:       p.Nombre,
		Precio:       p.Precio,
		Stock:        p.Stock,
		StockDetalle: detalleToDTO(p.StockDetalle),
	}
}
