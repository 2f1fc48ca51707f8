package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/dto"
	"github.com/darielruizg/Puntodeventa/internal/eventos"
	"github.com/darielruizg/Puntodeventa/internal/model"
	"github.com/darielruizg/Puntodeventa/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CajaService owns CierreDiario records: the opening float of each day, the
// expected cash derived from it, and the manual close.
type CajaService interface {
	ObtenerFondo(ctx context.Context, dia time.Time) (*model.CierreDiario, bool, error)
	FijarFondo(ctx context.Context, dia time.Time, monto decimal.Decimal) (*dto.CajaDiaResponse, error)
	EfectivoEsperado(ctx context.Context, dia time.Time) (decimal.Decimal, error)
	ObtenerDia(ctx context.Context, dia time.Time) (*dto.CajaDiaResponse, error)
	CerrarDia(ctx context.Context, dia time.Time, contado decimal.Decimal) (*dto.CierreResponse, error)
}

type cajaService struct {
	repo         repository.CierreRepository
	ventas       repository.VentaRepository
	fondoDefault decimal.Decimal
	feed         eventos.Publicador
	now          func() time.Time
}

// NewCajaService: fondoDefault is the implied opening float of a day that
// has no closing record yet.
func NewCajaService(repo repository.CierreRepository, ventas repository.VentaRepository, fondoDefault decimal.Decimal, feed eventos.Publicador) CajaService {
	if feed == nil {
		feed = eventos.Nop{}
	}
	return &cajaService{repo: repo, ventas: ventas, fondoDefault: fondoDefault, feed: feed, now: time.Now}
}

// ── ObtenerFondo ──────────────────────────────────────────────────────────────
// Returns the stored record, or an unsaved record carrying the default float.
// The bool reports whether the record exists.

func (s *cajaService) ObtenerFondo(ctx context.Context, dia time.Time) (*model.CierreDiario, bool, error) {
	fecha := dia.Format(model.FormatoFecha)
	c, err := s.repo.FindByFecha(ctx, fecha)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &model.CierreDiario{Fecha: fecha, FondoInicial: s.fondoDefault}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cierre %s: %w", fecha, err)
	}
	return c, true, nil
}

// ── FijarFondo ────────────────────────────────────────────────────────────────
// Upsert. A closed day is left untouched and reported as is.

func (s *cajaService) FijarFondo(ctx context.Context, dia time.Time, monto decimal.Decimal) (*dto.CajaDiaResponse, error) {
	if monto.IsNegative() {
		return nil, nuevaValidacion("monto", "debe ser mayor o igual a 0")
	}
	c, _, err := s.ObtenerFondo(ctx, dia)
	if err != nil {
		return nil, err
	}
	if c.Cerrado {
		log.Info().Str("fecha", c.Fecha).Msg("caja cerrada: el fondo inicial no se modifica")
		return s.buildDia(ctx, dia, c, true)
	}

	c.FondoInicial = monto
	if err := s.repo.Upsert(ctx, c); err != nil {
		return nil, fmt.Errorf("guardar fondo %s: %w", c.Fecha, err)
	}
	s.feed.Publicar(ctx, eventos.Evento{Entidad: eventos.EntidadCierre, Accion: eventos.AccionActualizado, ID: c.Fecha})
	return s.buildDia(ctx, dia, c, true)
}

// ── EfectivoEsperado ──────────────────────────────────────────────────────────
// fondo inicial + Σ total of that day's cash sales. Manual cash in/out is
// not tracked.

func (s *cajaService) EfectivoEsperado(ctx context.Context, dia time.Time) (decimal.Decimal, error) {
	c, _, err := s.ObtenerFondo(ctx, dia)
	if err != nil {
		return decimal.Zero, err
	}
	efectivo, err := s.ventasEfectivo(ctx, dia)
	if err != nil {
		return decimal.Zero, err
	}
	return c.FondoInicial.Add(efectivo), nil
}

func (s *cajaService) ObtenerDia(ctx context.Context, dia time.Time) (*dto.CajaDiaResponse, error) {
	c, existe, err := s.ObtenerFondo(ctx, dia)
	if err != nil {
		return nil, err
	}
	return s.buildDia(ctx, dia, c, existe)
}

// ── CerrarDia ─────────────────────────────────────────────────────────────────
// Records the counted cash and freezes the day. The deviation against the
// expected cash is classified normal (≤1%), advertencia (≤5%) or critico.
// Closing an already closed day returns the stored count unchanged.

func (s *cajaService) CerrarDia(ctx context.Context, dia time.Time, contado decimal.Decimal) (*dto.CierreResponse, error) {
	if contado.IsNegative() {
		return nil, nuevaValidacion("efectivo_contado", "debe ser mayor o igual a 0")
	}
	c, _, err := s.ObtenerFondo(ctx, dia)
	if err != nil {
		return nil, err
	}

	if !c.Cerrado {
		ahora := s.now()
		c.EfectivoContado = &contado
		c.Cerrado = true
		c.CerradoAt = &ahora
		if err := s.repo.Upsert(ctx, c); err != nil {
			return nil, fmt.Errorf("cerrar caja %s: %w", c.Fecha, err)
		}
		s.feed.Publicar(ctx, eventos.Evento{Entidad: eventos.EntidadCierre, Accion: eventos.AccionActualizado, ID: c.Fecha})
	}

	diaResp, err := s.buildDia(ctx, dia, c, true)
	if err != nil {
		return nil, err
	}

	declarado := contado
	if c.EfectivoContado != nil {
		declarado = *c.EfectivoContado
	}
	desvio := declarado.Sub(diaResp.EfectivoEsperado)
	var pct decimal.Decimal
	if !diaResp.EfectivoEsperado.IsZero() {
		pct = desvio.Div(diaResp.EfectivoEsperado).Mul(decimal.NewFromInt(100)).Round(2)
	}
	clasificacion := clasificarDesvio(pct)
	if clasificacion != "normal" {
		log.Warn().Str("fecha", c.Fecha).Str("desvio", desvio.StringFixed(2)).Str("clasificacion", clasificacion).Msg("desvio en el cierre de caja")
	}

	return &dto.CierreResponse{
		CajaDiaResponse: *diaResp,
		Desvio: dto.DesvioResponse{
			Monto:         desvio,
			Porcentaje:    pct,
			Clasificacion: clasificacion,
		},
	}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// clasificarDesvio returns "normal" | "advertencia" | "critico"
// normal: |desvio| <= 1%, advertencia: <= 5%, critico: > 5%
func clasificarDesvio(pct decimal.Decimal) string {
	abs := pct.Abs()
	one := decimal.NewFromInt(1)
	five := decimal.NewFromInt(5)
	switch {
	case abs.LessThanOrEqual(one):
		return "normal"
	case abs.LessThanOrEqual(five):
		return "advertencia"
	default:
		return "critico"
	}
}

func (s *cajaService) ventasEfectivo(ctx context.Context, dia time.Time) (decimal.Decimal, error) {
	desde, hasta := VentanaDe(GranularidadDia, dia)
	ventas, err := s.ventas.ListEntre(ctx, desde, hasta)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ventas del dia: %w", err)
	}
	total := decimal.Zero
	for _, v := range ventas {
		if v.MetodoPago == model.MetodoEfectivo {
			total = total.Add(v.Total)
		}
	}
	return total, nil
}

func (s *cajaService) buildDia(ctx context.Context, dia time.Time, c *model.CierreDiario, existe bool) (*dto.CajaDiaResponse, error) {
	efectivo, err := s.ventasEfectivo(ctx, dia)
	if err != nil {
		return nil, err
	}
	return &dto.CajaDiaResponse{
		Fecha:            c.Fecha,
		FondoInicial:     c.FondoInicial,
		FondoPorDefecto:  !existe,
		VentasEfectivo:   efectivo,
		EfectivoEsperado: c.FondoInicial.Add(efectivo),
		EfectivoContado:  c.EfectivoContado,
		Cerrado:          c.Cerrado,
	}, nil
}
