package service

import (
	"context"
	"fmt"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/dto"
	"github.com/darielruizg/Puntodeventa/internal/model"
	"github.com/darielruizg/Puntodeventa/internal/repository"

	"github.com/shopspring/decimal"
)

type Granularidad string

const (
	GranularidadDia  Granularidad = "dia"
	GranularidadMes  Granularidad = "mes"
	GranularidadAnio Granularidad = "anio"
)

// ReporteService answers sales-in-window queries. Nothing is cached: every
// summary is recomputed from the raw sales.
type ReporteService interface {
	VentasEnVentana(ctx context.Context, g Granularidad, ancla time.Time) ([]model.Venta, error)
	Reporte(ctx context.Context, g Granularidad, ancla time.Time) (*dto.ReporteVentasResponse, error)
}

type reporteService struct {
	ventas repository.VentaRepository
}

func NewReporteService(ventas repository.VentaRepository) ReporteService {
	return &reporteService{ventas: ventas}
}

// VentanaDe returns the inclusive [desde, hasta] wall-clock range of the
// period containing ancla, in ancla's location. hasta is the last
// millisecond of the period (23:59:59.999).
func VentanaDe(g Granularidad, ancla time.Time) (time.Time, time.Time) {
	loc := ancla.Location()
	y, m, d := ancla.Date()
	var desde, finExclusivo time.Time
	switch g {
	case GranularidadMes:
		desde = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		// Day 0 of the next month is the last day of this one.
		ultimo := time.Date(y, m+1, 0, 0, 0, 0, 0, loc)
		finExclusivo = ultimo.AddDate(0, 0, 1)
	case GranularidadAnio:
		desde = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		finExclusivo = time.Date(y+1, time.January, 1, 0, 0, 0, 0, loc)
	default:
		desde = time.Date(y, m, d, 0, 0, 0, 0, loc)
		finExclusivo = time.Date(y, m, d+1, 0, 0, 0, 0, loc)
	}
	return desde, finExclusivo.Add(-time.Millisecond)
}

// ParseAncla reads "YYYY-MM-DD", "YYYY-MM" or "YYYY" in loc and returns the
// anchor together with the finest granularity the layout expresses. An
// empty string is today.
func ParseAncla(s string, loc *time.Location, now time.Time) (time.Time, Granularidad, error) {
	if s == "" {
		return now.In(loc), GranularidadDia, nil
	}
	layouts := []struct {
		layout string
		g      Granularidad
	}{
		{"2006-01-02", GranularidadDia},
		{"2006-01", GranularidadMes},
		{"2006", GranularidadAnio},
	}
	for _, l := range layouts {
		if t, err := time.ParseInLocation(l.layout, s, loc); err == nil {
			return t, l.g, nil
		}
	}
	return time.Time{}, "", nuevaValidacion("ancla", fmt.Sprintf("fecha invalida %q (use AAAA-MM-DD, AAAA-MM o AAAA)", s))
}

func (s *reporteService) VentasEnVentana(ctx context.Context, g Granularidad, ancla time.Time) ([]model.Venta, error) {
	desde, hasta := VentanaDe(g, ancla)
	ventas, err := s.ventas.ListEntre(ctx, desde, hasta)
	if err != nil {
		return nil, fmt.Errorf("ventas entre %s y %s: %w", desde.Format(time.RFC3339), hasta.Format(time.RFC3339), err)
	}
	return ventas, nil
}

func (s *reporteService) Reporte(ctx context.Context, g Granularidad, ancla time.Time) (*dto.ReporteVentasResponse, error) {
	ventas, err := s.VentasEnVentana(ctx, g, ancla)
	if err != nil {
		return nil, err
	}
	desde, hasta := VentanaDe(g, ancla)
	resp := &dto.ReporteVentasResponse{
		Periodo: string(g),
		Desde:   desde.Format("2006-01-02T15:04:05.000Z07:00"),
		Hasta:   hasta.Format("2006-01-02T15:04:05.000Z07:00"),
		Resumen: Resumir(ventas),
		Ventas:  make([]dto.VentaResponse, 0, len(ventas)),
	}
	for i := range ventas {
		resp.Ventas = append(resp.Ventas, *VentaToResponse(&ventas[i], desde.Location()))
	}
	return resp, nil
}

// Resumir groups sales by payment method. Every known method appears, in
// model.MetodosPago order, even with zero sales.
func Resumir(ventas []model.Venta) dto.ResumenVentas {
	porMetodo := make(map[string]*dto.TotalPorMetodo, len(model.MetodosPago))
	orden := make([]string, 0, len(model.MetodosPago))
	for _, m := range model.MetodosPago {
		porMetodo[m] = &dto.TotalPorMetodo{MetodoPago: m, Total: decimal.Zero}
		orden = append(orden, m)
	}

	res := dto.ResumenVentas{Total: decimal.Zero}
	for _, v := range ventas {
		t, ok := porMetodo[v.MetodoPago]
		if !ok {
			t = &dto.TotalPorMetodo{MetodoPago: v.MetodoPago, Total: decimal.Zero}
			porMetodo[v.MetodoPago] = t
			orden = append(orden, v.MetodoPago)
		}
		t.Cantidad++
		t.Total = t.Total.Add(v.Total)
		res.Cantidad++
		res.Total = res.Total.Add(v.Total)
	}
	for _, m := range orden {
		res.PorMetodo = append(res.PorMetodo, *porMetodo[m])
	}
	return res
}
