package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/model"
	"github.com/darielruizg/Puntodeventa/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVentanaDe(t *testing.T) {
	ancla := time.Date(2024, 2, 17, 15, 4, 5, 0, bogota)
	cases := []struct {
		g           service.Granularidad
		desde, hast string
	}{
		{service.GranularidadDia, "2024-02-17T00:00:00.000-05:00", "2024-02-17T23:59:59.999-05:00"},
		{service.GranularidadMes, "2024-02-01T00:00:00.000-05:00", "2024-02-29T23:59:59.999-05:00"},
		{service.GranularidadAnio, "2024-01-01T00:00:00.000-05:00", "2024-12-31T23:59:59.999-05:00"},
	}
	const layout = "2006-01-02T15:04:05.000Z07:00"
	for _, tc := range cases {
		t.Run(string(tc.g), func(t *testing.T) {
			desde, hasta := service.VentanaDe(tc.g, ancla)
			assert.Equal(t, tc.desde, desde.Format(layout))
			assert.Equal(t, tc.hast, hasta.Format(layout))
		})
	}

	_, hasta := service.VentanaDe(service.GranularidadMes, time.Date(2023, 2, 3, 0, 0, 0, 0, bogota))
	assert.Equal(t, 28, hasta.Day())
	_, hasta = service.VentanaDe(service.GranularidadMes, time.Date(2026, 12, 31, 0, 0, 0, 0, bogota))
	assert.Equal(t, "2026-12-31", hasta.Format("2006-01-02"))
}

func TestParseAncla(t *testing.T) {
	now := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)

	a, g, err := service.ParseAncla("", bogota, now)
	require.NoError(t, err)
	assert.Equal(t, service.GranularidadDia, g)
	assert.Equal(t, "2026-05-20", a.Format("2006-01-02"))

	a, g, err = service.ParseAncla("2026-03", bogota, now)
	require.NoError(t, err)
	assert.Equal(t, service.GranularidadMes, g)
	assert.Equal(t, time.March, a.Month())
	assert.Equal(t, bogota, a.Location())

	_, g, err = service.ParseAncla("2025", bogota, now)
	require.NoError(t, err)
	assert.Equal(t, service.GranularidadAnio, g)

	_, _, err = service.ParseAncla("20-05-2026", bogota, now)
	var ve *service.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestReporte_VentanaInclusiva(t *testing.T) {
	ventas := &stubVentaRepo{}
	ventas.agregar(time.Date(2024, 2, 29, 23, 59, 59, 999_000_000, bogota), model.MetodoEfectivo, "10")
	ventas.agregar(time.Date(2024, 2, 1, 0, 0, 0, 0, bogota), model.MetodoTarjeta, "5")
	ventas.agregar(time.Date(2024, 3, 1, 0, 0, 0, 0, bogota), model.MetodoEfectivo, "100")
	ventas.agregar(time.Date(2024, 1, 31, 23, 59, 59, 0, bogota), model.MetodoEfectivo, "100")
	svc := service.NewReporteService(ventas)

	resp, err := svc.Reporte(context.Background(), service.GranularidadMes, time.Date(2024, 2, 10, 0, 0, 0, 0, bogota))
	require.NoError(t, err)

	assert.Equal(t, "mes", resp.Periodo)
	assert.Equal(t, 2, resp.Resumen.Cantidad)
	assert.Equal(t, "15", resp.Resumen.Total.String())
	require.Len(t, resp.Ventas, 2)
	assert.Equal(t, model.MetodoTarjeta, resp.Ventas[0].MetodoPago)
	assert.Equal(t, "2024-02-29T23:59:59-05:00", resp.Ventas[1].Fecha)

	vs, err := svc.VentasEnVentana(context.Background(), service.GranularidadAnio, time.Date(2024, 6, 1, 0, 0, 0, 0, bogota))
	require.NoError(t, err)
	assert.Len(t, vs, 4)
}

func TestResumir_TodosLosMetodos(t *testing.T) {
	res := service.Resumir([]model.Venta{
		{MetodoPago: model.MetodoEfectivo, Total: dec("10")},
		{MetodoPago: model.MetodoEfectivo, Total: dec("2.5")},
		{MetodoPago: model.MetodoRappi, Total: dec("7")},
	})

	assert.Equal(t, 3, res.Cantidad)
	assert.Equal(t, "19.5", res.Total.String())
	require.Len(t, res.PorMetodo, len(model.MetodosPago))
	for i, m := range model.MetodosPago {
		assert.Equal(t, m, res.PorMetodo[i].MetodoPago)
	}
	assert.Equal(t, 2, res.PorMetodo[0].Cantidad)
	assert.Equal(t, "12.5", res.PorMetodo[0].Total.String())
	assert.Equal(t, 0, res.PorMetodo[1].Cantidad)
	assert.True(t, res.PorMetodo[1].Total.IsZero())
	assert.Equal(t, "7", res.PorMetodo[3].Total.String())

	vacio := service.Resumir(nil)
	assert.Zero(t, vacio.Cantidad)
	assert.Len(t, vacio.PorMetodo, 4)
}
