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

var bogota = time.FixedZone("UTC-5", -5*3600)

func newCaja() (service.CajaService, *stubCierreRepo, *stubVentaRepo, *recorder) {
	cierres := newStubCierreRepo()
	ventas := &stubVentaRepo{}
	feed := &recorder{}
	return service.NewCajaService(cierres, ventas, dec("1000"), feed), cierres, ventas, feed
}

func TestObtenerFondo_PorDefecto(t *testing.T) {
	svc, cierres, _, _ := newCaja()
	dia := time.Date(2026, 3, 10, 9, 0, 0, 0, bogota)

	c, existe, err := svc.ObtenerFondo(context.Background(), dia)
	require.NoError(t, err)
	assert.False(t, existe)
	assert.Equal(t, "2026-03-10", c.Fecha)
	assert.Equal(t, "1000", c.FondoInicial.String())
	assert.Zero(t, cierres.upserts)
}

func TestFijarFondo_LuegoObtener(t *testing.T) {
	svc, cierres, _, feed := newCaja()
	dia := time.Date(2026, 3, 10, 0, 0, 0, 0, bogota)

	resp, err := svc.FijarFondo(context.Background(), dia, dec("1500"))
	require.NoError(t, err)
	assert.Equal(t, "1500", resp.FondoInicial.String())
	assert.False(t, resp.FondoPorDefecto)

	resp, err = svc.FijarFondo(context.Background(), dia, dec("1200"))
	require.NoError(t, err)
	assert.Equal(t, "1200", resp.FondoInicial.String())
	assert.Len(t, cierres.cierres, 1)

	c, existe, err := svc.ObtenerFondo(context.Background(), dia)
	require.NoError(t, err)
	assert.True(t, existe)
	assert.Equal(t, "1200", c.FondoInicial.String())
	assert.Equal(t, []string{"cierre:actualizado", "cierre:actualizado"}, feed.entidades())
}

func TestFijarFondo_Negativo(t *testing.T) {
	svc, cierres, _, _ := newCaja()
	_, err := svc.FijarFondo(context.Background(), time.Now(), dec("-1"))
	var ve *service.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Empty(t, cierres.cierres)
}

func TestEfectivoEsperado_SoloEfectivoDelDia(t *testing.T) {
	svc, _, ventas, _ := newCaja()
	dia := time.Date(2026, 3, 10, 0, 0, 0, 0, bogota)

	ventas.agregar(time.Date(2026, 3, 10, 0, 0, 0, 0, bogota), model.MetodoEfectivo, "25")
	ventas.agregar(time.Date(2026, 3, 10, 23, 30, 0, 0, bogota), model.MetodoEfectivo, "50")
	ventas.agregar(time.Date(2026, 3, 10, 12, 0, 0, 0, bogota), model.MetodoTarjeta, "400")
	ventas.agregar(time.Date(2026, 3, 11, 0, 0, 0, 0, bogota), model.MetodoEfectivo, "999")
	ventas.agregar(time.Date(2026, 3, 9, 23, 59, 59, 0, bogota), model.MetodoEfectivo, "999")

	esperado, err := svc.EfectivoEsperado(context.Background(), dia)
	require.NoError(t, err)
	assert.Equal(t, "1075", esperado.String())

	_, err = svc.FijarFondo(context.Background(), dia, dec("200"))
	require.NoError(t, err)
	resp, err := svc.ObtenerDia(context.Background(), dia)
	require.NoError(t, err)
	assert.Equal(t, "75", resp.VentasEfectivo.String())
	assert.Equal(t, "275", resp.EfectivoEsperado.String())
}

func TestCerrarDia_Clasificacion(t *testing.T) {
	cases := []struct {
		contado       string
		clasificacion string
		pct           string
	}{
		{"1000", "normal", "0"},
		{"1010", "normal", "1"},
		{"990", "normal", "-1"},
		{"1050", "advertencia", "5"},
		{"951", "advertencia", "-4.9"},
		{"1051", "critico", "5.1"},
		{"0", "critico", "-100"},
	}
	for _, tc := range cases {
		t.Run(tc.contado, func(t *testing.T) {
			svc, _, _, _ := newCaja()
			resp, err := svc.CerrarDia(context.Background(), time.Date(2026, 3, 10, 0, 0, 0, 0, bogota), dec(tc.contado))
			require.NoError(t, err)
			assert.Equal(t, tc.clasificacion, resp.Desvio.Clasificacion)
			assert.Equal(t, tc.pct, resp.Desvio.Porcentaje.String())
			assert.True(t, resp.Cerrado)
		})
	}
}

func TestCerrarDia_SinEfectivoEsperado(t *testing.T) {
	svc, _, _, _ := newCaja()
	dia := time.Date(2026, 3, 10, 0, 0, 0, 0, bogota)
	_, err := svc.FijarFondo(context.Background(), dia, dec("0"))
	require.NoError(t, err)

	resp, err := svc.CerrarDia(context.Background(), dia, dec("20"))
	require.NoError(t, err)
	assert.Equal(t, "20", resp.Desvio.Monto.String())
	assert.True(t, resp.Desvio.Porcentaje.IsZero())
}

func TestCerrarDia_YaCerradoNoCambia(t *testing.T) {
	svc, cierres, _, feed := newCaja()
	dia := time.Date(2026, 3, 10, 0, 0, 0, 0, bogota)

	_, err := svc.CerrarDia(context.Background(), dia, dec("1000"))
	require.NoError(t, err)

	resp, err := svc.CerrarDia(context.Background(), dia, dec("5"))
	require.NoError(t, err)
	require.NotNil(t, resp.EfectivoContado)
	assert.Equal(t, "1000", resp.EfectivoContado.String())
	assert.Equal(t, "normal", resp.Desvio.Clasificacion)

	dresp, err := svc.FijarFondo(context.Background(), dia, dec("1"))
	require.NoError(t, err)
	assert.Equal(t, "1000", dresp.FondoInicial.String())
	assert.True(t, dresp.Cerrado)

	assert.Equal(t, 1, cierres.upserts)
	assert.Len(t, feed.entidades(), 1)
}

func TestCerrarDia_ContadoNegativo(t *testing.T) {
	svc, _, _, _ := newCaja()
	_, err := svc.CerrarDia(context.Background(), time.Now(), dec("-0.01"))
	var ve *service.ValidationError
	assert.ErrorAs(t, err, &ve)
}
