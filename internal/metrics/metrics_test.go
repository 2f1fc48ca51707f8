package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordVenta("cash", decimal.NewFromInt(10))
		m.RecordEscaneo("encontrado")
		m.RecordStockNegativo()
		m.RecordJob("email", "ok")
		m.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
	})
}

func TestRecordVenta(t *testing.T) {
	m := New()
	m.RecordVenta("cash", decimal.RequireFromString("25.50"))
	m.RecordVenta("cash", decimal.NewFromInt(10))
	m.RecordVenta("card", decimal.NewFromInt(3))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.VentasTotal.WithLabelValues("cash")))
	assert.Equal(t, 35.5, testutil.ToFloat64(m.VentasMontoTotal.WithLabelValues("cash")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VentasTotal.WithLabelValues("card")))
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.RecordStockNegativo()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "pos_stock_negativo_total 1"))
}
