// Package metrics holds the prometheus collectors of the point of sale.
// Every recording method is safe on a nil *Metrics so services can run
// without instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "pos"

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	VentasTotal      *prometheus.CounterVec
	VentasMontoTotal *prometheus.CounterVec
	EscaneosTotal    *prometheus.CounterVec
	StockNegativo    prometheus.Counter
	JobsTotal        *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "path"},
	)
	m.VentasTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ventas_total",
			Help:      "Committed sales by payment method",
		},
		[]string{"metodo"},
	)
	m.VentasMontoTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ventas_monto_total",
			Help:      "Committed sales amount by payment method",
		},
		[]string{"metodo"},
	)
	m.EscaneosTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escaneos_total",
			Help:      "Scanner codes by lookup result",
		},
		[]string{"resultado"},
	)
	m.StockNegativo = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_negativo_total",
			Help:      "Sale decrements that left a product below zero",
		},
	)
	m.JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Background jobs processed by type and status",
		},
		[]string{"type", "status"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.VentasTotal,
		m.VentasMontoTotal,
		m.EscaneosTotal,
		m.StockNegativo,
		m.JobsTotal,
	)
	return m
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) RecordHTTPRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) RecordVenta(metodo string, total decimal.Decimal) {
	if m == nil {
		return
	}
	m.VentasTotal.WithLabelValues(metodo).Inc()
	f, _ := total.Float64()
	m.VentasMontoTotal.WithLabelValues(metodo).Add(f)
}

// RecordEscaneo: resultado is "encontrado" or "no_encontrado".
func (m *Metrics) RecordEscaneo(resultado string) {
	if m == nil {
		return
	}
	m.EscaneosTotal.WithLabelValues(resultado).Inc()
}

func (m *Metrics) RecordStockNegativo() {
	if m == nil {
		return
	}
	m.StockNegativo.Inc()
}

func (m *Metrics) RecordJob(jobType, status string) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(jobType, status).Inc()
}
