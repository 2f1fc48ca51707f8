//go:build integration

package router_test

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/config"
	"github.com/darielruizg/Puntodeventa/internal/eventos"
	"github.com/darielruizg/Puntodeventa/internal/infra"
	"github.com/darielruizg/Puntodeventa/internal/metrics"
	"github.com/darielruizg/Puntodeventa/internal/repository"
	"github.com/darielruizg/Puntodeventa/internal/router"
	"github.com/darielruizg/Puntodeventa/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

// bandeja records the receipts the email worker would have sent.
type bandeja struct {
	mu      sync.Mutex
	enviado []string
}

func (b *bandeja) SendComprobante(to, _, _, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enviado = append(b.enviado, to)
	return nil
}

func (b *bandeja) destinatarios() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.enviado...)
}

type e2eEnv struct {
	server *httptest.Server
	rdb    *redis.Client
	feed   *eventos.Redis
	correo *bandeja
	token  string
}

func (e *e2eEnv) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.server.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

func setupE2E(t *testing.T) *e2eEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	pgC, err := tcPostgres.Run(ctx, "postgres:15-alpine",
		tcPostgres.WithDatabase("pos_test"),
		tcPostgres.WithUsername("pos"),
		tcPostgres.WithPassword("pos"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(pgC) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(rdC) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("clave-e2e"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := &config.Config{
		Env:                  "test",
		StoreDriver:          "postgres",
		DatabaseURL:          pgURL,
		RedisURL:             rdURL,
		JWTSecret:            "e2e-secret",
		JWTExpirationHours:   1,
		OperadorUsuario:      "caja",
		OperadorPasswordHash: string(hash),
		FondoInicialDefault:  decimal.NewFromInt(1000),
		UmbralReposicion:     3,
		PDFStoragePath:       t.TempDir(),
		NombreNegocio:        "Almacen E2E",
		ZonaHoraria:          "UTC",
	}

	db, err := infra.NewDatabase(cfg.StoreDriver, cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	m := metrics.New()
	env := &e2eEnv{rdb: rdb, feed: eventos.NewRedis(rdb), correo: &bandeja{}}

	pool := worker.NewPool(rdb, m)
	emailWorker := worker.NewEmailWorker(repository.NewVentaRepository(db), env.correo, infra.GenerateTicketPDF, cfg.NombreNegocio, cfg.PDFStoragePath, time.UTC)
	pool.Register(worker.JobTicketEmail, emailWorker.Process)
	pool.Start(ctx, 1)

	r := router.New(cfg, router.Deps{
		DB:         db,
		Redis:      rdb,
		Feed:       env.feed,
		Metrics:    m,
		Dispatcher: worker.NewDispatcher(rdb),
	})
	env.server = httptest.NewServer(r)
	t.Cleanup(env.server.Close)

	status, body := env.do(t, http.MethodPost, "/v1/auth/login", map[string]string{"username": "caja", "password": "clave-e2e"})
	require.Equal(t, http.StatusOK, status)
	env.token = body["access_token"].(string)
	return env
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_VentaCompleta(t *testing.T) {
	env := setupE2E(t)
	ctx := context.Background()

	status, _ := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)

	status, prod := env.do(t, http.MethodPost, "/v1/productos", map[string]any{
		"sku": "7790001", "nombre": "Yerba", "precio": "4500", "stock": 4,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.EqualValues(t, 4, prod["stock"])

	// First lookup fills the cache.
	status, _ = env.do(t, http.MethodGet, "/v1/productos/codigo/7790001", nil)
	require.Equal(t, http.StatusOK, status)
	n, err := env.rdb.Exists(ctx, "sku:7790001").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	status, venta := env.do(t, http.MethodPost, "/v1/ventas", map[string]any{
		"metodo_pago":   "cash",
		"cliente_email": "cliente@example.com",
		"items": []map[string]any{
			{"sku": "7790001", "nombre": "Yerba", "precio": "4500", "cantidad": 5},
		},
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "22500", venta["total"])

	// The sale dropped the cached entry, so the next read sees the oversold stock.
	status, prod = env.do(t, http.MethodGet, "/v1/productos/codigo/7790001", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, -1, prod["stock"])

	require.Eventually(t, func() bool {
		return len(env.correo.destinatarios()) == 1
	}, 15*time.Second, 100*time.Millisecond)
	assert.Equal(t, "cliente@example.com", env.correo.destinatarios()[0])

	status, caja := env.do(t, http.MethodGet, "/v1/caja/hoy", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "23500", caja["efectivo_esperado"])
}

func TestE2E_HealthListaFallasDeEmail(t *testing.T) {
	env := setupE2E(t)
	ctx := context.Background()

	worker.SendToDLQ(ctx, env.rdb, worker.QueueEmail, worker.JobTicketEmail, json.RawMessage(`{"to_email":"x@y.z"}`), "smtp caido", 5)

	status, body := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["email_dlq"])
	fallas, ok := body["email_dlq_recientes"].([]any)
	require.True(t, ok)
	require.Len(t, fallas, 1)
	falla := fallas[0].(map[string]any)
	assert.Equal(t, "smtp caido", falla["reason"])
	assert.EqualValues(t, 5, falla["attempts"])
	assert.NotContains(t, falla, "payload")

	entries, err := worker.DLQEntries(ctx, env.rdb, worker.QueueEmail, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.JSONEq(t, `{"to_email":"x@y.z"}`, string(entries[0].Payload))
}

func TestE2E_FeedPorRedis(t *testing.T) {
	env := setupE2E(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, stop := env.feed.Suscribir(ctx)
	defer stop()
	require.Eventually(t, func() bool {
		subs, err := env.rdb.PubSubNumSub(ctx, eventos.Canal).Result()
		return err == nil && subs[eventos.Canal] > 0
	}, 5*time.Second, 50*time.Millisecond)

	status, _ := env.do(t, http.MethodPut, "/v1/caja/2026-03-10/fondo", map[string]any{"monto": "800"})
	require.Equal(t, http.StatusOK, status)

	select {
	case ev := <-ch:
		assert.Equal(t, eventos.EntidadCierre, ev.Entidad)
		assert.Equal(t, "2026-03-10", ev.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("no llego el evento por redis")
	}
}
