//go:build integration

package router

// Integration tests against real Postgres and Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"salescatalog/internal/config"
	"salescatalog/internal/dto"
	"salescatalog/internal/infra"
	"salescatalog/internal/metrics"
	"salescatalog/internal/middleware"
	"salescatalog/internal/repository"
	"salescatalog/internal/seed"
	"salescatalog/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupIntegration(t *testing.T, upstream *httptest.Server) *testApp {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("catalog_test"),
		tcPostgres.WithUsername("catalog"),
		tcPostgres.WithPassword("catalog"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:            "test",
		DBDriver:       infra.DriverPostgres,
		DatabaseURL:    pgURL,
		RedisURL:       rdURL,
		WorkerPoolSize: 1,
	}

	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	lifetime, cancel := context.WithCancel(ctx)
	t.Cleanup(cancel)

	m := metrics.New()
	breaker := infra.NewCircuitBreaker(infra.DefaultCBConfig("seed-upstream"))
	seeder := seed.New(
		repository.NewProductRepository(db), repository.NewSaleRepository(db),
		infra.NewSeedClient(upstream.URL+"/products", upstream.URL+"/sales"),
		breaker, m,
		seed.Config{MaxAttempts: 2, InitialBackoff: 10 * time.Millisecond},
	)
	seeder.AfterInsert = func(ctx context.Context) error {
		return infra.SyncSequences(db.WithContext(ctx))
	}

	dispatcher := worker.NewDispatcher(rdb)
	worker.StartWorkerPool(lifetime, rdb, &worker.WorkerHandlers{Seed: seeder}, cfg.WorkerPoolSize)
	trigger := worker.NewSeedTrigger(lifetime, dispatcher, seeder)

	engine := New(cfg, Deps{
		DB:          db,
		Redis:       rdb,
		Metrics:     m,
		Seeder:      seeder,
		SeedTrigger: trigger,
		SeedBreaker: breaker,
	})
	return &testApp{t: t, engine: engine, db: db}
}

func bigUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		var items []string
		for id := 1; id <= 3; id++ {
			items = append(items, fmt.Sprintf(`{"id":%d,"description":"Item %d","salePrice":%d.50}`, id, id, id))
		}
		_, _ = w.Write([]byte("[" + strings.Join(items, ",") + "]"))
	})
	mux.HandleFunc("/sales", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("Id")
		var items []string
		for n := 0; n < 10; n++ {
			items = append(items, fmt.Sprintf(
				`{"saleId":%s%02d,"productId":%s,"salePrice":1.25,"saleQty":%d,"saleDate":"2025-02-%02dT10:00:00Z"}`,
				id, n, id, n+1, n+1))
		}
		_, _ = w.Write([]byte("[" + strings.Join(items, ",") + "]"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestIntegration_QueuedSeedAndQueries(t *testing.T) {
	app := setupIntegration(t, bigUpstream(t))

	w := app.do(http.MethodPost, "/api/seed/run", nil)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, "Seed queued", decode[dto.SeedRunResponse](t, w).Message)

	require.Eventually(t, func() bool {
		st := decode[dto.SeedStatusResponse](t, app.do(http.MethodGet, "/api/seedstatus", nil))
		return st.SalesInDB == 30
	}, 30*time.Second, 100*time.Millisecond)

	// Filter + paging on Postgres
	w = app.do(http.MethodGet, "/api/sales?productId=2&startDate=2025-02-03&endDate=2025-02-05&pageSize=2", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	page := decode[dto.Page[dto.SaleListItem]](t, w)
	assert.EqualValues(t, 3, page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 5, page.Items[0].SaleQty, "Feb 5 first")
	assert.Equal(t, "Item 2", page.Items[0].ProductName)

	// Aggregates: qty 1..10 at 1.25
	w = app.do(http.MethodGet, "/api/products/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[dto.ProductListItem](t, w)
	assert.Equal(t, 55, p.TotalSales)
	assert.Equal(t, "68.75", p.TotalRevenue.String())

	// Sequences were moved past the seeded ids.
	created := app.createProduct("Fresh", 2)
	assert.Equal(t, 4, created.ID)
	sale := app.createSale(created.ID, 1, time.Now())
	assert.GreaterOrEqual(t, sale.ID, 310)

	// Deleting a product that still has sales is refused by the store.
	w = app.do(http.MethodDelete, "/api/products/1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "connected", health["redis"])
	assert.EqualValues(t, 0, health["seed_dlq"])
}

func TestIntegration_ResetRestartsIdentity(t *testing.T) {
	app := setupIntegration(t, bigUpstream(t))
	app.createProduct("One", 1)
	app.createProduct("Two", 1)

	w := app.do(http.MethodPost, "/api/seed/reset", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	p := app.createProduct("Again", 1)
	assert.Equal(t, 1, p.ID)
}

func TestIntegration_RateLimitSharedThroughRedis(t *testing.T) {
	ctx := context.Background()
	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(rdURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig()
	cfg.RateLimitPerMinute = 2
	// Two routers, one Redis: the budget is shared between them.
	newApp := func() *testApp {
		limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
		limiter.UseRedis(rdb)
		db, err := infra.NewDatabase(infra.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
		require.NoError(t, err)
		return &testApp{t: t, db: db, engine: New(cfg, Deps{DB: db, RateLimiter: limiter})}
	}
	a, b := newApp(), newApp()

	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/products/all", nil).Code)
	assert.Equal(t, http.StatusOK, b.do(http.MethodGet, "/api/products/all", nil).Code)
	w := a.do(http.MethodGet, "/api/products/all", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
