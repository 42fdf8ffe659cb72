// Package seed populates an empty catalog from the upstream sales API.
//
// Every upstream call is retried with exponential backoff behind a circuit
// breaker. When the upstream stays unreachable and local fallback is enabled,
// the same feeds are read from JSON files on disk. Rows are written through
// the ordinary repositories and only into tables that are still empty, so a
// restart never duplicates data.
package seed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"salescatalog/internal/infra"
	"salescatalog/internal/metrics"
	"salescatalog/internal/model"
	"salescatalog/internal/repository"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// ErrAlreadyRunning is returned by Run while another run is in progress.
var ErrAlreadyRunning = errors.New("seed already running")

// Upstream is the read side of the external catalog API.
type Upstream interface {
	FetchProducts(ctx context.Context) ([]infra.UpstreamProduct, error)
	FetchSales(ctx context.Context, productID int) ([]infra.UpstreamSale, error)
}

type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	// FallbackDir holds products.json and product-sales.json.
	FallbackDir   string
	AllowFallback bool
}

// Status describes the last completed run.
type Status struct {
	LastSeededAt     *time.Time
	LastProductCount int64
	LastSaleCount    int64
	Running          bool
	LastError        string
}

// Result summarizes one run.
type Result struct {
	ProductsInserted int
	SalesInserted    int
	SalesSkipped     int
}

type Seeder struct {
	products repository.ProductRepository
	sales    repository.SaleRepository
	upstream Upstream
	breaker  *infra.CircuitBreaker
	metrics  *metrics.Metrics
	cfg      Config

	// AfterInsert runs once rows with explicit ids were written.
	AfterInsert func(ctx context.Context) error

	runMu    sync.Mutex
	statusMu sync.RWMutex
	status   Status
	now      func() time.Time
}

func New(products repository.ProductRepository, sales repository.SaleRepository, upstream Upstream,
	breaker *infra.CircuitBreaker, m *metrics.Metrics, cfg Config) *Seeder {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if breaker == nil {
		breaker = infra.NewCircuitBreaker(infra.DefaultCBConfig("seed-upstream"))
	}
	return &Seeder{
		products: products,
		sales:    sales,
		upstream: upstream,
		breaker:  breaker,
		metrics:  m,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Status returns a snapshot of the last run.
func (s *Seeder) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

// Run fetches both feeds and inserts them into empty tables.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	if !s.runMu.TryLock() {
		return Result{}, ErrAlreadyRunning
	}
	defer s.runMu.Unlock()

	s.setRunning(true)
	start := s.now()
	log.Info().Msg("seed: starting")

	res, err := s.run(ctx)

	if s.metrics != nil {
		s.metrics.ObserveSeed(err, s.now().Sub(start), res.ProductsInserted, res.SalesInserted)
	}
	s.finish(ctx, err)

	if err != nil {
		log.Warn().Err(err).Msg("seed: failed")
		return res, err
	}
	st := s.Status()
	log.Info().
		Int("products_inserted", res.ProductsInserted).
		Int("sales_inserted", res.SalesInserted).
		Int("sales_skipped", res.SalesSkipped).
		Int64("products", st.LastProductCount).
		Int64("sales", st.LastSaleCount).
		Dur("elapsed", s.now().Sub(start)).
		Msg("seed: complete")
	return res, nil
}

func (s *Seeder) run(ctx context.Context) (Result, error) {
	var res Result

	products, err := s.loadProducts(ctx)
	if err != nil {
		return res, err
	}

	var sales []infra.UpstreamSale
	seen := make(map[int]bool)
	for _, p := range products {
		batch, err := s.loadSales(ctx, p.ID)
		if err != nil {
			return res, err
		}
		for _, sale := range batch {
			if sale.SaleID != 0 && seen[sale.SaleID] {
				continue
			}
			seen[sale.SaleID] = true
			sales = append(sales, sale)
		}
	}

	inserted := false

	nProducts, err := s.products.Count(ctx)
	if err != nil {
		return res, err
	}
	if len(products) > 0 && nProducts == 0 {
		for _, up := range products {
			p := toProduct(up)
			if err := s.products.Add(ctx, &p); err != nil {
				return res, fmt.Errorf("seed product %d: %w", up.ID, err)
			}
			res.ProductsInserted++
		}
		if err := s.products.SaveChanges(ctx); err != nil {
			return res, err
		}
		inserted = true
	}

	nSales, err := s.sales.Count(ctx)
	if err != nil {
		return res, err
	}
	if len(sales) > 0 && nSales == 0 {
		for _, us := range sales {
			sale := toSale(us, s.now)
			err := s.sales.Add(ctx, &sale)
			if errors.Is(err, repository.ErrInvalidReference) {
				res.SalesSkipped++
				continue
			}
			if err != nil {
				return res, fmt.Errorf("seed sale %d: %w", us.SaleID, err)
			}
			res.SalesInserted++
		}
		if err := s.sales.SaveChanges(ctx); err != nil {
			return res, err
		}
		inserted = true
	}

	if inserted && s.AfterInsert != nil {
		if err := s.AfterInsert(ctx); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (s *Seeder) loadProducts(ctx context.Context) ([]infra.UpstreamProduct, error) {
	products, err := retry(ctx, s, "products", func() ([]infra.UpstreamProduct, error) {
		return s.upstream.FetchProducts(ctx)
	})
	if err == nil {
		return products, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	log.Warn().Err(err).Int("attempts", s.cfg.MaxAttempts).Msg("seed: products upstream failed")
	if !s.cfg.AllowFallback {
		log.Warn().Msg("seed: local fallback disabled, continuing without products")
		return nil, nil
	}
	local, ferr := loadFallbackProducts(s.cfg.FallbackDir)
	if ferr != nil {
		log.Error().Err(ferr).Msg("seed: local products fallback unusable")
		return nil, nil
	}
	log.Info().Int("count", len(local)).Msg("seed: loaded products from local fallback")
	return local, nil
}

func (s *Seeder) loadSales(ctx context.Context, productID int) ([]infra.UpstreamSale, error) {
	sales, err := retry(ctx, s, "sales", func() ([]infra.UpstreamSale, error) {
		return s.upstream.FetchSales(ctx, productID)
	})
	if err == nil {
		return sales, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	log.Warn().Err(err).Int("product_id", productID).Msg("seed: sales upstream failed")
	if !s.cfg.AllowFallback {
		return nil, nil
	}
	local, ferr := loadFallbackSales(s.cfg.FallbackDir, productID)
	if ferr != nil {
		log.Error().Err(ferr).Int("product_id", productID).Msg("seed: local sales fallback unusable")
		return nil, nil
	}
	return local, nil
}

// retry runs fetch through the breaker with exponential backoff.
// An open breaker stops retrying at once.
func retry[T any](ctx context.Context, s *Seeder, feed string, fetch func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.InitialBackoff
	b.Multiplier = 2

	op := func() (T, error) {
		var out T
		err := s.breaker.Execute(func() error {
			var err error
			out, err = fetch()
			return err
		})
		if errors.Is(err, infra.ErrCircuitOpen) {
			return out, backoff.Permanent(err)
		}
		return out, err
	}

	return backoff.Retry[T](ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(s.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			if s.metrics != nil {
				s.metrics.SeedFetchRetries.Inc()
			}
			log.Warn().Err(err).Str("feed", feed).Dur("retry_in", wait).Msg("seed: fetch failed, retrying")
		}),
	)
}

func (s *Seeder) setRunning(running bool) {
	s.statusMu.Lock()
	s.status.Running = running
	s.statusMu.Unlock()
}

func (s *Seeder) finish(ctx context.Context, runErr error) {
	// Counts are read even when the run was cancelled, so use a fresh context.
	countCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	nProducts, perr := s.products.Count(countCtx)
	nSales, serr := s.sales.Count(countCtx)

	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.Running = false
	if runErr != nil {
		s.status.LastError = runErr.Error()
		return
	}
	now := s.now().UTC()
	s.status.LastSeededAt = &now
	s.status.LastError = ""
	if perr == nil {
		s.status.LastProductCount = nProducts
	}
	if serr == nil {
		s.status.LastSaleCount = nSales
	}
}

func toProduct(up infra.UpstreamProduct) model.Product {
	return model.Product{
		ID:          up.ID,
		Description: up.Description,
		SalePrice:   up.SalePrice,
		Category:    up.Category,
		Image:       up.Image,
	}
}

func toSale(us infra.UpstreamSale, now func() time.Time) model.Sale {
	return model.Sale{
		ID:        us.SaleID,
		ProductID: us.ProductID,
		SaleQty:   us.SaleQty,
		SalePrice: us.SalePrice,
		SaleDate:  parseSaleDate(us.SaleDate, now),
	}
}

var saleDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseSaleDate accepts RFC3339 and zone-less timestamps (read as UTC).
// Empty or unparseable values become now.
func parseSaleDate(raw string, now func() time.Time) time.Time {
	if raw == "" {
		return now().UTC()
	}
	for _, layout := range saleDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return now().UTC()
}
