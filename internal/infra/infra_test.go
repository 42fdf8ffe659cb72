package infra

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"salescatalog/internal/dto"

	"github.com/shopspring/decimal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Circuit breaker ───────────────────────────────────────────────────────────

func newTestBreaker(threshold, successes int, timeout time.Duration) (*CircuitBreaker, *time.Time) {
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: threshold,
		SuccessThreshold: successes,
		OpenTimeout:      timeout,
	})
	cb.now = func() time.Time { return clock }
	return cb, &clock
}

var errUpstream = errors.New("upstream")

func fail() error    { return errUpstream }
func succeed() error { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(3, 1, time.Minute)

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(fail), errUpstream)
		assert.Equal(t, CBClosed, cb.State())
	}
	assert.ErrorIs(t, cb.Execute(fail), errUpstream)
	assert.Equal(t, CBOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(2, 1, time.Minute)

	_ = cb.Execute(fail)
	require.NoError(t, cb.Execute(succeed))
	_ = cb.Execute(fail)

	assert.Equal(t, CBClosed, cb.State(), "failures must be consecutive")
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cb, clock := newTestBreaker(1, 2, time.Minute)
	_ = cb.Execute(fail)
	require.Equal(t, CBOpen, cb.State())

	*clock = clock.Add(time.Minute)
	assert.Equal(t, CBHalfOpen, cb.State())

	require.NoError(t, cb.Execute(succeed))
	assert.Equal(t, CBHalfOpen, cb.State(), "needs two probe successes")
	require.NoError(t, cb.Execute(succeed))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(1, 1, time.Minute)
	_ = cb.Execute(fail)
	*clock = clock.Add(2 * time.Minute)

	assert.ErrorIs(t, cb.Execute(fail), errUpstream)
	assert.Equal(t, CBOpen, cb.State())
}

func TestCBStateString(t *testing.T) {
	assert.Equal(t, "closed", CBClosed.String())
	assert.Equal(t, "open", CBOpen.String())
	assert.Equal(t, "half-open", CBHalfOpen.String())
	assert.Equal(t, "unknown", CBState(9).String())
}

// ── Seed client ───────────────────────────────────────────────────────────────

func TestSeedClient_FetchProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`[{"id":3,"description":"Lamp","salePrice":19.99,"category":null,"image":null}]`))
	}))
	defer srv.Close()

	got, err := NewSeedClient(srv.URL, "").FetchProducts(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].ID)
	assert.Equal(t, "Lamp", *got[0].Description)
	assert.Equal(t, "19.99", got[0].SalePrice.String())
	assert.Nil(t, got[0].Category)
}

func TestSeedClient_FetchSalesSendsProductID(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"saleId":1,"productId":7,"salePrice":2,"saleQty":3,"saleDate":"2025-01-01"}]`))
	}))
	defer srv.Close()

	got, err := NewSeedClient("", srv.URL+"/sales?format=json").FetchSales(context.Background(), 7)

	require.NoError(t, err)
	assert.Contains(t, query, "Id=7")
	assert.Contains(t, query, "format=json")
	require.Len(t, got, 1)
	assert.Equal(t, "2025-01-01", got[0].SaleDate)
}

func TestSeedClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewSeedClient(srv.URL, "").FetchProducts(context.Background())

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.Status)
}

func TestSeedClient_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"`))
	}))
	defer srv.Close()

	_, err := NewSeedClient(srv.URL, "").FetchProducts(context.Background())

	assert.ErrorContains(t, err, "decode")
}

// ── Store ─────────────────────────────────────────────────────────────────────

func TestNewDatabase_UnknownDriver(t *testing.T) {
	_, err := NewDatabase("oracle", "x")
	assert.Error(t, err)
}

func TestNewRedis_EmptyURLDisables(t *testing.T) {
	rdb, err := NewRedis("")
	assert.NoError(t, err)
	assert.Nil(t, rdb)
}

func TestNewRedis_BadURL(t *testing.T) {
	_, err := NewRedis("not-a-url://")
	assert.Error(t, err)
}

// ── Report / mail ─────────────────────────────────────────────────────────────

func TestRenderSalesReport(t *testing.T) {
	desc := "Lámpara de mesa"
	d := &dto.ProductDetail{
		ProductListItem: dto.ProductListItem{
			ID:           4,
			Description:  &desc,
			SalePrice:    decimal.RequireFromString("12.50"),
			TotalSales:   3,
			TotalRevenue: decimal.RequireFromString("37.50"),
		},
		Sales: []dto.SaleListItem{
			{ID: 2, ProductID: 4, SaleQty: 2, SalePrice: decimal.RequireFromString("12.50"), SaleDate: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)},
			{ID: 1, ProductID: 4, SaleQty: 1, SalePrice: decimal.RequireFromString("12.50"), SaleDate: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
		},
	}
	var buf strings.Builder

	err := RenderSalesReport(&buf, d, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF-"))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestRenderSalesReport_NoSales(t *testing.T) {
	var buf strings.Builder
	err := RenderSalesReport(&buf, &dto.ProductDetail{ProductListItem: dto.ProductListItem{ID: 1}}, time.Now())

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF-"))
}

func TestNewMessage(t *testing.T) {
	raw, err := newMessage("alerts@example.test", "ops@example.test", "seed failed", "details").Bytes()

	require.NoError(t, err)
	msg := string(raw)
	assert.Contains(t, msg, "From: <alerts@example.test>")
	assert.Contains(t, msg, "To: <ops@example.test>")
	assert.Contains(t, msg, "Subject: seed failed")
	assert.Contains(t, msg, "details")
}

func TestMailer_FromFallsBackToHost(t *testing.T) {
	assert.Equal(t, "salescatalog@smtp.test", NewMailer("smtp.test", 25, "", "").from())
	assert.Equal(t, "bot@example.test", NewMailer("smtp.test", 25, "bot@example.test", "pw").from())
}
