package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// UpstreamProduct is one element of the upstream products feed.
type UpstreamProduct struct {
	ID          int             `json:"id"`
	Description *string         `json:"description"`
	SalePrice   decimal.Decimal `json:"salePrice"`
	Category    *string         `json:"category"`
	Image       *string         `json:"image"`
}

// UpstreamSale is one element of the upstream per-product sales feed.
// SaleDate is kept raw; unparseable or empty values are handled by the seeder.
type UpstreamSale struct {
	SaleID    int             `json:"saleId"`
	ProductID int             `json:"productId"`
	SalePrice decimal.Decimal `json:"salePrice"`
	SaleQty   int             `json:"saleQty"`
	SaleDate  string          `json:"saleDate"`
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("seed upstream: %s returned %d", e.URL, e.Status)
}

// SeedClient reads the external catalog feeds used to populate the store.
type SeedClient struct {
	productsURL string
	salesURL    string
	httpClient  *http.Client
}

func NewSeedClient(productsURL, salesURL string) *SeedClient {
	return &SeedClient{
		productsURL: productsURL,
		salesURL:    salesURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchProducts performs a single GET against the products feed.
func (c *SeedClient) FetchProducts(ctx context.Context) ([]UpstreamProduct, error) {
	var out []UpstreamProduct
	if err := c.getJSON(ctx, c.productsURL, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchSales performs a single GET against the sales feed for one product.
func (c *SeedClient) FetchSales(ctx context.Context, productID int) ([]UpstreamSale, error) {
	u, err := url.Parse(c.salesURL)
	if err != nil {
		return nil, fmt.Errorf("seed upstream: parse sales url: %w", err)
	}
	q := u.Query()
	q.Set("Id", strconv.Itoa(productID))
	u.RawQuery = q.Encode()

	var out []UpstreamSale
	if err := c.getJSON(ctx, u.String(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SeedClient) getJSON(ctx context.Context, target string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("seed upstream: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("seed upstream: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: target, Status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("seed upstream: decode response: %w", err)
	}
	return nil
}
