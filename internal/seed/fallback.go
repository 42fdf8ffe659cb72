package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"salescatalog/internal/infra"
)

const (
	fallbackProductsFile = "products.json"
	fallbackSalesFile    = "product-sales.json"
)

func loadFallbackProducts(dir string) ([]infra.UpstreamProduct, error) {
	var out []infra.UpstreamProduct
	if err := readJSONFile(filepath.Join(dir, fallbackProductsFile), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadFallbackSales returns the sales of one product from the local sales file.
func loadFallbackSales(dir string, productID int) ([]infra.UpstreamSale, error) {
	var all []infra.UpstreamSale
	if err := readJSONFile(filepath.Join(dir, fallbackSalesFile), &all); err != nil {
		return nil, err
	}
	var out []infra.UpstreamSale
	for _, s := range all {
		if s.ProductID == productID {
			out = append(out, s)
		}
	}
	return out, nil
}

func readJSONFile(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open fallback %s: %w", path, err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(dst); err != nil {
		return fmt.Errorf("decode fallback %s: %w", path, err)
	}
	return nil
}
