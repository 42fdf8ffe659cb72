package dto

import "time"

// SeedStatusResponse is returned by GET /api/seedstatus.
type SeedStatusResponse struct {
	LastSeededAt     *time.Time `json:"lastSeededAt"`
	ProductsInDB     int64      `json:"productsInDb"`
	SalesInDB        int64      `json:"salesInDb"`
	LastProductCount int64      `json:"lastProductCount"`
	LastSaleCount    int64      `json:"lastSaleCount"`
	Running          bool       `json:"running"`
	LastError        *string    `json:"lastError,omitempty"`
}

// SeedRunResponse acknowledges POST /api/seed/run.
type SeedRunResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
