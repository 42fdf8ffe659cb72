package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CreateSaleRequest: salePrice defaults to the product's price and saleDate to now.
type CreateSaleRequest struct {
	ProductID int              `json:"productId" validate:"required,min=1"`
	SaleQty   int              `json:"saleQty"   validate:"required,gt=0"`
	SalePrice *decimal.Decimal `json:"salePrice" validate:"omitempty,gt=0"`
	SaleDate  *time.Time       `json:"saleDate"`
}

// UpdateSaleRequest is a full replace, so every field is required.
type UpdateSaleRequest struct {
	ProductID int             `json:"productId" validate:"required,min=1"`
	SaleQty   int             `json:"saleQty"   validate:"required,gt=0"`
	SalePrice decimal.Decimal `json:"salePrice" validate:"required,gt=0"`
	SaleDate  time.Time       `json:"saleDate"  validate:"required"`
}

// SaleQuery is bound from the query string of GET /api/sales.
// Dates accept RFC3339 or YYYY-MM-DD.
type SaleQuery struct {
	ProductID  *int   `form:"productId"`
	StartDate  string `form:"startDate"`
	EndDate    string `form:"endDate"`
	PageNumber int    `form:"pageNumber,default=1"`
	PageSize   int    `form:"pageSize,default=10"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleListItem struct {
	ID          int             `json:"id"`
	ProductID   int             `json:"productId"`
	ProductName string          `json:"productName"`
	SaleQty     int             `json:"saleQty"`
	SalePrice   decimal.Decimal `json:"salePrice"`
	SaleDate    time.Time       `json:"saleDate"`
}
