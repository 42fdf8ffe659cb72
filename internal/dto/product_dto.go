package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ProductRequest is the body of POST /api/products and PUT /api/products/:id.
// PUT replaces every field, so omitted optional fields are cleared.
type ProductRequest struct {
	Description *string         `json:"description" form:"description" validate:"omitempty,max=500"`
	SalePrice   decimal.Decimal `json:"salePrice"   form:"salePrice"   validate:"required,gt=0"`
	Category    *string         `json:"category"    form:"category"    validate:"omitempty,max=100"`
	Image       *string         `json:"image"       form:"image"`
}

// ProductPageQuery is bound from the query string of GET /api/products.
type ProductPageQuery struct {
	PageNumber int `form:"pageNumber,default=1"`
	PageSize   int `form:"pageSize,default=10"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// ProductListItem is a product with its sales aggregates.
type ProductListItem struct {
	ID           int             `json:"id"`
	Description  *string         `json:"description"`
	SalePrice    decimal.Decimal `json:"salePrice"`
	Category     *string         `json:"category"`
	Image        *string         `json:"image"`
	TotalSales   int             `json:"totalSales"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
}

// ProductDetail is returned by GET /api/products/:id/sales.
type ProductDetail struct {
	ProductListItem
	Sales []SaleListItem `json:"sales"`
}
