package service

import (
	"salescatalog/internal/dto"
	"salescatalog/internal/model"

	"github.com/shopspring/decimal"
)

// Aggregate sums quantities and revenue (qty × unit price) over sales.
// An empty slice yields 0 and 0.
func Aggregate(sales []model.Sale) (int, decimal.Decimal) {
	totalSales := 0
	totalRevenue := decimal.Zero
	for _, s := range sales {
		totalSales += s.SaleQty
		totalRevenue = totalRevenue.Add(s.Revenue())
	}
	return totalSales, totalRevenue
}

func toProductListItem(p *model.Product) dto.ProductListItem {
	totalSales, totalRevenue := Aggregate(p.Sales)
	return dto.ProductListItem{
		ID:           p.ID,
		Description:  p.Description,
		SalePrice:    p.SalePrice,
		Category:     p.Category,
		Image:        p.Image,
		TotalSales:   totalSales,
		TotalRevenue: totalRevenue,
	}
}

func toProductListItems(products []model.Product) []dto.ProductListItem {
	items := make([]dto.ProductListItem, 0, len(products))
	for i := range products {
		items = append(items, toProductListItem(&products[i]))
	}
	return items
}

func toSaleListItem(s *model.Sale) dto.SaleListItem {
	return dto.SaleListItem{
		ID:          s.ID,
		ProductID:   s.ProductID,
		ProductName: s.Product.DisplayName(),
		SaleQty:     s.SaleQty,
		SalePrice:   s.SalePrice,
		SaleDate:    s.SaleDate,
	}
}

func toSaleListItems(sales []model.Sale) []dto.SaleListItem {
	items := make([]dto.SaleListItem, 0, len(sales))
	for i := range sales {
		items = append(items, toSaleListItem(&sales[i]))
	}
	return items
}
