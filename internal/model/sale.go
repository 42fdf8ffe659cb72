package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale records a quantity of one product sold at a unit price.
// Product is populated by repository reads; it is never loaded lazily.
type Sale struct {
	ID        int             `gorm:"primaryKey;autoIncrement"`
	ProductID int             `gorm:"not null;index"`
	SaleQty   int             `gorm:"not null"`
	SalePrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	SaleDate  time.Time       `gorm:"not null;index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// Revenue is quantity times unit price.
func (s Sale) Revenue() decimal.Decimal {
	return s.SalePrice.Mul(decimal.NewFromInt(int64(s.SaleQty)))
}
