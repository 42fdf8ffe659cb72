package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Its sales live in the sales table and are only
// present on reads that explicitly load them.
type Product struct {
	ID          int             `gorm:"primaryKey;autoIncrement"`
	Description *string
	SalePrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Category    *string         `gorm:"index"`
	Image       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Sales []Sale `gorm:"foreignKey:ProductID"`
}

// DisplayName is what sale listings show as the product name.
func (p *Product) DisplayName() string {
	if p == nil || p.Description == nil {
		return ""
	}
	return *p.Description
}
