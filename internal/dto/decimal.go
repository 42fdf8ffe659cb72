package dto

import "github.com/shopspring/decimal"

func init() {
	// Prices go out as JSON numbers (10.5), not strings ("10.5").
	decimal.MarshalJSONWithoutQuotes = true
}
