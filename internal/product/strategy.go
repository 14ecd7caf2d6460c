// Package product holds the per-product pricing strategies and the factory
// that resolves them by product key.
package product

import (
	"github.com/Simplici0/blinds/internal/priceconfig"
	"github.com/Simplici0/blinds/internal/quote"
)

// PriceError is a pricing failure tied to the column the user must correct.
type PriceError struct {
	Message string       `json:"message"`
	Column  quote.Column `json:"column"`
}

func (e *PriceError) Error() string { return e.Message }

// PriceResult is either a price or an error, never both.
type PriceResult struct {
	Price *float64
	Err   *PriceError
}

func priced(p float64) PriceResult { return PriceResult{Price: &p} }

func failed(col quote.Column, msg string) PriceResult {
	return PriceResult{Err: &PriceError{Message: msg, Column: col}}
}

// Strategy prices one product type.
type Strategy interface {
	Key() string
	InitialItem() quote.Item
	CalculatePrice(item quote.Item, matrix *priceconfig.Matrix) PriceResult
	ValidationRules() map[quote.Column]priceconfig.ValidationRule
	AccessoryFuncs() map[Accessory]AccessoryFunc
}
