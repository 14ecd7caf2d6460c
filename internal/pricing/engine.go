package pricing

import (
	"log/slog"

	"github.com/Simplici0/blinds/internal/logger"
	"github.com/Simplici0/blinds/internal/priceconfig"
	"github.com/Simplici0/blinds/internal/product"
	"github.com/Simplici0/blinds/internal/quote"
)

// MatrixSource resolves a fabric type to its price matrix.
type MatrixSource interface {
	PriceMatrix(fabricType string) *priceconfig.Matrix
}

// FirstError is the first pricing failure of a pass, in row order.
// RowIndex is -1 when the failure is not tied to a row.
type FirstError struct {
	Message  string       `json:"message"`
	RowIndex int          `json:"rowIndex"`
	Column   quote.Column `json:"column,omitempty"`
}

func (e *FirstError) Error() string { return e.Message }

// Engine prices the items of the current product.
type Engine struct {
	matrices MatrixSource
	log      *slog.Logger
}

// NewEngine returns an engine reading matrices from src.
func NewEngine(src MatrixSource, log *slog.Logger) *Engine {
	if log == nil {
		log = logger.Discard()
	}
	return &Engine{matrices: src, log: log}
}

// CalculateAndSum prices every item that has width, height and fabric type,
// clears the price of every other item and sums the result. Errors do not stop
// the pass; only the first one is returned. The input tree is not modified.
func (e *Engine) CalculateAndSum(q *quote.QuoteData, strategy product.Strategy) (*quote.QuoteData, *FirstError) {
	if strategy == nil {
		e.log.Error("calculate and sum called without a product strategy", "product", q.CurrentProduct)
		return q, &FirstError{Message: "Product strategy not provided.", RowIndex: -1}
	}

	var first *FirstError
	src := q.Items()
	items := make([]quote.Item, len(src))
	total := 0.0

	for i, it := range src {
		it.LinePrice = nil
		if it.Priceable() {
			res := strategy.CalculatePrice(it, e.matrices.PriceMatrix(it.FabricType))
			switch {
			case res.Price != nil:
				price := *res.Price
				it.LinePrice = &price
				total += price
			case first == nil:
				first = &FirstError{Message: "Unable to price this item.", RowIndex: i}
				if res.Err != nil {
					first.Message = res.Err.Message
					first.Column = res.Err.Column
				}
			}
		}
		items[i] = it
	}

	summary := q.Current().Summary
	accessories := make(map[string]float64, len(summary.Accessories))
	for k, v := range summary.Accessories {
		accessories[k] = v
	}
	summary.Accessories = accessories
	summary.TotalSum = total

	out := q.WithItems(items).WithSummary(summary)
	if first != nil {
		e.log.Info("pricing pass finished with errors", "first_row", first.RowIndex, "message", first.Message)
	}
	return out, first
}
