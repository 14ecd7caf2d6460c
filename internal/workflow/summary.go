package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/Simplici0/blinds/internal/distribution"
	"github.com/Simplici0/blinds/internal/pricing"
	"github.com/Simplici0/blinds/internal/product"
	"github.com/Simplici0/blinds/internal/quote"
)

// CalculateAndSum prices every item and commits the result even when some
// rows failed. The sum is flagged outdated while an error remains and the
// cursor moves to the first failing cell.
func (s *Service) CalculateAndSum() (quote.Snapshot, *pricing.FirstError) {
	start := time.Now()
	var first *pricing.FirstError

	snap, _ := s.update(func(st *quote.State) (*quote.State, error) {
		strategy, err := s.strategy(st.Quote)
		if err != nil {
			s.log.Error("calculate and sum", "err", err)
		}
		var priced *quote.QuoteData
		priced, first = s.engine.CalculateAndSum(st.Quote, strategy)

		next := s.apply(st, quote.SetQuoteData{Data: priced})
		if first == nil {
			return s.apply(next, quote.SetSumOutdated{Outdated: false}), nil
		}
		next = s.apply(next, quote.SetSumOutdated{Outdated: true})
		if first.RowIndex >= 0 {
			col := first.Column
			if col == "" {
				col = quote.ColFabricType
			}
			next = s.apply(next, quote.SetActiveCell{Cell: &quote.Cell{RowIndex: first.RowIndex, Column: col}})
		}
		return next, nil
	})

	if s.rec != nil {
		s.rec.CalculationDuration(time.Since(start))
		if first != nil {
			s.rec.PricingError()
		}
	}
	return snap, first
}

// SetRemoteDistribution stores an explicit 1-channel / 16-channel split of the
// remote counter.
func (s *Service) SetRemoteDistribution(qty1, qty16 int) (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		if err := distribution.Validate(qty1, qty16, st.UI.DriveRemoteCount); err != nil {
			return nil, err
		}
		return s.apply(st, quote.SetF1RemoteDistribution{Qty1: &qty1, Qty16: &qty16}), nil
	})
}

// SetDualDistribution stores an explicit combo / slim split of the dual pairs.
func (s *Service) SetDualDistribution(combo, slim int) (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		if err := distribution.Validate(combo, slim, product.DualPairs(st.Quote.Items())); err != nil {
			return nil, err
		}
		return s.apply(st, quote.SetF1DualDistribution{ComboQty: &combo, SlimQty: &slim}), nil
	})
}

// SetF1Discount sets the cost-side discount percentage and persists it with
// the quote.
func (s *Service) SetF1Discount(pct float64) (quote.Snapshot, error) {
	if pct < 0 || pct > 100 {
		return s.store.Snapshot(), inputErr("Discount percentage must be between 0 and 100.")
	}
	return s.update(func(st *quote.State) (*quote.State, error) {
		return s.apply(st,
			quote.SetF1DiscountPercentage{Percentage: pct},
			quote.SetCostDiscountPercentage{Percentage: pct},
		), nil
	})
}

// SetF2Value sets one numeric F2 input. Values must not be negative.
func (s *Service) SetF2Value(key string, value float64) (quote.Snapshot, error) {
	k, ok := quote.ParseF2Key(key)
	if !ok {
		return s.store.Snapshot(), inputErr("Unknown F2 field %q.", key)
	}
	if value < 0 {
		return s.store.Snapshot(), inputErr("Value must not be negative.")
	}
	return s.update(func(st *quote.State) (*quote.State, error) {
		return s.apply(st, quote.SetF2Value{Key: k, Value: value}), nil
	})
}

// ToggleFeeExclusion flips whether fee counts towards the F2 surcharge.
func (s *Service) ToggleFeeExclusion(fee quote.Fee) (quote.Snapshot, error) {
	switch fee {
	case quote.FeeDelivery, quote.FeeInstall, quote.FeeRemoval:
	default:
		return s.store.Snapshot(), inputErr("Unknown fee %q.", fee)
	}
	return s.update(func(st *quote.State) (*quote.State, error) {
		return s.apply(st, quote.ToggleF2FeeExclusion{Fee: fee}), nil
	})
}

// Summaries computes F1 and F2 from the latest snapshot.
func (s *Service) Summaries(ctx context.Context) (pricing.F1Result, pricing.F2Result, error) {
	st := s.store.State()
	strategy, err := s.strategy(st.Quote)
	if err != nil {
		return pricing.F1Result{}, pricing.F2Result{}, err
	}

	var rates pricing.F2Rates
	if s.rates != nil {
		if rates, err = s.rates.Get(ctx); err != nil {
			return pricing.F1Result{}, pricing.F2Result{}, fmt.Errorf("load surcharge rates: %w", err)
		}
	}
	f1, f2 := s.calc.Summaries(strategy, st.Quote, st.UI, rates)
	return f1, f2, nil
}
