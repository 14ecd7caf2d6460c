package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/Simplici0/blinds/internal/quote"
	"github.com/Simplici0/blinds/internal/repo"
)

// ErrNoRepository is returned by save and list calls on a Service built
// without a quote repository.
var ErrNoRepository = errors.New("no quote repository configured")

// Load adopts q as the current quote. The tree is normalised and its item
// list consolidated; the UI state starts fresh.
func (s *Service) Load(q *quote.QuoteData) (quote.Snapshot, error) {
	if q == nil {
		return s.store.Snapshot(), inputErr("No quote data to load.")
	}
	q.Normalize()
	if _, ok := q.Products[q.CurrentProduct]; !ok {
		q.Products[q.CurrentProduct] = quote.ProductQuote{Summary: quote.Summary{Accessories: map[string]float64{}}}
	}
	if _, err := s.strategy(q); err != nil {
		return s.store.Snapshot(), &InputError{Message: fmt.Sprintf("Unknown product %q.", q.CurrentProduct)}
	}

	loaded := quote.ConsolidateQuote(q, func() quote.Item {
		it, err := s.products.NewItem(q.CurrentProduct)
		if err != nil {
			s.log.Error("new item on load", "product", q.CurrentProduct, "err", err)
		}
		return it
	})

	return s.update(func(st *quote.State) (*quote.State, error) {
		return s.apply(st,
			quote.SetQuoteData{Data: loaded},
			quote.ResetUI{},
			quote.SetSumOutdated{Outdated: true},
		), nil
	})
}

// Reset clears the quote and the UI state.
func (s *Service) Reset() quote.Snapshot {
	snap, _ := s.update(func(st *quote.State) (*quote.State, error) {
		return s.apply(st, quote.ResetQuoteData{}, quote.ResetUI{}), nil
	})
	return snap
}

// Save stores the current quote under title.
func (s *Service) Save(ctx context.Context, title, notes string) (int64, error) {
	if s.quotes == nil {
		return 0, ErrNoRepository
	}
	id, err := s.quotes.Save(ctx, title, notes, s.store.State().Quote)
	if err != nil {
		return 0, fmt.Errorf("save quote: %w", err)
	}
	s.log.Info("quote saved", "id", id, "title", title)
	return id, nil
}

// List returns saved quotes matching query, newest first.
func (s *Service) List(ctx context.Context, query string) ([]repo.QuoteSummary, error) {
	if s.quotes == nil {
		return nil, ErrNoRepository
	}
	return s.quotes.List(ctx, query)
}

// LoadSaved loads a stored quote by id.
func (s *Service) LoadSaved(ctx context.Context, id int64) (quote.Snapshot, error) {
	if s.quotes == nil {
		return s.store.Snapshot(), ErrNoRepository
	}
	saved, err := s.quotes.Get(ctx, id)
	if err != nil {
		return s.store.Snapshot(), fmt.Errorf("load quote %d: %w", id, err)
	}
	return s.Load(saved.Data)
}
