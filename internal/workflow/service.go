// Package workflow runs the user-level operations of the quoting tool on top
// of the quote store: input validation, guard checks and the multi-action
// commits each operation needs.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Simplici0/blinds/internal/logger"
	"github.com/Simplici0/blinds/internal/pricing"
	"github.com/Simplici0/blinds/internal/product"
	"github.com/Simplici0/blinds/internal/quote"
	"github.com/Simplici0/blinds/internal/repo"
)

var (
	// ErrInvalidInput is matched by every *InputError.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfirmationRequired is returned when an operation needs an explicit
	// confirm flag before it overwrites data.
	ErrConfirmationRequired = errors.New("confirmation required")
)

// InputError is a rejected user input. Nothing was committed.
type InputError struct {
	Message string
	Cell    *quote.Cell
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func inputErr(format string, args ...any) *InputError {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// ConfirmationError asks the caller to repeat the call with confirm set.
type ConfirmationError struct {
	Message string
}

func (e *ConfirmationError) Error() string { return e.Message }

func (e *ConfirmationError) Unwrap() error { return ErrConfirmationRequired }

// RateSource supplies the F2 surcharge unit prices.
type RateSource interface {
	Get(ctx context.Context) (pricing.F2Rates, error)
}

// QuoteRepo persists whole quote trees.
type QuoteRepo interface {
	Save(ctx context.Context, title, notes string, q *quote.QuoteData) (int64, error)
	Get(ctx context.Context, id int64) (repo.SavedQuote, error)
	List(ctx context.Context, query string) ([]repo.QuoteSummary, error)
}

// Recorder receives operational counters. It may be nil.
type Recorder interface {
	ActionApplied(actionType string)
	PricingError()
	CalculationDuration(d time.Duration)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Store      *quote.Store
	Rules      quote.Rules
	Products   *product.Factory
	Engine     *pricing.Engine
	Calculator *pricing.Calculator
	Rates      RateSource
	Quotes     QuoteRepo
	Recorder   Recorder
	Log        *slog.Logger
}

// Service implements the quoting workflows.
type Service struct {
	store    *quote.Store
	reducer  *quote.Reducer
	rules    quote.Rules
	products *product.Factory
	engine   *pricing.Engine
	calc     *pricing.Calculator
	rates    RateSource
	quotes   QuoteRepo
	rec      Recorder
	log      *slog.Logger
}

// New checks the required collaborators and builds a Service.
func New(d Deps) (*Service, error) {
	switch {
	case d.Store == nil:
		return nil, errors.New("workflow: store is required")
	case d.Rules == nil:
		return nil, errors.New("workflow: rules are required")
	case d.Products == nil:
		return nil, errors.New("workflow: product factory is required")
	case d.Engine == nil:
		return nil, errors.New("workflow: pricing engine is required")
	case d.Calculator == nil:
		return nil, errors.New("workflow: calculator is required")
	}
	if d.Log == nil {
		d.Log = logger.Discard()
	}
	return &Service{
		store:    d.Store,
		reducer:  d.Store.Reducer(),
		rules:    d.Rules,
		products: d.Products,
		engine:   d.Engine,
		calc:     d.Calculator,
		rates:    d.Rates,
		quotes:   d.Quotes,
		rec:      d.Recorder,
		log:      d.Log,
	}, nil
}

// Snapshot returns the latest committed state.
func (s *Service) Snapshot() quote.Snapshot {
	return s.store.Snapshot()
}

// Dispatch applies a single decoded action, as received from the API.
func (s *Service) Dispatch(a quote.Action) (quote.Snapshot, bool) {
	snap, changed := s.store.Dispatch(a)
	if changed && s.rec != nil {
		s.rec.ActionApplied(a.Type())
	}
	return snap, changed
}

// update runs fn against the latest state and commits its result as one
// version. When fn fails nothing is committed and the previous snapshot is
// returned with the error.
func (s *Service) update(fn func(st *quote.State) (*quote.State, error)) (quote.Snapshot, error) {
	var ferr error
	snap, _ := s.store.Update(func(st *quote.State) *quote.State {
		next, err := fn(st)
		if err != nil {
			ferr = err
			return st
		}
		return next
	})
	return snap, ferr
}

// apply folds actions over st.
func (s *Service) apply(st *quote.State, actions ...quote.Action) *quote.State {
	for _, a := range actions {
		next := s.reducer.Apply(st, a)
		if next != st && s.rec != nil {
			s.rec.ActionApplied(a.Type())
		}
		st = next
	}
	return st
}

func (s *Service) strategy(q *quote.QuoteData) (product.Strategy, error) {
	st, err := s.products.Strategy(q.CurrentProduct)
	if err != nil {
		return nil, fmt.Errorf("resolve product strategy: %w", err)
	}
	return st, nil
}

func isLastRow(items []quote.Item, row int) bool {
	return row == len(items)-1
}

func validRow(items []quote.Item, row int) bool {
	return row >= 0 && row < len(items)
}
