// Package repo stores quotes and surcharge rates in SQLite.
package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Simplici0/blinds/internal/quote"
)

// ErrNotFound is returned when a quote id does not exist.
var ErrNotFound = errors.New("not found")

// QuoteSummary is one row of the saved quotes list.
type QuoteSummary struct {
	ID        int64   `json:"id"`
	CreatedAt string  `json:"createdAt"`
	Title     string  `json:"title"`
	Notes     string  `json:"notes"`
	Total     float64 `json:"total"`
}

// SavedQuote is a stored quote with its full tree.
type SavedQuote struct {
	QuoteSummary
	Data *quote.QuoteData `json:"quoteData"`
}

// Quotes persists QuoteData trees as JSON.
type Quotes struct {
	db *sql.DB
}

func NewQuotes(db *sql.DB) *Quotes {
	return &Quotes{db: db}
}

// Save inserts q and returns its id. The tree is stored verbatim.
func (r *Quotes) Save(ctx context.Context, title, notes string, q *quote.QuoteData) (int64, error) {
	if q == nil {
		return 0, errors.New("nil quote data")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, errors.New("title is required")
	}

	data, err := json.Marshal(q)
	if err != nil {
		return 0, fmt.Errorf("encode quote data: %w", err)
	}
	totals, err := json.Marshal(map[string]float64{"total": q.Current().Summary.TotalSum})
	if err != nil {
		return 0, fmt.Errorf("encode quote totals: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO quotes (title, notes, product, data_json, totals_json)
		VALUES (?, ?, ?, ?, ?)
	`, title, strings.TrimSpace(notes), q.CurrentProduct, string(data), string(totals))
	if err != nil {
		return 0, fmt.Errorf("insert quote: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read quote id: %w", err)
	}
	return id, nil
}

// Get loads one quote.
func (r *Quotes) Get(ctx context.Context, id int64) (SavedQuote, error) {
	var (
		sq         SavedQuote
		dataJSON   string
		totalsJSON string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, created_at, title, notes, data_json, totals_json
		FROM quotes
		WHERE id = ?
	`, id).Scan(&sq.ID, &sq.CreatedAt, &sq.Title, &sq.Notes, &dataJSON, &totalsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SavedQuote{}, fmt.Errorf("quote %d: %w", id, ErrNotFound)
		}
		return SavedQuote{}, fmt.Errorf("query quote: %w", err)
	}

	var q quote.QuoteData
	if err := json.Unmarshal([]byte(dataJSON), &q); err != nil {
		return SavedQuote{}, fmt.Errorf("decode quote %d: %w", id, err)
	}
	sq.Data = &q
	sq.Total = extractTotalFromJSON(totalsJSON)
	return sq, nil
}

// List returns quotes whose title or notes contain query, newest first. An
// empty query lists everything.
func (r *Quotes) List(ctx context.Context, query string) ([]QuoteSummary, error) {
	query = strings.TrimSpace(query)
	search := "%" + query + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			id,
			created_at,
			COALESCE(title, ''),
			COALESCE(notes, ''),
			totals_json
		FROM quotes
		WHERE (? = '' OR COALESCE(title, '') LIKE ? OR COALESCE(notes, '') LIKE ?)
		ORDER BY datetime(created_at) DESC, id DESC
	`, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]QuoteSummary, 0)
	for rows.Next() {
		var item QuoteSummary
		var totalsJSON string
		if err := rows.Scan(&item.ID, &item.CreatedAt, &item.Title, &item.Notes, &totalsJSON); err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		item.Total = extractTotalFromJSON(totalsJSON)
		quotes = append(quotes, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}

	return quotes, nil
}

func extractTotalFromJSON(totalsJSON string) float64 {
	var values map[string]float64
	if err := json.Unmarshal([]byte(totalsJSON), &values); err != nil {
		return 0
	}

	for _, key := range []string{"total", "grand_total", "final_total"} {
		if total, ok := values[key]; ok {
			return total
		}
	}

	return 0
}
