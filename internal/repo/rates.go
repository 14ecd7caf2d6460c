package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Simplici0/blinds/internal/pricing"
)

// Rates is the surcharge_rates singleton holding the F2 unit prices.
type Rates struct {
	db *sql.DB
}

func NewRates(db *sql.DB) *Rates {
	return &Rates{db: db}
}

// Ensure creates the singleton row with zero prices if it is missing.
func (r *Rates) Ensure(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO surcharge_rates (id, wifi, delivery, install, removal)
		VALUES (1, 0, 0, 0, 0)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("insert default surcharge_rates: %w", err)
	}
	return nil
}

// Get returns the current unit prices.
func (r *Rates) Get(ctx context.Context) (pricing.F2Rates, error) {
	if err := r.Ensure(ctx); err != nil {
		return pricing.F2Rates{}, err
	}

	var rates pricing.F2Rates
	err := r.db.QueryRowContext(ctx, `
		SELECT wifi, delivery, install, removal
		FROM surcharge_rates
		WHERE id = 1
	`).Scan(&rates.Wifi, &rates.Delivery, &rates.Install, &rates.Removal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pricing.F2Rates{}, fmt.Errorf("surcharge_rates singleton not found")
		}
		return pricing.F2Rates{}, fmt.Errorf("query surcharge_rates: %w", err)
	}
	return rates, nil
}

// Update replaces the unit prices. Negative prices are rejected.
func (r *Rates) Update(ctx context.Context, rates pricing.F2Rates) error {
	for name, v := range map[string]float64{
		"wifi": rates.Wifi, "delivery": rates.Delivery, "install": rates.Install, "removal": rates.Removal,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be greater than or equal to 0", name)
		}
	}
	if err := r.Ensure(ctx); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE surcharge_rates
		SET
			wifi = ?,
			delivery = ?,
			install = ?,
			removal = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, rates.Wifi, rates.Delivery, rates.Install, rates.Removal)
	if err != nil {
		return fmt.Errorf("update surcharge_rates: %w", err)
	}
	return nil
}
