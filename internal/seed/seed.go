package seed

import (
	"database/sql"
	"fmt"
)

// Config holds the surcharge unit prices written on first start.
type Config struct {
	Wifi     float64
	Delivery float64
	Install  float64
	Removal  float64
}

// DefaultConfig is the surcharge price list the tool ships with.
func DefaultConfig() Config {
	return Config{Wifi: 200, Delivery: 100, Install: 20, Removal: 20}
}

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
	Updates int
}

// Run executes the startup seed in an idempotent way. Existing rates are
// never overwritten.
func Run(db *sql.DB, cfg Config) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensureSurchargeRates(tx, cfg, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureSurchargeRates(tx *sql.Tx, cfg Config, stats *Stats) error {
	var exists bool
	if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM surcharge_rates WHERE id = 1)`).Scan(&exists); err != nil {
		return fmt.Errorf("check surcharge rates existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := tx.Exec(`
		INSERT INTO surcharge_rates (id, wifi, delivery, install, removal)
		VALUES (1, ?, ?, ?, ?)
	`, cfg.Wifi, cfg.Delivery, cfg.Install, cfg.Removal); err != nil {
		return fmt.Errorf("insert surcharge rates singleton: %w", err)
	}
	stats.Inserts++
	return nil
}
