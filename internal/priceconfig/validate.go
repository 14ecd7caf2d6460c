package priceconfig

import (
	"errors"
	"fmt"
	"sort"
)

// Validate checks the structural consistency of a price document.
func (d Data) Validate() error {
	keys := make([]string, 0, len(d.Matrices))
	for k := range d.Matrices {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		m := d.Matrices[key]
		if m.AliasFor != "" {
			target, ok := d.Matrices[m.AliasFor]
			if !ok {
				return fmt.Errorf("matrix %s: alias target %s not found", key, m.AliasFor)
			}
			if target.AliasFor != "" {
				return fmt.Errorf("matrix %s: alias target %s is itself an alias", key, m.AliasFor)
			}
			continue
		}
		if err := m.validateBands(); err != nil {
			return fmt.Errorf("matrix %s: %w", key, err)
		}
	}

	if d.BusinessRules.Logic != nil && d.BusinessRules.Logic.HDWinderThresholdArea < 0 {
		return fmt.Errorf("hdWinderThresholdArea must not be negative")
	}

	for product, rules := range d.BusinessRules.Validation {
		for column, rule := range rules {
			if rule.Min > rule.Max {
				return fmt.Errorf("validation %s.%s: min %d exceeds max %d", product, column, rule.Min, rule.Max)
			}
		}
	}

	return nil
}

func (m Matrix) validateBands() error {
	if len(m.Widths) == 0 || len(m.Drops) == 0 {
		return fmt.Errorf("widths and drops are required")
	}
	if !ascending(m.Widths) {
		return fmt.Errorf("widths must be strictly ascending")
	}
	if !ascending(m.Drops) {
		return fmt.Errorf("drops must be strictly ascending")
	}
	if len(m.Prices) != len(m.Drops) {
		return fmt.Errorf("expected %d price rows, got %d", len(m.Drops), len(m.Prices))
	}
	for i, row := range m.Prices {
		if len(row) != len(m.Widths) {
			return fmt.Errorf("price row %d: expected %d columns, got %d", i, len(m.Widths), len(row))
		}
	}
	return nil
}

func ascending(values []int) bool {
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return false
		}
	}
	return true
}

// Check reports whether v lies within the rule bounds. The error text is
// shown to the user as is.
func (r ValidationRule) Check(v int) error {
	if v < r.Min || v > r.Max {
		return errors.New(r.Message())
	}
	return nil
}

// Message is the user-facing text for a value outside the rule.
func (r ValidationRule) Message() string {
	return fmt.Sprintf("%s must be between %d and %d.", r.Name, r.Min, r.Max)
}
