// Package distribution checks how a counted accessory is split across two
// buckets and how paired hardware is placed on items.
package distribution

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrNegative      = errors.New("negative quantity")
	ErrNotInteger    = errors.New("quantity is not an integer")
	ErrTotalMismatch = errors.New("quantities do not add up to the total")
	ErrOddCount      = errors.New("odd number of flagged items")
	ErrNotAdjacent   = errors.New("flagged items are not in adjacent pairs")
)

// ValidationError carries a user-facing message and the sentinel it matches.
type ValidationError struct {
	Kind    error
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Kind }

func invalid(kind error, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ParseQuantity parses a user-entered quantity. Blank input is not a quantity.
func ParseQuantity(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, invalid(ErrNotInteger, "Quantities must be whole numbers of zero or more.")
	}
	return n, nil
}

// Validate accepts a and b when both are non-negative and sum to total.
func Validate(a, b, total int) error {
	if a < 0 || b < 0 {
		return invalid(ErrNegative, "Quantities must be whole numbers of zero or more.")
	}
	if a+b != total {
		return invalid(ErrTotalMismatch, "Total must equal %d. Current total: %d.", total, a+b)
	}
	return nil
}

// ValidatePairs checks that the flagged row indexes form adjacent (i, i+1)
// pairs scanning in item order. label names the hardware in messages, for
// example "Dual Brackets (D)".
func ValidatePairs(indexes []int, label string) error {
	sorted := append([]int(nil), indexes...)
	sort.Ints(sorted)

	if len(sorted)%2 != 0 {
		return invalid(ErrOddCount, "The total count of %s must be an even number. Please correct the selection.", label)
	}
	for i := 0; i < len(sorted); i += 2 {
		if sorted[i+1] != sorted[i]+1 {
			return invalid(ErrNotAdjacent, "%s must be set on adjacent items. Please check your selection.", label)
		}
	}
	return nil
}

// FlaggedIndexes returns the indexes for which flagged reports true.
func FlaggedIndexes(n int, flagged func(i int) bool) []int {
	var out []int
	for i := 0; i < n; i++ {
		if flagged(i) {
			out = append(out, i)
		}
	}
	return out
}
