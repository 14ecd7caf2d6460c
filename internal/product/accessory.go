package product

import (
	"fmt"

	"github.com/Simplici0/blinds/internal/quote"
)

// Accessory is a priced accessory kind.
type Accessory string

const (
	AccWinder     Accessory = "winder"
	AccMotor      Accessory = "motor"
	AccRemote     Accessory = "remote"
	AccRemote1ch  Accessory = "remote-1ch"
	AccRemote16ch Accessory = "remote-16ch"
	AccCharger    Accessory = "charger"
	AccCord       Accessory = "cord"
	AccDual       Accessory = "dual"
	AccDualCombo  Accessory = "dual-combo"
	AccSlim       Accessory = "slim"
)

// AllAccessories lists every accessory kind a strategy must price.
func AllAccessories() []Accessory {
	return []Accessory{
		AccWinder, AccMotor, AccRemote, AccRemote1ch, AccRemote16ch,
		AccCharger, AccCord, AccDual, AccDualCombo, AccSlim,
	}
}

// ParseAccessory maps a wire name to an Accessory.
func ParseAccessory(s string) (Accessory, error) {
	for _, a := range AllAccessories() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown accessory %q", s)
}

// AccessoryInput carries either an explicit count or the items to count from.
// Items takes precedence when set.
type AccessoryInput struct {
	Count int
	Items []quote.Item
}

// AccessoryFunc prices an accessory from its input and a unit price.
type AccessoryFunc func(in AccessoryInput, unitPrice float64) float64

// CountWhere counts items matching pred.
func CountWhere(items []quote.Item, pred func(quote.Item) bool) int {
	n := 0
	for _, it := range items {
		if pred(it) {
			n++
		}
	}
	return n
}

// HasHDWinder matches items with an HD winder.
func HasHDWinder(it quote.Item) bool { return it.Winder == quote.WinderHD }

// HasMotor matches motorised items.
func HasMotor(it quote.Item) bool { return it.Motor != "" }

// HasDualBracket matches items flagged for a dual bracket.
func HasDualBracket(it quote.Item) bool { return it.Dual == quote.DualBracket }

// DualPairs is the number of complete dual bracket pairs among items.
func DualPairs(items []quote.Item) int {
	return CountWhere(items, HasDualBracket) / 2
}

func perUnit(in AccessoryInput, unitPrice float64) float64 {
	return float64(in.Count) * unitPrice
}

func perMatching(pred func(quote.Item) bool) AccessoryFunc {
	return func(in AccessoryInput, unitPrice float64) float64 {
		if in.Items != nil {
			return float64(CountWhere(in.Items, pred)) * unitPrice
		}
		return perUnit(in, unitPrice)
	}
}

func perDualPair(in AccessoryInput, unitPrice float64) float64 {
	if in.Items != nil {
		return float64(DualPairs(in.Items)) * unitPrice
	}
	return perUnit(in, unitPrice)
}
