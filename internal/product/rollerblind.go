package product

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Simplici0/blinds/internal/logger"
	"github.com/Simplici0/blinds/internal/priceconfig"
	"github.com/Simplici0/blinds/internal/quote"
)

// RuleSource supplies configured validation rules per product.
type RuleSource interface {
	ValidationRules(productKey string) (map[string]priceconfig.ValidationRule, bool)
}

var defaultRollerBlindRules = map[quote.Column]priceconfig.ValidationRule{
	quote.ColWidth:  {Min: 250, Max: 3300, Name: "Width"},
	quote.ColHeight: {Min: 300, Max: 3300, Name: "Height"},
}

// RollerBlind prices roller blinds from width/drop band matrices.
type RollerBlind struct {
	rules RuleSource
	log   *slog.Logger
	newID func() string
}

// NewRollerBlind returns the roller blind strategy. rules may be nil, in which
// case the built-in width and height limits apply.
func NewRollerBlind(rules RuleSource, log *slog.Logger) *RollerBlind {
	if log == nil {
		log = logger.Discard()
	}
	return &RollerBlind{rules: rules, log: log, newID: uuid.NewString}
}

func (r *RollerBlind) Key() string { return quote.ProductRollerBlind }

// InitialItem returns a blank row with a fresh stable ID.
func (r *RollerBlind) InitialItem() quote.Item {
	return quote.Item{ItemID: r.newID()}
}

// CalculatePrice looks up the smallest width band and drop band that fit the item.
func (r *RollerBlind) CalculatePrice(item quote.Item, m *priceconfig.Matrix) PriceResult {
	if !item.Priceable() {
		return failed(quote.ColFabricType, "Width, height and type are required.")
	}
	if m == nil {
		return failed(quote.ColFabricType, fmt.Sprintf("No price matrix found for type %s.", item.FabricType))
	}

	w, h := *item.Width, *item.Height
	wi := bandIndex(m.Widths, w)
	if wi < 0 {
		return failed(quote.ColWidth, fmt.Sprintf("Width %d exceeds the maximum of %d for type %s.", w, last(m.Widths), item.FabricType))
	}
	hi := bandIndex(m.Drops, h)
	if hi < 0 {
		return failed(quote.ColHeight, fmt.Sprintf("Height %d exceeds the maximum of %d for type %s.", h, last(m.Drops), item.FabricType))
	}
	if hi >= len(m.Prices) || wi >= len(m.Prices[hi]) {
		r.log.Error("price matrix is smaller than its bands", "fabric_type", item.FabricType, "width_band", wi, "drop_band", hi)
		return failed(quote.ColFabricType, fmt.Sprintf("Price matrix for type %s is incomplete.", item.FabricType))
	}
	return priced(m.Prices[hi][wi])
}

// ValidationRules merges the configured rules over the built-in limits.
func (r *RollerBlind) ValidationRules() map[quote.Column]priceconfig.ValidationRule {
	out := make(map[quote.Column]priceconfig.ValidationRule, len(defaultRollerBlindRules))
	for k, v := range defaultRollerBlindRules {
		out[k] = v
	}
	if r.rules == nil {
		return out
	}
	configured, ok := r.rules.ValidationRules(r.Key())
	if !ok {
		return out
	}
	for k, v := range configured {
		out[quote.Column(k)] = v
	}
	return out
}

// AccessoryFuncs prices every accessory kind. Winder, motor and dual accept
// items and count the flagged rows; everything else is count times unit price.
func (r *RollerBlind) AccessoryFuncs() map[Accessory]AccessoryFunc {
	return map[Accessory]AccessoryFunc{
		AccWinder:     perMatching(HasHDWinder),
		AccMotor:      perMatching(HasMotor),
		AccRemote:     perUnit,
		AccRemote1ch:  perUnit,
		AccRemote16ch: perUnit,
		AccCharger:    perUnit,
		AccCord:       perUnit,
		AccDual:       perDualPair,
		AccDualCombo:  perUnit,
		AccSlim:       perUnit,
	}
}

// bandIndex returns the first band that is at least v, or -1.
func bandIndex(bands []int, v int) int {
	for i, b := range bands {
		if v <= b {
			return i
		}
	}
	return -1
}

func last(xs []int) int {
	if len(xs) == 0 {
		return 0
	}
	return xs[len(xs)-1]
}
