package product

import (
	"errors"
	"fmt"

	"github.com/Simplici0/blinds/internal/quote"
)

// ErrUnknownProduct is returned for a product key with no strategy.
var ErrUnknownProduct = errors.New("unknown product")

// Factory resolves strategies by product key.
type Factory struct {
	strategies map[string]Strategy
}

// NewFactory registers strategies and checks that each one prices every
// accessory kind.
func NewFactory(strategies ...Strategy) (*Factory, error) {
	f := &Factory{strategies: make(map[string]Strategy, len(strategies))}
	for _, s := range strategies {
		if s == nil {
			return nil, errors.New("nil strategy")
		}
		if _, dup := f.strategies[s.Key()]; dup {
			return nil, fmt.Errorf("duplicate strategy for product %s", s.Key())
		}
		funcs := s.AccessoryFuncs()
		for _, a := range AllAccessories() {
			if funcs[a] == nil {
				return nil, fmt.Errorf("product %s: no price function for accessory %s", s.Key(), a)
			}
		}
		f.strategies[s.Key()] = s
	}
	return f, nil
}

// Strategy returns the strategy for key.
func (f *Factory) Strategy(key string) (Strategy, error) {
	s, ok := f.strategies[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, key)
	}
	return s, nil
}

// NewItem returns a blank item for the product.
func (f *Factory) NewItem(key string) (quote.Item, error) {
	s, err := f.Strategy(key)
	if err != nil {
		return quote.Item{}, err
	}
	return s.InitialItem(), nil
}

// Validate checks the accessory price-key mapping against the accessory kinds:
// every mapped name must be a known accessory and every accessory must be mapped.
func (f *Factory) Validate(priceKeys map[string]string) error {
	var errs []error
	for name, key := range priceKeys {
		if _, err := ParseAccessory(name); err != nil {
			errs = append(errs, err)
		}
		if key == "" {
			errs = append(errs, fmt.Errorf("accessory %s has an empty price key", name))
		}
	}
	for _, a := range AllAccessories() {
		if _, ok := priceKeys[string(a)]; !ok {
			errs = append(errs, fmt.Errorf("accessory %s has no price key", a))
		}
	}
	return errors.Join(errs...)
}
