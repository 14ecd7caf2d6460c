// Package priceconfig holds the read-only reference data used to price a
// quote: price matrices per fabric type, accessory unit prices, the fabric
// type cycle and the business-rule thresholds.
package priceconfig

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Simplici0/blinds/internal/logger"
)

// ErrNotInitialized is reported when reference data is requested before Load succeeded.
var ErrNotInitialized = errors.New("price data not loaded")

// Matrix maps a width band and a drop band to a price. Prices is indexed
// [drop][width]. A matrix with AliasFor set prices exactly like its target.
type Matrix struct {
	Name     string      `yaml:"name" json:"name"`
	AliasFor string      `yaml:"aliasFor,omitempty" json:"aliasFor,omitempty"`
	Widths   []int       `yaml:"widths,omitempty" json:"widths,omitempty"`
	Drops    []int       `yaml:"drops,omitempty" json:"drops,omitempty"`
	Prices   [][]float64 `yaml:"prices,omitempty" json:"prices,omitempty"`
}

// Accessory is a priced accessory entry. Price is nil when the entry has no usable price.
type Accessory struct {
	Name  string   `yaml:"name" json:"name"`
	Price *float64 `yaml:"price" json:"price"`
}

// LogicThresholds are the numeric business rules applied while editing items.
type LogicThresholds struct {
	HDWinderThresholdArea int `yaml:"hdWinderThresholdArea" json:"hdWinderThresholdArea"`
}

// ValidationRule bounds a numeric column.
type ValidationRule struct {
	Min  int    `yaml:"min" json:"min"`
	Max  int    `yaml:"max" json:"max"`
	Name string `yaml:"name" json:"name"`
}

// Mappings ties accessory names to their price-list keys.
type Mappings struct {
	AccessoryPriceKeyMap map[string]string `yaml:"accessoryPriceKeyMap" json:"accessoryPriceKeyMap"`
}

// BusinessRules groups the rule sections of the price document.
type BusinessRules struct {
	Logic      *LogicThresholds                     `yaml:"logic" json:"logic"`
	Validation map[string]map[string]ValidationRule `yaml:"validation" json:"validation"`
	Mappings   Mappings                             `yaml:"mappings" json:"mappings"`
}

// Data is the whole reference document.
type Data struct {
	Matrices           map[string]Matrix    `yaml:"matrices" json:"matrices"`
	Accessories        map[string]Accessory `yaml:"accessories" json:"accessories"`
	FabricTypeSequence []string             `yaml:"fabricTypeSequence" json:"fabricTypeSequence"`
	BusinessRules      BusinessRules        `yaml:"businessRules" json:"businessRules"`
}

// Provider serves reference data. It starts empty; every accessor on an
// unloaded provider logs and returns a neutral value.
type Provider struct {
	mu   sync.RWMutex
	data *Data
	log  *slog.Logger
}

// New returns an unloaded provider.
func New(log *slog.Logger) *Provider {
	if log == nil {
		log = logger.Discard()
	}
	return &Provider{log: log}
}

// FromData returns a provider already initialized with data.
func FromData(data Data, log *slog.Logger) (*Provider, error) {
	p := New(log)
	if err := p.set(data); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads a YAML (or JSON) price document from path.
func (p *Provider) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read price data: %w", err)
	}
	return p.LoadBytes(raw)
}

// LoadBytes parses and installs a price document.
func (p *Provider) LoadBytes(raw []byte) error {
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("decode price data: %w", err)
	}
	return p.set(data)
}

func (p *Provider) set(data Data) error {
	if err := data.Validate(); err != nil {
		return err
	}
	if data.FabricTypeSequence == nil {
		data.FabricTypeSequence = []string{}
	}

	p.mu.Lock()
	p.data = &data
	p.mu.Unlock()

	p.log.Info("price data loaded",
		"matrices", len(data.Matrices),
		"accessories", len(data.Accessories),
		"fabric_types", len(data.FabricTypeSequence),
	)
	return nil
}

// Initialized reports whether reference data has been loaded.
func (p *Provider) Initialized() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data != nil
}

func (p *Provider) snapshot() *Data {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data
}

// PriceMatrix returns the matrix for fabricType, following one alias hop.
// It returns nil when the data is unloaded or the type is unknown.
func (p *Provider) PriceMatrix(fabricType string) *Matrix {
	data := p.snapshot()
	if data == nil {
		p.log.Error("price matrix requested before price data was loaded", "fabric_type", fabricType)
		return nil
	}
	m, ok := data.Matrices[fabricType]
	if !ok {
		p.log.Warn("unknown fabric type", "fabric_type", fabricType)
		return nil
	}
	if m.AliasFor != "" {
		target, ok := data.Matrices[m.AliasFor]
		if !ok {
			return nil
		}
		return &target
	}
	return &m
}

// MatrixName returns the display name of a fabric type's matrix, or "" when unknown.
func (p *Provider) MatrixName(fabricType string) string {
	data := p.snapshot()
	if data == nil {
		return ""
	}
	return data.Matrices[fabricType].Name
}

// AccessoryPrice returns the unit price stored under key.
func (p *Provider) AccessoryPrice(key string) (float64, bool) {
	data := p.snapshot()
	if data == nil {
		p.log.Error("accessory price requested before price data was loaded", "key", key)
		return 0, false
	}
	acc, ok := data.Accessories[key]
	if !ok || acc.Price == nil {
		p.log.Warn("accessory price not found", "key", key)
		return 0, false
	}
	return *acc.Price, true
}

// FabricTypeSequence returns a copy of the fabric type cycle order.
func (p *Provider) FabricTypeSequence() []string {
	data := p.snapshot()
	if data == nil {
		p.log.Error("fabric type sequence requested before price data was loaded")
		return []string{}
	}
	out := make([]string, len(data.FabricTypeSequence))
	copy(out, data.FabricTypeSequence)
	return out
}

// LogicThresholds returns the business thresholds, if configured.
func (p *Provider) LogicThresholds() (LogicThresholds, bool) {
	data := p.snapshot()
	if data == nil || data.BusinessRules.Logic == nil {
		return LogicThresholds{}, false
	}
	return *data.BusinessRules.Logic, true
}

// HDWinderThresholdArea is the item area above which an HD winder is selected.
func (p *Provider) HDWinderThresholdArea() (int, bool) {
	t, ok := p.LogicThresholds()
	if !ok {
		return 0, false
	}
	return t.HDWinderThresholdArea, true
}

// ValidationRules returns the configured column rules for a product.
func (p *Provider) ValidationRules(productKey string) (map[string]ValidationRule, bool) {
	data := p.snapshot()
	if data == nil {
		return nil, false
	}
	rules, ok := data.BusinessRules.Validation[productKey]
	if !ok {
		return nil, false
	}
	out := make(map[string]ValidationRule, len(rules))
	for k, v := range rules {
		out[k] = v
	}
	return out, true
}

// AccessoryPriceKeys returns a copy of the accessory-name to price-key map.
func (p *Provider) AccessoryPriceKeys() map[string]string {
	data := p.snapshot()
	if data == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(data.BusinessRules.Mappings.AccessoryPriceKeyMap))
	for k, v := range data.BusinessRules.Mappings.AccessoryPriceKeyMap {
		out[k] = v
	}
	return out
}
