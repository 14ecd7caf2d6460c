package priceconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testDoc = `
fabricTypeSequence: [B1, B2, B3]
matrices:
  B1:
    name: Basic
    widths: [1000, 2000]
    drops: [1000, 2000]
    prices:
      - [100, 150]
      - [120, 170]
  B3:
    name: Same as basic
    aliasFor: B1
accessories:
  winderHD: {name: HD Winder, price: 30}
  broken: {name: No price}
businessRules:
  logic:
    hdWinderThresholdArea: 4000000
  validation:
    rollerBlind:
      width: {min: 250, max: 3300, name: Width}
  mappings:
    accessoryPriceKeyMap:
      winder: winderHD
`

func loadTestProvider(t *testing.T) *Provider {
	t.Helper()
	p := New(nil)
	if err := p.LoadBytes([]byte(testDoc)); err != nil {
		t.Fatalf("LoadBytes: %v", err)
	}
	return p
}

func TestProvider_UnloadedReturnsNeutralValues(t *testing.T) {
	p := New(nil)

	if p.Initialized() {
		t.Fatalf("new provider should not be initialized")
	}
	if m := p.PriceMatrix("B1"); m != nil {
		t.Fatalf("PriceMatrix on unloaded provider = %+v, want nil", m)
	}
	if price, ok := p.AccessoryPrice("winderHD"); ok || price != 0 {
		t.Fatalf("AccessoryPrice = (%v, %v), want (0, false)", price, ok)
	}
	if seq := p.FabricTypeSequence(); len(seq) != 0 {
		t.Fatalf("FabricTypeSequence = %v, want empty", seq)
	}
	if _, ok := p.HDWinderThresholdArea(); ok {
		t.Fatalf("HDWinderThresholdArea should be unavailable before load")
	}
	if keys := p.AccessoryPriceKeys(); len(keys) != 0 {
		t.Fatalf("AccessoryPriceKeys = %v, want empty", keys)
	}
}

func TestProvider_PriceMatrixResolvesAlias(t *testing.T) {
	p := loadTestProvider(t)

	m := p.PriceMatrix("B3")
	if m == nil {
		t.Fatalf("expected alias B3 to resolve")
	}
	if m.Name != "Basic" {
		t.Fatalf("alias resolved to %q, want %q", m.Name, "Basic")
	}
	if p.PriceMatrix("B2") != nil {
		t.Fatalf("unknown fabric type should resolve to nil")
	}
}

func TestProvider_AccessoryPrice(t *testing.T) {
	p := loadTestProvider(t)

	if price, ok := p.AccessoryPrice("winderHD"); !ok || price != 30 {
		t.Fatalf("AccessoryPrice(winderHD) = (%v, %v), want (30, true)", price, ok)
	}
	if _, ok := p.AccessoryPrice("broken"); ok {
		t.Fatalf("accessory without price should not resolve")
	}
	if _, ok := p.AccessoryPrice("missing"); ok {
		t.Fatalf("missing accessory should not resolve")
	}
}

func TestProvider_RulesAndSequence(t *testing.T) {
	p := loadTestProvider(t)

	area, ok := p.HDWinderThresholdArea()
	if !ok || area != 4000000 {
		t.Fatalf("HDWinderThresholdArea = (%d, %v), want (4000000, true)", area, ok)
	}

	seq := p.FabricTypeSequence()
	seq[0] = "mutated"
	if got := p.FabricTypeSequence()[0]; got != "B1" {
		t.Fatalf("sequence was mutated through returned slice: %q", got)
	}

	rules, ok := p.ValidationRules("rollerBlind")
	if !ok || rules["width"].Max != 3300 {
		t.Fatalf("ValidationRules = (%v, %v)", rules, ok)
	}
	if keys := p.AccessoryPriceKeys(); keys["winder"] != "winderHD" {
		t.Fatalf("AccessoryPriceKeys = %v", keys)
	}
}

func TestProvider_LoadRejectsInconsistentMatrices(t *testing.T) {
	cases := map[string]string{
		"ragged row": `
matrices:
  B1: {name: x, widths: [1000, 2000], drops: [1000], prices: [[1]]}
`,
		"missing alias target": `
matrices:
  B1: {name: x, aliasFor: B9}
`,
		"chained alias": `
matrices:
  B1: {name: x, widths: [1000], drops: [1000], prices: [[1]]}
  B2: {name: y, aliasFor: B1}
  B3: {name: z, aliasFor: B2}
`,
		"unsorted widths": `
matrices:
  B1: {name: x, widths: [2000, 1000], drops: [1000], prices: [[1, 2]]}
`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			p := New(nil)
			if err := p.LoadBytes([]byte(doc)); err == nil {
				t.Fatalf("expected error for %s", name)
			}
			if p.Initialized() {
				t.Fatalf("provider must stay unloaded after a failed load")
			}
		})
	}
}

func TestProvider_LoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.yaml")
	if err := os.WriteFile(path, []byte(testDoc), 0o600); err != nil {
		t.Fatalf("write price file: %v", err)
	}

	p := New(nil)
	if err := p.Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !p.Initialized() {
		t.Fatalf("expected provider to be initialized")
	}

	err := New(nil).Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "read price data") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestProvider_ShippedPriceDataIsValid(t *testing.T) {
	p := New(nil)
	if err := p.Load("../../data/price-matrix.yaml"); err != nil {
		t.Fatalf("load shipped price data: %v", err)
	}
	if m := p.PriceMatrix("B5"); m == nil || m.Name != "Dual Tone" {
		t.Fatalf("B5 should alias B4, got %+v", m)
	}
}
