// Package quote owns the quote data tree, the actions that change it and the
// store that publishes committed snapshots.
package quote

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ProductRollerBlind is the only product key the tool ships with.
const ProductRollerBlind = "rollerBlind"

// Column names an editable Item field.
type Column string

const (
	ColWidth      Column = "width"
	ColHeight     Column = "height"
	ColFabricType Column = "fabricType"
	ColLinePrice  Column = "linePrice"
	ColLocation   Column = "location"
	ColFabric     Column = "fabric"
	ColColor      Column = "color"
	ColOver       Column = "over"
	ColOI         Column = "oi"
	ColLR         Column = "lr"
	ColDual       Column = "dual"
	ColChain      Column = "chain"
	ColWinder     Column = "winder"
	ColMotor      Column = "motor"
)

// Flag values stored on items.
const (
	DualBracket = "D"
	WinderHD    = "HD"
	MotorOn     = "Motor"
)

// Item is one row of a quote.
type Item struct {
	ItemID     string   `json:"itemId"`
	Width      *int     `json:"width"`
	Height     *int     `json:"height"`
	FabricType string   `json:"fabricType"`
	LinePrice  *float64 `json:"linePrice"`
	Location   string   `json:"location"`
	Fabric     string   `json:"fabric"`
	Color      string   `json:"color"`
	Over       string   `json:"over"`
	OI         string   `json:"oi"`
	LR         string   `json:"lr"`
	Dual       string   `json:"dual"`
	Chain      *int     `json:"chain"`
	Winder     string   `json:"winder"`
	Motor      string   `json:"motor"`
}

// itemJSON is the wire form of Item; fabricType is nullable there.
type itemJSON struct {
	ItemID     string   `json:"itemId"`
	Width      *int     `json:"width"`
	Height     *int     `json:"height"`
	FabricType *string  `json:"fabricType"`
	LinePrice  *float64 `json:"linePrice"`
	Location   string   `json:"location"`
	Fabric     string   `json:"fabric"`
	Color      string   `json:"color"`
	Over       string   `json:"over"`
	OI         string   `json:"oi"`
	LR         string   `json:"lr"`
	Dual       string   `json:"dual"`
	Chain      *int     `json:"chain"`
	Winder     string   `json:"winder"`
	Motor      string   `json:"motor"`
}

// MarshalJSON writes an unset fabric type as null.
func (it Item) MarshalJSON() ([]byte, error) {
	var fabricType *string
	if it.FabricType != "" {
		fabricType = &it.FabricType
	}
	return json.Marshal(itemJSON{
		ItemID:     it.ItemID,
		Width:      it.Width,
		Height:     it.Height,
		FabricType: fabricType,
		LinePrice:  it.LinePrice,
		Location:   it.Location,
		Fabric:     it.Fabric,
		Color:      it.Color,
		Over:       it.Over,
		OI:         it.OI,
		LR:         it.LR,
		Dual:       it.Dual,
		Chain:      it.Chain,
		Winder:     it.Winder,
		Motor:      it.Motor,
	})
}

// IsEmpty reports whether the item has no width, height or fabric type.
func (it Item) IsEmpty() bool {
	return it.Width == nil && it.Height == nil && it.FabricType == ""
}

// HasDimension reports whether width or height is set.
func (it Item) HasDimension() bool {
	return it.Width != nil || it.Height != nil
}

// Priceable reports whether the item carries every pricing input.
func (it Item) Priceable() bool {
	return it.Width != nil && it.Height != nil && it.FabricType != ""
}

// Area returns width*height, or 0 when either dimension is missing.
func (it Item) Area() int {
	if it.Width == nil || it.Height == nil {
		return 0
	}
	return *it.Width * *it.Height
}

// HasPositivePrice reports whether the item was priced above zero.
func (it Item) HasPositivePrice() bool {
	return it.LinePrice != nil && *it.LinePrice > 0
}

// Value returns the current value of col. Unset numeric fields are nil.
func (it Item) Value(col Column) (any, error) {
	switch col {
	case ColWidth:
		return intOrNil(it.Width), nil
	case ColHeight:
		return intOrNil(it.Height), nil
	case ColChain:
		return intOrNil(it.Chain), nil
	case ColLinePrice:
		if it.LinePrice == nil {
			return nil, nil
		}
		return *it.LinePrice, nil
	case ColFabricType:
		return it.FabricType, nil
	case ColLocation:
		return it.Location, nil
	case ColFabric:
		return it.Fabric, nil
	case ColColor:
		return it.Color, nil
	case ColOver:
		return it.Over, nil
	case ColOI:
		return it.OI, nil
	case ColLR:
		return it.LR, nil
	case ColDual:
		return it.Dual, nil
	case ColWinder:
		return it.Winder, nil
	case ColMotor:
		return it.Motor, nil
	}
	return nil, fmt.Errorf("unknown column %q", col)
}

// With returns a copy of the item with col set to v. Numeric columns accept
// nil, integers, whole floats and numeric strings; "" clears them.
func (it Item) With(col Column, v any) (Item, error) {
	switch col {
	case ColWidth, ColHeight, ColChain:
		n, err := toIntPtr(v)
		if err != nil {
			return it, fmt.Errorf("%s: %w", col, err)
		}
		switch col {
		case ColWidth:
			it.Width = n
		case ColHeight:
			it.Height = n
		default:
			it.Chain = n
		}
		return it, nil
	case ColLinePrice:
		f, err := toFloatPtr(v)
		if err != nil {
			return it, fmt.Errorf("%s: %w", col, err)
		}
		it.LinePrice = f
		return it, nil
	}

	s, err := toString(v)
	if err != nil {
		return it, fmt.Errorf("%s: %w", col, err)
	}
	switch col {
	case ColFabricType:
		it.FabricType = s
	case ColLocation:
		it.Location = s
	case ColFabric:
		it.Fabric = s
	case ColColor:
		it.Color = s
	case ColOver:
		it.Over = s
	case ColOI:
		it.OI = s
	case ColLR:
		it.LR = s
	case ColDual:
		it.Dual = s
	case ColWinder:
		it.Winder = s
	case ColMotor:
		it.Motor = s
	default:
		return it, fmt.Errorf("unknown column %q", col)
	}
	return it, nil
}

func intOrNil(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}

func toIntPtr(v any) (*int, error) {
	var n int
	switch x := v.(type) {
	case nil:
		return nil, nil
	case int:
		n = x
	case *int:
		if x == nil {
			return nil, nil
		}
		n = *x
	case int64:
		n = int(x)
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("%v is not a whole number", x)
		}
		n = int(x)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil, nil
		}
		parsed, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%q is not a whole number", x)
		}
		n = parsed
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
	return &n, nil
}

func toFloatPtr(v any) (*float64, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return nil, nil
	case float64:
		f = x
	case *float64:
		if x == nil {
			return nil, nil
		}
		f = *x
	case int:
		f = float64(x)
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
	return &f, nil
}

func toString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	}
	return "", fmt.Errorf("unsupported value type %T", v)
}

// Summary holds the derived totals of one product.
type Summary struct {
	TotalSum    float64            `json:"totalSum"`
	Accessories map[string]float64 `json:"accessories"`
}

// ProductQuote is the item list and summary of one product.
type ProductQuote struct {
	Items   []Item  `json:"items"`
	Summary Summary `json:"summary"`
}

// UIMetadata is persisted alongside the quote.
type UIMetadata struct {
	LFModifiedRowIndexes []int `json:"lfModifiedRowIndexes"`
}

// HasLFModified reports whether row carries a light-filter override.
func (m UIMetadata) HasLFModified(row int) bool {
	for _, i := range m.LFModifiedRowIndexes {
		if i == row {
			return true
		}
	}
	return false
}

// QuoteData is the root persisted unit.
type QuoteData struct {
	CurrentProduct         string                  `json:"currentProduct"`
	Products               map[string]ProductQuote `json:"products"`
	UIMetadata             UIMetadata              `json:"uiMetadata"`
	CostDiscountPercentage float64                 `json:"costDiscountPercentage"`
}

// Current returns the quote of the current product.
func (q *QuoteData) Current() ProductQuote {
	if q == nil {
		return ProductQuote{}
	}
	return q.Products[q.CurrentProduct]
}

// Items returns the current product's items. The slice must not be modified.
func (q *QuoteData) Items() []Item {
	return q.Current().Items
}

// withCurrent returns a shallow copy of q with the current product replaced.
func (q *QuoteData) withCurrent(pq ProductQuote) *QuoteData {
	next := *q
	next.Products = make(map[string]ProductQuote, len(q.Products)+1)
	for k, v := range q.Products {
		next.Products[k] = v
	}
	next.Products[q.CurrentProduct] = pq
	return &next
}

// WithItems returns a copy of q whose current product uses items.
func (q *QuoteData) WithItems(items []Item) *QuoteData {
	pq := q.Current()
	pq.Items = items
	return q.withCurrent(pq)
}

// WithSummary returns a copy of q whose current product uses summary.
func (q *QuoteData) WithSummary(summary Summary) *QuoteData {
	pq := q.Current()
	pq.Summary = summary
	return q.withCurrent(pq)
}

// Normalize fills nil maps and slices so a decoded tree behaves like a fresh one.
func (q *QuoteData) Normalize() {
	if q.CurrentProduct == "" {
		q.CurrentProduct = ProductRollerBlind
	}
	if q.Products == nil {
		q.Products = map[string]ProductQuote{}
	}
	for k, pq := range q.Products {
		if pq.Summary.Accessories == nil {
			pq.Summary.Accessories = map[string]float64{}
		}
		if pq.Items == nil {
			pq.Items = []Item{}
		}
		q.Products[k] = pq
	}
	if q.UIMetadata.LFModifiedRowIndexes == nil {
		q.UIMetadata.LFModifiedRowIndexes = []int{}
	}
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// sortedUnion and sortedMinus keep LF row sets ordered and free of duplicates.
func sortedUnion(a, b []int) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	out := make([]int, 0, len(a)+len(b))
	for _, xs := range [][]int{a, b} {
		for _, x := range xs {
			if _, ok := seen[x]; ok {
				continue
			}
			seen[x] = struct{}{}
			out = append(out, x)
		}
	}
	sort.Ints(out)
	return out
}

func sortedMinus(a, b []int) []int {
	drop := make(map[int]struct{}, len(b))
	for _, x := range b {
		drop[x] = struct{}{}
	}
	out := make([]int, 0, len(a))
	for _, x := range a {
		if _, ok := drop[x]; !ok {
			out = append(out, x)
		}
	}
	sort.Ints(out)
	return out
}

func indexSet(indexes []int) map[int]struct{} {
	set := make(map[int]struct{}, len(indexes))
	for _, i := range indexes {
		set[i] = struct{}{}
	}
	return set
}

// ChangedFabricTypeRows lists the rows whose fabric type differs between two
// trees of the same product.
func ChangedFabricTypeRows(before, after *QuoteData) []int {
	a, b := before.Items(), after.Items()
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var out []int
	for i := 0; i < n; i++ {
		if a[i].FabricType != b[i].FabricType {
			out = append(out, i)
		}
	}
	return out
}
