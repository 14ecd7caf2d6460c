package quote

import (
	"log/slog"

	"github.com/Simplici0/blinds/internal/logger"
)

// Rules is the reference data the reducer reads.
type Rules interface {
	FabricTypeSequence() []string
	HDWinderThresholdArea() (int, bool)
}

// ItemTemplates builds the initial empty item of a product.
type ItemTemplates interface {
	NewItem(productKey string) (Item, error)
}

// State is the whole tree held by the store.
type State struct {
	Quote *QuoteData `json:"quoteData"`
	UI    *UIState   `json:"ui"`
}

// Reducer maps (state, action) to the next state. It never mutates its input
// and returns the same pointer when nothing changed.
type Reducer struct {
	rules     Rules
	templates ItemTemplates
	log       *slog.Logger
}

// NewReducer wires the reducer dependencies.
func NewReducer(rules Rules, templates ItemTemplates, log *slog.Logger) *Reducer {
	if log == nil {
		log = logger.Discard()
	}
	return &Reducer{rules: rules, templates: templates, log: log}
}

// InitialState is the state of a fresh session.
func (r *Reducer) InitialState() *State {
	return &State{Quote: r.DefaultQuoteData(), UI: DefaultUIState()}
}

// DefaultQuoteData is an empty roller blind quote with its single blank row.
func (r *Reducer) DefaultQuoteData() *QuoteData {
	return &QuoteData{
		CurrentProduct: ProductRollerBlind,
		Products: map[string]ProductQuote{
			ProductRollerBlind: {
				Items:   []Item{r.newItem(ProductRollerBlind)},
				Summary: Summary{Accessories: map[string]float64{}},
			},
		},
		UIMetadata: UIMetadata{LFModifiedRowIndexes: []int{}},
	}
}

// Apply dispatches a to the quote or UI sub-reducer.
func (r *Reducer) Apply(s *State, a Action) *State {
	switch act := a.(type) {
	case QuoteAction:
		q := r.reduceQuote(s.Quote, act)
		if q != s.Quote {
			next := *s
			next.Quote = q
			return &next
		}
	case UIAction:
		ui := reduceUI(s.UI, act)
		if ui != s.UI {
			next := *s
			next.UI = ui
			return &next
		}
	default:
		r.log.Warn("unhandled action", "type", a.Type())
	}
	return s
}

func (r *Reducer) newItem(productKey string) Item {
	it, err := r.templates.NewItem(productKey)
	if err != nil {
		r.log.Error("new item template", "product", productKey, "err", err)
		return Item{}
	}
	return it
}

// consolidated returns q with items consolidated as its current rows. lf are
// the LF rows as indexes into items; they follow their rows through the
// consolidation and markers on removed rows are dropped.
func (r *Reducer) consolidated(q *QuoteData, items []Item, lf []int) *QuoteData {
	return consolidateQuote(q, items, lf, func() Item { return r.newItem(q.CurrentProduct) })
}

func (r *Reducer) reduceQuote(q *QuoteData, a QuoteAction) *QuoteData {
	switch act := a.(type) {
	case SetQuoteData:
		if act.Data == nil {
			return q
		}
		return act.Data
	case ResetQuoteData:
		return r.DefaultQuoteData()
	case InsertRow:
		return r.insertRow(q, act.SelectedIndex)
	case DeleteRow:
		return r.deleteRows(q, []int{act.RowIndex})
	case DeleteMultipleRows:
		return r.deleteRows(q, act.RowIndexes)
	case ClearRow:
		return r.clearRow(q, act.RowIndex)
	case UpdateItemValue:
		return r.updateItemValue(q, act)
	case UpdateItemProperty:
		return r.updateRow(q, act.RowIndex, func(it Item) (Item, bool) {
			next, err := it.With(act.Property, act.Value)
			if err != nil {
				r.log.Warn("update item property", "row", act.RowIndex, "err", err)
				return it, false
			}
			return next, true
		})
	case UpdateWinderMotorProperty:
		return r.updateRow(q, act.RowIndex, func(it Item) (Item, bool) {
			switch act.Property {
			case ColWinder:
				it.Winder = act.Value
				if act.Value != "" {
					it.Motor = ""
				}
			case ColMotor:
				it.Motor = act.Value
				if act.Value != "" {
					it.Winder = ""
				}
			default:
				return it, false
			}
			return it, true
		})
	case CycleK3Property:
		return r.updateRow(q, act.RowIndex, func(it Item) (Item, bool) {
			cur, err := it.Value(act.Column)
			if err != nil {
				return it, false
			}
			s, _ := cur.(string)
			nextVal, ok := NextK3Value(act.Column, s)
			if !ok {
				return it, false
			}
			next, err := it.With(act.Column, nextVal)
			return next, err == nil
		})
	case CycleItemType:
		return r.cycleItemType(q, act.RowIndex)
	case SetItemType:
		return r.updateRow(q, act.RowIndex, func(it Item) (Item, bool) {
			if !it.HasDimension() || it.FabricType == act.FabricType {
				return it, false
			}
			return withFabricType(it, act.FabricType), true
		})
	case BatchUpdateProperty:
		if structural(act.Property) {
			r.log.Warn("batch update of structural column rejected", "column", act.Property)
			return q
		}
		return r.updateRows(q, func(_ int, it Item) (Item, bool) {
			if it.IsEmpty() {
				return it, false
			}
			next, err := it.With(act.Property, act.Value)
			return next, err == nil
		})
	case BatchUpdatePropertyByType:
		if structural(act.Property) {
			r.log.Warn("batch update of structural column rejected", "column", act.Property)
			return q
		}
		excluded := indexSet(act.ExcludeRows)
		return r.updateRows(q, func(i int, it Item) (Item, bool) {
			if it.FabricType != act.FabricType {
				return it, false
			}
			if _, skip := excluded[i]; skip {
				return it, false
			}
			next, err := it.With(act.Property, act.Value)
			return next, err == nil
		})
	case BatchUpdateFabricType:
		return r.updateRows(q, func(_ int, it Item) (Item, bool) {
			if !it.HasDimension() || it.FabricType == act.FabricType {
				return it, false
			}
			return withFabricType(it, act.FabricType), true
		})
	case BatchUpdateFabricTypeForSelection:
		selected := indexSet(act.RowIndexes)
		return r.updateRows(q, func(i int, it Item) (Item, bool) {
			if _, ok := selected[i]; !ok {
				return it, false
			}
			if !it.HasDimension() || it.FabricType == act.FabricType {
				return it, false
			}
			return withFabricType(it, act.FabricType), true
		})
	case BatchUpdateLFProperties:
		selected := indexSet(act.RowIndexes)
		return r.updateRows(q, func(i int, it Item) (Item, bool) {
			if _, ok := selected[i]; !ok {
				return it, false
			}
			it.Fabric = act.Fabric
			it.Color = act.Color
			return it, true
		})
	case RemoveLFProperties:
		selected := indexSet(act.RowIndexes)
		return r.updateRows(q, func(i int, it Item) (Item, bool) {
			if _, ok := selected[i]; !ok {
				return it, false
			}
			it.Fabric = ""
			it.Color = ""
			return it, true
		})
	case AddLFModifiedRows:
		rows := sortedUnion(q.UIMetadata.LFModifiedRowIndexes, act.RowIndexes)
		return withLFRows(q, rows)
	case RemoveLFModifiedRows:
		rows := sortedMinus(q.UIMetadata.LFModifiedRowIndexes, act.RowIndexes)
		return withLFRows(q, rows)
	case UpdateAccessorySummary:
		if len(act.Data) == 0 {
			return q
		}
		summary := q.Current().Summary
		merged := make(map[string]float64, len(summary.Accessories)+len(act.Data))
		for k, v := range summary.Accessories {
			merged[k] = v
		}
		for k, v := range act.Data {
			merged[k] = v
		}
		summary.Accessories = merged
		return q.WithSummary(summary)
	case SetCostDiscountPercentage:
		if q.CostDiscountPercentage == act.Percentage {
			return q
		}
		next := *q
		next.CostDiscountPercentage = act.Percentage
		return &next
	}
	r.log.Warn("unhandled quote action", "type", a.Type())
	return q
}

func (r *Reducer) insertRow(q *QuoteData, selected int) *QuoteData {
	items := q.Items()
	if selected < 0 || selected >= len(items)-1 {
		return q
	}
	if items[selected].IsEmpty() || items[selected+1].IsEmpty() {
		return q
	}
	next := make([]Item, 0, len(items)+1)
	next = append(next, items[:selected+1]...)
	next = append(next, r.newItem(q.CurrentProduct))
	next = append(next, items[selected+1:]...)

	out := q.WithItems(next)
	out.UIMetadata.LFModifiedRowIndexes = shiftAfterInsert(q.UIMetadata.LFModifiedRowIndexes, selected+1)
	return out
}

func (r *Reducer) deleteRows(q *QuoteData, rows []int) *QuoteData {
	items := q.Items()
	drop := make(map[int]struct{}, len(rows))
	for _, i := range rows {
		if i >= 0 && i < len(items) {
			drop[i] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return q
	}

	kept := make([]Item, 0, len(items))
	for i, it := range items {
		if _, ok := drop[i]; !ok {
			kept = append(kept, it)
		}
	}
	return r.consolidated(q, kept, shiftAfterDelete(q.UIMetadata.LFModifiedRowIndexes, drop, len(kept)))
}

func (r *Reducer) clearRow(q *QuoteData, row int) *QuoteData {
	items := q.Items()
	if row < 0 || row >= len(items) {
		return q
	}
	it := items[row]
	if it.IsEmpty() && it.LinePrice == nil {
		return q
	}
	it.Width = nil
	it.Height = nil
	it.FabricType = ""
	it.LinePrice = nil

	next := cloneItems(items)
	next[row] = it
	return r.consolidated(q, next, q.UIMetadata.LFModifiedRowIndexes)
}

func (r *Reducer) updateItemValue(q *QuoteData, act UpdateItemValue) *QuoteData {
	items := q.Items()
	if act.RowIndex < 0 || act.RowIndex >= len(items) {
		return q
	}
	cur := items[act.RowIndex]
	it, err := cur.With(act.Column, act.Value)
	if err != nil {
		r.log.Warn("update item value", "row", act.RowIndex, "err", err)
		return q
	}
	if sameItem(cur, it) {
		return q
	}

	if affectsPrice(act.Column) {
		it.LinePrice = nil
	}
	if (act.Column == ColWidth || act.Column == ColHeight) && it.Width != nil && it.Height != nil {
		if threshold, ok := r.rules.HDWinderThresholdArea(); ok && it.Area() > threshold && it.Motor == "" {
			it.Winder = WinderHD
		}
	}

	next := cloneItems(items)
	next[act.RowIndex] = it
	return r.consolidated(q, next, q.UIMetadata.LFModifiedRowIndexes)
}

func (r *Reducer) cycleItemType(q *QuoteData, row int) *QuoteData {
	items := q.Items()
	if row < 0 || row >= len(items) {
		return q
	}
	it := items[row]
	if !it.HasDimension() {
		return q
	}
	seq := r.rules.FabricTypeSequence()
	if len(seq) == 0 {
		return q
	}

	current := it.FabricType
	if current == "" {
		current = seq[len(seq)-1]
	}
	idx := -1
	for i, t := range seq {
		if t == current {
			idx = i
			break
		}
	}
	nextType := seq[(idx+1)%len(seq)]

	next := cloneItems(items)
	next[row] = withFabricType(it, nextType)
	return q.WithItems(next)
}

// updateRow applies fn to one row; fn reports whether it changed anything.
func (r *Reducer) updateRow(q *QuoteData, row int, fn func(Item) (Item, bool)) *QuoteData {
	items := q.Items()
	if row < 0 || row >= len(items) {
		return q
	}
	it, changed := fn(items[row])
	if !changed || sameItem(it, items[row]) {
		return q
	}
	next := cloneItems(items)
	next[row] = it
	return q.WithItems(next)
}

func (r *Reducer) updateRows(q *QuoteData, fn func(int, Item) (Item, bool)) *QuoteData {
	items := q.Items()
	var next []Item
	for i, it := range items {
		updated, changed := fn(i, it)
		if !changed || sameItem(updated, it) {
			continue
		}
		if next == nil {
			next = cloneItems(items)
		}
		next[i] = updated
	}
	if next == nil {
		return q
	}
	return q.WithItems(next)
}

// withFabricType invalidates the fabric selection and the cached price.
func withFabricType(it Item, fabricType string) Item {
	it.FabricType = fabricType
	it.LinePrice = nil
	it.Fabric = ""
	it.Color = ""
	return it
}

func withLFRows(q *QuoteData, rows []int) *QuoteData {
	cur := q.UIMetadata.LFModifiedRowIndexes
	if len(cur) == len(rows) {
		same := true
		for i := range rows {
			if cur[i] != rows[i] {
				same = false
				break
			}
		}
		if same {
			return q
		}
	}
	next := *q
	next.UIMetadata = UIMetadata{LFModifiedRowIndexes: rows}
	return &next
}

func shiftAfterInsert(rows []int, inserted int) []int {
	out := make([]int, 0, len(rows))
	for _, i := range rows {
		if i >= inserted {
			i++
		}
		out = append(out, i)
	}
	return out
}

func shiftAfterDelete(rows []int, dropped map[int]struct{}, length int) []int {
	out := make([]int, 0, len(rows))
	for _, i := range rows {
		if _, gone := dropped[i]; gone {
			continue
		}
		shift := 0
		for d := range dropped {
			if d < i {
				shift++
			}
		}
		if n := i - shift; n < length {
			out = append(out, n)
		}
	}
	return out
}

func structural(col Column) bool {
	switch col {
	case ColWidth, ColHeight, ColFabricType, ColLinePrice:
		return true
	}
	return false
}

func affectsPrice(col Column) bool {
	return col == ColWidth || col == ColHeight || col == ColFabricType
}
