package quote

// Consolidate keeps exactly one empty row at the end of items and removes
// redundant empty rows. Interior runs of empty rows collapse to their first
// row. Trailing empty rows are trimmed down to one, and a fresh row from
// newItem is appended when the last row holds data. A list made of a single
// empty row is returned as is and an empty list gets its blank row. The input
// slice is never modified.
func Consolidate(items []Item, newItem func() Item) []Item {
	out, _ := consolidate(items, newItem)
	return out
}

// consolidate is Consolidate that also reports the indexes of items it
// removed, so row-indexed metadata can follow the surviving rows.
func consolidate(items []Item, newItem func() Item) ([]Item, map[int]struct{}) {
	dropped := map[int]struct{}{}
	if len(items) == 0 {
		return []Item{newItem()}, dropped
	}

	out := make([]Item, 0, len(items)+1)
	src := make([]int, 0, len(items))
	for i, it := range items {
		if i > 0 && it.IsEmpty() && items[i-1].IsEmpty() {
			dropped[i] = struct{}{}
			continue
		}
		out = append(out, it)
		src = append(src, i)
	}

	for len(out) > 1 && out[len(out)-1].IsEmpty() && out[len(out)-2].IsEmpty() {
		dropped[src[len(src)-1]] = struct{}{}
		out = out[:len(out)-1]
		src = src[:len(src)-1]
	}

	if !out[len(out)-1].IsEmpty() {
		out = append(out, newItem())
	}
	return out, dropped
}

// ConsolidateQuote returns a copy of q whose current rows are consolidated.
// LF markers move with their rows; markers on removed rows are dropped.
func ConsolidateQuote(q *QuoteData, newItem func() Item) *QuoteData {
	return consolidateQuote(q, q.Items(), q.UIMetadata.LFModifiedRowIndexes, newItem)
}

// consolidateQuote installs items as the current rows of q after
// consolidating them. lf holds LF rows as indexes into items.
func consolidateQuote(q *QuoteData, items []Item, lf []int, newItem func() Item) *QuoteData {
	out, dropped := consolidate(items, newItem)
	next := q.WithItems(out)
	next.UIMetadata = UIMetadata{LFModifiedRowIndexes: shiftAfterDelete(lf, dropped, len(out))}
	return next
}

// sameItems reports whether a and b hold the same rows in the same order.
func sameItems(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !sameItem(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameItem(a, b Item) bool {
	return a.ItemID == b.ItemID &&
		eqInt(a.Width, b.Width) &&
		eqInt(a.Height, b.Height) &&
		a.FabricType == b.FabricType &&
		eqFloat(a.LinePrice, b.LinePrice) &&
		a.Location == b.Location &&
		a.Fabric == b.Fabric &&
		a.Color == b.Color &&
		a.Over == b.Over &&
		a.OI == b.OI &&
		a.LR == b.LR &&
		a.Dual == b.Dual &&
		eqInt(a.Chain, b.Chain) &&
		a.Winder == b.Winder &&
		a.Motor == b.Motor
}

func eqInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
