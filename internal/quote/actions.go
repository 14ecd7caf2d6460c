package quote

// Action is a state change request. Type returns the namespaced action name,
// "quote/..." or "ui/...".
type Action interface {
	Type() string
}

// QuoteAction changes the persisted QuoteData tree.
type QuoteAction interface {
	Action
	quoteAction()
}

// UIAction changes the transient UI state.
type UIAction interface {
	Action
	uiAction()
}

type (
	// SetQuoteData replaces the whole tree, as done on load.
	SetQuoteData struct {
		Data *QuoteData `json:"newQuoteData"`
	}
	ResetQuoteData struct{}
	// InsertRow adds an empty row right after SelectedIndex.
	InsertRow struct {
		SelectedIndex int `json:"selectedIndex"`
	}
	DeleteRow struct {
		RowIndex int `json:"rowIndex"`
	}
	DeleteMultipleRows struct {
		RowIndexes []int `json:"rowIndexes"`
	}
	// ClearRow clears width, height, fabric type and price of a row.
	ClearRow struct {
		RowIndex int `json:"rowIndex"`
	}
	// UpdateItemValue edits a row and keeps the row list consolidated.
	UpdateItemValue struct {
		RowIndex int    `json:"rowIndex"`
		Column   Column `json:"column"`
		Value    any    `json:"value"`
	}
	// UpdateItemProperty sets a field without consolidation.
	UpdateItemProperty struct {
		RowIndex int    `json:"rowIndex"`
		Property Column `json:"property"`
		Value    any    `json:"value"`
	}
	// UpdateWinderMotorProperty sets winder or motor and clears the other.
	UpdateWinderMotorProperty struct {
		RowIndex int    `json:"rowIndex"`
		Property Column `json:"property"`
		Value    string `json:"value"`
	}
	CycleK3Property struct {
		RowIndex int    `json:"rowIndex"`
		Column   Column `json:"column"`
	}
	CycleItemType struct {
		RowIndex int `json:"rowIndex"`
	}
	SetItemType struct {
		RowIndex   int    `json:"rowIndex"`
		FabricType string `json:"newType"`
	}
	// BatchUpdateProperty sets a field on every non-empty row.
	BatchUpdateProperty struct {
		Property Column `json:"property"`
		Value    any    `json:"value"`
	}
	// BatchUpdatePropertyByType sets a field on rows of one fabric type,
	// skipping ExcludeRows.
	BatchUpdatePropertyByType struct {
		FabricType  string `json:"type"`
		Property    Column `json:"property"`
		Value       any    `json:"value"`
		ExcludeRows []int  `json:"indexesToExclude"`
	}
	BatchUpdateFabricType struct {
		FabricType string `json:"newType"`
	}
	BatchUpdateFabricTypeForSelection struct {
		RowIndexes []int  `json:"selectedIndexes"`
		FabricType string `json:"newType"`
	}
	BatchUpdateLFProperties struct {
		RowIndexes []int  `json:"rowIndexes"`
		Fabric     string `json:"fabricName"`
		Color      string `json:"fabricColor"`
	}
	RemoveLFProperties struct {
		RowIndexes []int `json:"rowIndexes"`
	}
	AddLFModifiedRows struct {
		RowIndexes []int `json:"rowIndexes"`
	}
	RemoveLFModifiedRows struct {
		RowIndexes []int `json:"rowIndexes"`
	}
	// UpdateAccessorySummary merges Data into the current summary accessories.
	UpdateAccessorySummary struct {
		Data map[string]float64 `json:"data"`
	}
	SetCostDiscountPercentage struct {
		Percentage float64 `json:"percentage"`
	}
)

func (SetQuoteData) Type() string                      { return "quote/setQuoteData" }
func (ResetQuoteData) Type() string                    { return "quote/resetQuoteData" }
func (InsertRow) Type() string                         { return "quote/insertRow" }
func (DeleteRow) Type() string                         { return "quote/deleteRow" }
func (DeleteMultipleRows) Type() string                { return "quote/deleteMultipleRows" }
func (ClearRow) Type() string                          { return "quote/clearRow" }
func (UpdateItemValue) Type() string                   { return "quote/updateItemValue" }
func (UpdateItemProperty) Type() string                { return "quote/updateItemProperty" }
func (UpdateWinderMotorProperty) Type() string         { return "quote/updateWinderMotorProperty" }
func (CycleK3Property) Type() string                   { return "quote/cycleK3Property" }
func (CycleItemType) Type() string                     { return "quote/cycleItemType" }
func (SetItemType) Type() string                       { return "quote/setItemType" }
func (BatchUpdateProperty) Type() string               { return "quote/batchUpdateProperty" }
func (BatchUpdatePropertyByType) Type() string         { return "quote/batchUpdatePropertyByType" }
func (BatchUpdateFabricType) Type() string             { return "quote/batchUpdateFabricType" }
func (BatchUpdateFabricTypeForSelection) Type() string { return "quote/batchUpdateFabricTypeForSelection" }
func (BatchUpdateLFProperties) Type() string           { return "quote/batchUpdateLFProperties" }
func (RemoveLFProperties) Type() string                { return "quote/removeLFProperties" }
func (AddLFModifiedRows) Type() string                 { return "quote/addLFModifiedRows" }
func (RemoveLFModifiedRows) Type() string              { return "quote/removeLFModifiedRows" }
func (UpdateAccessorySummary) Type() string            { return "quote/updateAccessorySummary" }
func (SetCostDiscountPercentage) Type() string         { return "quote/setCostDiscountPercentage" }

func (SetQuoteData) quoteAction()                      {}
func (ResetQuoteData) quoteAction()                    {}
func (InsertRow) quoteAction()                         {}
func (DeleteRow) quoteAction()                         {}
func (DeleteMultipleRows) quoteAction()                {}
func (ClearRow) quoteAction()                          {}
func (UpdateItemValue) quoteAction()                   {}
func (UpdateItemProperty) quoteAction()                {}
func (UpdateWinderMotorProperty) quoteAction()         {}
func (CycleK3Property) quoteAction()                   {}
func (CycleItemType) quoteAction()                     {}
func (SetItemType) quoteAction()                       {}
func (BatchUpdateProperty) quoteAction()               {}
func (BatchUpdatePropertyByType) quoteAction()         {}
func (BatchUpdateFabricType) quoteAction()             {}
func (BatchUpdateFabricTypeForSelection) quoteAction() {}
func (BatchUpdateLFProperties) quoteAction()           {}
func (RemoveLFProperties) quoteAction()                {}
func (AddLFModifiedRows) quoteAction()                 {}
func (RemoveLFModifiedRows) quoteAction()              {}
func (UpdateAccessorySummary) quoteAction()            {}
func (SetCostDiscountPercentage) quoteAction()         {}

// K3 cycles used by single-row cycling. Batch cycling uses BatchK3Sequence.
var k3Sequences = map[Column][]string{
	ColOver: {"", "O"},
	ColOI:   {"", "IN", "OUT"},
	ColLR:   {"", "L", "R"},
}

var batchK3Sequences = map[Column][]string{
	ColOver: {"O", ""},
	ColOI:   {"IN", "OUT"},
	ColLR:   {"L", "R"},
}

// NextK3Value returns the value after current in the single-row cycle of col.
func NextK3Value(col Column, current string) (string, bool) {
	return nextInSequence(k3Sequences[col], current)
}

// NextBatchK3Value returns the value a batch cycle of col applies to every row,
// given the value on the first row.
func NextBatchK3Value(col Column, first string) (string, bool) {
	return nextInSequence(batchK3Sequences[col], first)
}

func nextInSequence(seq []string, current string) (string, bool) {
	if len(seq) == 0 {
		return "", false
	}
	for i, v := range seq {
		if v == current {
			return seq[(i+1)%len(seq)], true
		}
	}
	return seq[0], true
}
