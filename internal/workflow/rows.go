package workflow

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Simplici0/blinds/internal/quote"
)

// CommitValue parses raw as the new width or height of cell and commits it.
// Blank input clears the value. Values outside the product's limits are
// rejected without a commit.
func (s *Service) CommitValue(cell quote.Cell, raw string) (quote.Snapshot, error) {
	if cell.Column != quote.ColWidth && cell.Column != quote.ColHeight {
		return s.store.Snapshot(), inputErr("Only width and height can be entered here.")
	}

	var value any
	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		strategy, err := s.strategy(s.store.State().Quote)
		if err != nil {
			return s.store.Snapshot(), err
		}
		rule, hasRule := strategy.ValidationRules()[cell.Column]
		n, err := strconv.Atoi(trimmed)
		if err != nil {
			if hasRule {
				return s.store.Snapshot(), &InputError{Message: rule.Message(), Cell: &cell}
			}
			return s.store.Snapshot(), &InputError{Message: "Only whole numbers are allowed.", Cell: &cell}
		}
		if hasRule {
			if err := rule.Check(n); err != nil {
				return s.store.Snapshot(), &InputError{Message: err.Error(), Cell: &cell}
			}
		}
		value = n
	}

	return s.update(func(st *quote.State) (*quote.State, error) {
		if !validRow(st.Quote.Items(), cell.RowIndex) {
			return nil, inputErr("Row %d does not exist.", cell.RowIndex+1)
		}
		next := s.apply(st, quote.UpdateItemValue{RowIndex: cell.RowIndex, Column: cell.Column, Value: value})
		if next.Quote != st.Quote {
			next = s.apply(next, quote.SetSumOutdated{Outdated: true})
		}
		return s.apply(next, quote.ClearInputValue{}), nil
	})
}

// SelectRow toggles row in the multi-selection. The trailing empty row cannot
// be selected.
func (s *Service) SelectRow(row int) (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		items := st.Quote.Items()
		if !validRow(items, row) {
			return nil, inputErr("Row %d does not exist.", row+1)
		}
		if isLastRow(items, row) && items[row].IsEmpty() {
			return nil, inputErr("Cannot select the final empty row.")
		}
		return s.apply(st, quote.ToggleMultiSelectSelection{RowIndex: row}), nil
	})
}

// single returns the one selected row or an error built from the messages.
func single(ui *quote.UIState, tooMany, none string) (int, error) {
	sel := ui.MultiSelectSelectedIndexes
	switch {
	case len(sel) > 1:
		return 0, inputErr("%s", tooMany)
	case len(sel) == 0:
		return 0, inputErr("%s", none)
	}
	return sel[0], nil
}

// InsertRow inserts an empty row below the single selected row and moves the
// cursor to its width cell.
func (s *Service) InsertRow() (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		row, err := single(st.UI,
			"A new item can only be inserted below a single selection.",
			"Please select a position to insert the new item.")
		if err != nil {
			return nil, err
		}
		items := st.Quote.Items()
		if !validRow(items, row) {
			return nil, inputErr("Row %d does not exist.", row+1)
		}
		if isLastRow(items, row) {
			return nil, inputErr("Cannot insert after the last row.")
		}
		if items[row+1].IsEmpty() {
			return nil, inputErr("Cannot insert before an empty row.")
		}

		next := s.apply(st, quote.InsertRow{SelectedIndex: row})
		if next == st {
			return nil, inputErr("Cannot insert after an empty row.")
		}
		return s.apply(next,
			quote.SetActiveCell{Cell: &quote.Cell{RowIndex: row + 1, Column: quote.ColWidth}},
			quote.ClearMultiSelectSelection{},
		), nil
	})
}

// DeleteRow deletes the single selected row.
func (s *Service) DeleteRow() (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		row, err := single(st.UI, "Only one item can be deleted at a time.", "Please select an item to delete.")
		if err != nil {
			return nil, err
		}
		return s.apply(st,
			quote.DeleteRow{RowIndex: row},
			quote.ClearMultiSelectSelection{},
			quote.SetSumOutdated{Outdated: true},
		), nil
	})
}

// ClearRow clears width, height and type of the single selected row.
func (s *Service) ClearRow() (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		msg := "Please select a single item to use this function."
		row, err := single(st.UI, msg, msg)
		if err != nil {
			return nil, err
		}
		return s.apply(st,
			quote.ClearRow{RowIndex: row},
			quote.ClearMultiSelectSelection{},
			quote.SetSumOutdated{Outdated: true},
		), nil
	})
}

// afterTypeChange drops the LF marker of every row whose type changed between
// before and next and marks the sum outdated. extra runs only when something
// changed.
func (s *Service) afterTypeChange(before, next *quote.State, extra ...quote.Action) *quote.State {
	changed := quote.ChangedFabricTypeRows(before.Quote, next.Quote)
	if len(changed) == 0 {
		return next
	}
	actions := append([]quote.Action{
		quote.RemoveLFModifiedRows{RowIndexes: changed},
		quote.SetSumOutdated{Outdated: true},
	}, extra...)
	return s.apply(next, actions...)
}

// CycleType moves row to the next fabric type.
func (s *Service) CycleType(row int) (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		if !validRow(st.Quote.Items(), row) {
			return nil, inputErr("Row %d does not exist.", row+1)
		}
		next := s.apply(st,
			quote.SetActiveCell{Cell: &quote.Cell{RowIndex: row, Column: quote.ColFabricType}},
			quote.CycleItemType{RowIndex: row},
		)
		return s.afterTypeChange(st, next), nil
	})
}

func (s *Service) checkType(fabricType string) error {
	if !slices.Contains(s.rules.FabricTypeSequence(), fabricType) {
		return inputErr("Unknown fabric type %q.", fabricType)
	}
	return nil
}

// SetType sets the fabric type of one row.
func (s *Service) SetType(row int, fabricType string) (quote.Snapshot, error) {
	if err := s.checkType(fabricType); err != nil {
		return s.store.Snapshot(), err
	}
	return s.update(func(st *quote.State) (*quote.State, error) {
		items := st.Quote.Items()
		if !validRow(items, row) || !items[row].HasDimension() {
			return nil, inputErr("Cannot set type for an empty row.")
		}
		next := s.apply(st, quote.SetItemType{RowIndex: row, FabricType: fabricType})
		return s.afterTypeChange(st, next), nil
	})
}

// CycleAllTypes moves every sized row to the type after the first sized
// row's type.
func (s *Service) CycleAllTypes() (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		seq := s.rules.FabricTypeSequence()
		if len(seq) == 0 {
			return st, nil
		}
		idx := slices.IndexFunc(st.Quote.Items(), quote.Item.HasDimension)
		if idx < 0 {
			return st, nil
		}
		current := st.Quote.Items()[idx].FabricType
		if current == "" {
			current = seq[len(seq)-1]
		}
		nextType := seq[(slices.Index(seq, current)+1)%len(seq)]

		next := s.apply(st, quote.BatchUpdateFabricType{FabricType: nextType})
		return s.afterTypeChange(st, next), nil
	})
}

// SetTypeForAll sets the fabric type of every sized row.
func (s *Service) SetTypeForAll(fabricType string) (quote.Snapshot, error) {
	if err := s.checkType(fabricType); err != nil {
		return s.store.Snapshot(), err
	}
	return s.update(func(st *quote.State) (*quote.State, error) {
		next := s.apply(st, quote.BatchUpdateFabricType{FabricType: fabricType})
		return s.afterTypeChange(st, next), nil
	})
}

// SetTypeForSelection sets the fabric type of the multi-selected rows.
func (s *Service) SetTypeForSelection(fabricType string) (quote.Snapshot, error) {
	if err := s.checkType(fabricType); err != nil {
		return s.store.Snapshot(), err
	}
	return s.update(func(st *quote.State) (*quote.State, error) {
		sel := st.UI.MultiSelectSelectedIndexes
		if len(sel) <= 1 {
			return nil, inputErr("Please select multiple items first.")
		}
		next := s.apply(st, quote.BatchUpdateFabricTypeForSelection{RowIndexes: sel, FabricType: fabricType})
		return s.afterTypeChange(st, next, quote.ClearMultiSelectSelection{}), nil
	})
}
