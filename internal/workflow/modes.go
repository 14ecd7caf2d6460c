package workflow

import (
	"slices"
	"strconv"
	"strings"

	"github.com/Simplici0/blinds/internal/distribution"
	"github.com/Simplici0/blinds/internal/product"
	"github.com/Simplici0/blinds/internal/quote"
)

const (
	dualLabel   = "Dual Brackets (D)"
	winderLabel = "HD Winders"
)

// lfTypes are the fabric types that take a light-filter fabric override.
var lfTypes = []string{"B2", "B3", "B4"}

func flaggedRows(items []quote.Item, pred func(quote.Item) bool) []int {
	return distribution.FlaggedIndexes(len(items), func(i int) bool { return pred(items[i]) })
}

// dualPrice stores the dual bracket sale price of the current items in the
// accessory summary.
func (s *Service) dualPrice(st *quote.State) (*quote.State, error) {
	strategy, err := s.strategy(st.Quote)
	if err != nil {
		return nil, err
	}
	price := s.calc.AccessorySalePrice(strategy, product.AccDual, product.AccessoryInput{Items: st.Quote.Items()})
	return s.apply(st, quote.UpdateAccessorySummary{Data: map[string]float64{"dualCostSum": price}}), nil
}

// ToggleDualChainMode enters mode, or leaves it when it is already active.
// Leaving dual mode requires the D flags to sit on adjacent pairs.
func (s *Service) ToggleDualChainMode(mode quote.DualChainMode) (quote.Snapshot, error) {
	if mode != quote.DualChainDual && mode != quote.DualChainChain {
		return s.store.Snapshot(), inputErr("Unknown mode %q.", mode)
	}
	return s.update(func(st *quote.State) (*quote.State, error) {
		current := st.UI.DualChainMode
		next := mode
		if current == mode {
			next = quote.DualChainNone
		}

		if current == quote.DualChainDual {
			if err := distribution.ValidatePairs(flaggedRows(st.Quote.Items(), product.HasDualBracket), dualLabel); err != nil {
				return nil, err
			}
		}

		out := s.apply(st, quote.SetDualChainMode{Mode: next})
		switch next {
		case quote.DualChainDual:
			return s.dualPrice(out)
		case quote.DualChainNone:
			out = s.apply(out, quote.SetTargetCell{}, quote.ClearInputValue{})
		}
		return out, nil
	})
}

// ToggleDual flips the D flag of row and reprices the dual brackets. Pairing
// is only checked when dual mode is left.
func (s *Service) ToggleDual(row int) (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		if st.UI.DualChainMode != quote.DualChainDual {
			return nil, inputErr("Dual mode is not active.")
		}
		items := st.Quote.Items()
		if !validRow(items, row) || isLastRow(items, row) {
			return nil, inputErr("Cannot edit the final empty row.")
		}
		value := quote.DualBracket
		if items[row].Dual == quote.DualBracket {
			value = ""
		}
		next := s.apply(st, quote.UpdateItemProperty{RowIndex: row, Property: quote.ColDual, Value: value})
		return s.dualPrice(next)
	})
}

// SelectChainCell targets the chain cell of row for entry.
func (s *Service) SelectChainCell(row int) (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		if st.UI.DualChainMode != quote.DualChainChain {
			return nil, inputErr("Chain mode is not active.")
		}
		items := st.Quote.Items()
		if !validRow(items, row) || isLastRow(items, row) {
			return nil, inputErr("Cannot edit the final empty row.")
		}
		return s.apply(st, quote.SetTargetCell{Cell: &quote.Cell{RowIndex: row, Column: quote.ColChain}}), nil
	})
}

// CommitChain stores raw as the chain length of the targeted cell. Blank input
// clears it.
func (s *Service) CommitChain(raw string) (quote.Snapshot, error) {
	raw = strings.TrimSpace(raw)
	var value any
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return s.store.Snapshot(), inputErr("Only positive integers are allowed.")
		}
		value = n
	}
	return s.update(func(st *quote.State) (*quote.State, error) {
		target := st.UI.TargetCell
		if target == nil || target.Column != quote.ColChain {
			return nil, inputErr("No chain cell is selected.")
		}
		if !validRow(st.Quote.Items(), target.RowIndex) {
			return nil, inputErr("The selected row no longer exists.")
		}
		return s.apply(st,
			quote.UpdateItemProperty{RowIndex: target.RowIndex, Property: target.Column, Value: value},
			quote.SetTargetCell{},
			quote.ClearInputValue{},
		), nil
	})
}

// driveTotals prices the drive accessories from the current items and
// counters, stores them in the UI totals and merges them into the summary.
func (s *Service) driveTotals(st *quote.State) (*quote.State, error) {
	strategy, err := s.strategy(st.Quote)
	if err != nil {
		return nil, err
	}
	items := st.Quote.Items()
	price := func(a product.Accessory, count int) float64 {
		return s.calc.AccessorySalePrice(strategy, a, product.AccessoryInput{Count: count})
	}

	winder := price(product.AccWinder, product.CountWhere(items, product.HasHDWinder))
	motor := price(product.AccMotor, product.CountWhere(items, product.HasMotor))
	remote := price(product.AccRemote, st.UI.DriveRemoteCount)
	charger := price(product.AccCharger, st.UI.DriveChargerCount)
	cord := price(product.AccCord, st.UI.DriveCordCount)
	grand := winder + motor + remote + charger + cord

	return s.apply(st,
		quote.SetDriveAccessoryTotalPrice{Accessory: quote.DriveWinder, Price: &winder},
		quote.SetDriveAccessoryTotalPrice{Accessory: quote.DriveMotor, Price: &motor},
		quote.SetDriveAccessoryTotalPrice{Accessory: quote.DriveRemote, Price: &remote},
		quote.SetDriveAccessoryTotalPrice{Accessory: quote.DriveCharger, Price: &charger},
		quote.SetDriveAccessoryTotalPrice{Accessory: quote.DriveCord, Price: &cord},
		quote.SetDriveGrandTotal{Price: &grand},
		quote.UpdateAccessorySummary{Data: map[string]float64{
			"winderCostSum":  winder,
			"motorCostSum":   motor,
			"remoteCostSum":  remote,
			"chargerCostSum": charger,
			"cordCostSum":    cord,
		}},
	), nil
}

// ToggleDriveMode enters mode, or leaves it when it is already active.
// Leaving winder mode requires the HD winders to sit on adjacent pairs.
// Leaving any mode reprices the drive accessories. Entering remote or charger
// mode with motors present bumps a zero counter to one.
func (s *Service) ToggleDriveMode(mode quote.DriveMode) (quote.Snapshot, error) {
	switch mode {
	case quote.DriveWinder, quote.DriveMotor, quote.DriveRemote, quote.DriveCharger, quote.DriveCord:
	default:
		return s.store.Snapshot(), inputErr("Unknown mode %q.", mode)
	}
	return s.update(func(st *quote.State) (*quote.State, error) {
		current := st.UI.DriveAccessoryMode
		next := mode
		if current == mode {
			next = quote.DriveNone
		}
		items := st.Quote.Items()

		if current == quote.DriveWinder {
			if err := distribution.ValidatePairs(flaggedRows(items, product.HasHDWinder), winderLabel); err != nil {
				return nil, err
			}
		}

		out := st
		if current != quote.DriveNone {
			var err error
			if out, err = s.driveTotals(out); err != nil {
				return nil, err
			}
		}
		out = s.apply(out, quote.SetDriveAccessoryMode{Mode: next})

		if slices.ContainsFunc(items, product.HasMotor) {
			switch {
			case next == quote.DriveRemote && out.UI.DriveRemoteCount == 0,
				next == quote.DriveCharger && out.UI.DriveChargerCount == 0:
				out = s.apply(out, quote.SetDriveAccessoryCount{Accessory: next, Count: 1})
			}
		}
		return out, nil
	})
}

// ToggleDriveItem flips the winder or motor of row while the matching mode is
// active. Replacing the other option needs confirm.
func (s *Service) ToggleDriveItem(row int, column quote.Column, confirm bool) (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		mode := st.UI.DriveAccessoryMode
		if !(mode == quote.DriveWinder && column == quote.ColWinder) && !(mode == quote.DriveMotor && column == quote.ColMotor) {
			return nil, inputErr("Column %s cannot be edited in the current mode.", column)
		}
		items := st.Quote.Items()
		if !validRow(items, row) || isLastRow(items, row) {
			return nil, inputErr("Cannot edit the final empty row.")
		}
		it := items[row]

		var value string
		switch column {
		case quote.ColWinder:
			if it.Winder == "" {
				value = quote.WinderHD
			}
			if value != "" && it.Motor != "" && !confirm {
				return nil, &ConfirmationError{Message: "This blind is set to Motor. Are you sure you want to change it to HD Winder?"}
			}
		case quote.ColMotor:
			if it.Motor == "" {
				value = quote.MotorOn
			}
			if value != "" && it.Winder != "" && !confirm {
				return nil, &ConfirmationError{Message: "This blind is set to HD Winder. Are you sure you want to change it to Motor?"}
			}
		}
		return s.apply(st, quote.UpdateWinderMotorProperty{RowIndex: row, Property: column, Value: value}), nil
	})
}

// ChangeDriveCount adds delta to the remote, charger or cord counter, never
// going below zero. Zeroing the remote or charger while motors are present
// needs confirm.
func (s *Service) ChangeDriveCount(acc quote.DriveMode, delta int, confirm bool) (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		var current int
		switch acc {
		case quote.DriveRemote:
			current = st.UI.DriveRemoteCount
		case quote.DriveCharger:
			current = st.UI.DriveChargerCount
		case quote.DriveCord:
			current = st.UI.DriveCordCount
		default:
			return nil, inputErr("Accessory %q has no counter.", acc)
		}
		count := max(0, current+delta)

		if count == 0 && acc != quote.DriveCord && !confirm && slices.ContainsFunc(st.Quote.Items(), product.HasMotor) {
			name := "Remote"
			if acc == quote.DriveCharger {
				name = "Charger"
			}
			return nil, &ConfirmationError{Message: "Motors are present in the quote. Are you sure you want to set the " + name + " quantity to 0?"}
		}
		return s.apply(st, quote.SetDriveAccessoryCount{Accessory: acc, Count: count}), nil
	})
}

// ToggleK3Mode switches the options editing mode.
func (s *Service) ToggleK3Mode() quote.Snapshot {
	snap, _ := s.update(func(st *quote.State) (*quote.State, error) {
		mode := quote.EditK3
		if st.UI.ActiveEditMode == quote.EditK3 {
			mode = quote.EditNone
		}
		return s.apply(st, quote.SetActiveEditMode{Mode: mode}), nil
	})
	return snap
}

// CycleK3 cycles one option cell.
func (s *Service) CycleK3(row int, column quote.Column) (quote.Snapshot, error) {
	if _, ok := quote.NextK3Value(column, ""); !ok {
		return s.store.Snapshot(), inputErr("Column %s has no options to cycle.", column)
	}
	return s.update(func(st *quote.State) (*quote.State, error) {
		if !validRow(st.Quote.Items(), row) {
			return nil, inputErr("Row %d does not exist.", row+1)
		}
		return s.apply(st,
			quote.SetActiveCell{Cell: &quote.Cell{RowIndex: row, Column: column}},
			quote.CycleK3Property{RowIndex: row, Column: column},
		), nil
	})
}

// BatchCycleK3 sets column on every row to the value after the first row's.
func (s *Service) BatchCycleK3(column quote.Column) (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		items := st.Quote.Items()
		if len(items) == 0 {
			return st, nil
		}
		cur, err := items[0].Value(column)
		if err != nil {
			return nil, inputErr("Column %s has no options to cycle.", column)
		}
		first, _ := cur.(string)
		value, ok := quote.NextBatchK3Value(column, first)
		if !ok {
			return nil, inputErr("Column %s has no options to cycle.", column)
		}
		return s.apply(st, quote.BatchUpdateProperty{Property: column, Value: value}), nil
	})
}

// EnterFabricMode starts the per-type fabric batch edit. When some LF rows
// would be overwritten the caller must choose: overwrite drops their LF
// marker, keep skips them in later batch edits.
func (s *Service) EnterFabricMode(overwrite, keep bool) (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		if st.UI.ActiveEditMode == quote.EditK2 {
			return s.exitFabricModes(st), nil
		}
		conflicts := lfConflicts(st.Quote)
		if len(conflicts) > 0 && !overwrite && !keep {
			return nil, &ConfirmationError{Message: "Data Conflict: Some items (B2, B3, B4) already have Light-Filter settings. Continuing with a batch edit will overwrite this data."}
		}
		out := st
		if len(conflicts) > 0 && overwrite {
			out = s.apply(out, quote.RemoveLFModifiedRows{RowIndexes: conflicts})
		}
		return s.apply(out, quote.SetActiveEditMode{Mode: quote.EditK2}, quote.SetActiveCell{}), nil
	})
}

func lfConflicts(q *quote.QuoteData) []int {
	var out []int
	for i, it := range q.Items() {
		if slices.Contains(lfTypes, it.FabricType) && q.UIMetadata.HasLFModified(i) {
			out = append(out, i)
		}
	}
	return out
}

// SetFabricByType sets the fabric name or colour of every row of fabricType.
// Rows carrying an LF override are left alone.
func (s *Service) SetFabricByType(fabricType string, column quote.Column, value string) (quote.Snapshot, error) {
	if column != quote.ColFabric && column != quote.ColColor {
		return s.store.Snapshot(), inputErr("Only fabric and color can be set by type.")
	}
	return s.update(func(st *quote.State) (*quote.State, error) {
		if st.UI.ActiveEditMode != quote.EditK2 {
			return nil, inputErr("Fabric editing is not active.")
		}
		return s.apply(st, quote.BatchUpdatePropertyByType{
			FabricType:  fabricType,
			Property:    column,
			Value:       value,
			ExcludeRows: st.Quote.UIMetadata.LFModifiedRowIndexes,
		}), nil
	})
}

// StartLFEdit enters light-filter row selection.
func (s *Service) StartLFEdit() quote.Snapshot {
	snap, _ := s.update(func(st *quote.State) (*quote.State, error) {
		return s.apply(st, quote.SetActiveEditMode{Mode: quote.EditK2LFSelect}), nil
	})
	return snap
}

// StartLFDelete enters light-filter removal selection.
func (s *Service) StartLFDelete() quote.Snapshot {
	snap, _ := s.update(func(st *quote.State) (*quote.State, error) {
		return s.apply(st, quote.SetActiveEditMode{Mode: quote.EditK2LFDeleteSelect}), nil
	})
	return snap
}

// ToggleLFRow adds or removes row from the light-filter selection.
func (s *Service) ToggleLFRow(row int) (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		items := st.Quote.Items()
		if !validRow(items, row) {
			return nil, inputErr("Row %d does not exist.", row+1)
		}
		switch st.UI.ActiveEditMode {
		case quote.EditK2LFSelect:
			if !slices.Contains(lfTypes, items[row].FabricType) {
				return nil, inputErr(`Only items with TYPE "B2", "B3", or "B4" can be selected.`)
			}
		case quote.EditK2LFDeleteSelect:
			if !st.Quote.UIMetadata.HasLFModified(row) {
				return nil, inputErr("Only items with a Light-Filter setting can be selected for deletion.")
			}
		default:
			return nil, inputErr("Light-Filter selection is not active.")
		}
		return s.apply(st, quote.ToggleLFSelection{RowIndex: row}), nil
	})
}

// ApplyLF writes fabric and color to the selected LF rows, marks them and
// leaves the fabric modes. Both values are required.
func (s *Service) ApplyLF(fabric, color string) (quote.Snapshot, error) {
	fabric, color = strings.TrimSpace(fabric), strings.TrimSpace(color)
	return s.update(func(st *quote.State) (*quote.State, error) {
		if st.UI.ActiveEditMode != quote.EditK2LFSelect {
			return nil, inputErr("Light-Filter selection is not active.")
		}
		rows := st.UI.LFSelectedRowIndexes
		out := st
		if len(rows) > 0 {
			if fabric == "" || color == "" {
				return nil, inputErr("Fabric name and color are both required.")
			}
			out = s.apply(out,
				quote.BatchUpdateLFProperties{RowIndexes: rows, Fabric: fabric, Color: color},
				quote.AddLFModifiedRows{RowIndexes: rows},
			)
		}
		return s.exitFabricModes(out), nil
	})
}

// ConfirmLFDelete clears the LF fabric of the selected rows and leaves the
// fabric modes.
func (s *Service) ConfirmLFDelete() (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		if st.UI.ActiveEditMode != quote.EditK2LFDeleteSelect {
			return nil, inputErr("Light-Filter removal is not active.")
		}
		out := st
		if rows := st.UI.LFSelectedRowIndexes; len(rows) > 0 {
			out = s.apply(out,
				quote.RemoveLFProperties{RowIndexes: rows},
				quote.RemoveLFModifiedRows{RowIndexes: rows},
			)
		}
		return s.exitFabricModes(out), nil
	})
}

func (s *Service) exitFabricModes(st *quote.State) *quote.State {
	return s.apply(st,
		quote.SetActiveEditMode{Mode: quote.EditNone},
		quote.SetSelectedRow{},
		quote.ClearLFSelection{},
	)
}

// ToggleLocationMode enters location entry on the first row, or leaves it.
func (s *Service) ToggleLocationMode() (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		if st.UI.ActiveEditMode == quote.EditK1 {
			return s.apply(st,
				quote.SetActiveEditMode{Mode: quote.EditNone},
				quote.SetTargetCell{},
				quote.SetLocationInputValue{},
			), nil
		}
		items := st.Quote.Items()
		if len(items) == 0 {
			return nil, inputErr("There are no rows to edit.")
		}
		return s.apply(st,
			quote.SetActiveEditMode{Mode: quote.EditK1},
			quote.SetTargetCell{Cell: &quote.Cell{RowIndex: 0, Column: quote.ColLocation}},
			quote.SetLocationInputValue{Value: items[0].Location},
		), nil
	})
}

// CommitLocation stores value on the targeted row and moves to the next one.
// Reaching the trailing empty row leaves location mode.
func (s *Service) CommitLocation(value string) (quote.Snapshot, error) {
	return s.update(func(st *quote.State) (*quote.State, error) {
		target := st.UI.TargetCell
		if target == nil || target.Column != quote.ColLocation {
			return nil, inputErr("No location cell is selected.")
		}
		if !validRow(st.Quote.Items(), target.RowIndex) {
			return nil, inputErr("The selected row no longer exists.")
		}
		out := s.apply(st, quote.UpdateItemProperty{RowIndex: target.RowIndex, Property: quote.ColLocation, Value: value})

		items := out.Quote.Items()
		nextRow := target.RowIndex + 1
		if nextRow < len(items)-1 {
			return s.apply(out,
				quote.SetTargetCell{Cell: &quote.Cell{RowIndex: nextRow, Column: quote.ColLocation}},
				quote.SetLocationInputValue{Value: items[nextRow].Location},
			), nil
		}
		return s.apply(out,
			quote.SetActiveEditMode{Mode: quote.EditNone},
			quote.SetTargetCell{},
			quote.SetLocationInputValue{},
		), nil
	})
}
