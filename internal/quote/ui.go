package quote

// Cell addresses a table cell.
type Cell struct {
	RowIndex int    `json:"rowIndex"`
	Column   Column `json:"column"`
}

// EditMode is the active editing mode of the detail views.
type EditMode string

const (
	EditNone             EditMode = ""
	EditK1               EditMode = "K1"
	EditK2               EditMode = "K2"
	EditK2LFSelect       EditMode = "K2_LF_SELECT"
	EditK2LFDeleteSelect EditMode = "K2_LF_DELETE_SELECT"
	EditK3               EditMode = "K3"
)

// DualChainMode is the active mode of the dual/chain view.
type DualChainMode string

const (
	DualChainNone  DualChainMode = ""
	DualChainDual  DualChainMode = "dual"
	DualChainChain DualChainMode = "chain"
)

// DriveMode is the active mode of the drive accessories view.
type DriveMode string

const (
	DriveNone    DriveMode = ""
	DriveWinder  DriveMode = "winder"
	DriveMotor   DriveMode = "motor"
	DriveRemote  DriveMode = "remote"
	DriveCharger DriveMode = "charger"
	DriveCord    DriveMode = "cord"
)

// F1State holds the cost panel inputs. Nil quantities are derived on demand.
type F1State struct {
	DiscountPercentage float64 `json:"discountPercentage"`
	Remote1chQty       *int    `json:"remote_1ch_qty"`
	Remote16chQty      *int    `json:"remote_16ch_qty"`
	DualComboQty       *int    `json:"dual_combo_qty"`
	DualSlimQty        *int    `json:"dual_slim_qty"`
}

// F2State holds the profit panel inputs.
type F2State struct {
	WifiQty             float64 `json:"wifiQty"`
	DeliveryQty         float64 `json:"deliveryQty"`
	InstallQty          float64 `json:"installQty"`
	RemovalQty          float64 `json:"removalQty"`
	MulTimes            float64 `json:"mulTimes"`
	Discount            float64 `json:"discount"`
	DeliveryFeeExcluded bool    `json:"deliveryFeeExcluded"`
	InstallFeeExcluded  bool    `json:"installFeeExcluded"`
	RemovalFeeExcluded  bool    `json:"removalFeeExcluded"`
}

// F2Key names a numeric F2 input.
type F2Key string

const (
	F2WifiQty     F2Key = "wifiQty"
	F2DeliveryQty F2Key = "deliveryQty"
	F2InstallQty  F2Key = "installQty"
	F2RemovalQty  F2Key = "removalQty"
	F2MulTimes    F2Key = "mulTimes"
	F2Discount    F2Key = "discount"
)

// Fee names a surcharge that can be excluded from the F2 total.
type Fee string

const (
	FeeDelivery Fee = "delivery"
	FeeInstall  Fee = "install"
	FeeRemoval  Fee = "removal"
)

// UIState is the transient interaction state. It is never persisted with the quote.
type UIState struct {
	ActiveTab                  string        `json:"activeTabId"`
	ActiveCell                 *Cell         `json:"activeCell"`
	InputMode                  Column        `json:"inputMode"`
	InputValue                 string        `json:"inputValue"`
	SelectedRowIndex           *int          `json:"selectedRowIndex"`
	MultiSelectMode            bool          `json:"isMultiSelectMode"`
	MultiSelectSelectedIndexes []int         `json:"multiSelectSelectedIndexes"`
	ActiveEditMode             EditMode      `json:"activeEditMode"`
	TargetCell                 *Cell         `json:"targetCell"`
	LocationInputValue         string        `json:"locationInputValue"`
	LFSelectedRowIndexes       []int         `json:"lfSelectedRowIndexes"`
	DualChainMode              DualChainMode `json:"dualChainMode"`
	DriveAccessoryMode         DriveMode     `json:"driveAccessoryMode"`
	DriveRemoteCount           int           `json:"driveRemoteCount"`
	DriveChargerCount          int           `json:"driveChargerCount"`
	DriveCordCount             int           `json:"driveCordCount"`
	DriveTotals                DriveTotals   `json:"driveTotals"`
	DriveGrandTotal            *float64      `json:"driveGrandTotal"`
	F1                         F1State       `json:"f1"`
	F2                         F2State       `json:"f2"`
	SumOutdated                bool          `json:"isSumOutdated"`
}

// DriveTotals are the per-accessory totals shown by the drive view.
type DriveTotals struct {
	Winder  *float64 `json:"winder"`
	Motor   *float64 `json:"motor"`
	Remote  *float64 `json:"remote"`
	Charger *float64 `json:"charger"`
	Cord    *float64 `json:"cord"`
}

// DefaultUIState is the UI state of a fresh session.
func DefaultUIState() *UIState {
	return &UIState{
		ActiveTab:                  "k1-tab",
		MultiSelectSelectedIndexes: []int{},
		LFSelectedRowIndexes:       []int{},
		F2:                         F2State{MulTimes: 1},
	}
}

type (
	SetActiveTab struct {
		TabID string `json:"tabId"`
	}
	// SetActiveCell moves the cursor; a nil Cell clears it.
	SetActiveCell struct {
		Cell *Cell `json:"cell"`
	}
	SetInputValue struct {
		Value string `json:"value"`
	}
	AppendInputValue struct {
		Key string `json:"key"`
	}
	DeleteLastInputChar        struct{}
	ClearInputValue            struct{}
	ToggleMultiSelectMode      struct{}
	ToggleMultiSelectSelection struct {
		RowIndex int `json:"rowIndex"`
	}
	ClearMultiSelectSelection struct{}
	SetSelectedRow            struct {
		RowIndex *int `json:"rowIndex"`
	}
	SetActiveEditMode struct {
		Mode EditMode `json:"mode"`
	}
	SetTargetCell struct {
		Cell *Cell `json:"cell"`
	}
	SetLocationInputValue struct {
		Value string `json:"value"`
	}
	ToggleLFSelection struct {
		RowIndex int `json:"rowIndex"`
	}
	ClearLFSelection    struct{}
	SetDualChainMode    struct {
		Mode DualChainMode `json:"mode"`
	}
	SetDriveAccessoryMode struct {
		Mode DriveMode `json:"mode"`
	}
	// SetDriveAccessoryCount sets the remote, charger or cord counter.
	// Negative counts are ignored.
	SetDriveAccessoryCount struct {
		Accessory DriveMode `json:"accessory"`
		Count     int       `json:"count"`
	}
	SetDriveAccessoryTotalPrice struct {
		Accessory DriveMode `json:"accessory"`
		Price     *float64  `json:"price"`
	}
	SetDriveGrandTotal struct {
		Price *float64 `json:"price"`
	}
	SetF1RemoteDistribution struct {
		Qty1  *int `json:"qty1"`
		Qty16 *int `json:"qty16"`
	}
	SetF1DualDistribution struct {
		ComboQty *int `json:"comboQty"`
		SlimQty  *int `json:"slimQty"`
	}
	SetF1DiscountPercentage struct {
		Percentage float64 `json:"percentage"`
	}
	SetF2Value struct {
		Key   F2Key   `json:"key"`
		Value float64 `json:"value"`
	}
	ToggleF2FeeExclusion struct {
		Fee Fee `json:"feeType"`
	}
	SetSumOutdated struct {
		Outdated bool `json:"isOutdated"`
	}
	ResetUI struct{}
)

func (SetActiveTab) Type() string                { return "ui/setActiveTab" }
func (SetActiveCell) Type() string               { return "ui/setActiveCell" }
func (SetInputValue) Type() string               { return "ui/setInputValue" }
func (AppendInputValue) Type() string            { return "ui/appendInputValue" }
func (DeleteLastInputChar) Type() string         { return "ui/deleteLastInputChar" }
func (ClearInputValue) Type() string             { return "ui/clearInputValue" }
func (ToggleMultiSelectMode) Type() string       { return "ui/toggleMultiSelectMode" }
func (ToggleMultiSelectSelection) Type() string  { return "ui/toggleMultiSelectSelection" }
func (ClearMultiSelectSelection) Type() string   { return "ui/clearMultiSelectSelection" }
func (SetSelectedRow) Type() string              { return "ui/setSelectedRow" }
func (SetActiveEditMode) Type() string           { return "ui/setActiveEditMode" }
func (SetTargetCell) Type() string               { return "ui/setTargetCell" }
func (SetLocationInputValue) Type() string       { return "ui/setLocationInputValue" }
func (ToggleLFSelection) Type() string           { return "ui/toggleLFSelection" }
func (ClearLFSelection) Type() string            { return "ui/clearLFSelection" }
func (SetDualChainMode) Type() string            { return "ui/setDualChainMode" }
func (SetDriveAccessoryMode) Type() string       { return "ui/setDriveAccessoryMode" }
func (SetDriveAccessoryCount) Type() string      { return "ui/setDriveAccessoryCount" }
func (SetDriveAccessoryTotalPrice) Type() string { return "ui/setDriveAccessoryTotalPrice" }
func (SetDriveGrandTotal) Type() string          { return "ui/setDriveGrandTotal" }
func (SetF1RemoteDistribution) Type() string     { return "ui/setF1RemoteDistribution" }
func (SetF1DualDistribution) Type() string       { return "ui/setF1DualDistribution" }
func (SetF1DiscountPercentage) Type() string     { return "ui/setF1DiscountPercentage" }
func (SetF2Value) Type() string                  { return "ui/setF2Value" }
func (ToggleF2FeeExclusion) Type() string        { return "ui/toggleF2FeeExclusion" }
func (SetSumOutdated) Type() string              { return "ui/setSumOutdated" }
func (ResetUI) Type() string                     { return "ui/resetUi" }

func (SetActiveTab) uiAction()                {}
func (SetActiveCell) uiAction()               {}
func (SetInputValue) uiAction()               {}
func (AppendInputValue) uiAction()            {}
func (DeleteLastInputChar) uiAction()         {}
func (ClearInputValue) uiAction()             {}
func (ToggleMultiSelectMode) uiAction()       {}
func (ToggleMultiSelectSelection) uiAction()  {}
func (ClearMultiSelectSelection) uiAction()   {}
func (SetSelectedRow) uiAction()              {}
func (SetActiveEditMode) uiAction()           {}
func (SetTargetCell) uiAction()               {}
func (SetLocationInputValue) uiAction()       {}
func (ToggleLFSelection) uiAction()           {}
func (ClearLFSelection) uiAction()            {}
func (SetDualChainMode) uiAction()            {}
func (SetDriveAccessoryMode) uiAction()       {}
func (SetDriveAccessoryCount) uiAction()      {}
func (SetDriveAccessoryTotalPrice) uiAction() {}
func (SetDriveGrandTotal) uiAction()          {}
func (SetF1RemoteDistribution) uiAction()     {}
func (SetF1DualDistribution) uiAction()       {}
func (SetF1DiscountPercentage) uiAction()     {}
func (SetF2Value) uiAction()                  {}
func (ToggleF2FeeExclusion) uiAction()        {}
func (SetSumOutdated) uiAction()              {}
func (ResetUI) uiAction()                     {}

// reduceUI returns s itself when the action changes nothing.
func reduceUI(s *UIState, a UIAction) *UIState {
	next := *s
	switch act := a.(type) {
	case SetActiveTab:
		if s.ActiveTab == act.TabID {
			return s
		}
		next.ActiveTab = act.TabID
	case SetActiveCell:
		next.ActiveCell = act.Cell
		next.InputMode = ""
		if act.Cell != nil {
			next.InputMode = act.Cell.Column
		}
	case SetInputValue:
		next.InputValue = act.Value
	case AppendInputValue:
		next.InputValue = s.InputValue + act.Key
	case DeleteLastInputChar:
		if s.InputValue == "" {
			return s
		}
		r := []rune(s.InputValue)
		next.InputValue = string(r[:len(r)-1])
	case ClearInputValue:
		if s.InputValue == "" {
			return s
		}
		next.InputValue = ""
	case ToggleMultiSelectMode:
		entering := !s.MultiSelectMode
		next.MultiSelectMode = entering
		next.MultiSelectSelectedIndexes = []int{}
		if entering && s.SelectedRowIndex != nil {
			next.MultiSelectSelectedIndexes = []int{*s.SelectedRowIndex}
		}
		next.SelectedRowIndex = nil
	case ToggleMultiSelectSelection:
		next.MultiSelectSelectedIndexes = toggleIndex(s.MultiSelectSelectedIndexes, act.RowIndex)
	case ClearMultiSelectSelection:
		if len(s.MultiSelectSelectedIndexes) == 0 {
			return s
		}
		next.MultiSelectSelectedIndexes = []int{}
	case SetSelectedRow:
		next.SelectedRowIndex = act.RowIndex
	case SetActiveEditMode:
		if s.ActiveEditMode == act.Mode {
			return s
		}
		next.ActiveEditMode = act.Mode
	case SetTargetCell:
		next.TargetCell = act.Cell
	case SetLocationInputValue:
		next.LocationInputValue = act.Value
	case ToggleLFSelection:
		next.LFSelectedRowIndexes = toggleIndex(s.LFSelectedRowIndexes, act.RowIndex)
	case ClearLFSelection:
		if len(s.LFSelectedRowIndexes) == 0 {
			return s
		}
		next.LFSelectedRowIndexes = []int{}
	case SetDualChainMode:
		if s.DualChainMode == act.Mode {
			return s
		}
		next.DualChainMode = act.Mode
	case SetDriveAccessoryMode:
		if s.DriveAccessoryMode == act.Mode {
			return s
		}
		next.DriveAccessoryMode = act.Mode
	case SetDriveAccessoryCount:
		if act.Count < 0 {
			return s
		}
		switch act.Accessory {
		case DriveRemote:
			next.DriveRemoteCount = act.Count
		case DriveCharger:
			next.DriveChargerCount = act.Count
		case DriveCord:
			next.DriveCordCount = act.Count
		default:
			return s
		}
	case SetDriveAccessoryTotalPrice:
		switch act.Accessory {
		case DriveWinder:
			next.DriveTotals.Winder = act.Price
		case DriveMotor:
			next.DriveTotals.Motor = act.Price
		case DriveRemote:
			next.DriveTotals.Remote = act.Price
		case DriveCharger:
			next.DriveTotals.Charger = act.Price
		case DriveCord:
			next.DriveTotals.Cord = act.Price
		default:
			return s
		}
	case SetDriveGrandTotal:
		next.DriveGrandTotal = act.Price
	case SetF1RemoteDistribution:
		next.F1.Remote1chQty = act.Qty1
		next.F1.Remote16chQty = act.Qty16
	case SetF1DualDistribution:
		next.F1.DualComboQty = act.ComboQty
		next.F1.DualSlimQty = act.SlimQty
	case SetF1DiscountPercentage:
		if s.F1.DiscountPercentage == act.Percentage {
			return s
		}
		next.F1.DiscountPercentage = act.Percentage
	case SetF2Value:
		switch act.Key {
		case F2WifiQty:
			next.F2.WifiQty = act.Value
		case F2DeliveryQty:
			next.F2.DeliveryQty = act.Value
		case F2InstallQty:
			next.F2.InstallQty = act.Value
		case F2RemovalQty:
			next.F2.RemovalQty = act.Value
		case F2MulTimes:
			next.F2.MulTimes = act.Value
		case F2Discount:
			next.F2.Discount = act.Value
		default:
			return s
		}
	case ToggleF2FeeExclusion:
		switch act.Fee {
		case FeeDelivery:
			next.F2.DeliveryFeeExcluded = !s.F2.DeliveryFeeExcluded
		case FeeInstall:
			next.F2.InstallFeeExcluded = !s.F2.InstallFeeExcluded
		case FeeRemoval:
			next.F2.RemovalFeeExcluded = !s.F2.RemovalFeeExcluded
		default:
			return s
		}
	case SetSumOutdated:
		if s.SumOutdated == act.Outdated {
			return s
		}
		next.SumOutdated = act.Outdated
	case ResetUI:
		return DefaultUIState()
	default:
		return s
	}
	return &next
}

func toggleIndex(indexes []int, row int) []int {
	out := make([]int, 0, len(indexes)+1)
	found := false
	for _, i := range indexes {
		if i == row {
			found = true
			continue
		}
		out = append(out, i)
	}
	if !found {
		out = append(out, row)
	}
	return out
}

// ParseF2Key validates a wire name for an F2 input.
func ParseF2Key(raw string) (F2Key, bool) {
	switch k := F2Key(raw); k {
	case F2WifiQty, F2DeliveryQty, F2InstallQty, F2RemovalQty, F2MulTimes, F2Discount:
		return k, true
	}
	return "", false
}
