package quote

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownAction is returned for an action type with no decoder.
var ErrUnknownAction = errors.New("unknown action type")

// Envelope is the wire form of an action.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type decoder func(json.RawMessage) (Action, error)

func decodeInto[T Action](raw json.RawMessage) (Action, error) {
	var v T
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

var decoders = map[string]decoder{}

func register[T Action]() {
	var zero T
	decoders[zero.Type()] = decodeInto[T]
}

func init() {
	register[SetQuoteData]()
	register[ResetQuoteData]()
	register[InsertRow]()
	register[DeleteRow]()
	register[DeleteMultipleRows]()
	register[ClearRow]()
	register[UpdateItemValue]()
	register[UpdateItemProperty]()
	register[UpdateWinderMotorProperty]()
	register[CycleK3Property]()
	register[CycleItemType]()
	register[SetItemType]()
	register[BatchUpdateProperty]()
	register[BatchUpdatePropertyByType]()
	register[BatchUpdateFabricType]()
	register[BatchUpdateFabricTypeForSelection]()
	register[BatchUpdateLFProperties]()
	register[RemoveLFProperties]()
	register[AddLFModifiedRows]()
	register[RemoveLFModifiedRows]()
	register[UpdateAccessorySummary]()
	register[SetCostDiscountPercentage]()

	register[SetActiveTab]()
	register[SetActiveCell]()
	register[SetInputValue]()
	register[AppendInputValue]()
	register[DeleteLastInputChar]()
	register[ClearInputValue]()
	register[ToggleMultiSelectMode]()
	register[ToggleMultiSelectSelection]()
	register[ClearMultiSelectSelection]()
	register[SetSelectedRow]()
	register[SetActiveEditMode]()
	register[SetTargetCell]()
	register[SetLocationInputValue]()
	register[ToggleLFSelection]()
	register[ClearLFSelection]()
	register[SetDualChainMode]()
	register[SetDriveAccessoryMode]()
	register[SetDriveAccessoryCount]()
	register[SetDriveAccessoryTotalPrice]()
	register[SetDriveGrandTotal]()
	register[SetF1RemoteDistribution]()
	register[SetF1DualDistribution]()
	register[SetF1DiscountPercentage]()
	register[SetF2Value]()
	register[ToggleF2FeeExclusion]()
	register[SetSumOutdated]()
	register[ResetUI]()
}

// DecodeAction builds the concrete action named by typ from its JSON payload.
func DecodeAction(typ string, payload json.RawMessage) (Action, error) {
	dec, ok := decoders[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, typ)
	}
	a, err := dec(payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", typ, err)
	}
	return a, nil
}

// ActionTypes lists every decodable action type, sorted.
func ActionTypes() []string {
	out := make([]string, 0, len(decoders))
	for k := range decoders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
