package quote

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestStore_DispatchVersionsAndNotifies(t *testing.T) {
	r := newTestReducer()
	store := NewStore(r, nil, nil)

	var seen []uint64
	var types []string
	unsubscribe := store.Subscribe(func(prev, next Snapshot, a Action) {
		seen = append(seen, next.Version)
		if a != nil {
			types = append(types, a.Type())
		}
	})

	start := store.Snapshot()
	if start.Version != 1 {
		t.Fatalf("initial version = %d, want 1", start.Version)
	}

	snap, changed := store.Dispatch(UpdateItemValue{RowIndex: 0, Column: ColWidth, Value: 1000})
	if !changed || snap.Version != 2 {
		t.Fatalf("dispatch = (%d, %v), want (2, true)", snap.Version, changed)
	}
	if start.State.Quote.Items()[0].Width != nil {
		t.Fatalf("old snapshot must stay untouched")
	}

	snap, changed = store.Dispatch(UpdateItemValue{RowIndex: 0, Column: ColWidth, Value: 1000})
	if changed || snap.Version != 2 {
		t.Fatalf("no-op dispatch = (%d, %v), want (2, false)", snap.Version, changed)
	}

	unsubscribe()
	store.Dispatch(SetSumOutdated{Outdated: true})

	if len(seen) != 1 || seen[0] != 2 {
		t.Fatalf("subscriber saw versions %v, want [2]", seen)
	}
	if len(types) != 1 || types[0] != "quote/updateItemValue" {
		t.Fatalf("subscriber saw actions %v", types)
	}
}

func TestStore_DispatchAllIsOneCommit(t *testing.T) {
	store := NewStore(newTestReducer(), nil, nil)
	commits := 0
	store.Subscribe(func(Snapshot, Snapshot, Action) { commits++ })

	snap, changed := store.DispatchAll(
		UpdateItemValue{RowIndex: 0, Column: ColWidth, Value: 1000},
		UpdateItemValue{RowIndex: 0, Column: ColHeight, Value: 1200},
		SetSumOutdated{Outdated: true},
	)
	if !changed || snap.Version != 2 || commits != 1 {
		t.Fatalf("DispatchAll = (v%d, %v), commits=%d", snap.Version, changed, commits)
	}
	if !snap.State.UI.SumOutdated || *snap.State.Quote.Items()[0].Height != 1200 {
		t.Fatalf("actions not all applied")
	}
}

func TestStore_CommitReplacesState(t *testing.T) {
	r := newTestReducer()
	store := NewStore(r, nil, nil)

	fresh := r.InitialState()
	fresh.Quote.CostDiscountPercentage = 5
	snap := store.Commit(fresh)
	if snap.State != fresh || store.State() != fresh {
		t.Fatalf("commit should install the given state")
	}
}

func TestStore_PanicInUpdateReleasesLock(t *testing.T) {
	store := NewStore(newTestReducer(), nil, nil)
	before := store.Snapshot()

	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected the update to panic")
			}
		}()
		store.Update(func(st *State) *State {
			_ = st.Quote.Items()[5]
			return st
		})
	}()

	done := make(chan Snapshot, 1)
	go func() {
		store.Dispatch(SetSumOutdated{Outdated: true})
		done <- store.Snapshot()
	}()
	select {
	case snap := <-done:
		if snap.Version != before.Version+1 || !snap.State.UI.SumOutdated {
			t.Fatalf("store did not accept a commit after the panic: v%d", snap.Version)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("store stayed locked after a panicking update")
	}
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	store := NewStore(newTestReducer(), nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.Dispatch(AppendInputValue{Key: "x"})
		}(i)
	}
	wg.Wait()

	snap := store.Snapshot()
	if len(snap.State.UI.InputValue) != 20 || snap.Version != 21 {
		t.Fatalf("input = %q version = %d", snap.State.UI.InputValue, snap.Version)
	}
}

func TestDecodeAction(t *testing.T) {
	a, err := DecodeAction("quote/updateItemValue", json.RawMessage(`{"rowIndex":1,"column":"width","value":1200}`))
	if err != nil {
		t.Fatalf("DecodeAction: %v", err)
	}
	upd, ok := a.(UpdateItemValue)
	if !ok {
		t.Fatalf("decoded %T, want UpdateItemValue", a)
	}
	if upd.RowIndex != 1 || upd.Column != ColWidth || upd.Value.(float64) != 1200 {
		t.Fatalf("decoded %+v", upd)
	}

	if _, err := DecodeAction("ui/resetUi", nil); err != nil {
		t.Fatalf("empty payload should decode: %v", err)
	}

	_, err = DecodeAction("quote/nope", nil)
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("err = %v, want ErrUnknownAction", err)
	}

	if _, err := DecodeAction("quote/insertRow", json.RawMessage(`{"selectedIndex":"x"}`)); err == nil {
		t.Fatalf("expected a decode error")
	}

	for _, typ := range ActionTypes() {
		if _, err := DecodeAction(typ, nil); err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
	}
}
