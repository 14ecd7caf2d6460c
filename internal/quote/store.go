package quote

import (
	"log/slog"
	"sync"

	"github.com/Simplici0/blinds/internal/logger"
)

// Snapshot is an immutable view of the store at one version.
type Snapshot struct {
	Version uint64
	State   *State
}

// Subscriber is called after every commit that changed the state.
type Subscriber func(prev, next Snapshot, action Action)

// Store owns the quote state. Every write goes through Dispatch, Commit or
// Update; readers only ever see whole snapshots.
type Store struct {
	mu      sync.Mutex
	reducer *Reducer
	current Snapshot
	log     *slog.Logger

	subMu  sync.RWMutex
	nextID int
	subs   map[int]Subscriber
}

// NewStore starts a store at version 1. A nil initial state uses the
// reducer's initial state.
func NewStore(reducer *Reducer, initial *State, log *slog.Logger) *Store {
	if log == nil {
		log = logger.Discard()
	}
	if initial == nil {
		initial = reducer.InitialState()
	}
	return &Store{
		reducer: reducer,
		current: Snapshot{Version: 1, State: initial},
		log:     log,
		subs:    map[int]Subscriber{},
	}
}

// Snapshot returns the latest committed snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// State is shorthand for Snapshot().State.
func (s *Store) State() *State {
	return s.Snapshot().State
}

// Dispatch applies a to the latest state. changed is false when the reducer
// returned the same state.
func (s *Store) Dispatch(a Action) (Snapshot, bool) {
	prev, snap, changed := s.swap(func(st *State) *State {
		return s.reducer.Apply(st, a)
	})
	if !changed {
		return prev, false
	}
	s.log.Debug("action committed", "type", a.Type(), "version", snap.Version)
	s.notify(prev, snap, a)
	return snap, true
}

// DispatchAll applies actions in order as one commit.
func (s *Store) DispatchAll(actions ...Action) (Snapshot, bool) {
	return s.Update(func(st *State) *State {
		for _, a := range actions {
			st = s.reducer.Apply(st, a)
		}
		return st
	})
}

// Update runs fn against the latest state under the write lock and commits
// its result. fn must not retain st. A panic in fn leaves the store unchanged
// and unlocked.
func (s *Store) Update(fn func(st *State) *State) (Snapshot, bool) {
	prev, snap, changed := s.swap(fn)
	if !changed {
		return prev, false
	}
	s.notify(prev, snap, nil)
	return snap, true
}

func (s *Store) swap(fn func(st *State) *State) (prev, next Snapshot, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev = s.current
	st := fn(prev.State)
	if st == nil || st == prev.State {
		return prev, prev, false
	}
	s.current = Snapshot{Version: prev.Version + 1, State: st}
	return prev, s.current, true
}

// Commit replaces the whole state. Last writer wins.
func (s *Store) Commit(st *State) Snapshot {
	snap, _ := s.Update(func(*State) *State { return st })
	return snap
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(prev, next Snapshot, a Action) {
	s.subMu.RLock()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range subs {
		fn(prev, next, a)
	}
}

// Reducer returns the reducer the store applies actions with.
func (s *Store) Reducer() *Reducer {
	return s.reducer
}
