// Package signalstore is the reactive reference adapter: a mutable core
// with a per-key subscriber graph on top. Instead of every subscriber
// seeing every change, a subscriber attaches to exactly the keys it reads
// and is signalled only when one of them is invalidated.
//
// This is the push-based model that requires explicit subscription
// wrapping of views; the adapter is registered with the per-key
// capability so the view layer wires itself accordingly.
package signalstore

import (
	"sync"

	"github.com/pholbrook/statebench/internal/adapter"
	"github.com/pholbrook/statebench/internal/adapter/mapstore"
	"github.com/pholbrook/statebench/internal/model"
)

// Name is the registry identifier for this adapter.
const Name = "signal-graph"

// Adapter constructs reactive stores.
type Adapter struct{}

// New returns the adapter.
func New() Adapter { return Adapter{} }

// Name implements adapter.StoreAdapter.
func (Adapter) Name() string { return Name }

// NewStore implements adapter.StoreAdapter.
func (Adapter) NewStore(initial *model.RootState) (adapter.StoreHandle, error) {
	inner, err := mapstore.New().NewStore(initial)
	if err != nil {
		return nil, err
	}
	s := &store{
		inner: inner,
		keyed: make(map[adapter.Change]map[int]func()),
	}
	s.stopInner = inner.Subscribe(s.dispatch)
	return s, nil
}

type store struct {
	inner     adapter.StoreHandle
	stopInner func()

	mu     sync.Mutex
	next   int
	keyed  map[adapter.Change]map[int]func()
	global adapter.Broadcaster
}

func (s *store) Hooks() adapter.Hooks { return s.inner.Hooks() }

func (s *store) Actions() adapter.ActionSet { return s.inner.Actions() }

func (s *store) Subscribe(fn func(adapter.Change)) (cancel func()) {
	return s.global.Subscribe(fn)
}

// SubscribeKey implements adapter.KeyedStore: fn fires only when the
// given key is invalidated.
func (s *store) SubscribeKey(ch adapter.Change, fn func()) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs, ok := s.keyed[ch]
	if !ok {
		subs = make(map[int]func())
		s.keyed[ch] = subs
	}
	id := s.next
	s.next++
	subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.keyed[ch], id)
	}
}

func (s *store) Close() error {
	s.stopInner()
	return s.inner.Close()
}

// dispatch routes one change to its key subscribers, then to the global
// stream. Key delivery is the point of the adapter: subscribers on other
// keys are never invoked.
func (s *store) dispatch(ch adapter.Change) {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.keyed[ch]))
	for _, fn := range s.keyed[ch] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
	s.global.Notify(ch)
}
