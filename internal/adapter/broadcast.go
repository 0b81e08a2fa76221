package adapter

import (
	"sort"
	"sync"
)

// Broadcaster is the subscription bookkeeping shared by store
// implementations. Notifications are delivered synchronously in
// subscription order.
type Broadcaster struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Change)
}

// Subscribe registers fn and returns a cancel function.
func (b *Broadcaster) Subscribe(fn func(Change)) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]func(Change))
	}
	id := b.next
	b.next++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Notify delivers ch to every subscriber.
func (b *Broadcaster) Notify(ch Change) {
	b.mu.Lock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.subs[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}

// SortIDs orders generated entity ids ("card_0", "card_10") numerically:
// shorter ids first, then lexically. All adapters use it so id-collection
// hooks agree on ordering across implementations.
func SortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		if len(ids[i]) != len(ids[j]) {
			return len(ids[i]) < len(ids[j])
		}
		return ids[i] < ids[j]
	})
}
