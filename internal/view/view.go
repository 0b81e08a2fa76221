// Package view mounts a synthetic subscriber tree over a store handle:
// named views that re-read their hooks when notified and bump the render
// counter only when the values they render actually changed.
//
// This is the instrumentation side of render counting. Views hold no
// logic of their own; they express exactly the read patterns a component
// tree would have (board reads deck order, deck views read their card
// list, card views read tags, assignees, and assignee names), so the
// counter reflects update fan-out per logical unit, not store internals.
package view

import (
	"sync"

	"github.com/pholbrook/statebench/internal/adapter"
	"github.com/pholbrook/statebench/internal/render"
)

// Config bounds the mounted window. Zero fields fall back to defaults.
type Config struct {
	DeckWindow int // decks mounted from the top of the order (default 5)
	CardWindow int // cards mounted across those decks (default 25)
}

func (c Config) withDefaults() Config {
	if c.DeckWindow <= 0 {
		c.DeckWindow = 5
	}
	if c.CardWindow <= 0 {
		c.CardWindow = 25
	}
	return c
}

// sliceID is the shallow-equality marker for an id slice: identical
// backing array and length means unchanged.
type sliceID struct {
	first *string
	n     int
}

func fpSlice(ids []string) any {
	if len(ids) == 0 {
		return sliceID{}
	}
	return sliceID{first: &ids[0], n: len(ids)}
}

type view struct {
	name string
	keys map[adapter.Change]struct{}
	read func() []any
	last []any
}

// render re-reads the view and reports whether its output changed.
func (v *view) render() bool {
	next := v.read()
	changed := !equalParts(v.last, next)
	v.last = next
	return changed
}

func equalParts(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Tree is a mounted set of views bound to one store handle and one
// counter. Unmount cancels every subscription it registered.
type Tree struct {
	mu      sync.Mutex
	views   []*view
	cancels []func()
	counter *render.Counter
}

// Mount builds the view window over h and subscribes it for updates.
// When perKey is set the handle must implement adapter.KeyedStore and
// each view subscribes to exactly its keys; otherwise the tree filters a
// single global subscription. Mounting counts as the first render of
// every view.
func Mount(h adapter.StoreHandle, perKey bool, counter *render.Counter, cfg Config) *Tree {
	cfg = cfg.withDefaults()
	hooks := h.Hooks()
	t := &Tree{counter: counter}

	t.addView(&view{
		name: "board",
		keys: keySet(adapter.Change{Kind: adapter.KindDeckOrder}),
		read: func() []any {
			return []any{fpSlice(hooks.DeckOrder())}
		},
	})

	order := hooks.DeckOrder()
	decks := order
	if len(decks) > cfg.DeckWindow {
		decks = decks[:cfg.DeckWindow]
	}

	mountedCards := 0
	firstCardID := ""
	for _, deckID := range decks {
		deckID := deckID
		t.addView(&view{
			name: "deck-" + deckID,
			keys: keySet(
				adapter.Change{Kind: adapter.KindDeck, ID: deckID},
				adapter.Change{Kind: adapter.KindCardList, ID: deckID},
			),
			read: func() []any {
				d, _ := hooks.Deck(deckID)
				return []any{d, fpSlice(hooks.CardIDsByDeck(deckID))}
			},
		})

		for _, cardID := range hooks.CardIDsByDeck(deckID) {
			if mountedCards >= cfg.CardWindow {
				break
			}
			mountedCards++
			if firstCardID == "" {
				firstCardID = cardID
			}
			cardID := cardID
			assignees := hooks.AssigneeIDsByCard(cardID)
			keys := []adapter.Change{
				{Kind: adapter.KindCard, ID: cardID},
				{Kind: adapter.KindCardTags, ID: cardID},
				{Kind: adapter.KindCardAssignees, ID: cardID},
			}
			for _, userID := range assignees {
				keys = append(keys, adapter.Change{Kind: adapter.KindUser, ID: userID})
			}
			t.addView(&view{
				name: "card-" + cardID,
				keys: keySet(keys...),
				read: func() []any {
					c, _ := hooks.Card(cardID)
					parts := []any{
						c,
						fpSlice(hooks.TagIDsByCard(cardID)),
						fpSlice(hooks.AssigneeIDsByCard(cardID)),
					}
					for _, userID := range hooks.AssigneeIDsByCard(cardID) {
						u, _ := hooks.User(userID)
						parts = append(parts, u)
					}
					return parts
				},
			})
		}
	}

	if firstCardID != "" {
		cardID := firstCardID
		keys := []adapter.Change{{Kind: adapter.KindCommentList, ID: cardID}}
		for _, commentID := range hooks.CommentIDsByCard(cardID) {
			keys = append(keys, adapter.Change{Kind: adapter.KindComment, ID: commentID})
		}
		t.addView(&view{
			name: "comments-" + cardID,
			keys: keySet(keys...),
			read: func() []any {
				parts := []any{fpSlice(hooks.CommentIDsByCard(cardID))}
				for _, commentID := range hooks.CommentIDsByCard(cardID) {
					c, _ := hooks.Comment(commentID)
					parts = append(parts, c)
				}
				return parts
			},
		})
	}

	// Initial render pass: mounting a view is its first execution.
	for _, v := range t.views {
		v.render()
		counter.Increment(v.name)
	}

	if perKey {
		keyed, ok := h.(adapter.KeyedStore)
		if ok {
			t.subscribeKeyed(keyed)
			return t
		}
		// Capability promised but absent: fall through to the global
		// stream so the tree still functions; validation flags this.
	}
	cancel := h.Subscribe(t.dispatch)
	t.cancels = append(t.cancels, cancel)
	return t
}

func (t *Tree) addView(v *view) {
	t.views = append(t.views, v)
}

func (t *Tree) subscribeKeyed(keyed adapter.KeyedStore) {
	for _, v := range t.views {
		v := v
		for key := range v.keys {
			cancel := keyed.SubscribeKey(key, func() {
				t.mu.Lock()
				changed := v.render()
				t.mu.Unlock()
				if changed {
					t.counter.Increment(v.name)
				}
			})
			t.cancels = append(t.cancels, cancel)
		}
	}
}

// dispatch handles one change from the global stream: every view that
// declared the key re-reads and counts a render only if its output moved.
func (t *Tree) dispatch(ch adapter.Change) {
	for _, v := range t.views {
		if _, ok := v.keys[ch]; !ok {
			continue
		}
		t.mu.Lock()
		changed := v.render()
		t.mu.Unlock()
		if changed {
			t.counter.Increment(v.name)
		}
	}
}

// ViewCount returns the number of mounted views.
func (t *Tree) ViewCount() int {
	return len(t.views)
}

// Unmount cancels all subscriptions registered by Mount.
func (t *Tree) Unmount() {
	for _, cancel := range t.cancels {
		cancel()
	}
	t.cancels = nil
}

func keySet(keys ...adapter.Change) map[adapter.Change]struct{} {
	out := make(map[adapter.Change]struct{}, len(keys))
	for _, key := range keys {
		out[key] = struct{}{}
	}
	return out
}
