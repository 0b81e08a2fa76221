// Package copystore is the immutable-copy reference adapter: every
// mutation replaces the touched collection with a fresh copy and swaps in
// a new root snapshot, the update model of single-atom immutable stores.
// Reads always observe a consistent snapshot; untouched collections are
// shared structurally between snapshots.
package copystore

import (
	"fmt"
	"maps"
	"sync"

	"github.com/pholbrook/statebench/internal/adapter"
	"github.com/pholbrook/statebench/internal/model"
)

// Name is the registry identifier for this adapter.
const Name = "immutable-copy"

// Adapter constructs copy-on-write stores.
type Adapter struct{}

// New returns the adapter.
func New() Adapter { return Adapter{} }

// Name implements adapter.StoreAdapter.
func (Adapter) Name() string { return Name }

// NewStore implements adapter.StoreAdapter.
func (Adapter) NewStore(initial *model.RootState) (adapter.StoreHandle, error) {
	if initial == nil {
		return nil, fmt.Errorf("copystore: initial state must not be nil")
	}
	return &store{
		snap:  initial.Clone(),
		lists: make(map[adapter.Change][]string),
	}, nil
}

type store struct {
	mu   sync.Mutex
	snap *model.RootState

	// lists caches derived id-collections per index key. Entries survive
	// snapshot swaps unless the swap invalidates their key, so unchanged
	// hooks keep returning the identical slice.
	lists map[adapter.Change][]string

	bus adapter.Broadcaster
}

func (s *store) Hooks() adapter.Hooks { return s }

func (s *store) Subscribe(fn func(adapter.Change)) (cancel func()) {
	return s.bus.Subscribe(fn)
}

func (s *store) Close() error { return nil }

// swap installs next as the current snapshot, drops the derived lists
// whose membership may have changed, and notifies subscribers. Must be
// called without the lock held; changes are delivered synchronously.
func (s *store) swap(next *model.RootState, invalidate []adapter.Change, changes []adapter.Change) {
	s.mu.Lock()
	s.snap = next
	for _, key := range invalidate {
		delete(s.lists, key)
	}
	s.mu.Unlock()

	for _, ch := range changes {
		s.bus.Notify(ch)
	}
}

func (s *store) current() *model.RootState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *store) Deck(id string) (model.Deck, bool) {
	d, ok := s.current().Decks[id]
	return d, ok
}

func (s *store) Card(id string) (model.Card, bool) {
	c, ok := s.current().Cards[id]
	return c, ok
}

func (s *store) Comment(id string) (model.Comment, bool) {
	c, ok := s.current().Comments[id]
	return c, ok
}

func (s *store) User(id string) (model.User, bool) {
	u, ok := s.current().Users[id]
	return u, ok
}

func (s *store) Tag(id string) (model.Tag, bool) {
	t, ok := s.current().Tags[id]
	return t, ok
}

func (s *store) DeckOrder() []string {
	return s.derived(adapter.Change{Kind: adapter.KindDeckOrder}, func(snap *model.RootState) []string {
		return append([]string(nil), snap.DecksOrder...)
	})
}

func (s *store) CardIDsByDeck(deckID string) []string {
	return s.derived(adapter.Change{Kind: adapter.KindCardList, ID: deckID}, func(snap *model.RootState) []string {
		ids := []string{}
		for id, c := range snap.Cards {
			if c.DeckID == deckID {
				ids = append(ids, id)
			}
		}
		adapter.SortIDs(ids)
		return ids
	})
}

func (s *store) CommentIDsByCard(cardID string) []string {
	return s.derived(adapter.Change{Kind: adapter.KindCommentList, ID: cardID}, func(snap *model.RootState) []string {
		ids := []string{}
		for id, c := range snap.Comments {
			if c.CardID == cardID {
				ids = append(ids, id)
			}
		}
		adapter.SortIDs(ids)
		return ids
	})
}

func (s *store) TagIDsByCard(cardID string) []string {
	return s.derived(adapter.Change{Kind: adapter.KindCardTags, ID: cardID}, func(snap *model.RootState) []string {
		ids := []string{}
		for _, ct := range snap.CardTags {
			if ct.CardID == cardID {
				ids = append(ids, ct.TagID)
			}
		}
		adapter.SortIDs(ids)
		return ids
	})
}

func (s *store) AssigneeIDsByCard(cardID string) []string {
	return s.derived(adapter.Change{Kind: adapter.KindCardAssignees, ID: cardID}, func(snap *model.RootState) []string {
		ids := []string{}
		for _, a := range snap.CardAssignments {
			if a.CardID == cardID {
				ids = append(ids, a.UserID)
			}
		}
		adapter.SortIDs(ids)
		return ids
	})
}

func (s *store) derived(key adapter.Change, build func(*model.RootState) []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ids, ok := s.lists[key]; ok {
		return ids
	}
	ids := build(s.snap)
	s.lists[key] = ids
	return ids
}

func (s *store) Actions() adapter.ActionSet {
	return adapter.ActionSet{
		AddComment:        s.addComment,
		UpdateCommentText: s.updateCommentText,
		ToggleCardTag:     s.toggleCardTag,
		SetCardsBusy:      s.setCardsBusy,
		RenameUser:        s.renameUser,
		SetDeckCollapsed:  s.setDeckCollapsed,
		MoveCard:          s.moveCard,
	}
}

func (s *store) addComment(cardID, commentID, text string) error {
	snap := s.current()
	if _, ok := snap.Cards[cardID]; !ok {
		return fmt.Errorf("copystore: add comment: unknown card %q", cardID)
	}

	next := *snap
	next.Comments = maps.Clone(snap.Comments)
	next.Comments[commentID] = model.Comment{ID: commentID, CardID: cardID, Text: text}

	s.swap(&next,
		[]adapter.Change{{Kind: adapter.KindCommentList, ID: cardID}},
		[]adapter.Change{
			{Kind: adapter.KindComment, ID: commentID},
			{Kind: adapter.KindCommentList, ID: cardID},
		})
	return nil
}

func (s *store) updateCommentText(commentID, text string) error {
	snap := s.current()
	c, ok := snap.Comments[commentID]
	if !ok {
		return fmt.Errorf("copystore: update comment text: unknown comment %q", commentID)
	}

	next := *snap
	next.Comments = maps.Clone(snap.Comments)
	c.Text = text
	next.Comments[commentID] = c

	s.swap(&next, nil, []adapter.Change{{Kind: adapter.KindComment, ID: commentID}})
	return nil
}

func (s *store) toggleCardTag(cardID, tagID string) error {
	snap := s.current()
	if _, ok := snap.Cards[cardID]; !ok {
		return fmt.Errorf("copystore: toggle tag: unknown card %q", cardID)
	}
	if _, ok := snap.Tags[tagID]; !ok {
		return fmt.Errorf("copystore: toggle tag: unknown tag %q", tagID)
	}

	next := *snap
	next.CardTags = maps.Clone(snap.CardTags)
	linkID := ""
	for id, ct := range next.CardTags {
		if ct.CardID == cardID && ct.TagID == tagID {
			linkID = id
			break
		}
	}
	if linkID != "" {
		delete(next.CardTags, linkID)
	} else {
		id := fmt.Sprintf("ct_%s_%s", cardID, tagID)
		next.CardTags[id] = model.CardTag{ID: id, CardID: cardID, TagID: tagID}
	}

	s.swap(&next,
		[]adapter.Change{{Kind: adapter.KindCardTags, ID: cardID}},
		[]adapter.Change{{Kind: adapter.KindCardTags, ID: cardID}})
	return nil
}

func (s *store) setCardsBusy(cardIDs []string, busy bool) error {
	snap := s.current()
	for _, id := range cardIDs {
		if _, ok := snap.Cards[id]; !ok {
			return fmt.Errorf("copystore: set busy: unknown card %q", id)
		}
	}

	next := *snap
	next.Cards = maps.Clone(snap.Cards)
	changes := make([]adapter.Change, 0, len(cardIDs))
	for _, id := range cardIDs {
		c := next.Cards[id]
		c.Busy = busy
		next.Cards[id] = c
		changes = append(changes, adapter.Change{Kind: adapter.KindCard, ID: id})
	}

	s.swap(&next, nil, changes)
	return nil
}

func (s *store) renameUser(userID, name string) error {
	snap := s.current()
	u, ok := snap.Users[userID]
	if !ok {
		return fmt.Errorf("copystore: rename: unknown user %q", userID)
	}

	next := *snap
	next.Users = maps.Clone(snap.Users)
	u.Name = name
	next.Users[userID] = u

	s.swap(&next, nil, []adapter.Change{{Kind: adapter.KindUser, ID: userID}})
	return nil
}

func (s *store) setDeckCollapsed(deckID string, collapsed bool) error {
	snap := s.current()
	d, ok := snap.Decks[deckID]
	if !ok {
		return fmt.Errorf("copystore: collapse: unknown deck %q", deckID)
	}

	next := *snap
	next.Decks = maps.Clone(snap.Decks)
	d.Collapsed = collapsed
	next.Decks[deckID] = d

	s.swap(&next, nil, []adapter.Change{{Kind: adapter.KindDeck, ID: deckID}})
	return nil
}

func (s *store) moveCard(cardID, toDeckID string) error {
	snap := s.current()
	c, ok := snap.Cards[cardID]
	if !ok {
		return fmt.Errorf("copystore: move: unknown card %q", cardID)
	}
	if _, ok := snap.Decks[toDeckID]; !ok {
		return fmt.Errorf("copystore: move: unknown deck %q", toDeckID)
	}

	fromDeckID := c.DeckID
	next := *snap
	next.Cards = maps.Clone(snap.Cards)
	c.DeckID = toDeckID
	next.Cards[cardID] = c

	s.swap(&next,
		[]adapter.Change{
			{Kind: adapter.KindCardList, ID: fromDeckID},
			{Kind: adapter.KindCardList, ID: toDeckID},
		},
		[]adapter.Change{
			{Kind: adapter.KindCard, ID: cardID},
			{Kind: adapter.KindCardList, ID: fromDeckID},
			{Kind: adapter.KindCardList, ID: toDeckID},
		})
	return nil
}
