// Package mapstore is the manual-mutation reference adapter: plain maps
// mutated in place, with coarse change notification. It is the baseline
// the other store models are compared against.
package mapstore

import (
	"fmt"
	"sync"

	"github.com/pholbrook/statebench/internal/adapter"
	"github.com/pholbrook/statebench/internal/model"
)

// Name is the registry identifier for this adapter.
const Name = "map-mutate"

// Adapter constructs in-place mutation stores.
type Adapter struct{}

// New returns the adapter.
func New() Adapter { return Adapter{} }

// Name implements adapter.StoreAdapter.
func (Adapter) Name() string { return Name }

// NewStore implements adapter.StoreAdapter.
func (Adapter) NewStore(initial *model.RootState) (adapter.StoreHandle, error) {
	if initial == nil {
		return nil, fmt.Errorf("mapstore: initial state must not be nil")
	}
	return &store{data: initial.Clone(), idx: newIndexCache()}, nil
}

type store struct {
	mu   sync.Mutex
	data *model.RootState
	idx  *indexCache
	bus  adapter.Broadcaster
}

func (s *store) Hooks() adapter.Hooks { return s }

func (s *store) Subscribe(fn func(adapter.Change)) (cancel func()) {
	return s.bus.Subscribe(fn)
}

func (s *store) Close() error { return nil }

// Hooks. Entity lookups copy the value out under lock; id-collection
// lookups return the cached slice so repeated reads are referentially
// stable until the underlying data changes.

func (s *store) Deck(id string) (model.Deck, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.data.Decks[id]
	return d, ok
}

func (s *store) Card(id string) (model.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.Cards[id]
	return c, ok
}

func (s *store) Comment(id string) (model.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data.Comments[id]
	return c, ok
}

func (s *store) User(id string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data.Users[id]
	return u, ok
}

func (s *store) Tag(id string) (model.Tag, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.data.Tags[id]
	return t, ok
}

func (s *store) DeckOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.deckOrder(s.data)
}

func (s *store) CardIDsByDeck(deckID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.cardsByDeck(s.data, deckID)
}

func (s *store) CommentIDsByCard(cardID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.commentsByCard(s.data, cardID)
}

func (s *store) TagIDsByCard(cardID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.tagsByCard(s.data, cardID)
}

func (s *store) AssigneeIDsByCard(cardID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.assigneesByCard(s.data, cardID)
}

// Actions bind the mutation surface to this store instance.
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
	s.mu.Lock()
	if _, ok := s.data.Cards[cardID]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("mapstore: add comment: unknown card %q", cardID)
	}
	s.data.Comments[commentID] = model.Comment{ID: commentID, CardID: cardID, Text: text}
	s.idx.invalidateCommentList(cardID)
	s.mu.Unlock()

	s.bus.Notify(adapter.Change{Kind: adapter.KindComment, ID: commentID})
	s.bus.Notify(adapter.Change{Kind: adapter.KindCommentList, ID: cardID})
	return nil
}

func (s *store) updateCommentText(commentID, text string) error {
	s.mu.Lock()
	c, ok := s.data.Comments[commentID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("mapstore: update comment text: unknown comment %q", commentID)
	}
	c.Text = text
	s.data.Comments[commentID] = c
	s.mu.Unlock()

	s.bus.Notify(adapter.Change{Kind: adapter.KindComment, ID: commentID})
	return nil
}

func (s *store) toggleCardTag(cardID, tagID string) error {
	s.mu.Lock()
	if _, ok := s.data.Cards[cardID]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("mapstore: toggle tag: unknown card %q", cardID)
	}
	if _, ok := s.data.Tags[tagID]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("mapstore: toggle tag: unknown tag %q", tagID)
	}
	linkID := ""
	for id, ct := range s.data.CardTags {
		if ct.CardID == cardID && ct.TagID == tagID {
			linkID = id
			break
		}
	}
	if linkID != "" {
		delete(s.data.CardTags, linkID)
	} else {
		id := fmt.Sprintf("ct_%s_%s", cardID, tagID)
		s.data.CardTags[id] = model.CardTag{ID: id, CardID: cardID, TagID: tagID}
	}
	s.idx.invalidateCardTags(cardID)
	s.mu.Unlock()

	s.bus.Notify(adapter.Change{Kind: adapter.KindCardTags, ID: cardID})
	return nil
}

func (s *store) setCardsBusy(cardIDs []string, busy bool) error {
	s.mu.Lock()
	for _, id := range cardIDs {
		if _, ok := s.data.Cards[id]; !ok {
			s.mu.Unlock()
			return fmt.Errorf("mapstore: set busy: unknown card %q", id)
		}
	}
	for _, id := range cardIDs {
		c := s.data.Cards[id]
		c.Busy = busy
		s.data.Cards[id] = c
	}
	s.mu.Unlock()

	for _, id := range cardIDs {
		s.bus.Notify(adapter.Change{Kind: adapter.KindCard, ID: id})
	}
	return nil
}

func (s *store) renameUser(userID, name string) error {
	s.mu.Lock()
	u, ok := s.data.Users[userID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("mapstore: rename: unknown user %q", userID)
	}
	u.Name = name
	s.data.Users[userID] = u
	s.mu.Unlock()

	s.bus.Notify(adapter.Change{Kind: adapter.KindUser, ID: userID})
	return nil
}

func (s *store) setDeckCollapsed(deckID string, collapsed bool) error {
	s.mu.Lock()
	d, ok := s.data.Decks[deckID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("mapstore: collapse: unknown deck %q", deckID)
	}
	d.Collapsed = collapsed
	s.data.Decks[deckID] = d
	s.mu.Unlock()

	s.bus.Notify(adapter.Change{Kind: adapter.KindDeck, ID: deckID})
	return nil
}

func (s *store) moveCard(cardID, toDeckID string) error {
	s.mu.Lock()
	c, ok := s.data.Cards[cardID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("mapstore: move: unknown card %q", cardID)
	}
	if _, ok := s.data.Decks[toDeckID]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("mapstore: move: unknown deck %q", toDeckID)
	}
	fromDeckID := c.DeckID
	c.DeckID = toDeckID
	s.data.Cards[cardID] = c
	s.idx.invalidateCardList(fromDeckID)
	s.idx.invalidateCardList(toDeckID)
	s.mu.Unlock()

	s.bus.Notify(adapter.Change{Kind: adapter.KindCard, ID: cardID})
	s.bus.Notify(adapter.Change{Kind: adapter.KindCardList, ID: fromDeckID})
	s.bus.Notify(adapter.Change{Kind: adapter.KindCardList, ID: toDeckID})
	return nil
}
