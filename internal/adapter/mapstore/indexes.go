package mapstore

import (
	"github.com/pholbrook/statebench/internal/adapter"
	"github.com/pholbrook/statebench/internal/model"
)

// indexCache lazily materializes the derived id-collections and keeps
// them until the corresponding key is invalidated by a mutation. Hook
// callers therefore see the identical slice across reads, which is the
// referential-stability guarantee of the adapter contract.
//
// Callers must hold the store lock.
type indexCache struct {
	order     []string
	cards     map[string][]string
	comments  map[string][]string
	tags      map[string][]string
	assignees map[string][]string
}

func newIndexCache() *indexCache {
	return &indexCache{
		cards:     make(map[string][]string),
		comments:  make(map[string][]string),
		tags:      make(map[string][]string),
		assignees: make(map[string][]string),
	}
}

func (x *indexCache) deckOrder(data *model.RootState) []string {
	if x.order == nil {
		x.order = append([]string(nil), data.DecksOrder...)
	}
	return x.order
}

func (x *indexCache) cardsByDeck(data *model.RootState, deckID string) []string {
	ids, ok := x.cards[deckID]
	if !ok {
		ids = []string{}
		for id, c := range data.Cards {
			if c.DeckID == deckID {
				ids = append(ids, id)
			}
		}
		adapter.SortIDs(ids)
		x.cards[deckID] = ids
	}
	return ids
}

func (x *indexCache) commentsByCard(data *model.RootState, cardID string) []string {
	ids, ok := x.comments[cardID]
	if !ok {
		ids = []string{}
		for id, c := range data.Comments {
			if c.CardID == cardID {
				ids = append(ids, id)
			}
		}
		adapter.SortIDs(ids)
		x.comments[cardID] = ids
	}
	return ids
}

func (x *indexCache) tagsByCard(data *model.RootState, cardID string) []string {
	ids, ok := x.tags[cardID]
	if !ok {
		ids = []string{}
		for _, ct := range data.CardTags {
			if ct.CardID == cardID {
				ids = append(ids, ct.TagID)
			}
		}
		adapter.SortIDs(ids)
		x.tags[cardID] = ids
	}
	return ids
}

func (x *indexCache) assigneesByCard(data *model.RootState, cardID string) []string {
	ids, ok := x.assignees[cardID]
	if !ok {
		ids = []string{}
		for _, a := range data.CardAssignments {
			if a.CardID == cardID {
				ids = append(ids, a.UserID)
			}
		}
		adapter.SortIDs(ids)
		x.assignees[cardID] = ids
	}
	return ids
}

func (x *indexCache) invalidateCardList(deckID string)    { delete(x.cards, deckID) }
func (x *indexCache) invalidateCommentList(cardID string) { delete(x.comments, cardID) }
func (x *indexCache) invalidateCardTags(cardID string)    { delete(x.tags, cardID) }
