package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pholbrook/statebench/internal/adapter"
	"github.com/pholbrook/statebench/internal/model"
)

func newStore(t *testing.T) *store {
	t.Helper()
	h, err := New().NewStore(model.Generate(model.GeneratorConfig{
		Decks:        2,
		CardsPerDeck: 3,
		Seed:         5,
	}))
	require.NoError(t, err)
	return h.(*store)
}

func TestDerivedCachesResults(t *testing.T) {
	s := newStore(t)
	defer s.Close()

	a := s.CardIDsByDeck("deck_0")
	b := s.CardIDsByDeck("deck_0")
	require.NotEmpty(t, a)
	assert.Same(t, &a[0], &b[0], "repeat reads serve the cached slice")
}

func TestDerivedCachesFailedQueries(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Close())

	// With the database gone every query fails; the degraded empty
	// result must be cached like any other so repeat reads stay
	// consistent instead of re-running the failing query.
	assert.Empty(t, s.CardIDsByDeck("deck_0"))

	s.mu.Lock()
	_, cached := s.lists[adapter.Change{Kind: adapter.KindCardList, ID: "deck_0"}]
	s.mu.Unlock()
	require.True(t, cached)

	assert.Empty(t, s.CardIDsByDeck("deck_0"))
}
