package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pholbrook/statebench/internal/adapter"
	"github.com/pholbrook/statebench/internal/adapter/mapstore"
	"github.com/pholbrook/statebench/internal/adapter/signalstore"
	"github.com/pholbrook/statebench/internal/model"
	"github.com/pholbrook/statebench/internal/render"
)

func mountFixture(t *testing.T, a adapter.StoreAdapter, perKey bool) (adapter.StoreHandle, *Tree, *render.Counter) {
	t.Helper()
	data := model.Generate(model.GeneratorConfig{
		Decks:           2,
		CardsPerDeck:    3,
		CommentsPerCard: 2,
		Users:           2,
		Tags:            4,
		TagsPerCard:     1,
		Seed:            3,
	})
	h, err := a.NewStore(data)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })

	counter := render.NewCounter()
	tree := Mount(h, perKey, counter, Config{DeckWindow: 2, CardWindow: 6})
	t.Cleanup(tree.Unmount)
	return h, tree, counter
}

func TestMountCountsInitialRenders(t *testing.T) {
	_, tree, counter := mountFixture(t, mapstore.New(), false)

	// board + 2 decks + 6 cards + 1 comment list.
	assert.Equal(t, 10, tree.ViewCount())
	assert.Equal(t, tree.ViewCount(), counter.Total())
}

func TestCommentEditRendersCommentList(t *testing.T) {
	h, _, counter := mountFixture(t, mapstore.New(), false)
	counter.Reset()

	require.NoError(t, h.Actions().UpdateCommentText("comment_0", "edited"))

	snap := counter.Snapshot()
	assert.Equal(t, 1, snap["comments-card_0"])
	assert.Equal(t, 1, counter.Total(), "no other view re-renders")
}

func TestRenameFansOutToAssignedCards(t *testing.T) {
	h, _, counter := mountFixture(t, mapstore.New(), false)
	assignees := h.Hooks().AssigneeIDsByCard("card_0")
	require.NotEmpty(t, assignees)
	target := assignees[0]
	counter.Reset()

	require.NoError(t, h.Actions().RenameUser(target, "Fanned"))

	// Every mounted card assigned to the user re-renders; nothing else does.
	snap := counter.Snapshot()
	assert.GreaterOrEqual(t, snap["card-card_0"], 1)
	for name := range snap {
		assert.Contains(t, name, "card-", "only card views depend on user names")
	}
}

func TestUnchangedValueDoesNotRender(t *testing.T) {
	h, _, counter := mountFixture(t, mapstore.New(), false)
	require.NoError(t, h.Actions().SetDeckCollapsed("deck_0", true))
	counter.Reset()

	// Same value again: the store notifies, the view output is unchanged.
	require.NoError(t, h.Actions().SetDeckCollapsed("deck_0", true))
	assert.Equal(t, 0, counter.Total())
}

func TestUnmountStopsRendering(t *testing.T) {
	h, tree, counter := mountFixture(t, mapstore.New(), false)
	tree.Unmount()
	counter.Reset()

	require.NoError(t, h.Actions().UpdateCommentText("comment_0", "after unmount"))
	assert.Equal(t, 0, counter.Total())
}

func TestPerKeyMountOverSignalStore(t *testing.T) {
	h, _, counter := mountFixture(t, signalstore.New(), true)
	counter.Reset()

	require.NoError(t, h.Actions().SetCardsBusy([]string{"card_0"}, true))

	snap := counter.Snapshot()
	assert.Equal(t, 1, snap["card-card_0"])
	assert.Equal(t, 1, counter.Total())
}
