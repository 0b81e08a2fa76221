package adapter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pholbrook/statebench/internal/adapter"
	"github.com/pholbrook/statebench/internal/adapter/copystore"
	"github.com/pholbrook/statebench/internal/adapter/mapstore"
	"github.com/pholbrook/statebench/internal/adapter/signalstore"
	"github.com/pholbrook/statebench/internal/adapter/sqlstore"
	"github.com/pholbrook/statebench/internal/model"
)

func allAdapters() []adapter.StoreAdapter {
	return []adapter.StoreAdapter{
		mapstore.New(),
		copystore.New(),
		signalstore.New(),
		sqlstore.New(),
	}
}

func testDataset() *model.RootState {
	return model.Generate(model.GeneratorConfig{
		Decks:           2,
		CardsPerDeck:    3,
		CommentsPerCard: 2,
		Users:           3,
		Tags:            4,
		TagsPerCard:     1,
		Seed:            1,
	})
}

// sameSlice checks referential identity, not structural equality: a
// stable hook must hand back the very same backing array.
func sameSlice(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}

func TestConformance(t *testing.T) {
	for _, a := range allAdapters() {
		t.Run(a.Name(), func(t *testing.T) {
			h, err := a.NewStore(testDataset())
			require.NoError(t, err)
			defer h.Close()

			hooks := h.Hooks()
			actions := h.Actions()

			t.Run("seeded reads", func(t *testing.T) {
				deck, ok := hooks.Deck("deck_0")
				require.True(t, ok)
				assert.Equal(t, "Deck 0", deck.Title)

				card, ok := hooks.Card("card_0")
				require.True(t, ok)
				assert.Equal(t, "deck_0", card.DeckID)

				comment, ok := hooks.Comment("comment_0")
				require.True(t, ok)
				assert.Equal(t, "card_0", comment.CardID)

				assert.Equal(t, []string{"deck_0", "deck_1"}, hooks.DeckOrder())
				assert.Equal(t, []string{"card_0", "card_1", "card_2"}, hooks.CardIDsByDeck("deck_0"))
				assert.Equal(t, []string{"comment_0", "comment_1"}, hooks.CommentIDsByCard("card_0"))
			})

			t.Run("referential stability", func(t *testing.T) {
				first := hooks.CardIDsByDeck("deck_0")
				second := hooks.CardIDsByDeck("deck_0")
				assert.True(t, sameSlice(first, second),
					"unchanged card list must be the identical slice")

				tagsA := hooks.TagIDsByCard("card_0")
				tagsB := hooks.TagIDsByCard("card_0")
				assert.True(t, sameSlice(tagsA, tagsB))

				orderA := hooks.DeckOrder()
				orderB := hooks.DeckOrder()
				assert.True(t, sameSlice(orderA, orderB))
			})

			t.Run("update comment text", func(t *testing.T) {
				require.NoError(t, actions.UpdateCommentText("comment_0", "edited"))
				c, ok := hooks.Comment("comment_0")
				require.True(t, ok)
				assert.Equal(t, "edited", c.Text)
			})

			t.Run("add comment readable", func(t *testing.T) {
				require.NoError(t, actions.AddComment("card_1", "comment_new", "fresh"))
				c, ok := hooks.Comment("comment_new")
				require.True(t, ok)
				assert.Equal(t, "fresh", c.Text)
				assert.Contains(t, hooks.CommentIDsByCard("card_1"), "comment_new")
			})

			t.Run("toggle flips membership", func(t *testing.T) {
				before := append([]string(nil), hooks.TagIDsByCard("card_0")...)
				had := contains(before, "tag_3")

				require.NoError(t, actions.ToggleCardTag("card_0", "tag_3"))
				after := hooks.TagIDsByCard("card_0")
				assert.NotEqual(t, had, contains(after, "tag_3"))

				require.NoError(t, actions.ToggleCardTag("card_0", "tag_3"))
				assert.Equal(t, had, contains(hooks.TagIDsByCard("card_0"), "tag_3"))
			})

			t.Run("busy flag", func(t *testing.T) {
				require.NoError(t, actions.SetCardsBusy([]string{"card_0", "card_1"}, true))
				c, _ := hooks.Card("card_0")
				assert.True(t, c.Busy)

				require.NoError(t, actions.SetCardsBusy([]string{"card_0", "card_1"}, false))
				c, _ = hooks.Card("card_0")
				assert.False(t, c.Busy)
			})

			t.Run("rename user", func(t *testing.T) {
				require.NoError(t, actions.RenameUser("user_0", "Renamed"))
				u, ok := hooks.User("user_0")
				require.True(t, ok)
				assert.Equal(t, "Renamed", u.Name)
			})

			t.Run("move card", func(t *testing.T) {
				require.NoError(t, actions.MoveCard("card_0", "deck_1"))
				assert.NotContains(t, hooks.CardIDsByDeck("deck_0"), "card_0")
				assert.Contains(t, hooks.CardIDsByDeck("deck_1"), "card_0")

				require.NoError(t, actions.MoveCard("card_0", "deck_0"))
				assert.Contains(t, hooks.CardIDsByDeck("deck_0"), "card_0")
			})

			t.Run("unknown ids error", func(t *testing.T) {
				assert.Error(t, actions.UpdateCommentText("nope", "x"))
				assert.Error(t, actions.ToggleCardTag("nope", "tag_0"))
				assert.Error(t, actions.ToggleCardTag("card_0", "nope"))
				assert.Error(t, actions.SetCardsBusy([]string{"nope"}, true))
				assert.Error(t, actions.RenameUser("nope", "x"))
				assert.Error(t, actions.SetDeckCollapsed("nope", true))
				assert.Error(t, actions.MoveCard("card_0", "nope"))
			})

			t.Run("subscription", func(t *testing.T) {
				var seen []adapter.Change
				cancel := h.Subscribe(func(ch adapter.Change) {
					seen = append(seen, ch)
				})
				require.NoError(t, actions.SetDeckCollapsed("deck_0", true))
				require.NotEmpty(t, seen)
				assert.Equal(t, adapter.Change{Kind: adapter.KindDeck, ID: "deck_0"}, seen[len(seen)-1])

				cancel()
				n := len(seen)
				require.NoError(t, actions.SetDeckCollapsed("deck_0", false))
				assert.Len(t, seen, n, "cancelled subscription must not fire")
			})

			t.Run("nil initial state", func(t *testing.T) {
				_, err := a.NewStore(nil)
				assert.Error(t, err)
			})
		})
	}
}

func TestSignalStoreKeyedSubscription(t *testing.T) {
	h, err := signalstore.New().NewStore(testDataset())
	require.NoError(t, err)
	defer h.Close()

	keyed, ok := h.(adapter.KeyedStore)
	require.True(t, ok, "signalstore must implement KeyedStore")

	fired := 0
	cancel := keyed.SubscribeKey(adapter.Change{Kind: adapter.KindComment, ID: "comment_0"}, func() {
		fired++
	})
	defer cancel()

	actions := h.Actions()
	require.NoError(t, actions.UpdateCommentText("comment_0", "a"))
	require.NoError(t, actions.UpdateCommentText("comment_1", "b"))
	require.NoError(t, actions.RenameUser("user_0", "c"))

	assert.Equal(t, 1, fired, "only the subscribed key must signal")
}

func contains(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
