// Package validate checks registered adapters against the capability
// contract before any benchmark trusts their numbers.
//
// Each adapter gets a fresh store and a fixed battery of checks: seeded
// reads, referential stability of id collections, observable effects for
// every action, unknown-id rejection, and change notification. Failures
// are collected, not short-circuited, so one report lists everything an
// adapter author has to fix.
package validate

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/pholbrook/statebench/internal/adapter"
	"github.com/pholbrook/statebench/internal/model"
)

// AdapterTestResult is the validation outcome for one adapter.
type AdapterTestResult struct {
	AdapterName string   `json:"adapterName"`
	Passed      bool     `json:"passed"`
	Errors      []string `json:"errors"`
}

// Run validates every registered adapter against dataset and returns one
// result per adapter in registration order. A failing adapter never
// fails the harness; only an unusable dataset does.
func Run(reg *adapter.Registry, dataset *model.RootState, logger *slog.Logger) ([]AdapterTestResult, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := checkDataset(dataset); err != nil {
		return nil, err
	}

	results := make([]AdapterTestResult, 0, len(reg.All()))
	for _, r := range reg.All() {
		res := validateOne(r, dataset)
		logger.Info("adapter validated",
			slog.String("adapter", res.AdapterName),
			slog.Bool("passed", res.Passed),
			slog.Int("errors", len(res.Errors)),
		)
		results = append(results, res)
	}
	return results, nil
}

// checkDataset rejects datasets the battery cannot exercise.
func checkDataset(data *model.RootState) error {
	switch {
	case data == nil:
		return fmt.Errorf("validation dataset must not be nil")
	case len(data.DecksOrder) == 0:
		return fmt.Errorf("validation dataset has no decks")
	case len(data.Comments) == 0:
		return fmt.Errorf("validation dataset has no comments")
	case len(data.Tags) == 0:
		return fmt.Errorf("validation dataset has no tags")
	case len(data.CardAssignments) == 0:
		return fmt.Errorf("validation dataset has no card assignments")
	}
	return nil
}

type runner struct {
	errs []string
}

// check runs one named check, converting a panic inside a misbehaving
// adapter into a recorded failure rather than a harness crash.
func (r *runner) check(name string, fn func() error) {
	defer func() {
		if p := recover(); p != nil {
			r.errs = append(r.errs, fmt.Sprintf("%s: panic: %v", name, p))
		}
	}()
	if err := fn(); err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: %v", name, err))
	}
}

func validateOne(reg adapter.Registration, dataset *model.RootState) AdapterTestResult {
	name := reg.Adapter.Name()
	r := &runner{}

	// Each adapter works on its own copy so a buggy in-place adapter
	// cannot poison the battery for the adapters after it.
	h, err := reg.Adapter.NewStore(dataset.Clone())
	if err != nil {
		return AdapterTestResult{
			AdapterName: name,
			Errors:      []string{fmt.Sprintf("NewStore: %v", err)},
		}
	}
	defer h.Close()

	r.check("NewStore(nil)", func() error {
		if bad, err := reg.Adapter.NewStore(nil); err == nil {
			bad.Close()
			return fmt.Errorf("expected an error for a nil initial state")
		}
		return nil
	})

	hooks := h.Hooks()
	actions := h.Actions()

	r.checkEntityHooks(hooks, dataset)
	r.checkCollectionHooks(hooks, dataset)
	r.checkStability(hooks, dataset)
	r.checkActions(hooks, actions, dataset)
	r.checkUnknownIDs(actions)
	r.checkSubscription(h, actions, dataset)
	if reg.PerKey {
		r.checkKeyed(h, actions, dataset)
	}

	return AdapterTestResult{
		AdapterName: name,
		Passed:      len(r.errs) == 0,
		Errors:      r.errs,
	}
}

func (r *runner) checkEntityHooks(hooks adapter.Hooks, data *model.RootState) {
	deckID := data.DecksOrder[0]

	r.check("Deck hook", func() error {
		d, ok := hooks.Deck(deckID)
		if !ok {
			return fmt.Errorf("seeded deck %q not found", deckID)
		}
		if d.ID != deckID || d.Title != data.Decks[deckID].Title {
			return fmt.Errorf("deck %q does not match the seed", deckID)
		}
		if _, ok := hooks.Deck("no-such-deck"); ok {
			return fmt.Errorf("unknown deck id reported as found")
		}
		return nil
	})

	r.check("Card hook", func() error {
		ids := hooks.CardIDsByDeck(deckID)
		if len(ids) == 0 {
			return fmt.Errorf("deck %q lists no cards", deckID)
		}
		cardID := ids[0]
		c, ok := hooks.Card(cardID)
		if !ok {
			return fmt.Errorf("seeded card %q not found", cardID)
		}
		if c.DeckID != deckID {
			return fmt.Errorf("card %q reports deck %q, want %q", cardID, c.DeckID, deckID)
		}
		return nil
	})

	r.check("Comment hook", func() error {
		for id, want := range data.Comments {
			got, ok := hooks.Comment(id)
			if !ok {
				return fmt.Errorf("seeded comment %q not found", id)
			}
			if got.Text != want.Text {
				return fmt.Errorf("comment %q text does not match the seed", id)
			}
			return nil
		}
		return nil
	})

	r.check("User hook", func() error {
		for id, want := range data.Users {
			got, ok := hooks.User(id)
			if !ok {
				return fmt.Errorf("seeded user %q not found", id)
			}
			if got.Name != want.Name {
				return fmt.Errorf("user %q name does not match the seed", id)
			}
			return nil
		}
		return nil
	})

	r.check("Tag hook", func() error {
		for id, want := range data.Tags {
			got, ok := hooks.Tag(id)
			if !ok {
				return fmt.Errorf("seeded tag %q not found", id)
			}
			if got.Label != want.Label {
				return fmt.Errorf("tag %q label does not match the seed", id)
			}
			return nil
		}
		return nil
	})
}

func (r *runner) checkCollectionHooks(hooks adapter.Hooks, data *model.RootState) {
	r.check("DeckOrder hook", func() error {
		if got := hooks.DeckOrder(); !slices.Equal(got, data.DecksOrder) {
			return fmt.Errorf("deck order %v, want %v", got, data.DecksOrder)
		}
		return nil
	})

	deckID := data.DecksOrder[0]
	r.check("CardIDsByDeck hook", func() error {
		want := 0
		for _, c := range data.Cards {
			if c.DeckID == deckID {
				want++
			}
		}
		if got := hooks.CardIDsByDeck(deckID); len(got) != want {
			return fmt.Errorf("deck %q lists %d cards, want %d", deckID, len(got), want)
		}
		return nil
	})

	r.check("AssigneeIDsByCard hook", func() error {
		byCard := make(map[string]int)
		for _, a := range data.CardAssignments {
			byCard[a.CardID]++
		}
		for cardID, want := range byCard {
			if got := hooks.AssigneeIDsByCard(cardID); len(got) != want {
				return fmt.Errorf("card %q lists %d assignees, want %d", cardID, len(got), want)
			}
			return nil
		}
		return nil
	})
}

// checkStability verifies the referential-stability contract for the
// id-collection hooks: unchanged data must yield the identical slice.
func (r *runner) checkStability(hooks adapter.Hooks, data *model.RootState) {
	deckID := data.DecksOrder[0]
	cards := hooks.CardIDsByDeck(deckID)
	if len(cards) == 0 {
		// Already reported by the card hook check.
		return
	}
	cardID := cards[0]

	stable := func(name string, read func() []string) {
		r.check(name+" stability", func() error {
			a, b := read(), read()
			if len(a) == 0 {
				return nil
			}
			if len(a) != len(b) || &a[0] != &b[0] {
				return fmt.Errorf("repeated reads return different slices for unchanged data")
			}
			return nil
		})
	}

	stable("DeckOrder", hooks.DeckOrder)
	stable("CardIDsByDeck", func() []string { return hooks.CardIDsByDeck(deckID) })
	stable("CommentIDsByCard", func() []string { return hooks.CommentIDsByCard(cardID) })
	stable("TagIDsByCard", func() []string { return hooks.TagIDsByCard(cardID) })
	stable("AssigneeIDsByCard", func() []string { return hooks.AssigneeIDsByCard(cardID) })
}

func (r *runner) checkActions(hooks adapter.Hooks, actions adapter.ActionSet, data *model.RootState) {
	deckID := data.DecksOrder[0]
	cards := hooks.CardIDsByDeck(deckID)
	if len(cards) == 0 {
		return
	}
	cardID := cards[0]

	r.check("SetDeckCollapsed", func() error {
		if actions.SetDeckCollapsed == nil {
			return fmt.Errorf("action not implemented")
		}
		if err := actions.SetDeckCollapsed(deckID, true); err != nil {
			return err
		}
		if d, _ := hooks.Deck(deckID); !d.Collapsed {
			return fmt.Errorf("collapse not observable through the deck hook")
		}
		return actions.SetDeckCollapsed(deckID, false)
	})

	r.check("SetCardsBusy", func() error {
		if actions.SetCardsBusy == nil {
			return fmt.Errorf("action not implemented")
		}
		if err := actions.SetCardsBusy([]string{cardID}, true); err != nil {
			return err
		}
		if c, _ := hooks.Card(cardID); !c.Busy {
			return fmt.Errorf("busy flag not observable through the card hook")
		}
		return actions.SetCardsBusy([]string{cardID}, false)
	})

	r.check("UpdateCommentText", func() error {
		if actions.UpdateCommentText == nil {
			return fmt.Errorf("action not implemented")
		}
		var commentID string
		for id := range data.Comments {
			commentID = id
			break
		}
		if err := actions.UpdateCommentText(commentID, "validated text"); err != nil {
			return err
		}
		if c, _ := hooks.Comment(commentID); c.Text != "validated text" {
			return fmt.Errorf("edit not observable through the comment hook")
		}
		return nil
	})

	r.check("RenameUser", func() error {
		if actions.RenameUser == nil {
			return fmt.Errorf("action not implemented")
		}
		var userID string
		for id := range data.Users {
			userID = id
			break
		}
		if err := actions.RenameUser(userID, "Validated Name"); err != nil {
			return err
		}
		if u, _ := hooks.User(userID); u.Name != "Validated Name" {
			return fmt.Errorf("rename not observable through the user hook")
		}
		return nil
	})

	r.check("ToggleCardTag", func() error {
		if actions.ToggleCardTag == nil {
			return fmt.Errorf("action not implemented")
		}
		var tagID string
		for id := range data.Tags {
			tagID = id
			break
		}
		before := slices.Contains(hooks.TagIDsByCard(cardID), tagID)
		if err := actions.ToggleCardTag(cardID, tagID); err != nil {
			return err
		}
		if after := slices.Contains(hooks.TagIDsByCard(cardID), tagID); after == before {
			return fmt.Errorf("toggle did not flip tag membership")
		}
		if err := actions.ToggleCardTag(cardID, tagID); err != nil {
			return err
		}
		if restored := slices.Contains(hooks.TagIDsByCard(cardID), tagID); restored != before {
			return fmt.Errorf("second toggle did not restore tag membership")
		}
		return nil
	})

	r.check("AddComment", func() error {
		if actions.AddComment == nil {
			return fmt.Errorf("action not implemented")
		}
		const newID = "validate_comment_1"
		if err := actions.AddComment(cardID, newID, "added by validation"); err != nil {
			return err
		}
		if !slices.Contains(hooks.CommentIDsByCard(cardID), newID) {
			return fmt.Errorf("added comment missing from the card's comment list")
		}
		if c, ok := hooks.Comment(newID); !ok || c.CardID != cardID {
			return fmt.Errorf("added comment not readable through the comment hook")
		}
		return nil
	})

	r.check("MoveCard", func() error {
		if actions.MoveCard == nil {
			return fmt.Errorf("action not implemented")
		}
		if len(data.DecksOrder) < 2 {
			return nil
		}
		toDeck := data.DecksOrder[1]
		if err := actions.MoveCard(cardID, toDeck); err != nil {
			return err
		}
		if c, _ := hooks.Card(cardID); c.DeckID != toDeck {
			return fmt.Errorf("card still reports the source deck after the move")
		}
		if slices.Contains(hooks.CardIDsByDeck(deckID), cardID) {
			return fmt.Errorf("moved card still listed under the source deck")
		}
		if !slices.Contains(hooks.CardIDsByDeck(toDeck), cardID) {
			return fmt.Errorf("moved card missing from the target deck")
		}
		return actions.MoveCard(cardID, deckID)
	})
}

func (r *runner) checkUnknownIDs(actions adapter.ActionSet) {
	cases := []struct {
		name string
		skip bool
		call func() error
	}{
		{"UpdateCommentText unknown id", actions.UpdateCommentText == nil,
			func() error { return actions.UpdateCommentText("no-such-comment", "x") }},
		{"ToggleCardTag unknown card", actions.ToggleCardTag == nil,
			func() error { return actions.ToggleCardTag("no-such-card", "no-such-tag") }},
		{"RenameUser unknown id", actions.RenameUser == nil,
			func() error { return actions.RenameUser("no-such-user", "x") }},
		{"SetDeckCollapsed unknown id", actions.SetDeckCollapsed == nil,
			func() error { return actions.SetDeckCollapsed("no-such-deck", true) }},
		{"MoveCard unknown card", actions.MoveCard == nil,
			func() error { return actions.MoveCard("no-such-card", "no-such-deck") }},
	}
	for _, c := range cases {
		if c.skip {
			// The missing action is already reported by the action battery.
			continue
		}
		r.check(c.name, func() error {
			if err := c.call(); err == nil {
				return fmt.Errorf("expected an error")
			}
			return nil
		})
	}
}

func (r *runner) checkSubscription(h adapter.StoreHandle, actions adapter.ActionSet, data *model.RootState) {
	deckID := data.DecksOrder[0]

	r.check("Subscribe", func() error {
		var seen int
		cancel := h.Subscribe(func(adapter.Change) { seen++ })
		if err := actions.SetDeckCollapsed(deckID, true); err != nil {
			return err
		}
		if seen == 0 {
			return fmt.Errorf("no change notification for a mutation")
		}
		cancel()
		before := seen
		if err := actions.SetDeckCollapsed(deckID, false); err != nil {
			return err
		}
		if seen != before {
			return fmt.Errorf("cancelled subscriber still notified")
		}
		return nil
	})
}

func (r *runner) checkKeyed(h adapter.StoreHandle, actions adapter.ActionSet, data *model.RootState) {
	deckID := data.DecksOrder[0]

	r.check("KeyedStore", func() error {
		ks, ok := h.(adapter.KeyedStore)
		if !ok {
			return fmt.Errorf("registered with per-key subscriptions but the handle does not implement them")
		}
		var hits int
		cancel := ks.SubscribeKey(adapter.Change{Kind: adapter.KindDeck, ID: deckID}, func() { hits++ })
		defer cancel()
		if err := actions.SetDeckCollapsed(deckID, true); err != nil {
			return err
		}
		if hits == 0 {
			return fmt.Errorf("keyed subscriber not notified for its key")
		}
		return actions.SetDeckCollapsed(deckID, false)
	})
}
