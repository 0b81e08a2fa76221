package model

import (
	"fmt"
	mrand "math/rand"
)

// GeneratorConfig controls dataset generation parameters.
// The zero value is not usable; call WithDefaults first.
type GeneratorConfig struct {
	Decks           int   `yaml:"decks"`
	CardsPerDeck    int   `yaml:"cardsPerDeck"`
	CommentsPerCard int   `yaml:"commentsPerCard"`
	Users           int   `yaml:"users"`
	Tags            int   `yaml:"tags"`
	TagsPerCard     int   `yaml:"tagsPerCard"`
	Seed            int64 `yaml:"seed"`
}

// WithDefaults fills unset fields with the standard benchmark dataset sizes.
func (c GeneratorConfig) WithDefaults() GeneratorConfig {
	if c.Decks <= 0 {
		c.Decks = 5
	}
	if c.CardsPerDeck <= 0 {
		c.CardsPerDeck = 20
	}
	if c.CommentsPerCard <= 0 {
		c.CommentsPerCard = 3
	}
	if c.Users <= 0 {
		c.Users = 10
	}
	if c.Tags <= 0 {
		c.Tags = 8
	}
	if c.TagsPerCard <= 0 {
		c.TagsPerCard = 2
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	return c
}

// Generate produces a deterministic RootState: identical configs yield
// identical datasets, including the seeded assignment spread.
//
// Ids are sequential ("deck_0", "card_0", "comment_0", ...) so scenarios can
// pick stable targets without scanning.
func Generate(cfg GeneratorConfig) *RootState {
	cfg = cfg.WithDefaults()
	rng := mrand.New(mrand.NewSource(cfg.Seed))

	s := &RootState{
		Decks:           make(map[string]Deck),
		Cards:           make(map[string]Card),
		Comments:        make(map[string]Comment),
		Users:           make(map[string]User),
		Tags:            make(map[string]Tag),
		CardAssignments: make(map[string]CardAssignment),
		CardTags:        make(map[string]CardTag),
	}

	for i := 0; i < cfg.Users; i++ {
		id := fmt.Sprintf("user_%d", i)
		s.Users[id] = User{ID: id, Name: fmt.Sprintf("User %d", i)}
	}
	for i := 0; i < cfg.Tags; i++ {
		id := fmt.Sprintf("tag_%d", i)
		s.Tags[id] = Tag{ID: id, Label: fmt.Sprintf("Tag %d", i)}
	}

	cardNum, commentNum, assignNum, cardTagNum := 0, 0, 0, 0
	for d := 0; d < cfg.Decks; d++ {
		deckID := fmt.Sprintf("deck_%d", d)
		s.Decks[deckID] = Deck{ID: deckID, Title: fmt.Sprintf("Deck %d", d)}
		s.DecksOrder = append(s.DecksOrder, deckID)

		for c := 0; c < cfg.CardsPerDeck; c++ {
			cardID := fmt.Sprintf("card_%d", cardNum)
			cardNum++
			s.Cards[cardID] = Card{
				ID:     cardID,
				DeckID: deckID,
				Title:  fmt.Sprintf("Card %s", cardID),
			}

			for m := 0; m < cfg.CommentsPerCard; m++ {
				commentID := fmt.Sprintf("comment_%d", commentNum)
				commentNum++
				s.Comments[commentID] = Comment{
					ID:     commentID,
					CardID: cardID,
					Text:   fmt.Sprintf("Comment %d on %s", m, cardID),
				}
			}

			// One assignee per card, spread by the seeded rng.
			userID := fmt.Sprintf("user_%d", rng.Intn(cfg.Users))
			assignID := fmt.Sprintf("assign_%d", assignNum)
			assignNum++
			s.CardAssignments[assignID] = CardAssignment{
				ID:     assignID,
				CardID: cardID,
				UserID: userID,
			}

			// Tag memberships rotate deterministically across the pool.
			for t := 0; t < cfg.TagsPerCard; t++ {
				tagID := fmt.Sprintf("tag_%d", (cardNum+t)%cfg.Tags)
				ctID := fmt.Sprintf("cardtag_%d", cardTagNum)
				cardTagNum++
				s.CardTags[ctID] = CardTag{ID: ctID, CardID: cardID, TagID: tagID}
			}
		}
	}

	return s
}
