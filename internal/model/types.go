// Package model defines the root state shape shared by every store adapter,
// plus a deterministic generator for benchmark datasets.
//
// The state is a normalized board: decks contain cards, cards carry comments,
// tag memberships, and user assignments. Every collection is a map keyed by
// entity id; deck ordering is kept in a separate ordered slice.
package model

// Deck is a top-level column of cards.
type Deck struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Collapsed bool   `json:"collapsed"`
}

// Card belongs to exactly one deck.
type Card struct {
	ID     string `json:"id"`
	DeckID string `json:"deckId"`
	Title  string `json:"title"`
	Busy   bool   `json:"busy"`
}

// Comment belongs to exactly one card.
type Comment struct {
	ID     string `json:"id"`
	CardID string `json:"cardId"`
	Text   string `json:"text"`
}

// User can be assigned to any number of cards.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tag is a label cards can be tagged with.
type Tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// CardAssignment links one user to one card.
type CardAssignment struct {
	ID     string `json:"id"`
	CardID string `json:"cardId"`
	UserID string `json:"userId"`
}

// CardTag links one tag to one card.
type CardTag struct {
	ID     string `json:"id"`
	CardID string `json:"cardId"`
	TagID  string `json:"tagId"`
}

// RootState is the full normalized dataset a store adapter is seeded with.
// Adapters must treat the value they receive as read-only and work on their
// own copy; Clone provides a deep copy for that purpose.
type RootState struct {
	Decks           map[string]Deck           `json:"decks"`
	Cards           map[string]Card           `json:"cards"`
	Comments        map[string]Comment        `json:"comments"`
	Users           map[string]User           `json:"users"`
	Tags            map[string]Tag            `json:"tags"`
	CardAssignments map[string]CardAssignment `json:"cardAssignments"`
	CardTags        map[string]CardTag        `json:"cardTags"`
	DecksOrder      []string                  `json:"decksOrder"`
}

// Clone returns a deep copy of the state. Entity values are plain structs,
// so copying the maps and the order slice is sufficient.
func (s *RootState) Clone() *RootState {
	out := &RootState{
		Decks:           make(map[string]Deck, len(s.Decks)),
		Cards:           make(map[string]Card, len(s.Cards)),
		Comments:        make(map[string]Comment, len(s.Comments)),
		Users:           make(map[string]User, len(s.Users)),
		Tags:            make(map[string]Tag, len(s.Tags)),
		CardAssignments: make(map[string]CardAssignment, len(s.CardAssignments)),
		CardTags:        make(map[string]CardTag, len(s.CardTags)),
		DecksOrder:      make([]string, len(s.DecksOrder)),
	}
	for k, v := range s.Decks {
		out.Decks[k] = v
	}
	for k, v := range s.Cards {
		out.Cards[k] = v
	}
	for k, v := range s.Comments {
		out.Comments[k] = v
	}
	for k, v := range s.Users {
		out.Users[k] = v
	}
	for k, v := range s.Tags {
		out.Tags[k] = v
	}
	for k, v := range s.CardAssignments {
		out.CardAssignments[k] = v
	}
	for k, v := range s.CardTags {
		out.CardTags[k] = v
	}
	copy(out.DecksOrder, s.DecksOrder)
	return out
}
