// Package adapter defines the capability surface every state-management
// backend must expose to be benchmarked.
//
// The contract is fixed and versionless: a store factory, a set of named
// read hooks, a bound action set, and change notification. The only
// optional capability is per-key subscription, declared once at
// registration; everything else is required, and the validation harness
// is the component responsible for flagging incomplete adapters.
package adapter

import "github.com/pholbrook/statebench/internal/model"

// Kind identifies an entity class or derived index in change notifications.
type Kind string

const (
	KindDeck      Kind = "deck"
	KindCard      Kind = "card"
	KindComment   Kind = "comment"
	KindUser      Kind = "user"
	KindTag       Kind = "tag"
	KindDeckOrder Kind = "deck-order"

	// Derived index kinds. The id is the parent entity id.
	KindCardList      Kind = "card-list"      // cards of a deck
	KindCommentList   Kind = "comment-list"   // comments of a card
	KindCardTags      Kind = "card-tags"      // tags of a card
	KindCardAssignees Kind = "card-assignees" // assignees of a card
)

// Change identifies one invalidated entity or derived index.
// The zero ID is used for singleton kinds such as KindDeckOrder.
type Change struct {
	Kind Kind
	ID   string
}

// Hooks is the read-accessor surface of a store.
//
// Id-collection hooks must be referentially stable: as long as the
// underlying data is unchanged, repeated calls return the identical slice,
// so consumers relying on shallow equality do not over-trigger.
type Hooks interface {
	Deck(id string) (model.Deck, bool)
	Card(id string) (model.Card, bool)
	Comment(id string) (model.Comment, bool)
	User(id string) (model.User, bool)
	Tag(id string) (model.Tag, bool)

	DeckOrder() []string
	CardIDsByDeck(deckID string) []string
	CommentIDsByCard(cardID string) []string
	TagIDsByCard(cardID string) []string
	AssigneeIDsByCard(cardID string) []string
}

// ActionSet is the mutation surface bound to one store instance.
//
// Every action is safe to call repeatedly and returns an error only for
// invalid input (unknown ids). An ActionSet is owned by the session that
// bound it and must be re-derived whenever the store instance changes.
type ActionSet struct {
	AddComment        func(cardID, commentID, text string) error
	UpdateCommentText func(commentID, text string) error
	ToggleCardTag     func(cardID, tagID string) error
	SetCardsBusy      func(cardIDs []string, busy bool) error
	RenameUser        func(userID, name string) error
	SetDeckCollapsed  func(deckID string, collapsed bool) error
	MoveCard          func(cardID, toDeckID string) error
}

// StoreHandle is one live store instance produced by an adapter.
type StoreHandle interface {
	// Hooks returns the read surface. The same Hooks value is returned
	// for the lifetime of the handle.
	Hooks() Hooks

	// Actions binds and returns the mutation surface for this instance.
	Actions() ActionSet

	// Subscribe registers fn to be called synchronously for every change
	// the store applies. The returned function cancels the subscription.
	Subscribe(fn func(Change)) (cancel func())

	// Close releases any resources held by the store.
	Close() error
}

// KeyedStore is the optional per-key subscription capability. Adapters
// with a push-based reactive model implement it so views can subscribe to
// exactly the keys they read instead of filtering a global stream.
type KeyedStore interface {
	SubscribeKey(ch Change, fn func()) (cancel func())
}

// StoreAdapter is one pluggable state-management backend.
type StoreAdapter interface {
	// Name returns the unique display identifier.
	Name() string

	// NewStore constructs a fresh store seeded with initial. Construction
	// must have no side effects beyond the returned handle.
	NewStore(initial *model.RootState) (StoreHandle, error)
}
