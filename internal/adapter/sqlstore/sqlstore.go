// Package sqlstore is the indexed-collection reference adapter: state
// lives in an in-memory SQLite database and every lookup is an indexed
// query. It models stores built on embedded databases rather than
// language-level data structures.
package sqlstore

import (
	"database/sql"
	_ "embed"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pholbrook/statebench/internal/adapter"
	"github.com/pholbrook/statebench/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Name is the registry identifier for this adapter.
const Name = "sqlite-indexed"

// Adapter constructs SQLite-backed stores.
type Adapter struct{}

// New returns the adapter.
func New() Adapter { return Adapter{} }

// Name implements adapter.StoreAdapter.
func (Adapter) Name() string { return Name }

// NewStore implements adapter.StoreAdapter. Each store gets its own
// private in-memory database seeded from initial.
func (Adapter) NewStore(initial *model.RootState) (adapter.StoreHandle, error) {
	if initial == nil {
		return nil, fmt.Errorf("sqlstore: initial state must not be nil")
	}

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open database: %w", err)
	}

	// A single connection keeps the in-memory database alive and avoids
	// SQLITE_BUSY: SQLite supports one writer at a time anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: apply pragmas: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: apply schema: %w", err)
	}

	s := &store{db: db, lists: make(map[adapter.Change][]string)}
	if err := s.seed(initial); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: seed: %w", err)
	}
	return s, nil
}

type store struct {
	db *sql.DB

	mu    sync.Mutex
	lists map[adapter.Change][]string

	bus adapter.Broadcaster
}

func (s *store) seed(initial *model.RootState) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for pos, id := range initial.DecksOrder {
		d := initial.Decks[id]
		if _, err := tx.Exec(
			"INSERT INTO decks (id, title, collapsed, position) VALUES (?, ?, ?, ?)",
			d.ID, d.Title, boolInt(d.Collapsed), pos,
		); err != nil {
			return err
		}
	}
	for _, c := range initial.Cards {
		if _, err := tx.Exec(
			"INSERT INTO cards (id, deck_id, title, busy) VALUES (?, ?, ?, ?)",
			c.ID, c.DeckID, c.Title, boolInt(c.Busy),
		); err != nil {
			return err
		}
	}
	for _, u := range initial.Users {
		if _, err := tx.Exec("INSERT INTO users (id, name) VALUES (?, ?)", u.ID, u.Name); err != nil {
			return err
		}
	}
	for _, t := range initial.Tags {
		if _, err := tx.Exec("INSERT INTO tags (id, label) VALUES (?, ?)", t.ID, t.Label); err != nil {
			return err
		}
	}
	for _, c := range initial.Comments {
		if _, err := tx.Exec(
			"INSERT INTO comments (id, card_id, body) VALUES (?, ?, ?)",
			c.ID, c.CardID, c.Text,
		); err != nil {
			return err
		}
	}
	for _, a := range initial.CardAssignments {
		if _, err := tx.Exec(
			"INSERT INTO card_assignments (id, card_id, user_id) VALUES (?, ?, ?)",
			a.ID, a.CardID, a.UserID,
		); err != nil {
			return err
		}
	}
	for _, ct := range initial.CardTags {
		if _, err := tx.Exec(
			"INSERT INTO card_tags (id, card_id, tag_id) VALUES (?, ?, ?)",
			ct.ID, ct.CardID, ct.TagID,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *store) Hooks() adapter.Hooks { return s }

func (s *store) Subscribe(fn func(adapter.Change)) (cancel func()) {
	return s.bus.Subscribe(fn)
}

func (s *store) Close() error { return s.db.Close() }

func (s *store) Deck(id string) (model.Deck, bool) {
	var d model.Deck
	var collapsed int
	err := s.db.QueryRow(
		"SELECT id, title, collapsed FROM decks WHERE id = ?", id,
	).Scan(&d.ID, &d.Title, &collapsed)
	if err != nil {
		return model.Deck{}, false
	}
	d.Collapsed = collapsed != 0
	return d, true
}

func (s *store) Card(id string) (model.Card, bool) {
	var c model.Card
	var busy int
	err := s.db.QueryRow(
		"SELECT id, deck_id, title, busy FROM cards WHERE id = ?", id,
	).Scan(&c.ID, &c.DeckID, &c.Title, &busy)
	if err != nil {
		return model.Card{}, false
	}
	c.Busy = busy != 0
	return c, true
}

func (s *store) Comment(id string) (model.Comment, bool) {
	var c model.Comment
	err := s.db.QueryRow(
		"SELECT id, card_id, body FROM comments WHERE id = ?", id,
	).Scan(&c.ID, &c.CardID, &c.Text)
	if err != nil {
		return model.Comment{}, false
	}
	return c, true
}

func (s *store) User(id string) (model.User, bool) {
	var u model.User
	err := s.db.QueryRow("SELECT id, name FROM users WHERE id = ?", id).Scan(&u.ID, &u.Name)
	if err != nil {
		return model.User{}, false
	}
	return u, true
}

func (s *store) Tag(id string) (model.Tag, bool) {
	var t model.Tag
	err := s.db.QueryRow("SELECT id, label FROM tags WHERE id = ?", id).Scan(&t.ID, &t.Label)
	if err != nil {
		return model.Tag{}, false
	}
	return t, true
}

func (s *store) DeckOrder() []string {
	return s.derived(adapter.Change{Kind: adapter.KindDeckOrder},
		"SELECT id FROM decks ORDER BY position")
}

func (s *store) CardIDsByDeck(deckID string) []string {
	return s.derived(adapter.Change{Kind: adapter.KindCardList, ID: deckID},
		"SELECT id FROM cards WHERE deck_id = ? ORDER BY length(id), id", deckID)
}

func (s *store) CommentIDsByCard(cardID string) []string {
	return s.derived(adapter.Change{Kind: adapter.KindCommentList, ID: cardID},
		"SELECT id FROM comments WHERE card_id = ? ORDER BY length(id), id", cardID)
}

func (s *store) TagIDsByCard(cardID string) []string {
	return s.derived(adapter.Change{Kind: adapter.KindCardTags, ID: cardID},
		"SELECT tag_id FROM card_tags WHERE card_id = ? ORDER BY length(tag_id), tag_id", cardID)
}

func (s *store) AssigneeIDsByCard(cardID string) []string {
	return s.derived(adapter.Change{Kind: adapter.KindCardAssignees, ID: cardID},
		"SELECT user_id FROM card_assignments WHERE card_id = ? ORDER BY length(user_id), user_id", cardID)
}

// derived runs the id query once per cache key and serves the cached
// slice until a mutation invalidates the key, preserving referential
// stability across reads. A failing query degrades to an empty list,
// cached like any other result so repeat reads return the same slice
// until the next invalidation.
func (s *store) derived(key adapter.Change, query string, args ...any) []string {
	s.mu.Lock()
	if ids, ok := s.lists[key]; ok {
		s.mu.Unlock()
		return ids
	}
	s.mu.Unlock()

	ids := s.queryIDs(query, args...)

	s.mu.Lock()
	s.lists[key] = ids
	s.mu.Unlock()
	return ids
}

func (s *store) queryIDs(query string, args ...any) []string {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return []string{}
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return []string{}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return []string{}
	}
	return ids
}

func (s *store) invalidate(keys ...adapter.Change) {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.lists, key)
	}
	s.mu.Unlock()
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
	if _, ok := s.Card(cardID); !ok {
		return fmt.Errorf("sqlstore: add comment: unknown card %q", cardID)
	}
	_, err := s.db.Exec(
		"INSERT INTO comments (id, card_id, body) VALUES (?, ?, ?) "+
			"ON CONFLICT(id) DO UPDATE SET body = excluded.body",
		commentID, cardID, text,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: add comment: %w", err)
	}

	s.invalidate(adapter.Change{Kind: adapter.KindCommentList, ID: cardID})
	s.bus.Notify(adapter.Change{Kind: adapter.KindComment, ID: commentID})
	s.bus.Notify(adapter.Change{Kind: adapter.KindCommentList, ID: cardID})
	return nil
}

func (s *store) updateCommentText(commentID, text string) error {
	res, err := s.db.Exec("UPDATE comments SET body = ? WHERE id = ?", text, commentID)
	if err != nil {
		return fmt.Errorf("sqlstore: update comment text: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlstore: update comment text: unknown comment %q", commentID)
	}

	s.bus.Notify(adapter.Change{Kind: adapter.KindComment, ID: commentID})
	return nil
}

func (s *store) toggleCardTag(cardID, tagID string) error {
	if _, ok := s.Card(cardID); !ok {
		return fmt.Errorf("sqlstore: toggle tag: unknown card %q", cardID)
	}
	if _, ok := s.Tag(tagID); !ok {
		return fmt.Errorf("sqlstore: toggle tag: unknown tag %q", tagID)
	}

	res, err := s.db.Exec(
		"DELETE FROM card_tags WHERE card_id = ? AND tag_id = ?", cardID, tagID,
	)
	if err != nil {
		return fmt.Errorf("sqlstore: toggle tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.db.Exec(
			"INSERT INTO card_tags (id, card_id, tag_id) VALUES (?, ?, ?)",
			fmt.Sprintf("ct_%s_%s", cardID, tagID), cardID, tagID,
		); err != nil {
			return fmt.Errorf("sqlstore: toggle tag: %w", err)
		}
	}

	s.invalidate(adapter.Change{Kind: adapter.KindCardTags, ID: cardID})
	s.bus.Notify(adapter.Change{Kind: adapter.KindCardTags, ID: cardID})
	return nil
}

func (s *store) setCardsBusy(cardIDs []string, busy bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlstore: set busy: %w", err)
	}
	defer tx.Rollback()

	for _, id := range cardIDs {
		res, err := tx.Exec("UPDATE cards SET busy = ? WHERE id = ?", boolInt(busy), id)
		if err != nil {
			return fmt.Errorf("sqlstore: set busy: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("sqlstore: set busy: unknown card %q", id)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: set busy: %w", err)
	}

	for _, id := range cardIDs {
		s.bus.Notify(adapter.Change{Kind: adapter.KindCard, ID: id})
	}
	return nil
}

func (s *store) renameUser(userID, name string) error {
	res, err := s.db.Exec("UPDATE users SET name = ? WHERE id = ?", name, userID)
	if err != nil {
		return fmt.Errorf("sqlstore: rename: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlstore: rename: unknown user %q", userID)
	}

	s.bus.Notify(adapter.Change{Kind: adapter.KindUser, ID: userID})
	return nil
}

func (s *store) setDeckCollapsed(deckID string, collapsed bool) error {
	res, err := s.db.Exec("UPDATE decks SET collapsed = ? WHERE id = ?", boolInt(collapsed), deckID)
	if err != nil {
		return fmt.Errorf("sqlstore: collapse: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sqlstore: collapse: unknown deck %q", deckID)
	}

	s.bus.Notify(adapter.Change{Kind: adapter.KindDeck, ID: deckID})
	return nil
}

func (s *store) moveCard(cardID, toDeckID string) error {
	card, ok := s.Card(cardID)
	if !ok {
		return fmt.Errorf("sqlstore: move: unknown card %q", cardID)
	}
	if _, ok := s.Deck(toDeckID); !ok {
		return fmt.Errorf("sqlstore: move: unknown deck %q", toDeckID)
	}

	if _, err := s.db.Exec("UPDATE cards SET deck_id = ? WHERE id = ?", toDeckID, cardID); err != nil {
		return fmt.Errorf("sqlstore: move: %w", err)
	}

	s.invalidate(
		adapter.Change{Kind: adapter.KindCardList, ID: card.DeckID},
		adapter.Change{Kind: adapter.KindCardList, ID: toDeckID},
	)
	s.bus.Notify(adapter.Change{Kind: adapter.KindCard, ID: cardID})
	s.bus.Notify(adapter.Change{Kind: adapter.KindCardList, ID: card.DeckID})
	s.bus.Notify(adapter.Change{Kind: adapter.KindCardList, ID: toDeckID})
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
