package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/ports"
)

func TestPathOfCardResolvesWholeChain(t *testing.T) {
	env := newTestEnv(t)
	alice := env.account(t, "Alice")
	boardID := env.board(t, alice, "Roadmap")
	listID := env.list(t, boardID, alice, "Todo")
	cardID := env.card(t, listID, alice, "C")

	path, err := env.resolver.PathOfCard(context.Background(), alice.ID, cardID)
	if err != nil {
		t.Fatalf("PathOfCard: %v", err)
	}
	if path.Card == nil || path.List == nil || path.Board == nil || path.Membership == nil {
		t.Fatalf("incomplete path: %+v", path)
	}
	if path.Board.ID != boardID || path.List.ID != listID || path.Card.ID != cardID {
		t.Fatalf("wrong path: %+v", path)
	}
	if v := path.View(); v == nil || !v.IsAdmin() {
		t.Fatalf("view = %+v", v)
	}
}

func TestPathBrokenLinks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.account(t, "Alice")
	stranger := env.account(t, "Eve")
	boardID := env.board(t, alice, "Roadmap")
	listID := env.list(t, boardID, alice, "Todo")
	cardID := env.card(t, listID, alice, "C")

	t.Run("unknown card", func(t *testing.T) {
		path, err := env.resolver.PathOfCard(ctx, alice.ID, 777)
		if err != nil || path.Card != nil || path.Board != nil {
			t.Fatalf("path = %+v, err = %v", path, err)
		}
	})

	t.Run("non-member", func(t *testing.T) {
		path, err := env.resolver.PathOfCard(ctx, stranger.ID, cardID)
		if err != nil {
			t.Fatalf("PathOfCard: %v", err)
		}
		if path.Card == nil || path.Membership != nil || path.View() != nil {
			t.Fatalf("path = %+v", path)
		}
	})

	t.Run("archived card", func(t *testing.T) {
		c := env.db.cards[cardID]
		c.Archived = true
		env.db.cards[cardID] = c
		defer func() {
			c.Archived = false
			env.db.cards[cardID] = c
		}()

		path, err := env.resolver.PathOfCard(ctx, alice.ID, cardID)
		if err != nil || path.Card != nil || path.Board != nil {
			t.Fatalf("path = %+v, err = %v", path, err)
		}
	})

	t.Run("inactive membership", func(t *testing.T) {
		key := memberKey{boardID, alice.ID}
		m := env.db.members[key]
		m.Active = false
		env.db.members[key] = m
		defer func() {
			m.Active = true
			env.db.members[key] = m
		}()

		path, err := env.resolver.PathOfBoard(ctx, alice.ID, boardID)
		if err != nil {
			t.Fatalf("PathOfBoard: %v", err)
		}
		if path.Board == nil || path.Membership != nil {
			t.Fatalf("path = %+v", path)
		}
	})

	t.Run("unknown board", func(t *testing.T) {
		path, err := env.resolver.PathOfBoard(ctx, alice.ID, uuid.New())
		if err != nil || path.Board != nil {
			t.Fatalf("path = %+v, err = %v", path, err)
		}
	})
}

type failingBoards struct {
	fakeBoards
	err error
}

func (f failingBoards) GetByID(context.Context, uuid.UUID) (*entities.Board, error) {
	return nil, f.err
}

func TestPathStoreFailureIsReturned(t *testing.T) {
	db := newFakeDB()
	boom := errors.New("connection reset")
	resolver := NewPathResolver(failingBoards{fakeBoards{db}, boom}, fakeMembers{db}, fakeLists{db}, fakeCards{db})

	_, err := resolver.PathOfBoard(context.Background(), uuid.New(), uuid.New())
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped store error", err)
	}

	_, err = resolver.PathOfBoard(context.Background(), uuid.New(), uuid.New())
	if errors.Is(err, ports.ErrNotFound) {
		t.Fatal("store failure reported as not found")
	}
}
