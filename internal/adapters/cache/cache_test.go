package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

type stubAccounts struct {
	getByIDFn func(ctx context.Context, id uuid.UUID) (*entities.Account, error)
	updateFn  func(ctx context.Context, id uuid.UUID, upd ports.AccountUpdate) (int64, error)
}

func (s *stubAccounts) Insert(context.Context, *entities.Account) (int64, error) {
	return 0, errors.New("unexpected Insert call")
}

func (s *stubAccounts) GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	if s.getByIDFn == nil {
		return nil, errors.New("unexpected GetByID call")
	}
	return s.getByIDFn(ctx, id)
}

func (s *stubAccounts) GetByEmail(context.Context, string) (*entities.Account, error) {
	return nil, errors.New("unexpected GetByEmail call")
}

func (s *stubAccounts) Update(ctx context.Context, id uuid.UUID, upd ports.AccountUpdate) (int64, error) {
	if s.updateFn == nil {
		return 0, errors.New("unexpected Update call")
	}
	return s.updateFn(ctx, id, upd)
}

func TestAccountCacheMissThenHitKeepsPasswordHash(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	id := uuid.New()

	var calls int
	c := NewAccountCache(&stubAccounts{
		getByIDFn: func(_ context.Context, got uuid.UUID) (*entities.Account, error) {
			calls++
			if got != id {
				t.Fatalf("unexpected id %s", got)
			}
			return &entities.Account{ID: id, Email: "a@example.com", PasswordHash: "$2a$hash", Nickname: "A", Verified: true}, nil
		},
	}, client, time.Minute, logger.NewNop())

	first, err := c.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if ttl := mr.TTL(accountKey(id)); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL %v", ttl)
	}

	cached, err := c.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("cached GetByID: %v", err)
	}
	if calls != 1 {
		t.Fatalf("backend calls = %d, want 1", calls)
	}
	if cached.PasswordHash != "$2a$hash" || cached.Email != first.Email || !cached.Verified {
		t.Fatalf("cached account = %+v", cached)
	}
}

func TestAccountCacheUpdateEvicts(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	id := uuid.New()
	nickname := "Before"

	var calls int
	c := NewAccountCache(&stubAccounts{
		getByIDFn: func(context.Context, uuid.UUID) (*entities.Account, error) {
			calls++
			return &entities.Account{ID: id, Nickname: nickname}, nil
		},
		updateFn: func(_ context.Context, _ uuid.UUID, upd ports.AccountUpdate) (int64, error) {
			nickname = *upd.Nickname
			return 1, nil
		},
	}, client, time.Minute, logger.NewNop())

	if _, err := c.GetByID(ctx, id); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	after := "After"
	if _, err := c.Update(ctx, id, ports.AccountUpdate{Nickname: &after}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if mr.Exists(accountKey(id)) {
		t.Fatal("key survived update")
	}

	a, err := c.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if a.Nickname != "After" || calls != 2 {
		t.Fatalf("nickname = %q after %d calls", a.Nickname, calls)
	}
}

func TestAccountCacheFailedUpdateKeepsEntry(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	id := uuid.New()
	boom := errors.New("db down")

	c := NewAccountCache(&stubAccounts{
		getByIDFn: func(context.Context, uuid.UUID) (*entities.Account, error) {
			return &entities.Account{ID: id}, nil
		},
		updateFn: func(context.Context, uuid.UUID, ports.AccountUpdate) (int64, error) {
			return 0, boom
		},
	}, client, time.Minute, logger.NewNop())

	if _, err := c.GetByID(ctx, id); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	verified := true
	if _, err := c.Update(ctx, id, ports.AccountUpdate{Verified: &verified}); !errors.Is(err, boom) {
		t.Fatalf("Update err = %v", err)
	}
	if !mr.Exists(accountKey(id)) {
		t.Fatal("failed update evicted the entry")
	}
}

func TestAccountCacheDoesNotCacheMisses(t *testing.T) {
	mr, client := newRedis(t)
	id := uuid.New()

	c := NewAccountCache(&stubAccounts{
		getByIDFn: func(context.Context, uuid.UUID) (*entities.Account, error) {
			return nil, ports.ErrNotFound
		},
	}, client, time.Minute, logger.NewNop())

	if _, err := c.GetByID(context.Background(), id); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if mr.Exists(accountKey(id)) {
		t.Fatal("miss was cached")
	}
}

type stubBoards struct {
	board *entities.Board
	calls int
}

func (s *stubBoards) Insert(context.Context, *entities.Board) (int64, error) { return 1, nil }

func (s *stubBoards) GetByID(context.Context, uuid.UUID) (*entities.Board, error) {
	s.calls++
	b := *s.board
	return &b, nil
}

func (s *stubBoards) Update(_ context.Context, _ uuid.UUID, upd ports.BoardUpdate) (int64, error) {
	if upd.Status != nil {
		s.board.Status = *upd.Status
	}
	return 1, nil
}

func (s *stubBoards) ListViews(context.Context, uuid.UUID) ([]*entities.BoardView, error) {
	return nil, nil
}

func TestBoardCacheStatusChangeIsVisible(t *testing.T) {
	_, client := newRedis(t)
	ctx := context.Background()
	base := &stubBoards{board: &entities.Board{ID: uuid.New(), Title: "Roadmap", Status: entities.BoardStatusActive}}
	c := NewBoardCache(base, client, time.Minute, logger.NewNop())

	if _, err := c.GetByID(ctx, base.board.ID); err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	b, err := c.GetByID(ctx, base.board.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if base.calls != 1 || b.Title != "Roadmap" {
		t.Fatalf("calls = %d, board = %+v", base.calls, b)
	}

	closed := entities.BoardStatusClosed
	if _, err := c.Update(ctx, base.board.ID, ports.BoardUpdate{Status: &closed}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	b, err = c.GetByID(ctx, base.board.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !b.IsClosed() {
		t.Fatalf("stale status %s after update", b.Status)
	}
}

func TestBoardCacheDropsCorruptEntry(t *testing.T) {
	mr, client := newRedis(t)
	base := &stubBoards{board: &entities.Board{ID: uuid.New(), Title: "Roadmap"}}
	c := NewBoardCache(base, client, time.Minute, logger.NewNop())

	if err := mr.Set(boardKey(base.board.ID), "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	b, err := c.GetByID(context.Background(), base.board.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if b.Title != "Roadmap" || base.calls != 1 {
		t.Fatalf("board = %+v, calls = %d", b, base.calls)
	}
	got, err := mr.Get(boardKey(base.board.ID))
	if err != nil || got == "{not json" {
		t.Fatalf("corrupt entry not replaced: %q, %v", got, err)
	}
}

func TestCacheWithoutRedisPassesThrough(t *testing.T) {
	base := &stubBoards{board: &entities.Board{ID: uuid.New()}}
	c := NewBoardCache(base, nil, time.Minute, logger.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := c.GetByID(context.Background(), base.board.ID); err != nil {
			t.Fatalf("GetByID: %v", err)
		}
	}
	if base.calls != 2 {
		t.Fatalf("calls = %d, want 2", base.calls)
	}
}

type stubMembers struct {
	m     entities.Membership
	calls int
}

func (s *stubMembers) Insert(_ context.Context, m *entities.Membership) (int64, error) {
	s.m = *m
	return 1, nil
}

func (s *stubMembers) Get(context.Context, uuid.UUID, uuid.UUID) (*entities.Membership, error) {
	s.calls++
	m := s.m
	return &m, nil
}

func (s *stubMembers) Update(_ context.Context, _, _ uuid.UUID, upd ports.MembershipUpdate) (int64, error) {
	if upd.Active != nil {
		s.m.Active = *upd.Active
	}
	return 1, nil
}

func (s *stubMembers) Search(context.Context, ports.MembershipFilter) ([]*entities.Membership, error) {
	return nil, nil
}

func TestMembershipCacheEvictsOnWrites(t *testing.T) {
	mr, client := newRedis(t)
	ctx := context.Background()
	boardID, userID := uuid.New(), uuid.New()
	base := &stubMembers{m: entities.Membership{BoardID: boardID, UserID: userID, Role: entities.MembershipRoleMember, Active: true}}
	c := NewMembershipCache(base, client, time.Minute, logger.NewNop())
	key := membershipKey(boardID, userID)

	if _, err := c.Get(ctx, boardID, userID); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !mr.Exists(key) {
		t.Fatal("membership not cached")
	}

	inactive := false
	if _, err := c.Update(ctx, boardID, userID, ports.MembershipUpdate{Active: &inactive}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	m, err := c.Get(ctx, boardID, userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m.Active {
		t.Fatal("stale active flag after removal")
	}

	if _, err := c.Insert(ctx, &entities.Membership{BoardID: boardID, UserID: userID, Role: entities.MembershipRoleViewer, Active: true}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if mr.Exists(key) {
		t.Fatal("insert did not evict")
	}
}
