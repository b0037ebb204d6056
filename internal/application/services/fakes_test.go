package services

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/config"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

type memberKey struct {
	boardID uuid.UUID
	userID  uuid.UUID
}

// fakeDB is an in-memory stand-in for the Postgres stores. Transactions
// snapshot every table and restore it when fn fails.
type fakeDB struct {
	mu         sync.RWMutex
	accounts   map[uuid.UUID]entities.Account
	boards     map[uuid.UUID]entities.Board
	members    map[memberKey]entities.Membership
	lists      map[int64]entities.TaskList
	cards      map[int64]entities.Card
	refresh    map[string]entities.RefreshToken
	activation map[string]entities.ActivationToken
	nextList   int64
	nextCard   int64

	// zeroRows names a write ("members.insert", ...) that reports 0 affected rows.
	zeroRows string
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		accounts:   make(map[uuid.UUID]entities.Account),
		boards:     make(map[uuid.UUID]entities.Board),
		members:    make(map[memberKey]entities.Membership),
		lists:      make(map[int64]entities.TaskList),
		cards:      make(map[int64]entities.Card),
		refresh:    make(map[string]entities.RefreshToken),
		activation: make(map[string]entities.ActivationToken),
	}
}

func (db *fakeDB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	db.mu.RLock()
	snapshot := fakeDB{
		accounts:   maps.Clone(db.accounts),
		boards:     maps.Clone(db.boards),
		members:    maps.Clone(db.members),
		lists:      maps.Clone(db.lists),
		cards:      maps.Clone(db.cards),
		refresh:    maps.Clone(db.refresh),
		activation: maps.Clone(db.activation),
	}
	db.mu.RUnlock()

	if err := fn(ctx); err != nil {
		db.mu.Lock()
		db.accounts, db.boards, db.members = snapshot.accounts, snapshot.boards, snapshot.members
		db.lists, db.cards = snapshot.lists, snapshot.cards
		db.refresh, db.activation = snapshot.refresh, snapshot.activation
		db.mu.Unlock()
		return err
	}
	return nil
}

type fakeAccounts struct{ db *fakeDB }

func (r fakeAccounts) Insert(_ context.Context, a *entities.Account) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.zeroRows == "accounts.insert" {
		return 0, nil
	}
	r.db.accounts[a.ID] = *a
	return 1, nil
}

func (r fakeAccounts) GetByID(_ context.Context, id uuid.UUID) (*entities.Account, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	a, ok := r.db.accounts[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &a, nil
}

func (r fakeAccounts) GetByEmail(_ context.Context, email string) (*entities.Account, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, a := range r.db.accounts {
		if strings.EqualFold(a.Email, email) {
			a := a
			return &a, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r fakeAccounts) Update(_ context.Context, id uuid.UUID, upd ports.AccountUpdate) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.accounts[id]
	if !ok {
		return 0, nil
	}
	if upd.Nickname != nil {
		a.Nickname = *upd.Nickname
	}
	if upd.Avatar != nil {
		a.Avatar = upd.Avatar
	}
	if upd.PasswordHash != nil {
		a.PasswordHash = *upd.PasswordHash
	}
	if upd.Verified != nil {
		a.Verified = *upd.Verified
	}
	if upd.Archived != nil {
		a.Archived = *upd.Archived
	}
	r.db.accounts[id] = a
	return 1, nil
}

type fakeBoards struct{ db *fakeDB }

func (r fakeBoards) Insert(_ context.Context, b *entities.Board) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.zeroRows == "boards.insert" {
		return 0, nil
	}
	r.db.boards[b.ID] = *b
	return 1, nil
}

func (r fakeBoards) GetByID(_ context.Context, id uuid.UUID) (*entities.Board, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	b, ok := r.db.boards[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &b, nil
}

func (r fakeBoards) Update(_ context.Context, id uuid.UUID, upd ports.BoardUpdate) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	b, ok := r.db.boards[id]
	if !ok {
		return 0, nil
	}
	if upd.Title != nil {
		b.Title = *upd.Title
	}
	if upd.Description != nil {
		b.Description = upd.Description
	}
	if upd.Status != nil {
		b.Status = *upd.Status
	}
	r.db.boards[id] = b
	return 1, nil
}

func (r fakeBoards) ListViews(_ context.Context, userID uuid.UUID) ([]*entities.BoardView, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var views []*entities.BoardView
	for key, m := range r.db.members {
		if key.userID != userID || !m.Active {
			continue
		}
		b, ok := r.db.boards[key.boardID]
		if !ok || b.IsArchived() {
			continue
		}
		m := m
		views = append(views, entities.NewBoardView(&b, &m))
	}
	return views, nil
}

type fakeMembers struct{ db *fakeDB }

func (r fakeMembers) Insert(_ context.Context, m *entities.Membership) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.zeroRows == "members.insert" {
		return 0, nil
	}
	key := memberKey{m.BoardID, m.UserID}
	if _, exists := r.db.members[key]; exists {
		return 0, nil
	}
	r.db.members[key] = *m
	return 1, nil
}

func (r fakeMembers) Get(_ context.Context, boardID, userID uuid.UUID) (*entities.Membership, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	m, ok := r.db.members[memberKey{boardID, userID}]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &m, nil
}

func (r fakeMembers) Update(_ context.Context, boardID, userID uuid.UUID, upd ports.MembershipUpdate) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	key := memberKey{boardID, userID}
	m, ok := r.db.members[key]
	if !ok {
		return 0, nil
	}
	if upd.Role != nil {
		m.Role = *upd.Role
	}
	if upd.Starred != nil {
		m.Starred = *upd.Starred
	}
	if upd.Active != nil {
		m.Active = *upd.Active
	}
	r.db.members[key] = m
	return 1, nil
}

func (r fakeMembers) Search(_ context.Context, f ports.MembershipFilter) ([]*entities.Membership, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []*entities.Membership
	for _, m := range r.db.members {
		if f.BoardID != nil && m.BoardID != *f.BoardID {
			continue
		}
		if f.UserID != nil && m.UserID != *f.UserID {
			continue
		}
		if f.Role != nil && m.Role != *f.Role {
			continue
		}
		if f.Active != nil && m.Active != *f.Active {
			continue
		}
		m := m
		out = append(out, &m)
	}
	return out, nil
}

type fakeLists struct{ db *fakeDB }

func (r fakeLists) Insert(_ context.Context, l *entities.TaskList) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.nextList++
	l.ID = r.db.nextList
	r.db.lists[l.ID] = *l
	return 1, nil
}

func (r fakeLists) GetByID(_ context.Context, id int64) (*entities.TaskList, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	l, ok := r.db.lists[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &l, nil
}

func (r fakeLists) Update(_ context.Context, id int64, upd ports.TaskListUpdate) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	l, ok := r.db.lists[id]
	if !ok {
		return 0, nil
	}
	if upd.Title != nil {
		l.Title = *upd.Title
	}
	if upd.Color != nil {
		l.Color = upd.Color
	}
	if upd.ClearColor {
		l.Color = nil
	}
	if upd.Position != nil {
		l.Position = *upd.Position
	}
	if upd.Archived != nil {
		l.Archived = *upd.Archived
	}
	r.db.lists[id] = l
	return 1, nil
}

func (r fakeLists) Search(_ context.Context, f ports.TaskListFilter) ([]*entities.TaskList, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []*entities.TaskList
	for _, l := range r.db.lists {
		if f.BoardID != nil && l.BoardID != *f.BoardID {
			continue
		}
		if f.Archived != nil && l.Archived != *f.Archived {
			continue
		}
		l := l
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

type fakeCards struct{ db *fakeDB }

func (r fakeCards) Insert(_ context.Context, c *entities.Card) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.nextCard++
	c.ID = r.db.nextCard
	r.db.cards[c.ID] = *c
	return 1, nil
}

func (r fakeCards) GetByID(_ context.Context, id int64) (*entities.Card, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	c, ok := r.db.cards[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &c, nil
}

func (r fakeCards) Update(_ context.Context, id int64, upd ports.CardUpdate) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.cards[id]
	if !ok {
		return 0, nil
	}
	if upd.Title != nil {
		c.Title = *upd.Title
	}
	if upd.Description != nil {
		c.Description = upd.Description
	}
	if upd.DueDate != nil {
		c.DueDate = upd.DueDate
	}
	if upd.Finished != nil {
		c.Finished = *upd.Finished
	}
	if upd.Position != nil {
		c.Position = *upd.Position
	}
	if upd.ListID != nil {
		c.ListID = *upd.ListID
	}
	if upd.Archived != nil {
		c.Archived = *upd.Archived
	}
	r.db.cards[id] = c
	return 1, nil
}

func (r fakeCards) Search(_ context.Context, f ports.CardFilter) ([]*entities.Card, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var out []*entities.Card
	for _, c := range r.db.cards {
		if f.ListID != nil && c.ListID != *f.ListID {
			continue
		}
		if f.Archived != nil && c.Archived != *f.Archived {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

type fakeAuth struct{ db *fakeDB }

func (r fakeAuth) CreateRefreshToken(_ context.Context, t *entities.RefreshToken) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.refresh[t.TokenHash] = *t
	return nil
}

func (r fakeAuth) GetRefreshToken(_ context.Context, hash string) (*entities.RefreshToken, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	t, ok := r.db.refresh[hash]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &t, nil
}

func (r fakeAuth) DeleteRefreshToken(_ context.Context, hash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.refresh[hash]; !ok {
		return ports.ErrNotFound
	}
	delete(r.db.refresh, hash)
	return nil
}

func (r fakeAuth) DeleteUserRefreshTokens(_ context.Context, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for k, t := range r.db.refresh {
		if t.UserID == userID {
			delete(r.db.refresh, k)
		}
	}
	return nil
}

func (r fakeAuth) DeleteExpiredRefreshTokens(_ context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for k, t := range r.db.refresh {
		if t.ExpiresAt.Before(now) {
			delete(r.db.refresh, k)
			n++
		}
	}
	return n, nil
}

func (r fakeAuth) CreateActivationToken(_ context.Context, t *entities.ActivationToken) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.activation[t.Token] = *t
	return nil
}

func (r fakeAuth) GetActivationToken(_ context.Context, token string) (*entities.ActivationToken, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	t, ok := r.db.activation[token]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &t, nil
}

func (r fakeAuth) GetActivationTokenByUser(_ context.Context, userID uuid.UUID) (*entities.ActivationToken, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, t := range r.db.activation {
		if t.UserID == userID {
			t := t
			return &t, nil
		}
	}
	return nil, ports.ErrNotFound
}

func (r fakeAuth) DeleteActivationToken(_ context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.activation, token)
	return nil
}

func (r fakeAuth) DeleteExpiredActivationTokens(_ context.Context, now time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for k, t := range r.db.activation {
		if t.ExpiresAt.Before(now) {
			delete(r.db.activation, k)
			n++
		}
	}
	return n, nil
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no mail sent")
	}
	return m.sent[len(m.sent)-1]
}

type testEnv struct {
	db       *fakeDB
	mailer   *fakeMailer
	resolver *PathResolver
	boards   *BoardService
	members  *MemberService
	lists    *ListService
	cards    *CardService
	auth     *AuthService
	accounts *AccountService
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{BaseURL: "http://boards.test"},
		JWT: config.JWTConfig{Secret: "test-secret", Issuer: "taskboard-test"},
		Auth: config.AuthConfig{
			AccessTTL:       30 * time.Minute,
			RefreshTTL:      7 * 24 * time.Hour,
			ActivationTTL:   24 * time.Hour,
			CleanupInterval: time.Hour,
			BcryptCost:      bcrypt.MinCost,
			RequireVerified: true,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newFakeDB()
	log := logger.NewNop()
	accounts := fakeAccounts{db}
	boards := fakeBoards{db}
	members := fakeMembers{db}
	lists := fakeLists{db}
	cards := fakeCards{db}
	authRepo := fakeAuth{db}
	mailer := &fakeMailer{}

	resolver := NewPathResolver(boards, members, lists, cards)
	auth := NewAuthService(db, accounts, authRepo, mailer, testConfig(), log)

	return &testEnv{
		db:       db,
		mailer:   mailer,
		resolver: resolver,
		boards:   NewBoardService(db, resolver, boards, members, lists, log),
		members:  NewMemberService(db, resolver, accounts, members, log),
		lists:    NewListService(db, resolver, lists, cards, log),
		cards:    NewCardService(db, resolver, cards, log),
		auth:     auth,
		accounts: NewAccountService(accounts, authRepo, auth, log),
	}
}

// account stores a verified account directly.
func (e *testEnv) account(t *testing.T, nickname string) *entities.Account {
	t.Helper()
	a := &entities.Account{
		ID:       uuid.New(),
		Email:    strings.ToLower(nickname) + "@example.com",
		Nickname: nickname,
		Verified: true,
		Role:     entities.AccountRoleUser,
	}
	if _, err := (fakeAccounts{e.db}).Insert(context.Background(), a); err != nil {
		t.Fatalf("insert account: %v", err)
	}
	return a
}

func (e *testEnv) board(t *testing.T, owner *entities.Account, title string) uuid.UUID {
	t.Helper()
	res, err := e.boards.CreateBoard(context.Background(), ports.CreateBoardRequest{Title: title}, owner)
	if err != nil {
		t.Fatalf("create board: %v", err)
	}
	return res.Data["boardId"].(uuid.UUID)
}

func (e *testEnv) list(t *testing.T, boardID uuid.UUID, user *entities.Account, title string) int64 {
	t.Helper()
	res, err := e.lists.CreateList(context.Background(), boardID, ports.CreateListRequest{Title: title}, user)
	if err != nil {
		t.Fatalf("create list %q: %v", title, err)
	}
	return res.Data["listId"].(int64)
}

func (e *testEnv) card(t *testing.T, listID int64, user *entities.Account, title string) int64 {
	t.Helper()
	res, err := e.cards.CreateCard(context.Background(), listID, ports.CreateCardRequest{Title: title}, user)
	if err != nil {
		t.Fatalf("create card %q: %v", title, err)
	}
	return res.Data["cardId"].(int64)
}

func (e *testEnv) invite(t *testing.T, boardID uuid.UUID, admin, guest *entities.Account, role entities.MembershipRole) {
	t.Helper()
	_, err := e.members.InviteMember(context.Background(), boardID, ports.InviteMemberRequest{GuestID: guest.ID, Role: role}, admin)
	if err != nil {
		t.Fatalf("invite %s: %v", guest.Nickname, err)
	}
}

func (e *testEnv) listPosition(t *testing.T, id int64) float64 {
	t.Helper()
	l, err := (fakeLists{e.db}).GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get list: %v", err)
	}
	return l.Position
}

func (e *testEnv) storedCard(t *testing.T, id int64) entities.Card {
	t.Helper()
	c, err := (fakeCards{e.db}).GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get card: %v", err)
	}
	return *c
}

func wantKind(t *testing.T, err error, kind entities.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := entities.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s: %v", kind, got, err)
	}
}

func ptr[T any](v T) *T {
	return &v
}
