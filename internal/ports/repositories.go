package ports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("record not found")

// Transactor runs fn inside one unit of work. Repositories called with the
// ctx passed to fn share the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// AccountRepository interface for account data operations
type AccountRepository interface {
	Insert(ctx context.Context, account *entities.Account) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error)
	GetByEmail(ctx context.Context, email string) (*entities.Account, error)
	Update(ctx context.Context, id uuid.UUID, upd AccountUpdate) (int64, error)
}

// BoardRepository interface for board data operations
type BoardRepository interface {
	Insert(ctx context.Context, board *entities.Board) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Board, error)
	Update(ctx context.Context, id uuid.UUID, upd BoardUpdate) (int64, error)
	ListViews(ctx context.Context, userID uuid.UUID) ([]*entities.BoardView, error)
}

// MembershipRepository interface for membership data operations
type MembershipRepository interface {
	Insert(ctx context.Context, m *entities.Membership) (int64, error)
	Get(ctx context.Context, boardID, userID uuid.UUID) (*entities.Membership, error)
	Update(ctx context.Context, boardID, userID uuid.UUID, upd MembershipUpdate) (int64, error)
	Search(ctx context.Context, filter MembershipFilter) ([]*entities.Membership, error)
}

// TaskListRepository interface for list data operations
type TaskListRepository interface {
	Insert(ctx context.Context, list *entities.TaskList) (int64, error)
	GetByID(ctx context.Context, id int64) (*entities.TaskList, error)
	Update(ctx context.Context, id int64, upd TaskListUpdate) (int64, error)
	Search(ctx context.Context, filter TaskListFilter) ([]*entities.TaskList, error)
}

// CardRepository interface for card data operations
type CardRepository interface {
	Insert(ctx context.Context, card *entities.Card) (int64, error)
	GetByID(ctx context.Context, id int64) (*entities.Card, error)
	Update(ctx context.Context, id int64, upd CardUpdate) (int64, error)
	Search(ctx context.Context, filter CardFilter) ([]*entities.Card, error)
}

// AuthRepository interface for refresh and activation token storage
type AuthRepository interface {
	CreateRefreshToken(ctx context.Context, token *entities.RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*entities.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, tokenHash string) error
	DeleteUserRefreshTokens(ctx context.Context, userID uuid.UUID) error
	DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)

	CreateActivationToken(ctx context.Context, token *entities.ActivationToken) error
	GetActivationToken(ctx context.Context, token string) (*entities.ActivationToken, error)
	GetActivationTokenByUser(ctx context.Context, userID uuid.UUID) (*entities.ActivationToken, error)
	DeleteActivationToken(ctx context.Context, token string) error
	DeleteExpiredActivationTokens(ctx context.Context, now time.Time) (int64, error)
}

// Mailer delivers transactional email
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Partial updates: nil fields are left untouched.

type AccountUpdate struct {
	Nickname     *string
	Avatar       *string
	PasswordHash *string
	Verified     *bool
	Archived     *bool
}

func (u AccountUpdate) IsEmpty() bool {
	return u.Nickname == nil && u.Avatar == nil && u.PasswordHash == nil && u.Verified == nil && u.Archived == nil
}

type BoardUpdate struct {
	Title       *string
	Description *string
	Status      *entities.BoardStatus
}

func (u BoardUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil
}

type MembershipUpdate struct {
	Role    *entities.MembershipRole
	Starred *bool
	Active  *bool
}

func (u MembershipUpdate) IsEmpty() bool {
	return u.Role == nil && u.Starred == nil && u.Active == nil
}

type TaskListUpdate struct {
	Title      *string
	Color      *string
	ClearColor bool
	Position   *float64
	Archived   *bool
}

func (u TaskListUpdate) IsEmpty() bool {
	return u.Title == nil && u.Color == nil && !u.ClearColor && u.Position == nil && u.Archived == nil
}

type CardUpdate struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Finished    *bool
	Position    *float64
	ListID      *int64
	Archived    *bool
}

func (u CardUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.DueDate == nil && u.Finished == nil &&
		u.Position == nil && u.ListID == nil && u.Archived == nil
}

// Filters: nil fields do not constrain the search. Results are ordered by position
// for lists and cards, by creation time for memberships.

type MembershipFilter struct {
	BoardID *uuid.UUID
	UserID  *uuid.UUID
	Role    *entities.MembershipRole
	Active  *bool
}

type TaskListFilter struct {
	BoardID  *uuid.UUID
	Archived *bool
}

type CardFilter struct {
	ListID   *int64
	Archived *bool
}
