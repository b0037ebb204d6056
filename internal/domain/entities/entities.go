package entities

import (
	"time"

	"github.com/google/uuid"
)

// Field bounds shared by services and request validation
const (
	MaxBoardTitleLength       = 64
	MaxBoardDescriptionLength = 512
	MaxListTitleLength        = 64
	MaxCardTitleLength        = 128
	MaxCardDescriptionLength  = 4096
	MaxNicknameLength         = 32
	MaxAvatarLength           = 512
	MinPasswordLength         = 8
	MaxPasswordLength         = 72
)

type AccountRole string

const (
	AccountRoleAdmin AccountRole = "ADMIN"
	AccountRoleUser  AccountRole = "USER"
)

func (r AccountRole) IsValid() bool {
	return r == AccountRoleAdmin || r == AccountRoleUser
}

// BoardStatus replaces the closed/archived flag pair. Transitions only move forward:
// active -> closed -> archived, or active -> archived.
type BoardStatus string

const (
	BoardStatusActive   BoardStatus = "active"
	BoardStatusClosed   BoardStatus = "closed"
	BoardStatusArchived BoardStatus = "archived"
)

func (s BoardStatus) IsValid() bool {
	switch s {
	case BoardStatusActive, BoardStatusClosed, BoardStatusArchived:
		return true
	}
	return false
}

// CanTransitionTo reports whether the board may move from s to next.
func (s BoardStatus) CanTransitionTo(next BoardStatus) bool {
	switch s {
	case BoardStatusActive:
		return next == BoardStatusClosed || next == BoardStatusArchived
	case BoardStatusClosed:
		return next == BoardStatusArchived
	}
	return false
}

type MembershipRole string

const (
	MembershipRoleAdmin  MembershipRole = "ADMIN"
	MembershipRoleMember MembershipRole = "MEMBER"
	MembershipRoleViewer MembershipRole = "VIEWER"
)

func (r MembershipRole) IsValid() bool {
	switch r {
	case MembershipRoleAdmin, MembershipRoleMember, MembershipRoleViewer:
		return true
	}
	return false
}

// CanEdit reports whether the role may change lists and cards.
func (r MembershipRole) CanEdit() bool {
	return r == MembershipRoleAdmin || r == MembershipRoleMember
}

// Account represents a registered user
type Account struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	Email        string      `json:"email" db:"email"`
	PasswordHash string      `json:"-" db:"password_hash"`
	Nickname     string      `json:"nickname" db:"nickname"`
	Avatar       *string     `json:"avatar,omitempty" db:"avatar"`
	Verified     bool        `json:"verified" db:"verified"`
	Role         AccountRole `json:"role" db:"role"`
	Archived     bool        `json:"archived" db:"archived"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// Board is the top-level container of lists
type Board struct {
	ID          uuid.UUID   `json:"id" db:"id"`
	Title       string      `json:"title" db:"title"`
	Description *string     `json:"description,omitempty" db:"description"`
	Status      BoardStatus `json:"status" db:"status"`
	CreatedBy   uuid.UUID   `json:"created_by" db:"created_by"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

func (b *Board) IsClosed() bool   { return b.Status == BoardStatusClosed }
func (b *Board) IsArchived() bool { return b.Status == BoardStatusArchived }

// Membership is a user's standing on one board, keyed by (BoardID, UserID)
type Membership struct {
	BoardID   uuid.UUID      `json:"board_id" db:"board_id"`
	UserID    uuid.UUID      `json:"user_id" db:"user_id"`
	Role      MembershipRole `json:"role" db:"role"`
	Starred   bool           `json:"starred" db:"starred"`
	Active    bool           `json:"active" db:"active"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// TaskList is an ordered column of cards on a board
type TaskList struct {
	ID        int64     `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Color     *string   `json:"color,omitempty" db:"color"`
	Position  float64   `json:"position" db:"position"`
	BoardID   uuid.UUID `json:"board_id" db:"board_id"`
	Archived  bool      `json:"archived" db:"archived"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Card is a single task inside a list
type Card struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	Finished    bool       `json:"finished" db:"finished"`
	Position    float64    `json:"position" db:"position"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	ListID      int64      `json:"list_id" db:"list_id"`
	Archived    bool       `json:"archived" db:"archived"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// RefreshToken is stored hashed; the plain value only leaves the service once
type RefreshToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	TokenHash string    `json:"-" db:"token_hash"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// ActivationToken confirms ownership of an account's email address
type ActivationToken struct {
	Token     string    `json:"-" db:"token"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

func (t *ActivationToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
