package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
)

// Every operation takes the caller's Account explicitly.

// BoardService interface for board lifecycle operations
type BoardService interface {
	CreateBoard(ctx context.Context, req CreateBoardRequest, user *entities.Account) (*Result, error)
	UpdateBoard(ctx context.Context, boardID uuid.UUID, req UpdateBoardRequest, user *entities.Account) (*Result, error)
	CloseBoard(ctx context.Context, boardID uuid.UUID, user *entities.Account) (*Result, error)
	ArchiveBoard(ctx context.Context, boardID uuid.UUID, user *entities.Account) (*Result, error)
	ListOfBoard(ctx context.Context, user *entities.Account) ([]*entities.BoardView, error)
	BoardContent(ctx context.Context, boardID uuid.UUID, user *entities.Account) (*BoardContent, error)
}

// MemberService interface for board membership operations
type MemberService interface {
	InviteMember(ctx context.Context, boardID uuid.UUID, req InviteMemberRequest, user *entities.Account) (*Result, error)
	UpdateMember(ctx context.Context, boardID, targetID uuid.UUID, req UpdateMemberRequest, user *entities.Account) (*Result, error)
	RemoveMember(ctx context.Context, boardID, targetID uuid.UUID, user *entities.Account) (*Result, error)
	ListMembers(ctx context.Context, boardID uuid.UUID, user *entities.Account) ([]*entities.Membership, error)
	StarBoard(ctx context.Context, boardID uuid.UUID, starred bool, user *entities.Account) (*Result, error)
}

// ListService interface for task list operations
type ListService interface {
	CreateList(ctx context.Context, boardID uuid.UUID, req CreateListRequest, user *entities.Account) (*Result, error)
	EditList(ctx context.Context, listID int64, req EditListRequest, user *entities.Account) (*Result, error)
	MoveList(ctx context.Context, listID int64, req MoveListRequest, user *entities.Account) (*Result, error)
	ArchiveList(ctx context.Context, listID int64, user *entities.Account) (*Result, error)
	ListContent(ctx context.Context, listID int64, user *entities.Account) (*ListContent, error)
}

// CardService interface for card operations
type CardService interface {
	CreateCard(ctx context.Context, listID int64, req CreateCardRequest, user *entities.Account) (*Result, error)
	EditCard(ctx context.Context, cardID int64, req EditCardRequest, user *entities.Account) (*Result, error)
	MoveCard(ctx context.Context, cardID int64, req MoveCardRequest, user *entities.Account) (*Result, error)
	CompleteTask(ctx context.Context, cardID int64, user *entities.Account) (*Result, error)
	IncompleteTask(ctx context.Context, cardID int64, user *entities.Account) (*Result, error)
	ArchiveTask(ctx context.Context, cardID int64, user *entities.Account) (*Result, error)
	CardDetail(ctx context.Context, cardID int64, user *entities.Account) (*entities.Card, error)
}

// AuthService interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*Result, error)
	VerifyEmail(ctx context.Context, token string) (*Result, error)
	ResendVerification(ctx context.Context, email string) (*Result, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccessToken(tokenString string) (*Claims, error)
}

// AccountService interface for profile operations
type AccountService interface {
	Profile(ctx context.Context, user *entities.Account) (*entities.Account, error)
	UpdateProfile(ctx context.Context, req UpdateProfileRequest, user *entities.Account) (*Result, error)
	ChangePassword(ctx context.Context, req ChangePasswordRequest, user *entities.Account) (*Result, error)
}

// Board related types
type CreateBoardRequest struct {
	Title       string  `json:"title" validate:"required,max=64"`
	Description *string `json:"description" validate:"omitempty,max=512"`
}

type UpdateBoardRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=64"`
	Description *string `json:"description" validate:"omitempty,max=512"`
}

type BoardContent struct {
	Board *entities.BoardView  `json:"board"`
	Lists []*entities.TaskList `json:"lists"`
}

// Member related types
type InviteMemberRequest struct {
	GuestID uuid.UUID               `json:"guest_id" validate:"required"`
	Role    entities.MembershipRole `json:"role" validate:"required,oneof=ADMIN MEMBER VIEWER"`
}

type UpdateMemberRequest struct {
	Role entities.MembershipRole `json:"role" validate:"required,oneof=ADMIN MEMBER VIEWER"`
}

type StarBoardRequest struct {
	Starred bool `json:"starred"`
}

// List related types
type CreateListRequest struct {
	Title string `json:"title" validate:"required,max=64"`
}

type EditListRequest struct {
	Title      *string `json:"title" validate:"omitempty,max=64"`
	Color      *string `json:"color" validate:"omitempty,hexcolor"`
	ClearColor bool    `json:"clear_color"`
}

type MoveListRequest struct {
	AfterID *int64 `json:"after_id"`
}

type ListContent struct {
	List  *entities.TaskList `json:"list"`
	Cards []*entities.Card   `json:"cards"`
}

// Card related types
type CreateCardRequest struct {
	Title string `json:"title" validate:"required,max=128"`
}

type EditCardRequest struct {
	Title       *string    `json:"title" validate:"omitempty,max=128"`
	Description *string    `json:"description" validate:"omitempty,max=4096"`
	DueDate     *time.Time `json:"due_date"`
}

type MoveCardRequest struct {
	ListID  *int64 `json:"list_id"`
	AfterID *int64 `json:"after_id"`
}

// Auth related types
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Nickname string `json:"nickname" validate:"required,max=32"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type AuthResponse struct {
	AccessToken      string            `json:"access_token"`
	RefreshToken     string            `json:"refresh_token"`
	TokenType        string            `json:"token_type"`
	ExpiresIn        int64             `json:"expires_in"`
	RefreshExpiresIn int64             `json:"refresh_expires_in"`
	Account          *entities.Account `json:"account"`
}

type Claims struct {
	UserID uuid.UUID            `json:"user_id"`
	Email  string               `json:"email"`
	Role   entities.AccountRole `json:"role"`
}

// Account related types
type UpdateProfileRequest struct {
	Nickname *string `json:"nickname" validate:"omitempty,max=32"`
	Avatar   *string `json:"avatar" validate:"omitempty,max=512"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}
