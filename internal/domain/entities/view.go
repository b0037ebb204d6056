package entities

import "github.com/google/uuid"

// BoardView is the read-only projection of a Board joined with one user's Membership.
type BoardView struct {
	BoardID     uuid.UUID      `json:"board_id"`
	Title       string         `json:"title"`
	Description *string        `json:"description,omitempty"`
	Status      BoardStatus    `json:"status"`
	Closed      bool           `json:"closed"`
	UserID      uuid.UUID      `json:"user_id"`
	Role        MembershipRole `json:"role"`
	Starred     bool           `json:"starred"`
}

// NewBoardView projects board and membership. Either being nil yields nil.
func NewBoardView(board *Board, membership *Membership) *BoardView {
	if board == nil || membership == nil {
		return nil
	}
	return &BoardView{
		BoardID:     board.ID,
		Title:       board.Title,
		Description: board.Description,
		Status:      board.Status,
		Closed:      board.IsClosed(),
		UserID:      membership.UserID,
		Role:        membership.Role,
		Starred:     membership.Starred,
	}
}

func (v *BoardView) IsAdmin() bool {
	return v.Role == MembershipRoleAdmin
}

// PathResult is the ownership chain of a board, list or card as seen by one user.
// A nil field means that link did not resolve.
type PathResult struct {
	Board      *Board
	Membership *Membership
	List       *TaskList
	Card       *Card
}

// View derives the BoardView from the resolved board and membership.
func (p PathResult) View() *BoardView {
	return NewBoardView(p.Board, p.Membership)
}
