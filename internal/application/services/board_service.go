package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

// BoardService handles board lifecycle operations
type BoardService struct {
	tx       ports.Transactor
	resolver *PathResolver
	boards   ports.BoardRepository
	members  ports.MembershipRepository
	lists    ports.TaskListRepository
	logger   *logger.Logger
}

// NewBoardService creates a new board service
func NewBoardService(tx ports.Transactor, resolver *PathResolver, boards ports.BoardRepository, members ports.MembershipRepository, lists ports.TaskListRepository, logger *logger.Logger) *BoardService {
	return &BoardService{
		tx:       tx,
		resolver: resolver,
		boards:   boards,
		members:  members,
		lists:    lists,
		logger:   logger.WithComponent("board_service"),
	}
}

// CreateBoard creates a board and makes the caller its admin
func (s *BoardService) CreateBoard(ctx context.Context, req ports.CreateBoardRequest, user *entities.Account) (*ports.Result, error) {
	title, err := validateTitle("Board title", req.Title, entities.MaxBoardTitleLength)
	if err != nil {
		return nil, err
	}
	description, err := validateOptionalText("Board description", req.Description, entities.MaxBoardDescriptionLength)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	board := &entities.Board{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Status:      entities.BoardStatusActive,
		CreatedBy:   user.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	membership := &entities.Membership{
		BoardID:   board.ID,
		UserID:    user.ID,
		Role:      entities.MembershipRoleAdmin,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := expectOneRow(s.boards.Insert(ctx, board)); err != nil {
			return err
		}
		return expectOneRow(s.members.Insert(ctx, membership))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Board created", "board_id", board.ID, "user_id", user.ID)

	return ports.Success("Board created").With("boardId", board.ID), nil
}

// UpdateBoard changes title and/or description
func (s *BoardService) UpdateBoard(ctx context.Context, boardID uuid.UUID, req ports.UpdateBoardRequest, user *entities.Account) (*ports.Result, error) {
	if req.Title == nil && req.Description == nil {
		return nil, entities.Validation("Nothing to update")
	}

	var upd ports.BoardUpdate
	if req.Title != nil {
		title, err := validateTitle("Board title", *req.Title, entities.MaxBoardTitleLength)
		if err != nil {
			return nil, err
		}
		upd.Title = &title
	}
	description, err := validateOptionalText("Board description", req.Description, entities.MaxBoardDescriptionLength)
	if err != nil {
		return nil, err
	}
	upd.Description = description

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		view, err := s.boardView(ctx, boardID, user)
		if err != nil {
			return err
		}
		if err := requireAdmin(view, true); err != nil {
			return err
		}
		return expectOneRow(s.boards.Update(ctx, boardID, upd))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Board updated", "board_id", boardID, "user_id", user.ID)

	return ports.Success("Board updated"), nil
}

// CloseBoard makes the board read-only
func (s *BoardService) CloseBoard(ctx context.Context, boardID uuid.UUID, user *entities.Account) (*ports.Result, error) {
	return s.transition(ctx, boardID, entities.BoardStatusClosed, user, "Board closed")
}

// ArchiveBoard hides the board and everything under it
func (s *BoardService) ArchiveBoard(ctx context.Context, boardID uuid.UUID, user *entities.Account) (*ports.Result, error) {
	return s.transition(ctx, boardID, entities.BoardStatusArchived, user, "Board archived")
}

func (s *BoardService) transition(ctx context.Context, boardID uuid.UUID, next entities.BoardStatus, user *entities.Account, message string) (*ports.Result, error) {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		view, err := s.boardView(ctx, boardID, user)
		if err != nil {
			return err
		}
		if err := requireAdmin(view, false); err != nil {
			return err
		}
		if !view.Status.CanTransitionTo(next) {
			return entities.ErrBoardReadOnly
		}
		return expectOneRow(s.boards.Update(ctx, boardID, ports.BoardUpdate{Status: &next}))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Board status changed", "board_id", boardID, "status", next, "user_id", user.ID)

	return ports.Success(message), nil
}

// ListOfBoard returns the caller's boards, closed ones included
func (s *BoardService) ListOfBoard(ctx context.Context, user *entities.Account) ([]*entities.BoardView, error) {
	views, err := s.boards.ListViews(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	return views, nil
}

// BoardContent returns the caller's view of a board with its lists in display order
func (s *BoardService) BoardContent(ctx context.Context, boardID uuid.UUID, user *entities.Account) (*ports.BoardContent, error) {
	view, err := s.boardView(ctx, boardID, user)
	if err != nil {
		return nil, err
	}

	archived := false
	lists, err := s.lists.Search(ctx, ports.TaskListFilter{BoardID: &boardID, Archived: &archived})
	if err != nil {
		return nil, fmt.Errorf("failed to load lists: %w", err)
	}

	return &ports.BoardContent{Board: view, Lists: lists}, nil
}

func (s *BoardService) boardView(ctx context.Context, boardID uuid.UUID, user *entities.Account) (*entities.BoardView, error) {
	path, err := s.resolver.PathOfBoard(ctx, user.ID, boardID)
	if err != nil {
		return nil, err
	}
	return requireView(path, entities.ErrBoardNotFound)
}
