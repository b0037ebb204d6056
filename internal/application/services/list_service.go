package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/domain/ordering"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

// ListService handles task list operations
type ListService struct {
	tx       ports.Transactor
	resolver *PathResolver
	lists    ports.TaskListRepository
	cards    ports.CardRepository
	order    ordering.Engine
	logger   *logger.Logger
}

// NewListService creates a new list service
func NewListService(tx ports.Transactor, resolver *PathResolver, lists ports.TaskListRepository, cards ports.CardRepository, logger *logger.Logger) *ListService {
	return &ListService{
		tx:       tx,
		resolver: resolver,
		lists:    lists,
		cards:    cards,
		order:    ordering.New(ordering.ListInterval),
		logger:   logger.WithComponent("list_service"),
	}
}

// CreateList appends a list to the board
func (s *ListService) CreateList(ctx context.Context, boardID uuid.UUID, req ports.CreateListRequest, user *entities.Account) (*ports.Result, error) {
	title, err := validateTitle("List title", req.Title, entities.MaxListTitleLength)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	list := &entities.TaskList{
		Title:     title,
		BoardID:   boardID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		path, err := s.resolver.PathOfBoard(ctx, user.ID, boardID)
		if err != nil {
			return err
		}
		view, err := requireView(path, entities.ErrBoardNotFound)
		if err != nil {
			return err
		}
		if err := requireEditor(view); err != nil {
			return err
		}

		siblings, err := s.siblings(ctx, boardID)
		if err != nil {
			return err
		}
		list.Position = s.order.Append(siblings)

		return expectOneRow(s.lists.Insert(ctx, list))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("List created", "list_id", list.ID, "board_id", boardID, "user_id", user.ID)

	return ports.Success("List created").
		With("listId", list.ID).
		With("position", list.Position), nil
}

// EditList changes title and color
func (s *ListService) EditList(ctx context.Context, listID int64, req ports.EditListRequest, user *entities.Account) (*ports.Result, error) {
	if req.Title == nil && req.Color == nil && !req.ClearColor {
		return nil, entities.Validation("Nothing to update")
	}
	if req.Color != nil && req.ClearColor {
		return nil, entities.Validation("Color and clearColor cannot be set together")
	}

	upd := ports.TaskListUpdate{ClearColor: req.ClearColor}
	if req.Title != nil {
		title, err := validateTitle("List title", *req.Title, entities.MaxListTitleLength)
		if err != nil {
			return nil, err
		}
		upd.Title = &title
	}
	if req.Color != nil {
		if err := validateColor(*req.Color); err != nil {
			return nil, err
		}
		upd.Color = req.Color
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.editableList(ctx, listID, user); err != nil {
			return err
		}
		return expectOneRow(s.lists.Update(ctx, listID, upd))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("List updated", "list_id", listID, "user_id", user.ID)

	return ports.Success("List updated"), nil
}

// MoveList places the list after afterID, or first when afterID is nil
func (s *ListService) MoveList(ctx context.Context, listID int64, req ports.MoveListRequest, user *entities.Account) (*ports.Result, error) {
	if req.AfterID != nil && *req.AfterID == listID {
		return nil, entities.Validation("A list cannot be moved after itself")
	}

	var position float64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		list, err := s.editableList(ctx, listID, user)
		if err != nil {
			return err
		}

		siblings, err := s.siblings(ctx, list.BoardID)
		if err != nil {
			return err
		}
		siblings = ordering.Without(siblings, list.ID)

		if req.AfterID == nil {
			position = s.order.Head(siblings)
		} else {
			position, err = s.order.After(siblings, *req.AfterID)
			if errors.Is(err, ordering.ErrAnchorNotFound) {
				return entities.ErrDestinationMissing
			}
		}

		return expectOneRow(s.lists.Update(ctx, listID, ports.TaskListUpdate{Position: &position}))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("List moved", "list_id", listID, "position", position, "user_id", user.ID)

	return ports.Success("List moved").With("newPosition", position), nil
}

// ArchiveList hides the list and, transitively, its cards
func (s *ListService) ArchiveList(ctx context.Context, listID int64, user *entities.Account) (*ports.Result, error) {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.editableList(ctx, listID, user); err != nil {
			return err
		}
		archived := true
		return expectOneRow(s.lists.Update(ctx, listID, ports.TaskListUpdate{Archived: &archived}))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("List archived", "list_id", listID, "user_id", user.ID)

	return ports.Success("List archived"), nil
}

// ListContent returns a list with its cards in display order
func (s *ListService) ListContent(ctx context.Context, listID int64, user *entities.Account) (*ports.ListContent, error) {
	path, err := s.resolver.PathOfList(ctx, user.ID, listID)
	if err != nil {
		return nil, err
	}
	if _, err := requireView(path, entities.ErrListNotFound); err != nil {
		return nil, err
	}

	archived := false
	cards, err := s.cards.Search(ctx, ports.CardFilter{ListID: &listID, Archived: &archived})
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}

	return &ports.ListContent{List: path.List, Cards: cards}, nil
}

func (s *ListService) editableList(ctx context.Context, listID int64, user *entities.Account) (*entities.TaskList, error) {
	path, err := s.resolver.PathOfList(ctx, user.ID, listID)
	if err != nil {
		return nil, err
	}
	view, err := requireView(path, entities.ErrListNotFound)
	if err != nil {
		return nil, err
	}
	if err := requireEditor(view); err != nil {
		return nil, err
	}
	return path.List, nil
}

func (s *ListService) siblings(ctx context.Context, boardID uuid.UUID) ([]ordering.Item, error) {
	archived := false
	lists, err := s.lists.Search(ctx, ports.TaskListFilter{BoardID: &boardID, Archived: &archived})
	if err != nil {
		return nil, fmt.Errorf("load sibling lists: %w", err)
	}
	items := make([]ordering.Item, 0, len(lists))
	for _, l := range lists {
		items = append(items, ordering.Item{ID: l.ID, Position: l.Position})
	}
	return items, nil
}
