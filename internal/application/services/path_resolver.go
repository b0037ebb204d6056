package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/ports"
)

// PathResolver walks card -> list -> board -> membership for one user. Archived
// boards, lists and cards and inactive memberships do not resolve. A broken link
// leaves that field and every field depending on it nil; only store failures
// are returned as errors.
type PathResolver struct {
	boards  ports.BoardRepository
	members ports.MembershipRepository
	lists   ports.TaskListRepository
	cards   ports.CardRepository
}

func NewPathResolver(boards ports.BoardRepository, members ports.MembershipRepository, lists ports.TaskListRepository, cards ports.CardRepository) *PathResolver {
	return &PathResolver{
		boards:  boards,
		members: members,
		lists:   lists,
		cards:   cards,
	}
}

func (r *PathResolver) PathOfBoard(ctx context.Context, userID, boardID uuid.UUID) (entities.PathResult, error) {
	board, err := r.boards.GetByID(ctx, boardID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return entities.PathResult{}, nil
		}
		return entities.PathResult{}, fmt.Errorf("resolve board: %w", err)
	}
	if board.IsArchived() {
		return entities.PathResult{}, nil
	}

	path := entities.PathResult{Board: board}

	membership, err := r.members.Get(ctx, boardID, userID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return path, nil
		}
		return entities.PathResult{}, fmt.Errorf("resolve membership: %w", err)
	}
	if membership.Active {
		path.Membership = membership
	}

	return path, nil
}

func (r *PathResolver) PathOfList(ctx context.Context, userID uuid.UUID, listID int64) (entities.PathResult, error) {
	list, err := r.lists.GetByID(ctx, listID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return entities.PathResult{}, nil
		}
		return entities.PathResult{}, fmt.Errorf("resolve list: %w", err)
	}
	if list.Archived {
		return entities.PathResult{}, nil
	}

	path, err := r.PathOfBoard(ctx, userID, list.BoardID)
	if err != nil || path.Board == nil {
		return entities.PathResult{}, err
	}
	path.List = list

	return path, nil
}

func (r *PathResolver) PathOfCard(ctx context.Context, userID uuid.UUID, cardID int64) (entities.PathResult, error) {
	card, err := r.cards.GetByID(ctx, cardID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return entities.PathResult{}, nil
		}
		return entities.PathResult{}, fmt.Errorf("resolve card: %w", err)
	}
	if card.Archived {
		return entities.PathResult{}, nil
	}

	path, err := r.PathOfList(ctx, userID, card.ListID)
	if err != nil || path.List == nil {
		return entities.PathResult{}, err
	}
	path.Card = card

	return path, nil
}
