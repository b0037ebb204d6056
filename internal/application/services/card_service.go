package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/domain/ordering"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

// CardService handles card operations
type CardService struct {
	tx       ports.Transactor
	resolver *PathResolver
	cards    ports.CardRepository
	order    ordering.Engine
	logger   *logger.Logger
}

// NewCardService creates a new card service
func NewCardService(tx ports.Transactor, resolver *PathResolver, cards ports.CardRepository, logger *logger.Logger) *CardService {
	return &CardService{
		tx:       tx,
		resolver: resolver,
		cards:    cards,
		order:    ordering.New(ordering.CardInterval),
		logger:   logger.WithComponent("card_service"),
	}
}

// CreateCard appends a card to the list
func (s *CardService) CreateCard(ctx context.Context, listID int64, req ports.CreateCardRequest, user *entities.Account) (*ports.Result, error) {
	title, err := validateTitle("Card title", req.Title, entities.MaxCardTitleLength)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	card := &entities.Card{
		Title:     title,
		ListID:    listID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		path, err := s.resolver.PathOfList(ctx, user.ID, listID)
		if err != nil {
			return err
		}
		view, err := requireView(path, entities.ErrListNotFound)
		if err != nil {
			return err
		}
		if err := requireEditor(view); err != nil {
			return err
		}

		siblings, err := s.siblings(ctx, listID)
		if err != nil {
			return err
		}
		card.Position = s.order.Append(siblings)

		return expectOneRow(s.cards.Insert(ctx, card))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Card created", "card_id", card.ID, "list_id", listID, "user_id", user.ID)

	return ports.Success("Card created").
		With("cardId", card.ID).
		With("position", card.Position), nil
}

// EditCard changes title, description and due date
func (s *CardService) EditCard(ctx context.Context, cardID int64, req ports.EditCardRequest, user *entities.Account) (*ports.Result, error) {
	if req.Title == nil && req.Description == nil && req.DueDate == nil {
		return nil, entities.Validation("Nothing to update")
	}

	upd := ports.CardUpdate{DueDate: req.DueDate}
	if req.Title != nil {
		title, err := validateTitle("Card title", *req.Title, entities.MaxCardTitleLength)
		if err != nil {
			return nil, err
		}
		upd.Title = &title
	}
	description, err := validateOptionalText("Card description", req.Description, entities.MaxCardDescriptionLength)
	if err != nil {
		return nil, err
	}
	upd.Description = description

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.editableCard(ctx, cardID, user); err != nil {
			return err
		}
		return expectOneRow(s.cards.Update(ctx, cardID, upd))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Card updated", "card_id", cardID, "user_id", user.ID)

	return ports.Success("Card updated"), nil
}

// MoveCard places the card after AfterID, or at the head of ListID when only
// the list is given. The destination must be on the card's board.
func (s *CardService) MoveCard(ctx context.Context, cardID int64, req ports.MoveCardRequest, user *entities.Account) (*ports.Result, error) {
	if req.ListID == nil && req.AfterID == nil {
		return nil, entities.Validation("Either listId or afterId must be set")
	}
	if req.AfterID != nil && *req.AfterID == cardID {
		return nil, entities.Validation("A card cannot be moved after itself")
	}

	var (
		position float64
		listID   int64
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		path, err := s.editablePath(ctx, cardID, user)
		if err != nil {
			return err
		}

		if req.AfterID != nil {
			anchor, err := s.resolver.PathOfCard(ctx, user.ID, *req.AfterID)
			if err != nil {
				return err
			}
			if anchor.Card == nil {
				return entities.ErrDestinationMissing
			}
			if anchor.Board.ID != path.Board.ID {
				return entities.ErrCrossBoardMove
			}
			if req.ListID != nil && *req.ListID != anchor.Card.ListID {
				return entities.Validation("afterId is not in the destination list")
			}
			listID = anchor.Card.ListID

			siblings, err := s.siblings(ctx, listID)
			if err != nil {
				return err
			}
			position, err = s.order.After(ordering.Without(siblings, cardID), anchor.Card.ID)
			if errors.Is(err, ordering.ErrAnchorNotFound) {
				return entities.ErrDestinationMissing
			}
		} else {
			dest, err := s.resolver.PathOfList(ctx, user.ID, *req.ListID)
			if err != nil {
				return err
			}
			if dest.List == nil {
				return entities.ErrDestinationMissing
			}
			if dest.Board.ID != path.Board.ID {
				return entities.ErrCrossBoardMove
			}
			listID = dest.List.ID

			siblings, err := s.siblings(ctx, listID)
			if err != nil {
				return err
			}
			position = s.order.Head(ordering.Without(siblings, cardID))
		}

		return expectOneRow(s.cards.Update(ctx, cardID, ports.CardUpdate{Position: &position, ListID: &listID}))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Card moved", "card_id", cardID, "list_id", listID, "position", position, "user_id", user.ID)

	return ports.Success("Card moved").
		With("newPosition", position).
		With("newListId", listID), nil
}

// CompleteTask marks the card finished
func (s *CardService) CompleteTask(ctx context.Context, cardID int64, user *entities.Account) (*ports.Result, error) {
	return s.setFinished(ctx, cardID, true, user)
}

// IncompleteTask marks the card not finished
func (s *CardService) IncompleteTask(ctx context.Context, cardID int64, user *entities.Account) (*ports.Result, error) {
	return s.setFinished(ctx, cardID, false, user)
}

func (s *CardService) setFinished(ctx context.Context, cardID int64, finished bool, user *entities.Account) (*ports.Result, error) {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		card, err := s.editableCard(ctx, cardID, user)
		if err != nil {
			return err
		}
		if card.Finished == finished {
			if finished {
				return entities.Invariant("Task is already completed")
			}
			return entities.Invariant("Task is not completed")
		}
		return expectOneRow(s.cards.Update(ctx, cardID, ports.CardUpdate{Finished: &finished}))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Card finished flag changed", "card_id", cardID, "finished", finished, "user_id", user.ID)

	return ports.Success("Task updated").With("finished", finished), nil
}

// ArchiveTask hides the card
func (s *CardService) ArchiveTask(ctx context.Context, cardID int64, user *entities.Account) (*ports.Result, error) {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.editableCard(ctx, cardID, user); err != nil {
			return err
		}
		archived := true
		return expectOneRow(s.cards.Update(ctx, cardID, ports.CardUpdate{Archived: &archived}))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Card archived", "card_id", cardID, "user_id", user.ID)

	return ports.Success("Task archived"), nil
}

// CardDetail returns a card the caller can see
func (s *CardService) CardDetail(ctx context.Context, cardID int64, user *entities.Account) (*entities.Card, error) {
	path, err := s.resolver.PathOfCard(ctx, user.ID, cardID)
	if err != nil {
		return nil, err
	}
	if _, err := requireView(path, entities.ErrCardNotFound); err != nil {
		return nil, err
	}
	return path.Card, nil
}

func (s *CardService) editablePath(ctx context.Context, cardID int64, user *entities.Account) (entities.PathResult, error) {
	path, err := s.resolver.PathOfCard(ctx, user.ID, cardID)
	if err != nil {
		return entities.PathResult{}, err
	}
	view, err := requireView(path, entities.ErrCardNotFound)
	if err != nil {
		return entities.PathResult{}, err
	}
	if err := requireEditor(view); err != nil {
		return entities.PathResult{}, err
	}
	return path, nil
}

func (s *CardService) editableCard(ctx context.Context, cardID int64, user *entities.Account) (*entities.Card, error) {
	path, err := s.editablePath(ctx, cardID, user)
	if err != nil {
		return nil, err
	}
	return path.Card, nil
}

func (s *CardService) siblings(ctx context.Context, listID int64) ([]ordering.Item, error) {
	archived := false
	cards, err := s.cards.Search(ctx, ports.CardFilter{ListID: &listID, Archived: &archived})
	if err != nil {
		return nil, fmt.Errorf("load sibling cards: %w", err)
	}
	items := make([]ordering.Item, 0, len(cards))
	for _, c := range cards {
		items = append(items, ordering.Item{ID: c.ID, Position: c.Position})
	}
	return items, nil
}
