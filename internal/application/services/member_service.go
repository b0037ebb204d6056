package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

// MemberService manages board memberships. Every board keeps at least one
// active admin.
type MemberService struct {
	tx       ports.Transactor
	resolver *PathResolver
	accounts ports.AccountRepository
	members  ports.MembershipRepository
	logger   *logger.Logger
}

// NewMemberService creates a new member service
func NewMemberService(tx ports.Transactor, resolver *PathResolver, accounts ports.AccountRepository, members ports.MembershipRepository, logger *logger.Logger) *MemberService {
	return &MemberService{
		tx:       tx,
		resolver: resolver,
		accounts: accounts,
		members:  members,
		logger:   logger.WithComponent("member_service"),
	}
}

// InviteMember adds the guest to the board, reactivating a removed membership
func (s *MemberService) InviteMember(ctx context.Context, boardID uuid.UUID, req ports.InviteMemberRequest, user *entities.Account) (*ports.Result, error) {
	if !req.Role.IsValid() {
		return nil, entities.Validation("Unknown role %q", req.Role)
	}

	var reactivated bool
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		guest, err := s.accounts.GetByID(ctx, req.GuestID)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return entities.ErrAccountNotFound
			}
			return fmt.Errorf("load guest: %w", err)
		}
		if guest.Archived {
			return entities.ErrAccountNotFound
		}

		view, err := s.boardView(ctx, boardID, user)
		if err != nil {
			return err
		}
		if err := requireAdmin(view, true); err != nil {
			return err
		}

		existing, err := s.members.Get(ctx, boardID, guest.ID)
		switch {
		case errors.Is(err, ports.ErrNotFound):
			now := time.Now()
			return expectOneRow(s.members.Insert(ctx, &entities.Membership{
				BoardID:   boardID,
				UserID:    guest.ID,
				Role:      req.Role,
				Active:    true,
				CreatedAt: now,
				UpdatedAt: now,
			}))
		case err != nil:
			return fmt.Errorf("load membership: %w", err)
		case existing.Active:
			return entities.ErrAlreadyMember
		}

		reactivated = true
		active := true
		role := req.Role
		return expectOneRow(s.members.Update(ctx, boardID, guest.ID, ports.MembershipUpdate{Role: &role, Active: &active}))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Member invited", "board_id", boardID, "guest_id", req.GuestID, "role", req.Role, "reactivated", reactivated, "user_id", user.ID)

	return ports.Success("Member invited"), nil
}

// UpdateMember changes an active member's role
func (s *MemberService) UpdateMember(ctx context.Context, boardID, targetID uuid.UUID, req ports.UpdateMemberRequest, user *entities.Account) (*ports.Result, error) {
	if !req.Role.IsValid() {
		return nil, entities.Validation("Unknown role %q", req.Role)
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		view, err := s.boardView(ctx, boardID, user)
		if err != nil {
			return err
		}
		if err := requireAdmin(view, true); err != nil {
			return err
		}

		target, err := s.activeMember(ctx, boardID, targetID)
		if err != nil {
			return err
		}
		if target.Role == req.Role {
			return entities.ErrNoChange
		}
		if target.Role == entities.MembershipRoleAdmin {
			if err := s.assertOtherAdmin(ctx, boardID, targetID); err != nil {
				return err
			}
		}

		role := req.Role
		return expectOneRow(s.members.Update(ctx, boardID, targetID, ports.MembershipUpdate{Role: &role}))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Member role updated", "board_id", boardID, "target_id", targetID, "role", req.Role, "user_id", user.ID)

	return ports.Success("Member updated"), nil
}

// RemoveMember deactivates a membership. Members may always remove themselves.
func (s *MemberService) RemoveMember(ctx context.Context, boardID, targetID uuid.UUID, user *entities.Account) (*ports.Result, error) {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		view, err := s.boardView(ctx, boardID, user)
		if err != nil {
			return err
		}
		if view.Closed {
			return entities.ErrBoardReadOnly
		}
		if targetID != user.ID && !view.IsAdmin() {
			return entities.ErrNotBoardAdmin
		}

		target, err := s.activeMember(ctx, boardID, targetID)
		if err != nil {
			return err
		}
		if target.Role == entities.MembershipRoleAdmin {
			if err := s.assertOtherAdmin(ctx, boardID, targetID); err != nil {
				return err
			}
		}

		active := false
		return expectOneRow(s.members.Update(ctx, boardID, targetID, ports.MembershipUpdate{Active: &active}))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Member removed", "board_id", boardID, "target_id", targetID, "user_id", user.ID)

	return ports.Success("Member removed"), nil
}

// ListMembers returns the active memberships of a board the caller belongs to
func (s *MemberService) ListMembers(ctx context.Context, boardID uuid.UUID, user *entities.Account) ([]*entities.Membership, error) {
	if _, err := s.boardView(ctx, boardID, user); err != nil {
		return nil, err
	}

	active := true
	members, err := s.members.Search(ctx, ports.MembershipFilter{BoardID: &boardID, Active: &active})
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// StarBoard sets the caller's starred flag. Allowed on closed boards.
func (s *MemberService) StarBoard(ctx context.Context, boardID uuid.UUID, starred bool, user *entities.Account) (*ports.Result, error) {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		view, err := s.boardView(ctx, boardID, user)
		if err != nil {
			return err
		}
		if view.Starred == starred {
			return entities.ErrNoChange
		}
		return expectOneRow(s.members.Update(ctx, boardID, user.ID, ports.MembershipUpdate{Starred: &starred}))
	})
	if err != nil {
		return nil, err
	}

	return ports.Success("Board star updated").With("starred", starred), nil
}

func (s *MemberService) boardView(ctx context.Context, boardID uuid.UUID, user *entities.Account) (*entities.BoardView, error) {
	path, err := s.resolver.PathOfBoard(ctx, user.ID, boardID)
	if err != nil {
		return nil, err
	}
	return requireView(path, entities.ErrBoardNotFound)
}

func (s *MemberService) activeMember(ctx context.Context, boardID, userID uuid.UUID) (*entities.Membership, error) {
	m, err := s.members.Get(ctx, boardID, userID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, entities.ErrMemberNotFound
		}
		return nil, fmt.Errorf("load membership: %w", err)
	}
	if !m.Active {
		return nil, entities.ErrMemberNotFound
	}
	return m, nil
}

// assertOtherAdmin fails unless an active admin other than userID remains.
func (s *MemberService) assertOtherAdmin(ctx context.Context, boardID, userID uuid.UUID) error {
	role := entities.MembershipRoleAdmin
	active := true
	admins, err := s.members.Search(ctx, ports.MembershipFilter{BoardID: &boardID, Role: &role, Active: &active})
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	for _, a := range admins {
		if a.UserID != userID {
			return nil
		}
	}
	return entities.ErrLastAdmin
}
