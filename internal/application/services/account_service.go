package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

// AccountService handles the caller's own profile
type AccountService struct {
	accounts ports.AccountRepository
	authRepo ports.AuthRepository
	auth     *AuthService
	logger   *logger.Logger
}

// NewAccountService creates a new account service
func NewAccountService(accounts ports.AccountRepository, authRepo ports.AuthRepository, auth *AuthService, logger *logger.Logger) *AccountService {
	return &AccountService{
		accounts: accounts,
		authRepo: authRepo,
		auth:     auth,
		logger:   logger.WithComponent("account_service"),
	}
}

// Profile returns the caller's current account record
func (s *AccountService) Profile(ctx context.Context, user *entities.Account) (*entities.Account, error) {
	account, err := s.accounts.GetByID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, entities.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

// UpdateProfile changes nickname and/or avatar
func (s *AccountService) UpdateProfile(ctx context.Context, req ports.UpdateProfileRequest, user *entities.Account) (*ports.Result, error) {
	if req.Nickname == nil && req.Avatar == nil {
		return nil, entities.Validation("Nothing to update")
	}

	var upd ports.AccountUpdate
	nickname, err := validateOptionalText("Nickname", req.Nickname, entities.MaxNicknameLength)
	if err != nil {
		return nil, err
	}
	upd.Nickname = nickname
	avatar, err := validateOptionalText("Avatar", req.Avatar, entities.MaxAvatarLength)
	if err != nil {
		return nil, err
	}
	upd.Avatar = avatar

	if err := expectOneRow(s.accounts.Update(ctx, user.ID, upd)); err != nil {
		return nil, err
	}

	s.logger.LogUserAction(user.ID.String(), "update_profile", nil)

	return ports.Success("Profile updated"), nil
}

// ChangePassword replaces the password and signs out every session
func (s *AccountService) ChangePassword(ctx context.Context, req ports.ChangePasswordRequest, user *entities.Account) (*ports.Result, error) {
	account, err := s.Profile(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.OldPassword)); err != nil {
		return nil, entities.ErrBadCredentials
	}
	if req.OldPassword == req.NewPassword {
		return nil, entities.ErrNoChange
	}

	hash, err := s.auth.HashPassword(req.NewPassword)
	if err != nil {
		return nil, err
	}
	if err := expectOneRow(s.accounts.Update(ctx, user.ID, ports.AccountUpdate{PasswordHash: &hash})); err != nil {
		return nil, err
	}
	if err := s.authRepo.DeleteUserRefreshTokens(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to revoke sessions: %w", err)
	}

	s.logger.LogUserAction(user.ID.String(), "change_password", nil)

	return ports.Success("Password changed"), nil
}
