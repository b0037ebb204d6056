package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/server"
	"github.com/taskboard/core/internal/ports"
)

// NewUserCommand creates the user management command
func NewUserCommand() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "User management commands",
	}

	createUserCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a verified account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var in newUser
			in.Email, _ = cmd.Flags().GetString("email")
			in.Password, _ = cmd.Flags().GetString("password")
			in.Nickname, _ = cmd.Flags().GetString("nickname")
			role, _ := cmd.Flags().GetString("role")
			in.Role = entities.AccountRole(strings.ToUpper(role))

			e, err := setup()
			if err != nil {
				return err
			}
			defer e.close()

			app := server.NewApp(e.cfg, e.db, nil, e.logger)
			account, err := createUser(cmd.Context(), app.Accounts, app.Auth, in)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "User created successfully:")
			fmt.Fprintf(out, "  ID: %s\n", account.ID)
			fmt.Fprintf(out, "  Email: %s\n", account.Email)
			fmt.Fprintf(out, "  Nickname: %s\n", account.Nickname)
			fmt.Fprintf(out, "  Role: %s\n", account.Role)
			return nil
		},
	}

	createUserCmd.Flags().String("email", "", "Account email (required)")
	createUserCmd.Flags().String("password", "", "Account password (required)")
	createUserCmd.Flags().String("nickname", "", "Display name, defaults to the email's local part")
	createUserCmd.Flags().String("role", string(entities.AccountRoleUser), "Account role (admin, user)")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")

	userCmd.AddCommand(createUserCmd)
	return userCmd
}

type newUser struct {
	Email    string               `validate:"required,email,max=254"`
	Password string               `validate:"required"`
	Nickname string               `validate:"required,max=32"`
	Role     entities.AccountRole `validate:"required,oneof=ADMIN USER"`
}

type passwordHasher interface {
	HashPassword(password string) (string, error)
}

// createUser inserts an already verified account, bypassing the activation mail.
func createUser(ctx context.Context, accounts ports.AccountRepository, hasher passwordHasher, in newUser) (*entities.Account, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Nickname = strings.TrimSpace(in.Nickname)
	if in.Nickname == "" {
		in.Nickname, _, _ = strings.Cut(in.Email, "@")
	}

	if err := validator.New().Struct(in); err != nil {
		return nil, fmt.Errorf("invalid user: %w", err)
	}

	if _, err := accounts.GetByEmail(ctx, in.Email); err == nil {
		return nil, entities.ErrEmailTaken
	} else if !errors.Is(err, ports.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hash, err := hasher.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &entities.Account{
		ID:           uuid.New(),
		Email:        in.Email,
		PasswordHash: hash,
		Nickname:     in.Nickname,
		Verified:     true,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := accounts.Insert(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return account, nil
}
