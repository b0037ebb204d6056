package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/database"
	"github.com/taskboard/core/internal/ports"
)

// AuthRepository implements ports.AuthRepository on Postgres
type AuthRepository struct {
	db *database.DB
}

// NewAuthRepository creates a new auth repository
func NewAuthRepository(db *database.DB) *AuthRepository {
	return &AuthRepository{db: db}
}

func (r *AuthRepository) CreateRefreshToken(ctx context.Context, t *entities.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.CreatedAt); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (r *AuthRepository) GetRefreshToken(ctx context.Context, tokenHash string) (*entities.RefreshToken, error) {
	query := `SELECT id, user_id, token_hash, expires_at, created_at FROM refresh_tokens WHERE token_hash = $1`

	var t entities.RefreshToken
	if err := r.db.Conn(ctx).GetContext(ctx, &t, query, tokenHash); err != nil {
		return nil, notFound(err, "get refresh token")
	}
	return &t, nil
}

func (r *AuthRepository) DeleteRefreshToken(ctx context.Context, tokenHash string) error {
	rows, err := rowsAffected(r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token_hash = $1`, tokenHash))
	if err != nil {
		return fmt.Errorf("delete refresh token: %w", err)
	}
	if rows == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *AuthRepository) DeleteUserRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete user refresh tokens: %w", err)
	}
	return nil
}

func (r *AuthRepository) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	rows, err := rowsAffected(r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, now))
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return rows, nil
}

func (r *AuthRepository) CreateActivationToken(ctx context.Context, t *entities.ActivationToken) error {
	query := `
		INSERT INTO activation_tokens (token, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, t.Token, t.UserID, t.ExpiresAt, t.CreatedAt); err != nil {
		return fmt.Errorf("create activation token: %w", err)
	}
	return nil
}

func (r *AuthRepository) GetActivationToken(ctx context.Context, token string) (*entities.ActivationToken, error) {
	query := `SELECT token, user_id, expires_at, created_at FROM activation_tokens WHERE token = $1`

	var t entities.ActivationToken
	if err := r.db.Conn(ctx).GetContext(ctx, &t, query, token); err != nil {
		return nil, notFound(err, "get activation token")
	}
	return &t, nil
}

// GetActivationTokenByUser returns the newest token issued to userID
func (r *AuthRepository) GetActivationTokenByUser(ctx context.Context, userID uuid.UUID) (*entities.ActivationToken, error) {
	query := `
		SELECT token, user_id, expires_at, created_at FROM activation_tokens
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var t entities.ActivationToken
	if err := r.db.Conn(ctx).GetContext(ctx, &t, query, userID); err != nil {
		return nil, notFound(err, "get activation token by user")
	}
	return &t, nil
}

func (r *AuthRepository) DeleteActivationToken(ctx context.Context, token string) error {
	if _, err := r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM activation_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete activation token: %w", err)
	}
	return nil
}

func (r *AuthRepository) DeleteExpiredActivationTokens(ctx context.Context, now time.Time) (int64, error) {
	rows, err := rowsAffected(r.db.Conn(ctx).ExecContext(ctx, `DELETE FROM activation_tokens WHERE expires_at < $1`, now))
	if err != nil {
		return 0, fmt.Errorf("delete expired activation tokens: %w", err)
	}
	return rows, nil
}
