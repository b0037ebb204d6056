package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/database"
	"github.com/taskboard/core/internal/ports"
)

const accountColumns = `id, email, password_hash, nickname, avatar, verified, role, archived, created_at, updated_at`

// AccountRepository implements ports.AccountRepository on Postgres
type AccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Insert(ctx context.Context, a *entities.Account) (int64, error) {
	query := `
		INSERT INTO accounts (id, email, password_hash, nickname, avatar, verified, role, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	rows, err := rowsAffected(r.db.Conn(ctx).ExecContext(ctx, query,
		a.ID, a.Email, a.PasswordHash, a.Nickname, a.Avatar,
		a.Verified, a.Role, a.Archived, a.CreatedAt, a.UpdatedAt,
	))
	if err != nil {
		return 0, fmt.Errorf("insert account: %w", err)
	}
	return rows, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	var a entities.Account
	err := r.db.Conn(ctx).GetContext(ctx, &a, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "get account by id")
	}
	return &a, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entities.Account, error) {
	var a entities.Account
	err := r.db.Conn(ctx).GetContext(ctx, &a, `SELECT `+accountColumns+` FROM accounts WHERE lower(email) = lower($1)`, email)
	if err != nil {
		return nil, notFound(err, "get account by email")
	}
	return &a, nil
}

func (r *AccountRepository) Update(ctx context.Context, id uuid.UUID, upd ports.AccountUpdate) (int64, error) {
	c := newClauses()
	setIf(c, "nickname", upd.Nickname)
	setIf(c, "avatar", upd.Avatar)
	setIf(c, "password_hash", upd.PasswordHash)
	setIf(c, "verified", upd.Verified)
	setIf(c, "archived", upd.Archived)
	if !c.hasSets() {
		return 0, errEmptyUpdate
	}
	c.where("id", id)

	query := fmt.Sprintf(`UPDATE accounts %s %s`, c.setClause(), c.whereClause())
	rows, err := rowsAffected(r.db.Conn(ctx).ExecContext(ctx, query, c.args...))
	if err != nil {
		return 0, fmt.Errorf("update account: %w", err)
	}
	return rows, nil
}
