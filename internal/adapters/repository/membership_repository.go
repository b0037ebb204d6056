package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/database"
	"github.com/taskboard/core/internal/ports"
)

const membershipColumns = `board_id, user_id, role, starred, active, created_at, updated_at`

// MembershipRepository implements ports.MembershipRepository on Postgres
type MembershipRepository struct {
	db *database.DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *database.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

// Insert adds a membership. An existing (board, user) row is left alone and
// reported as zero affected rows.
func (r *MembershipRepository) Insert(ctx context.Context, m *entities.Membership) (int64, error) {
	query := `
		INSERT INTO board_members (board_id, user_id, role, starred, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (board_id, user_id) DO NOTHING`

	rows, err := rowsAffected(r.db.Conn(ctx).ExecContext(ctx, query,
		m.BoardID, m.UserID, m.Role, m.Starred, m.Active, m.CreatedAt, m.UpdatedAt,
	))
	if err != nil {
		return 0, fmt.Errorf("insert membership: %w", err)
	}
	return rows, nil
}

func (r *MembershipRepository) Get(ctx context.Context, boardID, userID uuid.UUID) (*entities.Membership, error) {
	var m entities.Membership
	query := `SELECT ` + membershipColumns + ` FROM board_members WHERE board_id = $1 AND user_id = $2`
	if err := r.db.Conn(ctx).GetContext(ctx, &m, query, boardID, userID); err != nil {
		return nil, notFound(err, "get membership")
	}
	return &m, nil
}

func (r *MembershipRepository) Update(ctx context.Context, boardID, userID uuid.UUID, upd ports.MembershipUpdate) (int64, error) {
	c := newClauses()
	setIf(c, "role", upd.Role)
	setIf(c, "starred", upd.Starred)
	setIf(c, "active", upd.Active)
	if !c.hasSets() {
		return 0, errEmptyUpdate
	}
	c.where("board_id", boardID)
	c.where("user_id", userID)

	query := fmt.Sprintf(`UPDATE board_members %s %s`, c.setClause(), c.whereClause())
	rows, err := rowsAffected(r.db.Conn(ctx).ExecContext(ctx, query, c.args...))
	if err != nil {
		return 0, fmt.Errorf("update membership: %w", err)
	}
	return rows, nil
}

func (r *MembershipRepository) Search(ctx context.Context, filter ports.MembershipFilter) ([]*entities.Membership, error) {
	c := newClauses()
	whereIf(c, "board_id", filter.BoardID)
	whereIf(c, "user_id", filter.UserID)
	whereIf(c, "role", filter.Role)
	whereIf(c, "active", filter.Active)

	query := fmt.Sprintf(`SELECT %s FROM board_members %s ORDER BY created_at`, membershipColumns, c.whereClause())

	var members []*entities.Membership
	if err := r.db.Conn(ctx).SelectContext(ctx, &members, query, c.args...); err != nil {
		return nil, fmt.Errorf("search memberships: %w", err)
	}
	return members, nil
}
