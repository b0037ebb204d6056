package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/database"
	"github.com/taskboard/core/internal/ports"
)

const boardColumns = `id, title, description, status, created_by, created_at, updated_at`

// BoardRepository implements ports.BoardRepository on Postgres
type BoardRepository struct {
	db *database.DB
}

// NewBoardRepository creates a new board repository
func NewBoardRepository(db *database.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

func (r *BoardRepository) Insert(ctx context.Context, b *entities.Board) (int64, error) {
	query := `
		INSERT INTO boards (id, title, description, status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	rows, err := rowsAffected(r.db.Conn(ctx).ExecContext(ctx, query,
		b.ID, b.Title, b.Description, b.Status, b.CreatedBy, b.CreatedAt, b.UpdatedAt,
	))
	if err != nil {
		return 0, fmt.Errorf("insert board: %w", err)
	}
	return rows, nil
}

func (r *BoardRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Board, error) {
	var b entities.Board
	err := r.db.Conn(ctx).GetContext(ctx, &b, `SELECT `+boardColumns+` FROM boards WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err, "get board")
	}
	return &b, nil
}

func (r *BoardRepository) Update(ctx context.Context, id uuid.UUID, upd ports.BoardUpdate) (int64, error) {
	c := newClauses()
	setIf(c, "title", upd.Title)
	setIf(c, "description", upd.Description)
	setIf(c, "status", upd.Status)
	if !c.hasSets() {
		return 0, errEmptyUpdate
	}
	c.where("id", id)

	query := fmt.Sprintf(`UPDATE boards %s %s`, c.setClause(), c.whereClause())
	rows, err := rowsAffected(r.db.Conn(ctx).ExecContext(ctx, query, c.args...))
	if err != nil {
		return 0, fmt.Errorf("update board: %w", err)
	}
	return rows, nil
}

type boardViewRow struct {
	entities.Board
	MemberRole    entities.MembershipRole `db:"member_role"`
	MemberStarred bool                    `db:"member_starred"`
}

// ListViews returns every non-archived board on which userID holds an active
// membership, starred boards first.
func (r *BoardRepository) ListViews(ctx context.Context, userID uuid.UUID) ([]*entities.BoardView, error) {
	query := `
		SELECT b.id, b.title, b.description, b.status, b.created_by, b.created_at, b.updated_at,
			m.role AS member_role, m.starred AS member_starred
		FROM boards b
		JOIN board_members m ON m.board_id = b.id
		WHERE m.user_id = $1 AND m.active AND b.status <> $2
		ORDER BY m.starred DESC, b.created_at`

	var rows []boardViewRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query, userID, entities.BoardStatusArchived); err != nil {
		return nil, fmt.Errorf("list board views: %w", err)
	}

	views := make([]*entities.BoardView, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		views = append(views, entities.NewBoardView(&row.Board, &entities.Membership{
			BoardID: row.ID,
			UserID:  userID,
			Role:    row.MemberRole,
			Starred: row.MemberStarred,
			Active:  true,
		}))
	}
	return views, nil
}
