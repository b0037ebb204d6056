package repository

import (
	"context"
	"fmt"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/database"
	"github.com/taskboard/core/internal/ports"
)

const listColumns = `id, title, color, position, board_id, archived, created_at, updated_at`

// TaskListRepository implements ports.TaskListRepository on Postgres
type TaskListRepository struct {
	db *database.DB
}

// NewTaskListRepository creates a new list repository
func NewTaskListRepository(db *database.DB) *TaskListRepository {
	return &TaskListRepository{db: db}
}

// Insert stores the list and fills in its generated ID
func (r *TaskListRepository) Insert(ctx context.Context, l *entities.TaskList) (int64, error) {
	query := `
		INSERT INTO task_lists (title, color, position, board_id, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		l.Title, l.Color, l.Position, l.BoardID, l.Archived, l.CreatedAt, l.UpdatedAt,
	).Scan(&l.ID)
	if err != nil {
		return 0, fmt.Errorf("insert list: %w", err)
	}
	return 1, nil
}

func (r *TaskListRepository) GetByID(ctx context.Context, id int64) (*entities.TaskList, error) {
	var l entities.TaskList
	if err := r.db.Conn(ctx).GetContext(ctx, &l, `SELECT `+listColumns+` FROM task_lists WHERE id = $1`, id); err != nil {
		return nil, notFound(err, "get list")
	}
	return &l, nil
}

func (r *TaskListRepository) Update(ctx context.Context, id int64, upd ports.TaskListUpdate) (int64, error) {
	c := newClauses()
	setIf(c, "title", upd.Title)
	if upd.ClearColor {
		c.setNull("color")
	} else {
		setIf(c, "color", upd.Color)
	}
	setIf(c, "position", upd.Position)
	setIf(c, "archived", upd.Archived)
	if !c.hasSets() {
		return 0, errEmptyUpdate
	}
	c.where("id", id)

	query := fmt.Sprintf(`UPDATE task_lists %s %s`, c.setClause(), c.whereClause())
	rows, err := rowsAffected(r.db.Conn(ctx).ExecContext(ctx, query, c.args...))
	if err != nil {
		return 0, fmt.Errorf("update list: %w", err)
	}
	return rows, nil
}

func (r *TaskListRepository) Search(ctx context.Context, filter ports.TaskListFilter) ([]*entities.TaskList, error) {
	c := newClauses()
	whereIf(c, "board_id", filter.BoardID)
	whereIf(c, "archived", filter.Archived)

	query := fmt.Sprintf(`SELECT %s FROM task_lists %s ORDER BY position, id`, listColumns, c.whereClause())

	var lists []*entities.TaskList
	if err := r.db.Conn(ctx).SelectContext(ctx, &lists, query, c.args...); err != nil {
		return nil, fmt.Errorf("search lists: %w", err)
	}
	return lists, nil
}
