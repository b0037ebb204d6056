package repository

import (
	"context"
	"fmt"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/database"
	"github.com/taskboard/core/internal/ports"
)

const cardColumns = `id, title, description, finished, position, due_date, list_id, archived, created_at, updated_at`

// CardRepository implements ports.CardRepository on Postgres
type CardRepository struct {
	db *database.DB
}

// NewCardRepository creates a new card repository
func NewCardRepository(db *database.DB) *CardRepository {
	return &CardRepository{db: db}
}

// Insert stores the card and fills in its generated ID
func (r *CardRepository) Insert(ctx context.Context, card *entities.Card) (int64, error) {
	query := `
		INSERT INTO cards (title, description, finished, position, due_date, list_id, archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	err := r.db.Conn(ctx).QueryRowxContext(ctx, query,
		card.Title, card.Description, card.Finished, card.Position, card.DueDate,
		card.ListID, card.Archived, card.CreatedAt, card.UpdatedAt,
	).Scan(&card.ID)
	if err != nil {
		return 0, fmt.Errorf("insert card: %w", err)
	}
	return 1, nil
}

func (r *CardRepository) GetByID(ctx context.Context, id int64) (*entities.Card, error) {
	var card entities.Card
	if err := r.db.Conn(ctx).GetContext(ctx, &card, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, id); err != nil {
		return nil, notFound(err, "get card")
	}
	return &card, nil
}

func (r *CardRepository) Update(ctx context.Context, id int64, upd ports.CardUpdate) (int64, error) {
	c := newClauses()
	setIf(c, "title", upd.Title)
	setIf(c, "description", upd.Description)
	setIf(c, "due_date", upd.DueDate)
	setIf(c, "finished", upd.Finished)
	setIf(c, "position", upd.Position)
	setIf(c, "list_id", upd.ListID)
	setIf(c, "archived", upd.Archived)
	if !c.hasSets() {
		return 0, errEmptyUpdate
	}
	c.where("id", id)

	query := fmt.Sprintf(`UPDATE cards %s %s`, c.setClause(), c.whereClause())
	rows, err := rowsAffected(r.db.Conn(ctx).ExecContext(ctx, query, c.args...))
	if err != nil {
		return 0, fmt.Errorf("update card: %w", err)
	}
	return rows, nil
}

func (r *CardRepository) Search(ctx context.Context, filter ports.CardFilter) ([]*entities.Card, error) {
	c := newClauses()
	whereIf(c, "list_id", filter.ListID)
	whereIf(c, "archived", filter.Archived)

	query := fmt.Sprintf(`SELECT %s FROM cards %s ORDER BY position, id`, cardColumns, c.whereClause())

	var cards []*entities.Card
	if err := r.db.Conn(ctx).SelectContext(ctx, &cards, query, c.args...); err != nil {
		return nil, fmt.Errorf("search cards: %w", err)
	}
	return cards, nil
}
