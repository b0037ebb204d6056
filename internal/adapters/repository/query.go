package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/taskboard/core/internal/ports"
)

// clauses numbers Postgres placeholders while fragments are appended, so the
// same builder serves SET lists and WHERE conditions of one statement.
type clauses struct {
	sets       []string
	conditions []string
	args       []interface{}
	argIndex   int
}

func newClauses() *clauses {
	return &clauses{argIndex: 1}
}

func (c *clauses) bind(v interface{}) string {
	c.args = append(c.args, v)
	p := fmt.Sprintf("$%d", c.argIndex)
	c.argIndex++
	return p
}

func (c *clauses) set(column string, v interface{}) {
	c.sets = append(c.sets, column+" = "+c.bind(v))
}

func (c *clauses) setNull(column string) {
	c.sets = append(c.sets, column+" = NULL")
}

func (c *clauses) where(column string, v interface{}) {
	c.conditions = append(c.conditions, column+" = "+c.bind(v))
}

// setIf adds column = *v when v is not nil.
func setIf[T any](c *clauses, column string, v *T) {
	if v != nil {
		c.set(column, *v)
	}
}

func whereIf[T any](c *clauses, column string, v *T) {
	if v != nil {
		c.where(column, *v)
	}
}

func (c *clauses) hasSets() bool {
	return len(c.sets) > 0
}

// setClause renders the SET list, always touching updated_at.
func (c *clauses) setClause() string {
	return "SET " + strings.Join(append(c.sets, "updated_at = NOW()"), ", ")
}

func (c *clauses) whereClause() string {
	if len(c.conditions) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(c.conditions, " AND ")
}

func rowsAffected(result sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	return rows, nil
}

// notFound maps sql.ErrNoRows to ports.ErrNotFound and wraps anything else.
func notFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ports.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

var errEmptyUpdate = errors.New("update has no fields")
