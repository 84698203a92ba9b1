// Package repository implements all database queries for the parking system.
// It uses pgx directly (no ORM); every cross-entity read is an explicit join.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Shivanand-hulikatti/parking-management/internal/apperr"
	"github.com/Shivanand-hulikatti/parking-management/internal/database"
)

// scanner is satisfied by pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// conditions accumulates WHERE clauses with positional parameters.
// Each clause is a format string whose %d verbs receive the parameter index.
type conditions struct {
	clauses []string
	args    []any
}

func (c *conditions) add(clause string, arg any) {
	c.args = append(c.args, arg)
	n := len(c.args)
	c.clauses = append(c.clauses, fmt.Sprintf(clause, n))
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// page appends LIMIT/OFFSET parameters and returns the SQL suffix plus the
// full argument list.
func (c *conditions) page(limit, offset int) (string, []any) {
	args := append(append([]any{}, c.args...), limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args)), args
}

// errNoRows lets zero-row updates share the notFound path.
var errNoRows = pgx.ErrNoRows

// notFound maps pgx.ErrNoRows to a NotFound error with msg, and wraps any
// other error with op.
func notFound(err error, msg, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFoundf("%s", msg)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// uniqueMessages maps constraint names to client-facing messages.
var uniqueMessages = map[string]string{
	"users_username_key":            "username already exists",
	"users_plate_number_key":        "plate number already registered",
	"vehicles_plate_number_key":     "plate number already registered",
	"parking_slots_slot_number_key": "slot number already exists",
}

// translateWrite converts constraint violations raised by a write into
// application errors; other errors are wrapped with op.
func translateWrite(err error, op string) error {
	if constraint, ok := database.UniqueViolation(err); ok {
		msg, known := uniqueMessages[constraint]
		if !known {
			msg = "duplicate value"
		}
		return apperr.Wrap(apperr.Validation, msg, err)
	}
	if database.ForeignKeyViolation(err) {
		return apperr.Wrap(apperr.Conflict, "record is still referenced", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
