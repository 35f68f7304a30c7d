package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// The nodes schema carries two constraints that surface as request-level
// errors: the sibling-name unique index on (owner_id, parent_id, name) and
// the self-referencing parent_id foreign key. These helpers classify the
// pgconn errors they raise.

// IsPgDuplicateError reports a unique_violation (23505): a sibling with the
// same name already exists under the target parent.
func IsPgDuplicateError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsPgForeignKeyError reports a foreign_key_violation (23503): the parent_id
// points at a node that does not exist.
func IsPgForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// IsPgNoRowsError reports that a single-row query matched nothing.
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
