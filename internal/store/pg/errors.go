package pg

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrUndefinedTable  = "42P01"
	pgErrUndefinedColumn = "42703"
)

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// wrapErr annotates driver failures with the operation and, for schema
// drift, a hint to run migrations.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrUndefinedTable, pgErrUndefinedColumn:
			return fmt.Errorf("%s: schema out of date (run migrations): %w", op, err)
		}
		return fmt.Errorf("%s: %s (sqlstate %s): %w", op, pgErr.Message, pgErr.Code, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
