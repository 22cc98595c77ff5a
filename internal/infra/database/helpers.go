package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// notFound maps sql.ErrNoRows to the given entity error.
func notFound(err, target error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return target
	}
	return err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fromNull(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return ""
}

func fromNullFloat(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

// casResult turns the affected row count of a compare-and-set update into
// ErrStaleStatus or notFoundErr.
func casResult(res sql.Result, exists func() (bool, error), stale, notFoundErr error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	ok, err := exists()
	if err != nil {
		return err
	}
	if !ok {
		return notFoundErr
	}
	return stale
}

func rowExists(ctx context.Context, db *sql.DB, query string, args ...any) func() (bool, error) {
	return func() (bool, error) {
		var exists bool
		err := db.QueryRowContext(ctx, query, args...).Scan(&exists)
		return exists, err
	}
}
