package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateOrderNumber means another order already holds the number for that day.
	ErrDuplicateOrderNumber = errors.New("repository: order number already taken for this day")
	ErrDuplicateEmail       = errors.New("repository: email already registered")
)

const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-index violation on constraint.
// With TranslateError on, gorm replaces the driver error by gorm.ErrDuplicatedKey
// and the constraint name is lost; callers only use this on tables with a
// single user-facing unique index.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == constraint
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
