package repositories

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors.
	// It can be used to wrap more specific driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")

	// ErrDuplicateShiftNumber is returned when a shift insert loses the race
	// on the per-daily-record shift number, as opposed to the single-open-
	// shift index (which surfaces as ErrDuplicateKey).
	ErrDuplicateShiftNumber = errors.New("duplicate shift number for daily record")
)

// shiftNumberConstraint is the named unique constraint on
// (daily_record_id, shift_number) in db/schema.sql.
const shiftNumberConstraint = "shifts_daily_record_shift_number_key"

// uniqueViolation is the PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation. The one-open-shift-per-station and one-anomaly-per-day
// invariants are enforced by unique indexes, so concurrent writers are
// expected to hit this and must receive ErrDuplicateKey rather than a
// generic database error.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// UniqueConstraintName returns the name of the violated unique constraint,
// or "" when err is not a unique violation. Used where one insert sits under
// more than one unique index and the caller needs to know which tripped.
func UniqueConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return pqErr.Constraint
	}
	return ""
}

// SQLExecutor defines an interface that can be satisfied by *sql.DB or *sql.Tx.
// This allows repository methods to be used within transactions or with a direct DB connection.
type SQLExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// scanner is an interface satisfied by *sql.Row and *sql.Rows.
// This allows for generic scanning helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}
