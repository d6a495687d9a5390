// ABOUTME: Error taxonomy for the storage layer.
// ABOUTME: Maps SQLite constraint codes onto checkable sentinel errors.
package storage

import (
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrUniqueViolation is returned when an insert or update collides with a
	// uniqueness constraint (username, email, assignment pair, posture order).
	ErrUniqueViolation = errors.New("unique constraint violation")

	// ErrSeriesAlreadyActive is returned when prescribing a series to a
	// patient who already has an active one.
	ErrSeriesAlreadyActive = errors.New("patient already has an active series")

	// ErrInvalidInput wraps validation failures detected before writing.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSeriesNotFound and ErrSeriesComplete are returned by
	// RecordOpenSession for the outer surfaces that refuse to start a session.
	ErrSeriesNotFound = errors.New("series not found")
	ErrSeriesComplete = errors.New("series already complete")
)

// isUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY
// constraint failure.
func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// primary code only when extended result codes are off
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	default:
		return false
	}
}

// wrapWriteErr adds context to a write error, tagging unique violations so
// callers can use errors.Is(err, ErrUniqueViolation).
func wrapWriteErr(op string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrUniqueViolation, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func invalid(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInvalidInput, err)
}
