package store

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Sentinel errors returned by Collection operations.
var (
	// ErrNotFound is returned when no document has the requested id or key.
	ErrNotFound = errors.New("store: document not found")

	// ErrRevisionConflict is returned by Replace when the stored revision
	// no longer matches the revision the caller read.
	ErrRevisionConflict = errors.New("store: revision conflict")

	// ErrDuplicate is matched by every *DuplicateError.
	ErrDuplicate = errors.New("store: duplicate key")

	// ErrInvalidDocument is returned for nil documents or undeclared key fields.
	ErrInvalidDocument = errors.New("store: invalid document")
)

// DuplicateError reports which unique field collided.
type DuplicateError struct {
	Collection string
	Field      string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("store: duplicate %s in %s", e.Field, e.Collection)
}

// Is makes errors.Is(err, ErrDuplicate) true for any DuplicateError.
func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}

// isConstraintViolation reports whether err is a SQLite unique or primary
// key violation.
func isConstraintViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
