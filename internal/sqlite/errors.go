package sqlite

import (
	"strings"

	"github.com/rpggio/duetrack/internal/repository"
)

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY constraint failed")
}

// constraintError maps SQLite constraint failures onto repository errors.
// A dangling parent reference reads as a missing parent.
func constraintError(err error) error {
	switch {
	case isForeignKeyViolation(err):
		return repository.ErrNotFound
	case isUniqueViolation(err):
		return repository.ErrDuplicate
	}
	return err
}
