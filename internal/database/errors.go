package database

import (
	"errors"
	"fmt"
	"strings"

	"gigbook/internal/domain"

	"github.com/mattn/go-sqlite3"
)

var (
	ErrNotFound               = fmt.Errorf("record %w", domain.ErrNotFound)
	ErrConcurrentModification = fmt.Errorf("concurrent modification: %w", domain.ErrInvalidState)
	ErrDuplicate              = fmt.Errorf("duplicate record: %w", domain.ErrConflict)
	ErrSlugExhausted          = errors.New("no free slug candidate")
)

// maxSlugAttempts bounds the base, base-2, ... suffix loop.
const maxSlugAttempts = 100

// isUniqueViolation reports whether err is a UNIQUE failure on column (e.g. "artists.slug").
// An empty column matches any unique violation.
func isUniqueViolation(err error, column string) bool {
	var sqlErr sqlite3.Error
	if !errors.As(err, &sqlErr) || sqlErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return false
	}
	return column == "" || strings.Contains(sqlErr.Error(), column)
}
