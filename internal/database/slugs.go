package database

import (
	"context"
	"database/sql"
	"fmt"

	"gigbook/internal/slug"
)

// insertWithSlug runs insert with base, base-2, base-3, ... until the unique slug index
// accepts one. A failed INSERT only rolls back its own statement, so this is safe inside
// a transaction.
func (db *DB) insertWithSlug(ctx context.Context, column, base string, insert func(candidate string) (sql.Result, error)) (int64, string, error) {
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := slug.Candidate(base, n)
		result, err := insert(candidate)
		if err != nil {
			if isUniqueViolation(err, column) {
				db.logger.Debug().Str("slug", candidate).Msg("Slug taken, trying next candidate")
				continue
			}
			if isUniqueViolation(err, "") {
				return 0, "", fmt.Errorf("%w: %v", ErrDuplicate, err)
			}
			return 0, "", err
		}

		id, err := result.LastInsertId()
		if err != nil {
			return 0, "", fmt.Errorf("failed to get last insert id: %w", err)
		}
		return id, candidate, nil
	}
	return 0, "", fmt.Errorf("%w for %q", ErrSlugExhausted, base)
}
