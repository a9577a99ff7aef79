package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Backup writes a consistent snapshot of the database into dir using VACUUM INTO
// and returns the snapshot path.
func (db *DB) Backup(ctx context.Context, dir string) (string, error) {
	if db.path == ":memory:" {
		return "", fmt.Errorf("cannot back up an in-memory database")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	target := filepath.Join(dir, fmt.Sprintf("gigbook_%s.db", time.Now().UTC().Format("20060102_150405")))
	db.logger.Info().Str("path", target).Msg("Performing database backup using VACUUM INTO")

	if _, err := db.q.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", strings.ReplaceAll(target, "'", "''"))); err != nil {
		return "", fmt.Errorf("failed to back up database: %w", err)
	}
	return target, nil
}

// PruneBackups deletes snapshots in dir older than retentionDays and returns how many were removed.
func (db *DB) PruneBackups(dir string, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read backup directory: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasPrefix(file.Name(), "gigbook_") {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(dir, file.Name())); err != nil {
				db.logger.Warn().Err(err).Str("file", file.Name()).Msg("Failed to delete old backup")
				continue
			}
			db.logger.Info().Str("file", file.Name()).Msg("Deleted old backup")
			removed++
		}
	}
	return removed, nil
}
