package database

import (
	"context"
	"fmt"
	"time"

	"gigbook/internal/models"
)

func (db *DB) AddUnavailability(ctx context.Context, u *models.ArtistUnavailability) error {
	query := `INSERT INTO artist_unavailability (artist_id, start_at, end_at, reason, created_at)
              VALUES (?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.q.ExecContext(ctx, query, u.ArtistID, u.Start.Unix(), u.End.Unix(), u.Reason, now)
	if err != nil {
		return fmt.Errorf("failed to add unavailability: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	u.ID = id
	u.Start = fromUnix(u.Start.Unix())
	u.End = fromUnix(u.End.Unix())
	u.CreatedAt = now
	return nil
}

// DeleteUnavailability removes a blackout owned by artistID.
func (db *DB) DeleteUnavailability(ctx context.Context, artistID, id int64) error {
	result, err := db.q.ExecContext(ctx, `DELETE FROM artist_unavailability WHERE id = ? AND artist_id = ?`, id, artistID)
	if err != nil {
		return fmt.Errorf("failed to delete unavailability: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) ListUnavailability(ctx context.Context, artistID int64) ([]*models.ArtistUnavailability, error) {
	query := `SELECT id, artist_id, start_at, end_at, reason, created_at
              FROM artist_unavailability WHERE artist_id = ? ORDER BY start_at ASC, id ASC`
	return db.queryUnavailability(ctx, query, artistID)
}

// ListUnavailabilityInRange returns blackouts of the artist overlapping [start, end).
func (db *DB) ListUnavailabilityInRange(ctx context.Context, artistID int64, start, end time.Time) ([]*models.ArtistUnavailability, error) {
	query := `SELECT id, artist_id, start_at, end_at, reason, created_at
              FROM artist_unavailability
              WHERE artist_id = ? AND start_at < ? AND end_at > ?
              ORDER BY start_at ASC`
	return db.queryUnavailability(ctx, query, artistID, end.Unix(), start.Unix())
}

func (db *DB) queryUnavailability(ctx context.Context, query string, args ...any) ([]*models.ArtistUnavailability, error) {
	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list unavailability: %w", err)
	}
	defer rows.Close()

	var res []*models.ArtistUnavailability
	for rows.Next() {
		var (
			u          models.ArtistUnavailability
			start, end int64
		)
		if err := rows.Scan(&u.ID, &u.ArtistID, &start, &end, &u.Reason, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unavailability: %w", err)
		}
		u.Start = fromUnix(start)
		u.End = fromUnix(end)
		res = append(res, &u)
	}
	return res, rows.Err()
}

func fromUnix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}
