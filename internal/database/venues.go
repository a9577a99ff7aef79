package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gigbook/internal/domain"
	"gigbook/internal/models"
)

const venueColumns = `id, user_id, name, slug, city, address, about, auto_approve, created_at, updated_at`

// CreateVenue inserts the venue using venue.Slug as the base slug.
func (db *DB) CreateVenue(ctx context.Context, venue *models.Venue) error {
	query := `INSERT INTO venues (user_id, name, slug, city, address, about, auto_approve, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	id, assigned, err := db.insertWithSlug(ctx, "venues.slug", venue.Slug, func(candidate string) (sql.Result, error) {
		return db.q.ExecContext(ctx, query,
			venue.UserID, venue.Name, candidate, venue.City, venue.Address, venue.About, venue.AutoApprove, now, now)
	})
	if err != nil {
		return fmt.Errorf("failed to create venue: %w", err)
	}

	venue.ID = id
	venue.Slug = assigned
	venue.CreatedAt = now
	venue.UpdatedAt = now
	return nil
}

func (db *DB) UpdateVenue(ctx context.Context, venue *models.Venue) error {
	query := `UPDATE venues SET name = ?, city = ?, address = ?, about = ?, auto_approve = ?, updated_at = ?
              WHERE id = ?`
	now := time.Now().UTC()
	result, err := db.q.ExecContext(ctx, query,
		venue.Name, venue.City, venue.Address, venue.About, venue.AutoApprove, now, venue.ID)
	if err != nil {
		return fmt.Errorf("failed to update venue: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	venue.UpdatedAt = now
	return nil
}

func (db *DB) GetVenue(ctx context.Context, id int64) (*models.Venue, error) {
	return scanVenue(db.q.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = ?`, id))
}

func (db *DB) GetVenueBySlug(ctx context.Context, slug string) (*models.Venue, error) {
	return scanVenue(db.q.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE slug = ?`, slug))
}

func (db *DB) GetVenueByUserID(ctx context.Context, userID int64) (*models.Venue, error) {
	return scanVenue(db.q.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE user_id = ?`, userID))
}

func (db *DB) ListVenues(ctx context.Context, filter domain.ProfileFilter) ([]*models.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues`
	var args []any
	if filter.City != "" {
		query += ` WHERE city = ? COLLATE NOCASE`
		args = append(args, filter.City)
	}
	query += ` ORDER BY name ASC, id ASC`
	query, args = paginate(query, args, filter)

	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	defer rows.Close()

	var venues []*models.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

func scanVenue(row scanner) (*models.Venue, error) {
	var v models.Venue
	err := row.Scan(&v.ID, &v.UserID, &v.Name, &v.Slug, &v.City, &v.Address, &v.About, &v.AutoApprove,
		&v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan venue: %w", err)
	}
	return &v, nil
}
