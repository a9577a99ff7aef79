package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gigbook/internal/models"
)

const eventColumns = `id, venue_id, title, slug, description, start_at, end_at, status, total_hours, budget,
	requested_by, created_at, updated_at`

// CreateEvent inserts the event using event.Slug as the base slug.
func (db *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	query := `INSERT INTO events (
				venue_id, title, slug, description, start_at, end_at, status,
				total_hours, budget, requested_by, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()

	var endAt sql.NullInt64
	if event.EndAt != nil {
		endAt = sql.NullInt64{Int64: event.EndAt.Unix(), Valid: true}
	}

	id, assigned, err := db.insertWithSlug(ctx, "events.slug", event.Slug, func(candidate string) (sql.Result, error) {
		return db.q.ExecContext(ctx, query,
			event.VenueID,
			event.Title,
			candidate,
			event.Description,
			event.StartAt.Unix(),
			endAt,
			event.Status,
			nullFloat(event.TotalHours),
			nullFloat(event.Budget),
			event.RequestedBy,
			now,
			now,
		)
	})
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	event.ID = id
	event.Slug = assigned
	event.StartAt = fromUnix(event.StartAt.Unix())
	if event.EndAt != nil {
		end := fromUnix(event.EndAt.Unix())
		event.EndAt = &end
	}
	event.CreatedAt = now
	event.UpdatedAt = now
	return nil
}

func (db *DB) GetEvent(ctx context.Context, id int64) (*models.Event, error) {
	return scanEvent(db.q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
}

func (db *DB) GetEventBySlug(ctx context.Context, slug string) (*models.Event, error) {
	return scanEvent(db.q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE slug = ?`, slug))
}

// ListCommittedEvents returns published events with a confirmed lineup slot for the artist
// whose window overlaps [start, end). Events without an end occupy their start second.
func (db *DB) ListCommittedEvents(ctx context.Context, artistID int64, start, end time.Time) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
              WHERE status = ? AND start_at < ?
                AND COALESCE(end_at, start_at + CAST(total_hours * 3600 AS INTEGER), start_at + 1) > ?
                AND id IN (SELECT event_id FROM event_artists WHERE artist_id = ? AND confirmed = 1)
              ORDER BY start_at ASC, id ASC`
	rows, err := db.q.QueryContext(ctx, query, models.EventPublished, end.Unix(), start.Unix(), artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list committed events: %w", err)
	}
	defer rows.Close()

	var res []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// ListVenueEvents returns the venue's events, optionally narrowed to one status.
func (db *DB) ListVenueEvents(ctx context.Context, venueID int64, status string) ([]*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE venue_id = ?`
	args := []any{venueID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY start_at ASC, id ASC`

	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list venue events: %w", err)
	}
	defer rows.Close()

	var res []*models.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// UpdateEventStatus moves the event from one status to another. It fails with
// ErrConcurrentModification when the event is no longer in status from.
func (db *DB) UpdateEventStatus(ctx context.Context, id int64, from, to string) error {
	query := `UPDATE events SET status = ?, updated_at = ? WHERE id = ? AND status = ?`
	result, err := db.q.ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) AddEventArtist(ctx context.Context, ea *models.EventArtist) error {
	query := `INSERT INTO event_artists (event_id, artist_id, fee, hours, confirmed) VALUES (?, ?, ?, ?, ?)`
	result, err := db.q.ExecContext(ctx, query, ea.EventID, ea.ArtistID, nullFloat(ea.Fee), nullFloat(ea.Hours), ea.Confirmed)
	if err != nil {
		if isUniqueViolation(err, "") {
			return fmt.Errorf("%w: artist %d already on event %d", ErrDuplicate, ea.ArtistID, ea.EventID)
		}
		return fmt.Errorf("failed to add event artist: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	ea.ID = id
	return nil
}

func (db *DB) ListEventArtists(ctx context.Context, eventID int64) ([]*models.EventArtist, error) {
	query := `SELECT id, event_id, artist_id, fee, hours, confirmed FROM event_artists WHERE event_id = ? ORDER BY id ASC`
	rows, err := db.q.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event artists: %w", err)
	}
	defer rows.Close()

	var res []*models.EventArtist
	for rows.Next() {
		var (
			ea         models.EventArtist
			fee, hours sql.NullFloat64
		)
		if err := rows.Scan(&ea.ID, &ea.EventID, &ea.ArtistID, &fee, &hours, &ea.Confirmed); err != nil {
			return nil, fmt.Errorf("failed to scan event artist: %w", err)
		}
		ea.Fee = floatPtr(fee)
		ea.Hours = floatPtr(hours)
		res = append(res, &ea)
	}
	return res, rows.Err()
}

func (db *DB) ConfirmEventArtists(ctx context.Context, eventID int64) error {
	if _, err := db.q.ExecContext(ctx, `UPDATE event_artists SET confirmed = 1 WHERE event_id = ?`, eventID); err != nil {
		return fmt.Errorf("failed to confirm event artists: %w", err)
	}
	return nil
}

func scanEvent(row scanner) (*models.Event, error) {
	var (
		e             models.Event
		start         int64
		end           sql.NullInt64
		hours, budget sql.NullFloat64
	)
	err := row.Scan(&e.ID, &e.VenueID, &e.Title, &e.Slug, &e.Description, &start, &end, &e.Status,
		&hours, &budget, &e.RequestedBy, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}

	e.StartAt = fromUnix(start)
	if end.Valid {
		t := fromUnix(end.Int64)
		e.EndAt = &t
	}
	e.TotalHours = floatPtr(hours)
	e.Budget = floatPtr(budget)
	return &e, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
