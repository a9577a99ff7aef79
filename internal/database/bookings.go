package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gigbook/internal/domain"
	"gigbook/internal/models"
)

const bookingColumns = `b.id, b.artist_id, b.venue_id, b.event_date, b.hours, b.note, b.status, b.event_id,
	b.created_at, b.updated_at, b.version`

const bookingDetailsQuery = `SELECT ` + bookingColumns + `,
	a.name, a.slug, au.email, v.name, v.slug, vu.email
	FROM bookings b
	JOIN artists a ON a.id = b.artist_id
	JOIN users au ON au.id = a.user_id
	JOIN venues v ON v.id = b.venue_id
	JOIN users vu ON vu.id = v.user_id`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (
				artist_id, venue_id, event_date, end_at, hours, note, status,
				created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	status := booking.Status
	if status == "" {
		status = models.BookingPending
	}
	result, err := db.q.ExecContext(ctx, query,
		booking.ArtistID,
		booking.VenueID,
		booking.EventDate.Unix(),
		booking.EndsAt().Unix(),
		booking.Hours,
		booking.Note,
		status,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.EventDate = fromUnix(booking.EventDate.Unix())
	booking.Status = status
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = ?`
	return scanBooking(db.q.QueryRowContext(ctx, query, id))
}

func (db *DB) GetBookingDetails(ctx context.Context, id int64) (*models.BookingDetails, error) {
	return scanBookingDetails(db.q.QueryRowContext(ctx, bookingDetailsQuery+` WHERE b.id = ?`, id))
}

func (db *DB) ListBookings(ctx context.Context, filter domain.BookingFilter) ([]*models.BookingDetails, error) {
	var (
		conds []string
		args  []any
	)
	if filter.ArtistID != 0 {
		conds = append(conds, "b.artist_id = ?")
		args = append(args, filter.ArtistID)
	}
	if filter.VenueID != 0 {
		conds = append(conds, "b.venue_id = ?")
		args = append(args, filter.VenueID)
	}
	if filter.Status != "" {
		conds = append(conds, "b.status = ?")
		args = append(args, filter.Status)
	}
	if !filter.From.IsZero() {
		conds = append(conds, "b.end_at > ?")
		args = append(args, filter.From.Unix())
	}
	if !filter.To.IsZero() {
		conds = append(conds, "b.event_date < ?")
		args = append(args, filter.To.Unix())
	}

	query := bookingDetailsQuery
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY b.event_date ASC, b.id ASC"

	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var res []*models.BookingDetails
	for rows.Next() {
		d, err := scanBookingDetails(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, d)
	}
	return res, rows.Err()
}

// ListCommittedBookings returns the artist's pending and accepted bookings whose slot
// overlaps [start, end).
func (db *DB) ListCommittedBookings(ctx context.Context, artistID int64, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b
              WHERE b.artist_id = ? AND b.status IN (?, ?) AND b.event_date < ? AND b.end_at > ?
              ORDER BY b.event_date ASC`
	rows, err := db.q.QueryContext(ctx, query, artistID,
		models.CommittedBookingStatuses[0], models.CommittedBookingStatuses[1], end.Unix(), start.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to list committed bookings: %w", err)
	}
	defer rows.Close()

	var res []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

// UpdateBookingStatusWithVersion moves the booking to status only if nobody changed it
// since fromVersion was read.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.q.ExecContext(ctx, query, status, time.Now().UTC(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// SetBookingEvent links a materialized event. A booking is linked at most once.
func (db *DB) SetBookingEvent(ctx context.Context, bookingID, eventID int64) error {
	query := `UPDATE bookings SET event_id = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND event_id IS NULL`
	result, err := db.q.ExecContext(ctx, query, eventID, time.Now().UTC(), bookingID)
	if err != nil {
		return fmt.Errorf("failed to link booking event: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func scanBookingInto(row scanner, b *models.Booking, extra ...any) error {
	var (
		eventDate int64
		eventID   sql.NullInt64
	)
	dest := []any{&b.ID, &b.ArtistID, &b.VenueID, &eventDate, &b.Hours, &b.Note, &b.Status, &eventID,
		&b.CreatedAt, &b.UpdatedAt, &b.Version}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	b.EventDate = fromUnix(eventDate)
	if eventID.Valid {
		id := eventID.Int64
		b.EventID = &id
	}
	return nil
}

func scanBooking(row scanner) (*models.Booking, error) {
	var b models.Booking
	err := scanBookingInto(row, &b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}
	return &b, nil
}

func scanBookingDetails(row scanner) (*models.BookingDetails, error) {
	var d models.BookingDetails
	err := scanBookingInto(row, &d.Booking,
		&d.ArtistName, &d.ArtistSlug, &d.ArtistEmail, &d.VenueName, &d.VenueSlug, &d.VenueEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan booking details: %w", err)
	}
	return &d, nil
}
