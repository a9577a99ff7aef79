package conflict

import (
	"context"
	"fmt"
	"time"

	"gigbook/internal/models"
)

// Store is the read side the detector needs. The lookups may return rows that only
// touch the window; the detector applies the overlap test itself.
type Store interface {
	ListUnavailabilityInRange(ctx context.Context, artistID int64, start, end time.Time) ([]*models.ArtistUnavailability, error)
	ListCommittedBookings(ctx context.Context, artistID int64, start, end time.Time) ([]*models.Booking, error)
	// ListCommittedEvents returns published events the artist is confirmed for.
	ListCommittedEvents(ctx context.Context, artistID int64, start, end time.Time) ([]*models.Event, error)
}

// Report lists everything that overlaps a proposed window.
type Report struct {
	Blackouts []*models.ArtistUnavailability `json:"blackouts"`
	Bookings  []*models.Booking              `json:"bookings"`
	Events    []*models.Event                `json:"events"`
}

func (r *Report) HasConflict() bool {
	return len(r.Blackouts) > 0 || len(r.Bookings) > 0 || len(r.Events) > 0
}

type Detector struct {
	store Store
}

func NewDetector(store Store) *Detector {
	return &Detector{store: store}
}

// Option tweaks a single detection call.
type Option func(*options)

type options struct {
	excludeBookingID int64
}

// ExcludeBooking keeps a booking from conflicting with itself.
func ExcludeBooking(id int64) Option {
	return func(o *options) { o.excludeBookingID = id }
}

// HasConflict reports whether [start, end) overlaps a blackout, a committed booking or a
// published event of the artist.
// The caller must have validated end > start.
func (d *Detector) HasConflict(ctx context.Context, artistID int64, start, end time.Time, opts ...Option) (bool, error) {
	report, err := d.Conflicts(ctx, artistID, start, end, opts...)
	if err != nil {
		return false, err
	}
	return report.HasConflict(), nil
}

// Conflicts returns the blackouts, bookings and events overlapping [start, end).
func (d *Detector) Conflicts(ctx context.Context, artistID int64, start, end time.Time, opts ...Option) (*Report, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	window := Interval{Start: start, End: end}
	report := &Report{}

	blackouts, err := d.store.ListUnavailabilityInRange(ctx, artistID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list blackouts: %w", err)
	}
	for _, b := range blackouts {
		if Overlaps(window, Interval{Start: b.Start, End: b.End}) {
			report.Blackouts = append(report.Blackouts, b)
		}
	}

	bookings, err := d.store.ListCommittedBookings(ctx, artistID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list committed bookings: %w", err)
	}
	for _, b := range bookings {
		if o.excludeBookingID != 0 && b.ID == o.excludeBookingID {
			continue
		}
		if Overlaps(window, Interval{Start: b.EventDate, End: b.EndsAt()}) {
			report.Bookings = append(report.Bookings, b)
		}
	}

	evs, err := d.store.ListCommittedEvents(ctx, artistID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list committed events: %w", err)
	}
	for _, e := range evs {
		if Overlaps(window, EventInterval(e)) {
			report.Events = append(report.Events, e)
		}
	}

	return report, nil
}
