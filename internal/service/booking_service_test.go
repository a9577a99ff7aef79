package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gigbook/internal/domain"
	"gigbook/internal/events"
	"gigbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRequestBooking_BlackoutBlocks(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.avail.AddUnavailability(ctx, w.artistUser, at(10, 0), at(11, 0), "tour")
	require.NoError(t, err)

	_, err = w.bookings.RequestBooking(ctx, w.venueUser, BookingRequest{
		VenueID: w.venue.ID, ArtistID: w.artist.ID, EventDate: at(10, 20), Hours: 3,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "artist_unavailable", domain.Code(err))

	list, err := w.db.ListBookings(ctx, domain.BookingFilter{ArtistID: w.artist.ID})
	require.NoError(t, err)
	assert.Empty(t, list)
	w.pub.AssertNotCalled(t, "PublishJSON", events.EventBookingRequested, mock.Anything)
}

func TestRequestBooking_RightAfterBlackout(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.avail.AddUnavailability(ctx, w.artistUser, at(10, 0), at(11, 0), "")
	require.NoError(t, err)

	b := w.request(t, at(11, 0), 2)
	assert.Equal(t, models.BookingPending, b.Status)
	assert.Nil(t, b.EventID)
	w.pub.AssertCalled(t, "PublishJSON", events.EventBookingRequested, mock.MatchedBy(func(p events.BookingEventPayload) bool {
		return p.BookingID == b.ID && p.ArtistEmail == "a@example.com" && p.VenueEmail == "v@example.com"
	}))
}

func TestRequestBooking_CommittedBookingsBlock(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	first := w.request(t, at(12, 18), 4)

	_, err := w.bookings.RequestBooking(ctx, w.venueUser, BookingRequest{
		VenueID: w.venue.ID, ArtistID: w.artist.ID, EventDate: at(12, 21), Hours: 2,
	})
	assert.ErrorIs(t, err, domain.ErrConflict, "pending booking blocks")

	_, err = w.bookings.Respond(ctx, w.artistUser, first.ID, models.ActionDecline)
	require.NoError(t, err)

	again := w.request(t, at(12, 21), 2)
	assert.Equal(t, models.BookingPending, again.Status, "declined booking frees the slot")
}

func TestRequestBooking_Validation(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		actor *models.User
		req   BookingRequest
		kind  error
	}{
		{"no actor", nil, BookingRequest{VenueID: w.venue.ID, ArtistID: w.artist.ID, EventDate: at(1, 20), Hours: 1}, domain.ErrUnauthenticated},
		{"zero hours", w.venueUser, BookingRequest{VenueID: w.venue.ID, ArtistID: w.artist.ID, EventDate: at(1, 20)}, domain.ErrInvalidInput},
		{"too many hours", w.venueUser, BookingRequest{VenueID: w.venue.ID, ArtistID: w.artist.ID, EventDate: at(1, 20), Hours: 25}, domain.ErrInvalidInput},
		{"no date", w.venueUser, BookingRequest{VenueID: w.venue.ID, ArtistID: w.artist.ID, Hours: 1}, domain.ErrInvalidInput},
		{"not venue owner", w.stranger, BookingRequest{VenueID: w.venue.ID, ArtistID: w.artist.ID, EventDate: at(1, 20), Hours: 1}, domain.ErrForbidden},
		{"unknown venue", w.venueUser, BookingRequest{VenueID: 999, ArtistID: w.artist.ID, EventDate: at(1, 20), Hours: 1}, domain.ErrNotFound},
		{"unknown artist", w.venueUser, BookingRequest{VenueID: w.venue.ID, ArtistID: 999, EventDate: at(1, 20), Hours: 1}, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.bookings.RequestBooking(ctx, tt.actor, tt.req)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestRequestBooking_ConcurrentSameSlot(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	const n = 10
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = w.bookings.RequestBooking(ctx, w.venueUser, BookingRequest{
				VenueID: w.venue.ID, ArtistID: w.artist.ID, EventDate: at(20, 20), Hours: 2,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)
}

func TestRespond_AcceptMaterializesEvent(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	b := w.request(t, at(12, 20), 2)
	accepted, err := w.bookings.Respond(ctx, w.artistUser, b.ID, models.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.BookingAccepted, accepted.Status)
	require.NotNil(t, accepted.EventID)

	event, err := w.db.GetEvent(ctx, *accepted.EventID)
	require.NoError(t, err)
	assert.Equal(t, "A at V", event.Title)
	assert.Equal(t, "a-at-v", event.Slug)
	assert.Equal(t, models.EventPublished, event.Status)
	require.NotNil(t, event.EndAt)
	assert.True(t, event.EndAt.Equal(at(12, 22)))
	require.NotNil(t, event.TotalHours)
	assert.Equal(t, 2.0, *event.TotalHours)

	lineup, err := w.db.ListEventArtists(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, lineup, 1)
	assert.True(t, lineup[0].Confirmed)
	require.NotNil(t, lineup[0].Fee)
	assert.Equal(t, 200.0, *lineup[0].Fee)

	w.pub.AssertCalled(t, "PublishJSON", events.EventBookingAccepted, mock.MatchedBy(func(p events.BookingEventPayload) bool {
		return p.EventSlug == "a-at-v" && p.Status == models.BookingAccepted
	}))
}

// flakyEventRepo fails the next createFailures CreateEvent calls, including the ones made
// through a transaction handle.
type flakyEventRepo struct {
	domain.Repository
	createFailures *int
}

func (r flakyEventRepo) InTx(ctx context.Context, fn func(tx domain.Repository) error) error {
	return r.Repository.InTx(ctx, func(tx domain.Repository) error {
		return fn(flakyEventRepo{Repository: tx, createFailures: r.createFailures})
	})
}

func (r flakyEventRepo) CreateEvent(ctx context.Context, event *models.Event) error {
	if *r.createFailures > 0 {
		*r.createFailures--
		return errors.New("disk I/O error")
	}
	return r.Repository.CreateEvent(ctx, event)
}

func TestRespond_AcceptRollsBackWhenEventFails(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	failures := 1
	pub := newPublisher()
	svc := NewBookingService(flakyEventRepo{Repository: w.db, createFailures: &failures}, pub, 24, testLogger())

	b := w.request(t, at(12, 20), 2)

	_, err := svc.Respond(ctx, w.artistUser, b.ID, models.ActionAccept)
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk I/O error")
	pub.AssertNotCalled(t, "PublishJSON", events.EventBookingAccepted, mock.Anything)

	stored, err := w.db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingPending, stored.Status)
	assert.Nil(t, stored.EventID)
	assert.Equal(t, b.Version, stored.Version)

	list, err := w.db.ListVenueEvents(ctx, w.venue.ID, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	accepted, err := svc.Respond(ctx, w.artistUser, b.ID, models.ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, models.BookingAccepted, accepted.Status)
	require.NotNil(t, accepted.EventID)

	list, err = w.db.ListVenueEvents(ctx, w.venue.ID, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *accepted.EventID, list[0].ID)
	assert.Equal(t, models.EventPublished, list[0].Status)
}

func TestRespond_Guards(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	b := w.request(t, at(5, 20), 2)

	_, err := w.bookings.Respond(ctx, w.venueUser, b.ID, models.ActionAccept)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = w.bookings.Respond(ctx, w.artistUser, b.ID, "maybe")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = w.bookings.Respond(ctx, w.artistUser, 999, models.ActionAccept)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = w.bookings.Cancel(ctx, w.venueUser, b.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "pending cannot be cancelled")

	declined, err := w.bookings.Respond(ctx, w.artistUser, b.ID, models.ActionDecline)
	require.NoError(t, err)
	assert.Equal(t, models.BookingDeclined, declined.Status)
	assert.Nil(t, declined.EventID)

	_, err = w.bookings.Respond(ctx, w.artistUser, b.ID, models.ActionAccept)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = w.bookings.Cancel(ctx, w.venueUser, b.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCancel_CascadesToEvent(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	b := w.request(t, at(6, 20), 2)
	accepted, err := w.bookings.Respond(ctx, w.artistUser, b.ID, models.ActionAccept)
	require.NoError(t, err)

	_, err = w.bookings.Cancel(ctx, w.artistUser, b.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden, "artist cannot cancel")

	cancelled, err := w.bookings.Cancel(ctx, w.venueUser, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingCancelled, cancelled.Status)

	event, err := w.db.GetEvent(ctx, *accepted.EventID)
	require.NoError(t, err)
	assert.Equal(t, models.EventCancelled, event.Status)

	_, err = w.bookings.Cancel(ctx, w.venueUser, b.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	w.pub.AssertCalled(t, "PublishJSON", events.EventBookingCancelled, mock.Anything)
	w.pub.AssertCalled(t, "PublishJSON", events.EventEventCancelled, mock.Anything)

	// the slot is free again
	w.request(t, at(6, 20), 2)
}

func TestGetAndListBookings(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	b := w.request(t, at(7, 20), 2)

	got, err := w.bookings.GetBooking(ctx, w.artistUser, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "V", got.VenueName)

	_, err = w.bookings.GetBooking(ctx, w.stranger, b.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	mine, err := w.bookings.ListBookings(ctx, w.artistUser, "")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	none, err := w.bookings.ListBookings(ctx, w.stranger, "")
	require.NoError(t, err)
	assert.Empty(t, none)

	venue, list, err := w.bookings.ListVenueBookings(ctx, w.venueUser, at(1, 0), at(30, 0))
	require.NoError(t, err)
	assert.Equal(t, w.venue.ID, venue.ID)
	assert.Len(t, list, 1)
}
