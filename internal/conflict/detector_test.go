package conflict

import (
	"context"
	"errors"
	"testing"
	"time"

	"gigbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListUnavailabilityInRange(ctx context.Context, artistID int64, start, end time.Time) ([]*models.ArtistUnavailability, error) {
	args := m.Called(ctx, artistID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ArtistUnavailability), args.Error(1)
}

func (m *mockStore) ListCommittedBookings(ctx context.Context, artistID int64, start, end time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, artistID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *mockStore) ListCommittedEvents(ctx context.Context, artistID int64, start, end time.Time) ([]*models.Event, error) {
	args := m.Called(ctx, artistID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Event), args.Error(1)
}

func TestDetector_Blackout(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	blackout := &models.ArtistUnavailability{ID: 1, ArtistID: 7, Start: at(20, 0), End: at(23, 0)}
	store.On("ListUnavailabilityInRange", ctx, int64(7), mock.Anything, mock.Anything).
		Return([]*models.ArtistUnavailability{blackout}, nil)
	store.On("ListCommittedBookings", ctx, int64(7), mock.Anything, mock.Anything).
		Return([]*models.Booking{}, nil)
	store.On("ListCommittedEvents", ctx, int64(7), mock.Anything, mock.Anything).Return(nil, nil)

	d := NewDetector(store)

	conflict, err := d.HasConflict(ctx, 7, at(21, 0), at(22, 0))
	require.NoError(t, err)
	assert.True(t, conflict)

	// Right after the blackout ends.
	conflict, err = d.HasConflict(ctx, 7, at(23, 0), at(23, 59))
	require.NoError(t, err)
	assert.False(t, conflict)

	// Ends exactly when the blackout starts.
	conflict, err = d.HasConflict(ctx, 7, at(19, 0), at(20, 0))
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestDetector_Bookings(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	existing := &models.Booking{ID: 3, ArtistID: 7, EventDate: at(18, 0), Hours: 2, Status: models.BookingAccepted}
	store.On("ListUnavailabilityInRange", ctx, int64(7), mock.Anything, mock.Anything).Return(nil, nil)
	store.On("ListCommittedBookings", ctx, int64(7), mock.Anything, mock.Anything).
		Return([]*models.Booking{existing}, nil)
	store.On("ListCommittedEvents", ctx, int64(7), mock.Anything, mock.Anything).Return(nil, nil)

	d := NewDetector(store)

	report, err := d.Conflicts(ctx, 7, at(19, 0), at(21, 0))
	require.NoError(t, err)
	require.Len(t, report.Bookings, 1)
	assert.Equal(t, int64(3), report.Bookings[0].ID)
	assert.Empty(t, report.Blackouts)

	conflict, err := d.HasConflict(ctx, 7, at(20, 0), at(21, 0))
	require.NoError(t, err)
	assert.False(t, conflict)

	conflict, err = d.HasConflict(ctx, 7, at(19, 0), at(21, 0), ExcludeBooking(3))
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestDetector_PublishedEvents(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	end := at(22, 0)
	gig := &models.Event{ID: 9, StartAt: at(20, 0), EndAt: &end, Status: models.EventPublished}
	store.On("ListUnavailabilityInRange", ctx, int64(7), mock.Anything, mock.Anything).Return(nil, nil)
	store.On("ListCommittedBookings", ctx, int64(7), mock.Anything, mock.Anything).Return(nil, nil)
	store.On("ListCommittedEvents", ctx, int64(7), mock.Anything, mock.Anything).
		Return([]*models.Event{gig}, nil)

	d := NewDetector(store)

	report, err := d.Conflicts(ctx, 7, at(21, 0), at(23, 0))
	require.NoError(t, err)
	require.Len(t, report.Events, 1)
	assert.Equal(t, int64(9), report.Events[0].ID)
	assert.True(t, report.HasConflict())

	conflict, err := d.HasConflict(ctx, 7, at(22, 0), at(23, 0))
	require.NoError(t, err)
	assert.False(t, conflict)
}

func TestDetector_StoreError(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	store.On("ListUnavailabilityInRange", ctx, int64(1), mock.Anything, mock.Anything).
		Return(nil, errors.New("db down"))

	_, err := NewDetector(store).HasConflict(ctx, 1, at(10, 0), at(11, 0))
	assert.Error(t, err)
	store.AssertNotCalled(t, "ListCommittedBookings", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
