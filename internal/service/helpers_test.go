package service

import (
	"context"
	"io"
	"testing"
	"time"

	"gigbook/internal/database"
	"gigbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

func newPublisher() *mockPublisher {
	pub := &mockPublisher{}
	pub.On("PublishJSON", mock.Anything, mock.Anything).Return(nil)
	return pub
}

func testLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func setupDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.NewDB(":memory:", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type world struct {
	db         *database.DB
	pub        *mockPublisher
	users      *UserService
	profiles   *ProfileService
	avail      *AvailabilityService
	bookings   *BookingService
	events     *EventService
	artistUser *models.User
	venueUser  *models.User
	stranger   *models.User
	artist     *models.Artist
	venue      *models.Venue
}

// newWorld seeds artist "A" (rate 100) owned by a@example.com and venue "V" owned by v@example.com.
func newWorld(t *testing.T) *world {
	t.Helper()
	ctx := context.Background()
	db := setupDB(t)
	pub := newPublisher()
	w := &world{
		db:       db,
		pub:      pub,
		users:    NewUserService(db, models.RoleVenue, testLogger()),
		profiles: NewProfileService(db, testLogger()),
		avail:    NewAvailabilityService(db, testLogger()),
		bookings: NewBookingService(db, pub, 24, testLogger()),
		events:   NewEventService(db, pub, 24, testLogger()),
	}

	var err error
	w.artistUser, err = w.users.Login(ctx, &models.Identity{Email: "a@example.com", Name: "A", Role: models.RoleArtist})
	require.NoError(t, err)
	w.venueUser, err = w.users.Login(ctx, &models.Identity{Email: "v@example.com", Name: "V", Role: models.RoleVenue})
	require.NoError(t, err)
	w.stranger, err = w.users.Login(ctx, &models.Identity{Email: "x@example.com", Name: "X", Role: models.RoleVenue})
	require.NoError(t, err)

	w.artist, err = w.profiles.CreateArtist(ctx, w.artistUser, ArtistProfile{Name: "A", City: "Berlin", Genres: []string{"Jazz"}, Rate: 100})
	require.NoError(t, err)
	w.venue, err = w.profiles.CreateVenue(ctx, w.venueUser, VenueProfile{Name: "V", City: "Berlin"})
	require.NoError(t, err)
	return w
}

func at(day, hour int) time.Time {
	return time.Date(2025, 9, day, hour, 0, 0, 0, time.UTC)
}

func (w *world) request(t *testing.T, start time.Time, hours float64) *models.Booking {
	t.Helper()
	b, err := w.bookings.RequestBooking(context.Background(), w.venueUser, BookingRequest{
		VenueID: w.venue.ID, ArtistID: w.artist.ID, EventDate: start, Hours: hours,
	})
	require.NoError(t, err)
	return b
}
