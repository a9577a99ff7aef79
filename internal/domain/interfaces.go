package domain

import (
	"context"
	"time"

	"gigbook/internal/models"
)

// ProfileFilter narrows artist and venue listings.
type ProfileFilter struct {
	City   string
	Genre  string
	Limit  int
	Offset int
}

// BookingFilter narrows booking listings. Zero values are ignored.
type BookingFilter struct {
	ArtistID int64
	VenueID  int64
	Status   string
	From     time.Time
	To       time.Time
}

type Repository interface {
	// InTx runs fn inside a single serialized transaction. Returning an error rolls back.
	InTx(ctx context.Context, fn func(tx Repository) error) error

	UpsertUser(ctx context.Context, identity *models.Identity) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetUserRole(ctx context.Context, email, role string) error

	CreateArtist(ctx context.Context, artist *models.Artist) error
	UpdateArtist(ctx context.Context, artist *models.Artist) error
	GetArtist(ctx context.Context, id int64) (*models.Artist, error)
	GetArtistBySlug(ctx context.Context, slug string) (*models.Artist, error)
	GetArtistByUserID(ctx context.Context, userID int64) (*models.Artist, error)
	ListArtists(ctx context.Context, filter ProfileFilter) ([]*models.Artist, error)

	CreateVenue(ctx context.Context, venue *models.Venue) error
	UpdateVenue(ctx context.Context, venue *models.Venue) error
	GetVenue(ctx context.Context, id int64) (*models.Venue, error)
	GetVenueBySlug(ctx context.Context, slug string) (*models.Venue, error)
	GetVenueByUserID(ctx context.Context, userID int64) (*models.Venue, error)
	ListVenues(ctx context.Context, filter ProfileFilter) ([]*models.Venue, error)

	AddUnavailability(ctx context.Context, u *models.ArtistUnavailability) error
	DeleteUnavailability(ctx context.Context, artistID, id int64) error
	ListUnavailability(ctx context.Context, artistID int64) ([]*models.ArtistUnavailability, error)
	ListUnavailabilityInRange(ctx context.Context, artistID int64, start, end time.Time) ([]*models.ArtistUnavailability, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingDetails(ctx context.Context, id int64) (*models.BookingDetails, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]*models.BookingDetails, error)
	ListCommittedBookings(ctx context.Context, artistID int64, start, end time.Time) ([]*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status string) error
	SetBookingEvent(ctx context.Context, bookingID, eventID int64) error

	CreateEvent(ctx context.Context, event *models.Event) error
	GetEvent(ctx context.Context, id int64) (*models.Event, error)
	GetEventBySlug(ctx context.Context, slug string) (*models.Event, error)
	ListVenueEvents(ctx context.Context, venueID int64, status string) ([]*models.Event, error)
	ListCommittedEvents(ctx context.Context, artistID int64, start, end time.Time) ([]*models.Event, error)
	UpdateEventStatus(ctx context.Context, id int64, from, to string) error
	AddEventArtist(ctx context.Context, ea *models.EventArtist) error
	ListEventArtists(ctx context.Context, eventID int64) ([]*models.EventArtist, error)
	ConfirmEventArtists(ctx context.Context, eventID int64) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// IdentityResolver turns an opaque session credential into a verified identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (*models.Identity, error)
}

// Notifier delivers a single email. Delivery is best effort.
type Notifier interface {
	Send(ctx context.Context, msg models.Notification) error
}

// RateLimiter counts hits per key within a fixed window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
