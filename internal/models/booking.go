package models

import (
	"math"
	"time"
)

type Booking struct {
	ID        int64     `json:"id"`
	ArtistID  int64     `json:"artist_id"`
	VenueID   int64     `json:"venue_id"`
	EventDate time.Time `json:"event_date"`
	Hours     float64   `json:"hours"`
	Note      string    `json:"note,omitempty"`
	Status    string    `json:"status"` // pending, accepted, declined, cancelled
	EventID   *int64    `json:"event_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// EndsAt returns the exclusive end of the booked slot.
func (b *Booking) EndsAt() time.Time {
	return b.EventDate.Add(HoursToDuration(b.Hours))
}

// BookingDetails is a booking joined with the names and owner emails of both parties.
type BookingDetails struct {
	Booking
	ArtistName  string `json:"artist_name"`
	ArtistSlug  string `json:"artist_slug"`
	ArtistEmail string `json:"-"`
	VenueName   string `json:"venue_name"`
	VenueSlug   string `json:"venue_slug"`
	VenueEmail  string `json:"-"`
}

// maxWholeSeconds is the longest duration, in seconds, a time.Duration can hold.
const maxWholeSeconds = math.MaxInt64 / int64(time.Second)

// HoursToDuration converts fractional hours to a duration rounded to the second.
// Values beyond the range of time.Duration saturate instead of wrapping.
func HoursToDuration(hours float64) time.Duration {
	secs := hours*3600 + 0.5
	switch {
	case secs >= float64(maxWholeSeconds):
		return time.Duration(maxWholeSeconds) * time.Second
	case secs <= -float64(maxWholeSeconds):
		return -time.Duration(maxWholeSeconds) * time.Second
	}
	return time.Duration(secs) * time.Second
}
