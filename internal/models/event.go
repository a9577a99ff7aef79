package models

import "time"

type Event struct {
	ID          int64      `json:"id"`
	VenueID     int64      `json:"venue_id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	StartAt     time.Time  `json:"start_at"`
	EndAt       *time.Time `json:"end_at,omitempty"`
	Status      string     `json:"status"` // requested, published, declined, cancelled
	TotalHours  *float64   `json:"total_hours,omitempty"`
	Budget      *float64   `json:"budget,omitempty"`
	RequestedBy int64      `json:"requested_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EventArtist links an artist to an event lineup.
type EventArtist struct {
	ID        int64    `json:"id"`
	EventID   int64    `json:"event_id"`
	ArtistID  int64    `json:"artist_id"`
	Fee       *float64 `json:"fee,omitempty"`
	Hours     *float64 `json:"hours,omitempty"`
	Confirmed bool     `json:"confirmed"`
}
