package models

import "time"

type Artist struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	City      string    `json:"city"`
	Genres    []string  `json:"genres"`
	Rate      float64   `json:"rate"`
	Bio       string    `json:"bio"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArtistUnavailability is a blackout range declared by an artist.
type ArtistUnavailability struct {
	ID        int64     `json:"id"`
	ArtistID  int64     `json:"artist_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
