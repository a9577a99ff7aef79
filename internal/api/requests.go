package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gigbook/internal/domain"
	"gigbook/internal/models"
	"gigbook/internal/service"
)

const maxBodyBytes = 1 << 20

// validator is implemented by every request body.
type validator interface {
	Validate() error
}

// decode reads a JSON body into dst once and validates it.
func decode(r *http.Request, dst validator) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.InvalidInput("request body is required")
		}
		return domain.InvalidInput("invalid JSON body: " + err.Error())
	}
	return dst.Validate()
}

type artistRequest struct {
	Name     string   `json:"name"`
	City     string   `json:"city"`
	Genres   []string `json:"genres"`
	Rate     float64  `json:"rate"`
	Bio      string   `json:"bio"`
	ImageURL string   `json:"image_url"`
}

func (r *artistRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return domain.InvalidInput("name is required")
	}
	if r.Rate < 0 {
		return domain.InvalidInput("rate must not be negative")
	}
	return nil
}

func (r *artistRequest) profile() service.ArtistProfile {
	return service.ArtistProfile{Name: r.Name, City: r.City, Genres: r.Genres, Rate: r.Rate, Bio: r.Bio, ImageURL: r.ImageURL}
}

type venueRequest struct {
	Name        string `json:"name"`
	City        string `json:"city"`
	Address     string `json:"address"`
	About       string `json:"about"`
	AutoApprove bool   `json:"auto_approve"`
}

func (r *venueRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return domain.InvalidInput("name is required")
	}
	return nil
}

func (r *venueRequest) profile() service.VenueProfile {
	return service.VenueProfile{Name: r.Name, City: r.City, Address: r.Address, About: r.About, AutoApprove: r.AutoApprove}
}

type unavailabilityRequest struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Reason string    `json:"reason"`
}

func (r *unavailabilityRequest) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return domain.InvalidInput("start and end are required")
	}
	if !r.End.After(r.Start) {
		return domain.InvalidInput("end must be after start")
	}
	return nil
}

type bookingRequest struct {
	VenueID   int64     `json:"venue_id"`
	ArtistID  int64     `json:"artist_id"`
	EventDate time.Time `json:"event_date"`
	Hours     float64   `json:"hours"`
	Note      string    `json:"note"`
}

func (r *bookingRequest) Validate() error {
	switch {
	case r.ArtistID <= 0:
		return domain.InvalidInput("artist_id is required")
	case r.EventDate.IsZero():
		return domain.InvalidInput("event_date is required")
	case r.Hours <= 0:
		return domain.InvalidInput("hours must be positive")
	}
	return nil
}

type respondRequest struct {
	Action string `json:"action"`
}

func (r *respondRequest) Validate() error {
	r.Action = strings.ToLower(strings.TrimSpace(r.Action))
	if r.Action != models.ActionAccept && r.Action != models.ActionDecline {
		return domain.InvalidInput(fmt.Sprintf("action must be %q or %q", models.ActionAccept, models.ActionDecline))
	}
	return nil
}

// eventRequest is validated by the workflow itself so that missing fields come back
// as a result message; only the shape is checked here.
type eventRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	EventDate   time.Time  `json:"event_date"`
	EndAt       *time.Time `json:"end_at"`
	TotalHours  *float64   `json:"total_hours"`
	Budget      *float64   `json:"budget"`
}

func (r *eventRequest) Validate() error {
	if r.Budget != nil && *r.Budget < 0 {
		return domain.InvalidInput("budget must not be negative")
	}
	return nil
}

func (r *eventRequest) request() service.EventRequest {
	return service.EventRequest{
		Title:       r.Title,
		Description: r.Description,
		StartAt:     r.EventDate,
		EndAt:       r.EndAt,
		TotalHours:  r.TotalHours,
		Budget:      r.Budget,
	}
}
