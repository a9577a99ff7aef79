package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gigbook/internal/conflict"
	"gigbook/internal/domain"
	"gigbook/internal/events"
	"gigbook/internal/metrics"
	"gigbook/internal/models"
	"gigbook/internal/slug"

	"github.com/rs/zerolog"
)

// EventRequest is an artist's proposal to perform at a venue.
type EventRequest struct {
	Title       string
	Description string
	StartAt     time.Time
	EndAt       *time.Time
	TotalHours  *float64
	Budget      *float64
}

// EventRequestResult reports the outcome of RequestEventAtVenue. Expected business
// failures are reported here with Success=false instead of as errors.
type EventRequestResult struct {
	Success bool   `json:"success"`
	EventID int64  `json:"event_id,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
}

func failed(message string) *EventRequestResult {
	return &EventRequestResult{Success: false, Message: message}
}

// LineupArtist is an event artist row with the artist's public name.
type LineupArtist struct {
	models.EventArtist
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// EventView is an event with its venue and lineup.
type EventView struct {
	*models.Event
	VenueName string         `json:"venue_name"`
	VenueSlug string         `json:"venue_slug"`
	Artists   []LineupArtist `json:"artists"`
}

type EventService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	maxHours float64
	logger   *zerolog.Logger
}

// NewEventService caps requested events at maxHours, the same limit bookings use.
func NewEventService(repo domain.Repository, eventBus domain.EventPublisher, maxHours float64, logger *zerolog.Logger) *EventService {
	if maxHours <= 0 {
		maxHours = 24
	}
	return &EventService{repo: repo, eventBus: eventBus, maxHours: maxHours, logger: logger}
}

// RequestEventAtVenue records an artist's event proposal at a venue. Venues with
// auto-approve publish it straight away.
func (s *EventService) RequestEventAtVenue(ctx context.Context, actor *models.User, venueID int64, req EventRequest) (*EventRequestResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var (
		result *EventRequestResult
		event  *models.Event
		artist *models.Artist
	)
	err := s.repo.InTx(ctx, func(tx domain.Repository) error {
		venue, err := tx.GetVenue(ctx, venueID)
		if errors.Is(err, domain.ErrNotFound) {
			result = failed("venue not found")
			return nil
		} else if err != nil {
			return fmt.Errorf("get venue: %w", err)
		}

		artist, err = tx.GetArtistByUserID(ctx, actor.ID)
		if errors.Is(err, domain.ErrNotFound) {
			result = failed("artist profile required")
			return nil
		} else if err != nil {
			return fmt.Errorf("get artist profile: %w", err)
		}

		title := strings.TrimSpace(req.Title)
		switch {
		case title == "":
			result = failed("title is required")
			return nil
		case req.StartAt.IsZero():
			result = failed("event date is required")
			return nil
		case req.TotalHours != nil && *req.TotalHours <= 0:
			result = failed("total hours must be positive")
			return nil
		case req.TotalHours != nil && *req.TotalHours > s.maxHours:
			result = failed(fmt.Sprintf("total hours must not exceed %g", s.maxHours))
			return nil
		}

		event = &models.Event{
			VenueID:     venue.ID,
			Title:       title,
			Slug:        slug.Make(title, "event"),
			Description: strings.TrimSpace(req.Description),
			StartAt:     normalizeTime(req.StartAt),
			Status:      models.EventRequested,
			TotalHours:  req.TotalHours,
			Budget:      req.Budget,
			RequestedBy: actor.ID,
		}
		switch {
		case req.EndAt != nil:
			end := normalizeTime(*req.EndAt)
			if !end.After(event.StartAt) {
				result = failed("end must be after start")
				return nil
			}
			event.EndAt = &end
		case req.TotalHours != nil:
			end := event.StartAt.Add(models.HoursToDuration(*req.TotalHours))
			event.EndAt = &end
		}
		if event.EndAt != nil && event.EndAt.Sub(event.StartAt) > models.HoursToDuration(s.maxHours) {
			result = failed(fmt.Sprintf("event must not last longer than %g hours", s.maxHours))
			return nil
		}

		slot := conflict.EventInterval(event)
		busy, err := conflict.NewDetector(tx).HasConflict(ctx, artist.ID, slot.Start, slot.End)
		if err != nil {
			return fmt.Errorf("check conflicts: %w", err)
		}
		if busy {
			metrics.IncConflict()
			result = failed("artist unavailable")
			return nil
		}

		if err := tx.CreateEvent(ctx, event); err != nil {
			return err
		}
		if err := tx.AddEventArtist(ctx, &models.EventArtist{EventID: event.ID, ArtistID: artist.ID, Hours: req.TotalHours}); err != nil {
			return err
		}

		if venue.AutoApprove {
			if err := tx.UpdateEventStatus(ctx, event.ID, models.EventRequested, models.EventPublished); err != nil {
				return transitionErr(err, "event")
			}
			if err := tx.ConfirmEventArtists(ctx, event.ID); err != nil {
				return err
			}
			event.Status = models.EventPublished
		}

		result = &EventRequestResult{Success: true, EventID: event.ID, Status: event.Status, Message: "event requested"}
		if venue.AutoApprove {
			result.Message = "event published"
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !result.Success {
		s.logger.Debug().Int64("venue_id", venueID).Int64("user_id", actor.ID).Str("reason", result.Message).Msg("Event request rejected")
		return result, nil
	}

	metrics.IncEventTransition(event.Status)
	s.logger.Info().Int64("event_id", event.ID).Int64("venue_id", venueID).Str("status", event.Status).Msg("Event requested")

	eventType := events.EventEventRequested
	if event.Status == models.EventPublished {
		eventType = events.EventEventPublished
	}
	s.publishEvent(ctx, eventType, event, artist.ID, actor.ID)
	return result, nil
}

// ApproveEvent publishes a requested event and confirms its lineup. The lineup is
// re-checked for conflicts that appeared after the request.
func (s *EventService) ApproveEvent(ctx context.Context, actor *models.User, eventID int64) (*models.Event, error) {
	return s.decide(ctx, actor, eventID, models.EventPublished)
}

func (s *EventService) DeclineEvent(ctx context.Context, actor *models.User, eventID int64) (*models.Event, error) {
	return s.decide(ctx, actor, eventID, models.EventDeclined)
}

func (s *EventService) decide(ctx context.Context, actor *models.User, eventID int64, next string) (*models.Event, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var (
		event    *models.Event
		artistID int64
	)
	err := s.repo.InTx(ctx, func(tx domain.Repository) error {
		var err error
		event, err = tx.GetEvent(ctx, eventID)
		if err != nil {
			return lookupErr(err, "event")
		}
		if _, err := loadOwnedVenue(ctx, tx, actor, event.VenueID); err != nil {
			return err
		}
		if event.Status != models.EventRequested {
			return domain.InvalidState(fmt.Sprintf("event is %s, only requested events can be decided", event.Status))
		}

		lineup, err := tx.ListEventArtists(ctx, event.ID)
		if err != nil {
			return err
		}
		if len(lineup) > 0 {
			artistID = lineup[0].ArtistID
		}

		if next == models.EventPublished {
			detector := conflict.NewDetector(tx)
			slot := conflict.EventInterval(event)
			for _, ea := range lineup {
				busy, err := detector.HasConflict(ctx, ea.ArtistID, slot.Start, slot.End)
				if err != nil {
					return fmt.Errorf("check conflicts: %w", err)
				}
				if busy {
					metrics.IncConflict()
					return domain.ArtistUnavailable()
				}
			}
		}

		if err := tx.UpdateEventStatus(ctx, event.ID, models.EventRequested, next); err != nil {
			return transitionErr(err, "event")
		}
		if next == models.EventPublished {
			if err := tx.ConfirmEventArtists(ctx, event.ID); err != nil {
				return err
			}
		}
		event.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncEventTransition(next)
	s.logger.Info().Int64("event_id", event.ID).Str("status", next).Msg("Event decided")

	eventType := events.EventEventDeclined
	if next == models.EventPublished {
		eventType = events.EventEventPublished
	}
	s.publishEvent(ctx, eventType, event, artistID, actor.ID)
	return event, nil
}

// CreateEventForBooking materializes the event of an accepted booking. Calling it again
// returns the already linked event; created reports whether a new row was written.
func (s *EventService) CreateEventForBooking(ctx context.Context, actor *models.User, bookingID int64) (event *models.Event, created bool, err error) {
	if err := requireActor(actor); err != nil {
		return nil, false, err
	}

	var artistID int64
	err = s.repo.InTx(ctx, func(tx domain.Repository) error {
		booking, err := tx.GetBooking(ctx, bookingID)
		if err != nil {
			return lookupErr(err, "booking")
		}
		artist, err := tx.GetArtist(ctx, booking.ArtistID)
		if err != nil {
			return lookupErr(err, "artist")
		}
		venue, err := tx.GetVenue(ctx, booking.VenueID)
		if err != nil {
			return lookupErr(err, "venue")
		}
		if !ownsArtist(actor, artist) && !ownsVenue(actor, venue) {
			return domain.Forbidden("only the booking parties can create its event")
		}
		artistID = artist.ID

		if booking.EventID != nil {
			event, err = tx.GetEvent(ctx, *booking.EventID)
			if err != nil {
				return lookupErr(err, "event")
			}
			return nil
		}
		if booking.Status != models.BookingAccepted {
			return domain.InvalidState(fmt.Sprintf("booking is %s, only accepted bookings have events", booking.Status))
		}

		event, err = materializeEvent(ctx, tx, booking, artist)
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		metrics.IncEventTransition(models.EventPublished)
		s.logger.Info().Int64("event_id", event.ID).Int64("booking_id", bookingID).Msg("Event created for booking")
		s.publishEvent(ctx, events.EventEventPublished, event, artistID, actor.ID)
	}
	return event, created, nil
}

// GetEventBySlug returns an event with its lineup. Unpublished events are only visible to their parties.
func (s *EventService) GetEventBySlug(ctx context.Context, actor *models.User, eventSlug string) (*EventView, error) {
	event, err := s.repo.GetEventBySlug(ctx, eventSlug)
	if err != nil {
		return nil, lookupErr(err, "event")
	}
	venue, err := s.repo.GetVenue(ctx, event.VenueID)
	if err != nil {
		return nil, lookupErr(err, "venue")
	}
	lineup, err := s.repo.ListEventArtists(ctx, event.ID)
	if err != nil {
		return nil, err
	}

	view := &EventView{Event: event, VenueName: venue.Name, VenueSlug: venue.Slug, Artists: make([]LineupArtist, 0, len(lineup))}
	party := actor != nil && ownsVenue(actor, venue)
	for _, ea := range lineup {
		artist, err := s.repo.GetArtist(ctx, ea.ArtistID)
		if err != nil {
			return nil, lookupErr(err, "artist")
		}
		if actor != nil && artist.UserID == actor.ID {
			party = true
		}
		view.Artists = append(view.Artists, LineupArtist{EventArtist: *ea, Name: artist.Name, Slug: artist.Slug})
	}

	if event.Status != models.EventPublished && !party {
		return nil, domain.NotFound("event")
	}
	return view, nil
}

// ListVenueEvents lists the events of the actor's venue, optionally filtered by status.
func (s *EventService) ListVenueEvents(ctx context.Context, actor *models.User, status string) ([]*models.Event, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	venue, err := s.repo.GetVenueByUserID(ctx, actor.ID)
	if err != nil {
		return nil, lookupErr(err, "venue profile")
	}
	list, err := s.repo.ListVenueEvents(ctx, venue.ID, status)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Event{}
	}
	return list, nil
}

// materializeEvent writes the published event of an accepted booking and links it.
// It must run inside the caller's transaction.
func materializeEvent(ctx context.Context, tx domain.Repository, booking *models.Booking, artist *models.Artist) (*models.Event, error) {
	venue, err := tx.GetVenue(ctx, booking.VenueID)
	if err != nil {
		return nil, lookupErr(err, "venue")
	}

	hours := booking.Hours
	end := booking.EndsAt()
	fee := artist.Rate * hours
	title := fmt.Sprintf("%s at %s", artist.Name, venue.Name)

	event := &models.Event{
		VenueID:     venue.ID,
		Title:       title,
		Slug:        slug.Make(title, "event"),
		Description: booking.Note,
		StartAt:     booking.EventDate,
		EndAt:       &end,
		Status:      models.EventPublished,
		TotalHours:  &hours,
		RequestedBy: venue.UserID,
	}
	if err := tx.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	if err := tx.AddEventArtist(ctx, &models.EventArtist{
		EventID:   event.ID,
		ArtistID:  artist.ID,
		Fee:       &fee,
		Hours:     &hours,
		Confirmed: true,
	}); err != nil {
		return nil, err
	}
	if err := tx.SetBookingEvent(ctx, booking.ID, event.ID); err != nil {
		return nil, transitionErr(err, "booking")
	}

	id := event.ID
	booking.EventID = &id
	booking.Version++
	return event, nil
}

func eventPayload(ctx context.Context, repo domain.Repository, event *models.Event, artistID, changedByID int64) (events.EventEventPayload, error) {
	payload := events.EventEventPayload{
		EventID:     event.ID,
		Slug:        event.Slug,
		Title:       event.Title,
		Status:      event.Status,
		StartAt:     event.StartAt,
		VenueID:     event.VenueID,
		ChangedByID: changedByID,
	}

	venue, err := repo.GetVenue(ctx, event.VenueID)
	if err != nil {
		return payload, fmt.Errorf("get venue: %w", err)
	}
	payload.VenueName = venue.Name
	if owner, err := repo.GetUserByID(ctx, venue.UserID); err == nil {
		payload.VenueEmail = owner.Email
	} else {
		return payload, fmt.Errorf("get venue owner: %w", err)
	}

	if artistID == 0 {
		return payload, nil
	}
	artist, err := repo.GetArtist(ctx, artistID)
	if err != nil {
		return payload, fmt.Errorf("get artist: %w", err)
	}
	payload.ArtistID = artist.ID
	payload.ArtistName = artist.Name
	if owner, err := repo.GetUserByID(ctx, artist.UserID); err == nil {
		payload.ArtistEmail = owner.Email
	} else {
		return payload, fmt.Errorf("get artist owner: %w", err)
	}
	return payload, nil
}

func (s *EventService) publishEvent(ctx context.Context, eventType string, event *models.Event, artistID, changedByID int64) {
	if s.eventBus == nil {
		return
	}
	payload, err := eventPayload(ctx, s.repo, event, artistID, changedByID)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("event_id", event.ID).Msg("build event payload error")
		return
	}
	publish(s.eventBus, s.logger, eventType, payload)
}
