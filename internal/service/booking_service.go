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

	"github.com/rs/zerolog"
)

// BookingRequest is what a venue submits to book an artist.
type BookingRequest struct {
	VenueID   int64
	ArtistID  int64
	EventDate time.Time
	Hours     float64
	Note      string
}

type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	maxHours float64
	logger   *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, maxHours float64, logger *zerolog.Logger) *BookingService {
	if maxHours <= 0 {
		maxHours = 24
	}
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		maxHours: maxHours,
		logger:   logger,
	}
}

// RequestBooking creates a pending booking. The conflict check and the insert share one
// serialized transaction, so two venues racing for the same slot cannot both win.
func (s *BookingService) RequestBooking(ctx context.Context, actor *models.User, req BookingRequest) (*models.Booking, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if req.Hours <= 0 {
		return nil, domain.InvalidInput("hours must be positive")
	}
	if req.Hours > s.maxHours {
		return nil, domain.InvalidInput(fmt.Sprintf("hours must not exceed %g", s.maxHours))
	}
	if req.EventDate.IsZero() {
		return nil, domain.InvalidInput("event date is required")
	}

	booking := &models.Booking{
		ArtistID:  req.ArtistID,
		VenueID:   req.VenueID,
		EventDate: normalizeTime(req.EventDate),
		Hours:     req.Hours,
		Note:      strings.TrimSpace(req.Note),
		Status:    models.BookingPending,
	}

	err := s.repo.InTx(ctx, func(tx domain.Repository) error {
		if _, err := loadOwnedVenue(ctx, tx, actor, req.VenueID); err != nil {
			return err
		}
		if _, err := tx.GetArtist(ctx, req.ArtistID); err != nil {
			return lookupErr(err, "artist")
		}

		busy, err := conflict.NewDetector(tx).HasConflict(ctx, booking.ArtistID, booking.EventDate, booking.EndsAt())
		if err != nil {
			return fmt.Errorf("check conflicts: %w", err)
		}
		if busy {
			metrics.IncConflict()
			return domain.ArtistUnavailable()
		}
		return tx.CreateBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncBookingTransition(models.BookingPending)
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("artist_id", booking.ArtistID).
		Int64("venue_id", booking.VenueID).
		Time("event_date", booking.EventDate).
		Msg("Booking requested")
	s.publishEvent(ctx, events.EventBookingRequested, booking.ID, actor.ID, "")
	return booking, nil
}

// Respond lets the artist accept or decline a pending booking. Accepting materializes the
// event in the same transaction; if that fails nothing is committed.
func (s *BookingService) Respond(ctx context.Context, actor *models.User, bookingID int64, action string) (*models.Booking, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var next string
	switch action {
	case models.ActionAccept:
		next = models.BookingAccepted
	case models.ActionDecline:
		next = models.BookingDeclined
	default:
		return nil, domain.InvalidInput(fmt.Sprintf("unknown action %q", action))
	}

	var (
		booking *models.Booking
		event   *models.Event
	)
	err := s.repo.InTx(ctx, func(tx domain.Repository) error {
		var err error
		booking, err = tx.GetBooking(ctx, bookingID)
		if err != nil {
			return lookupErr(err, "booking")
		}
		artist, err := tx.GetArtist(ctx, booking.ArtistID)
		if err != nil {
			return lookupErr(err, "artist")
		}
		if !ownsArtist(actor, artist) {
			return domain.Forbidden("only the booked artist can respond")
		}
		if booking.Status != models.BookingPending {
			return domain.InvalidState(fmt.Sprintf("booking is %s, only pending bookings can be answered", booking.Status))
		}

		if err := tx.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, next); err != nil {
			return transitionErr(err, "booking")
		}
		booking.Status = next
		booking.Version++

		if next == models.BookingAccepted {
			event, err = materializeEvent(ctx, tx, booking, artist)
			if err != nil {
				return fmt.Errorf("materialize event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncBookingTransition(next)
	log := s.logger.Info().Int64("booking_id", booking.ID).Str("status", next)
	if event != nil {
		log = log.Int64("event_id", event.ID).Str("event_slug", event.Slug)
	}
	log.Msg("Booking answered")

	eventType, eventSlug := events.EventBookingDeclined, ""
	if event != nil {
		eventType, eventSlug = events.EventBookingAccepted, event.Slug
	}
	s.publishEvent(ctx, eventType, booking.ID, actor.ID, eventSlug)
	return booking, nil
}

// Cancel withdraws an accepted booking on behalf of the venue. A linked event is cancelled with it.
func (s *BookingService) Cancel(ctx context.Context, actor *models.User, bookingID int64) (*models.Booking, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var (
		booking   *models.Booking
		cancelled *models.Event
	)
	err := s.repo.InTx(ctx, func(tx domain.Repository) error {
		var err error
		booking, err = tx.GetBooking(ctx, bookingID)
		if err != nil {
			return lookupErr(err, "booking")
		}
		if _, err := loadOwnedVenue(ctx, tx, actor, booking.VenueID); err != nil {
			return err
		}
		if booking.Status != models.BookingAccepted {
			return domain.InvalidState(fmt.Sprintf("booking is %s, only accepted bookings can be cancelled", booking.Status))
		}

		if err := tx.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, models.BookingCancelled); err != nil {
			return transitionErr(err, "booking")
		}
		booking.Status = models.BookingCancelled
		booking.Version++

		if booking.EventID == nil {
			return nil
		}
		event, err := tx.GetEvent(ctx, *booking.EventID)
		if err != nil {
			return lookupErr(err, "event")
		}
		if event.Status == models.EventCancelled || event.Status == models.EventDeclined {
			return nil
		}
		if err := tx.UpdateEventStatus(ctx, event.ID, event.Status, models.EventCancelled); err != nil {
			return transitionErr(err, "event")
		}
		event.Status = models.EventCancelled
		cancelled = event
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncBookingTransition(models.BookingCancelled)
	s.logger.Info().Int64("booking_id", booking.ID).Msg("Booking cancelled")
	s.publishEvent(ctx, events.EventBookingCancelled, booking.ID, actor.ID, "")
	if cancelled != nil {
		metrics.IncEventTransition(models.EventCancelled)
		if payload, err := eventPayload(ctx, s.repo, cancelled, booking.ArtistID, actor.ID); err != nil {
			s.logger.Error().Err(err).Int64("event_id", cancelled.ID).Msg("build event payload error")
		} else {
			publish(s.eventBus, s.logger, events.EventEventCancelled, payload)
		}
	}
	return booking, nil
}

// GetBooking returns a booking to one of its parties or an admin.
func (s *BookingService) GetBooking(ctx context.Context, actor *models.User, bookingID int64) (*models.BookingDetails, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	details, err := s.repo.GetBookingDetails(ctx, bookingID)
	if err != nil {
		return nil, lookupErr(err, "booking")
	}
	if actor.IsAdmin() {
		return details, nil
	}
	if details.ArtistEmail != actor.Email && details.VenueEmail != actor.Email {
		return nil, domain.Forbidden("only the booking parties can view it")
	}
	return details, nil
}

// ListBookings returns the bookings of the actor's artist and venue profiles.
func (s *BookingService) ListBookings(ctx context.Context, actor *models.User, status string) ([]*models.BookingDetails, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	var out []*models.BookingDetails
	if artist, err := s.repo.GetArtistByUserID(ctx, actor.ID); err == nil {
		list, err := s.repo.ListBookings(ctx, domain.BookingFilter{ArtistID: artist.ID, Status: status})
		if err != nil {
			return nil, err
		}
		out = append(out, list...)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get artist profile: %w", err)
	}

	if venue, err := s.repo.GetVenueByUserID(ctx, actor.ID); err == nil {
		list, err := s.repo.ListBookings(ctx, domain.BookingFilter{VenueID: venue.ID, Status: status})
		if err != nil {
			return nil, err
		}
		out = appendUnique(out, list)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get venue profile: %w", err)
	}

	if out == nil {
		out = []*models.BookingDetails{}
	}
	return out, nil
}

// ListVenueBookings returns the bookings of the actor's venue within [from, to); zero bounds are open.
func (s *BookingService) ListVenueBookings(ctx context.Context, actor *models.User, from, to time.Time) (*models.Venue, []*models.BookingDetails, error) {
	if err := requireActor(actor); err != nil {
		return nil, nil, err
	}
	venue, err := s.repo.GetVenueByUserID(ctx, actor.ID)
	if err != nil {
		return nil, nil, lookupErr(err, "venue profile")
	}
	list, err := s.repo.ListBookings(ctx, domain.BookingFilter{VenueID: venue.ID, From: from, To: to})
	if err != nil {
		return nil, nil, err
	}
	return venue, list, nil
}

func appendUnique(dst, src []*models.BookingDetails) []*models.BookingDetails {
	seen := make(map[int64]bool, len(dst))
	for _, b := range dst {
		seen[b.ID] = true
	}
	for _, b := range src {
		if !seen[b.ID] {
			dst = append(dst, b)
		}
	}
	return dst
}

func (s *BookingService) publishEvent(ctx context.Context, eventType string, bookingID, changedByID int64, eventSlug string) {
	if s.eventBus == nil {
		return
	}

	details, err := s.repo.GetBookingDetails(ctx, bookingID)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", bookingID).Msg("load booking for event error")
		return
	}

	payload := events.BookingEventPayload{
		BookingID:   details.ID,
		ArtistID:    details.ArtistID,
		ArtistName:  details.ArtistName,
		ArtistEmail: details.ArtistEmail,
		VenueID:     details.VenueID,
		VenueName:   details.VenueName,
		VenueEmail:  details.VenueEmail,
		EventDate:   details.EventDate,
		Hours:       details.Hours,
		Status:      details.Status,
		Note:        details.Note,
		EventID:     details.EventID,
		EventSlug:   eventSlug,
		ChangedByID: changedByID,
	}
	publish(s.eventBus, s.logger, eventType, payload)
}

func publish(bus domain.EventPublisher, logger *zerolog.Logger, eventType string, payload interface{}) {
	if bus == nil {
		return
	}
	if err := bus.PublishJSON(eventType, payload); err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}
