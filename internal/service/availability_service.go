package service

import (
	"context"
	"strings"
	"time"

	"gigbook/internal/conflict"
	"gigbook/internal/domain"
	"gigbook/internal/models"

	"github.com/rs/zerolog"
)

// AvailabilityService manages artist blackout windows and answers availability checks.
type AvailabilityService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewAvailabilityService(repo domain.Repository, logger *zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{repo: repo, logger: logger}
}

func (s *AvailabilityService) ownArtist(ctx context.Context, actor *models.User) (*models.Artist, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	artist, err := s.repo.GetArtistByUserID(ctx, actor.ID)
	if err != nil {
		return nil, lookupErr(err, "artist profile")
	}
	return artist, nil
}

// AddUnavailability stores a blackout for the actor's artist profile. Overlapping blackouts are kept as is.
func (s *AvailabilityService) AddUnavailability(ctx context.Context, actor *models.User, start, end time.Time, reason string) (*models.ArtistUnavailability, error) {
	artist, err := s.ownArtist(ctx, actor)
	if err != nil {
		return nil, err
	}

	start, end = normalizeTime(start), normalizeTime(end)
	if !end.After(start) {
		return nil, domain.InvalidInput("end must be after start")
	}

	u := &models.ArtistUnavailability{
		ArtistID: artist.ID,
		Start:    start,
		End:      end,
		Reason:   strings.TrimSpace(reason),
	}
	if err := s.repo.AddUnavailability(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("artist_id", artist.ID).Int64("unavailability_id", u.ID).Msg("Blackout added")
	return u, nil
}

func (s *AvailabilityService) DeleteUnavailability(ctx context.Context, actor *models.User, id int64) error {
	artist, err := s.ownArtist(ctx, actor)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteUnavailability(ctx, artist.ID, id); err != nil {
		return lookupErr(err, "unavailability")
	}
	return nil
}

func (s *AvailabilityService) ListUnavailability(ctx context.Context, actor *models.User) ([]*models.ArtistUnavailability, error) {
	artist, err := s.ownArtist(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.repo.ListUnavailability(ctx, artist.ID)
}

// CheckAvailability lists what blocks the artist in [start, end). It is a read-only check;
// a free answer is not a reservation.
func (s *AvailabilityService) CheckAvailability(ctx context.Context, artistSlug string, start, end time.Time) (*conflict.Report, error) {
	start, end = normalizeTime(start), normalizeTime(end)
	if !end.After(start) {
		return nil, domain.InvalidInput("end must be after start")
	}

	artist, err := s.repo.GetArtistBySlug(ctx, artistSlug)
	if err != nil {
		return nil, lookupErr(err, "artist")
	}
	return conflict.NewDetector(s.repo).Conflicts(ctx, artist.ID, start, end)
}
