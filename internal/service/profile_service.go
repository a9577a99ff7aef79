package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gigbook/internal/domain"
	"gigbook/internal/models"
	"gigbook/internal/slug"

	"github.com/rs/zerolog"
)

// ArtistProfile holds the editable fields of an artist profile.
type ArtistProfile struct {
	Name     string
	City     string
	Genres   []string
	Rate     float64
	Bio      string
	ImageURL string
}

func (p ArtistProfile) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return domain.InvalidInput("name is required")
	}
	if p.Rate < 0 {
		return domain.InvalidInput("rate must not be negative")
	}
	return nil
}

// VenueProfile holds the editable fields of a venue profile.
type VenueProfile struct {
	Name        string
	City        string
	Address     string
	About       string
	AutoApprove bool
}

func (p VenueProfile) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return domain.InvalidInput("name is required")
	}
	return nil
}

type ProfileService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewProfileService(repo domain.Repository, logger *zerolog.Logger) *ProfileService {
	return &ProfileService{repo: repo, logger: logger}
}

func (s *ProfileService) CreateArtist(ctx context.Context, actor *models.User, p ArtistProfile) (*models.Artist, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.Role != models.RoleArtist && !actor.IsAdmin() {
		return nil, domain.Forbidden("only artists can create an artist profile")
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	artist := &models.Artist{
		UserID:   actor.ID,
		Name:     strings.TrimSpace(p.Name),
		Slug:     slug.Make(p.Name, "artist"),
		City:     strings.TrimSpace(p.City),
		Genres:   cleanGenres(p.Genres),
		Rate:     p.Rate,
		Bio:      p.Bio,
		ImageURL: p.ImageURL,
	}

	err := s.repo.InTx(ctx, func(tx domain.Repository) error {
		if _, err := tx.GetArtistByUserID(ctx, actor.ID); err == nil {
			return domain.NewError(domain.ErrConflict, "profile_exists", "artist profile already exists")
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get artist profile: %w", err)
		}
		return tx.CreateArtist(ctx, artist)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("artist_id", artist.ID).Str("slug", artist.Slug).Msg("Artist profile created")
	return artist, nil
}

// UpdateArtist rewrites the actor's artist profile. The slug is kept as assigned at creation.
func (s *ProfileService) UpdateArtist(ctx context.Context, actor *models.User, p ArtistProfile) (*models.Artist, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	artist, err := s.repo.GetArtistByUserID(ctx, actor.ID)
	if err != nil {
		return nil, lookupErr(err, "artist profile")
	}
	artist.Name = strings.TrimSpace(p.Name)
	artist.City = strings.TrimSpace(p.City)
	artist.Genres = cleanGenres(p.Genres)
	artist.Rate = p.Rate
	artist.Bio = p.Bio
	artist.ImageURL = p.ImageURL

	if err := s.repo.UpdateArtist(ctx, artist); err != nil {
		return nil, lookupErr(err, "artist profile")
	}
	return artist, nil
}

func (s *ProfileService) GetArtist(ctx context.Context, artistSlug string) (*models.Artist, error) {
	artist, err := s.repo.GetArtistBySlug(ctx, artistSlug)
	if err != nil {
		return nil, lookupErr(err, "artist")
	}
	return artist, nil
}

func (s *ProfileService) ListArtists(ctx context.Context, filter domain.ProfileFilter) ([]*models.Artist, error) {
	return s.repo.ListArtists(ctx, filter)
}

func (s *ProfileService) CreateVenue(ctx context.Context, actor *models.User, p VenueProfile) (*models.Venue, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.Role != models.RoleVenue && !actor.IsAdmin() {
		return nil, domain.Forbidden("only venues can create a venue profile")
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	venue := &models.Venue{
		UserID:      actor.ID,
		Name:        strings.TrimSpace(p.Name),
		Slug:        slug.Make(p.Name, "venue"),
		City:        strings.TrimSpace(p.City),
		Address:     p.Address,
		About:       p.About,
		AutoApprove: p.AutoApprove,
	}

	err := s.repo.InTx(ctx, func(tx domain.Repository) error {
		if _, err := tx.GetVenueByUserID(ctx, actor.ID); err == nil {
			return domain.NewError(domain.ErrConflict, "profile_exists", "venue profile already exists")
		} else if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("get venue profile: %w", err)
		}
		return tx.CreateVenue(ctx, venue)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("venue_id", venue.ID).Str("slug", venue.Slug).Msg("Venue profile created")
	return venue, nil
}

func (s *ProfileService) UpdateVenue(ctx context.Context, actor *models.User, p VenueProfile) (*models.Venue, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	venue, err := s.repo.GetVenueByUserID(ctx, actor.ID)
	if err != nil {
		return nil, lookupErr(err, "venue profile")
	}
	venue.Name = strings.TrimSpace(p.Name)
	venue.City = strings.TrimSpace(p.City)
	venue.Address = p.Address
	venue.About = p.About
	venue.AutoApprove = p.AutoApprove

	if err := s.repo.UpdateVenue(ctx, venue); err != nil {
		return nil, lookupErr(err, "venue profile")
	}
	return venue, nil
}

func (s *ProfileService) GetVenue(ctx context.Context, venueSlug string) (*models.Venue, error) {
	venue, err := s.repo.GetVenueBySlug(ctx, venueSlug)
	if err != nil {
		return nil, lookupErr(err, "venue")
	}
	return venue, nil
}

func (s *ProfileService) ListVenues(ctx context.Context, filter domain.ProfileFilter) ([]*models.Venue, error) {
	return s.repo.ListVenues(ctx, filter)
}

func cleanGenres(genres []string) []string {
	out := make([]string, 0, len(genres))
	seen := make(map[string]bool, len(genres))
	for _, g := range genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	return out
}
