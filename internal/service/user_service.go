package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gigbook/internal/domain"
	"gigbook/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo        domain.Repository
	defaultRole string
	logger      *zerolog.Logger
}

func NewUserService(repo domain.Repository, defaultRole string, logger *zerolog.Logger) *UserService {
	if !models.ValidRole(defaultRole) {
		defaultRole = models.RoleVenue
	}
	return &UserService{repo: repo, defaultRole: defaultRole, logger: logger}
}

// Login upserts the user behind a verified identity. Name and role are refreshed from
// the claims; a token without a role keeps the stored role, or the default for new users.
func (s *UserService) Login(ctx context.Context, identity *models.Identity) (*models.User, error) {
	if identity == nil || strings.TrimSpace(identity.Email) == "" {
		return nil, domain.Unauthenticated(errors.New("identity has no email"))
	}

	id := *identity
	if id.Role == "" {
		existing, err := s.repo.GetUserByEmail(ctx, id.Email)
		switch {
		case err == nil:
			id.Role = existing.Role
		case errors.Is(err, domain.ErrNotFound):
			id.Role = s.defaultRole
		default:
			return nil, fmt.Errorf("get user: %w", err)
		}
	}

	user, err := s.repo.UpsertUser(ctx, &id)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return user, nil
}

// SetRole changes a user's role from the admin CLI.
func (s *UserService) SetRole(ctx context.Context, email, role string) error {
	if !models.ValidRole(role) {
		return domain.InvalidInput(fmt.Sprintf("unknown role %q", role))
	}
	if err := s.repo.SetUserRole(ctx, email, role); err != nil {
		return lookupErr(err, "user")
	}
	s.logger.Info().Str("email", email).Str("role", role).Msg("User role changed")
	return nil
}

// Account is the current user with whichever profiles they own.
type Account struct {
	User   *models.User   `json:"user"`
	Artist *models.Artist `json:"artist,omitempty"`
	Venue  *models.Venue  `json:"venue,omitempty"`
}

func (s *UserService) Me(ctx context.Context, actor *models.User) (*Account, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	acc := &Account{User: actor}
	artist, err := s.repo.GetArtistByUserID(ctx, actor.ID)
	switch {
	case err == nil:
		acc.Artist = artist
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get artist profile: %w", err)
	}

	venue, err := s.repo.GetVenueByUserID(ctx, actor.ID)
	switch {
	case err == nil:
		acc.Venue = venue
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get venue profile: %w", err)
	}
	return acc, nil
}
