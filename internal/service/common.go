package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gigbook/internal/domain"
	"gigbook/internal/models"
)

// lookupErr turns a repository miss into a NotFound business error and wraps everything else.
func lookupErr(err error, what string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFound(what)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

// transitionErr reports a lost optimistic-lock race as InvalidState.
func transitionErr(err error, what string) error {
	if errors.Is(err, domain.ErrInvalidState) {
		return domain.InvalidState(what + " was modified concurrently, reload and retry")
	}
	return fmt.Errorf("update %s: %w", what, err)
}

func requireActor(actor *models.User) error {
	if actor == nil {
		return domain.Unauthenticated(errors.New("no user in request context"))
	}
	return nil
}

func ownsVenue(actor *models.User, venue *models.Venue) bool {
	return actor.IsAdmin() || venue.UserID == actor.ID
}

func ownsArtist(actor *models.User, artist *models.Artist) bool {
	return actor.IsAdmin() || artist.UserID == actor.ID
}

// loadOwnedVenue fetches the venue and checks that actor may act for it.
func loadOwnedVenue(ctx context.Context, repo domain.Repository, actor *models.User, venueID int64) (*models.Venue, error) {
	venue, err := repo.GetVenue(ctx, venueID)
	if err != nil {
		return nil, lookupErr(err, "venue")
	}
	if !ownsVenue(actor, venue) {
		return nil, domain.Forbidden("only the venue owner can do this")
	}
	return venue, nil
}

// normalizeTime drops sub-second precision and the location; intervals are stored in whole UTC seconds.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
