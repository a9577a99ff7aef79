package database

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"gigbook/internal/domain"
	"gigbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ten venues race for the same slot. The check and the insert share a transaction,
// so exactly one booking may win.
func TestConcurrentBooking(t *testing.T) {
	logger := zerolog.Nop()
	dbPath := filepath.Join(t.TempDir(), "concurrency.db")
	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	f := seed(t, db)

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			results <- db.InTx(ctx, func(tx domain.Repository) error {
				existing, err := tx.ListCommittedBookings(ctx, f.artist.ID, ts(12, 20), ts(12, 22))
				if err != nil {
					return err
				}
				if len(existing) > 0 {
					return domain.ArtistUnavailable()
				}
				return tx.CreateBooking(ctx, &models.Booking{
					ArtistID: f.artist.ID, VenueID: f.venue.ID, EventDate: ts(12, 20), Hours: 2,
				})
			})
		}()
	}

	wg.Wait()
	close(results)

	successCount, conflictCount := 0, 0
	for err := range results {
		if err == nil {
			successCount++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConflict)
		conflictCount++
	}
	assert.Equal(t, 1, successCount)
	assert.Equal(t, numGoroutines-1, conflictCount)

	bookings, err := db.ListBookings(ctx, domain.BookingFilter{ArtistID: f.artist.ID})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestConcurrentSlugs(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	const n = 5
	users := make([]*models.User, n)
	for i := range users {
		u, err := db.UpsertUser(ctx, &models.Identity{Email: string(rune('a'+i)) + "@example.com", Role: models.RoleVenue})
		require.NoError(t, err)
		users[i] = u
	}

	var wg sync.WaitGroup
	slugs := make(chan string, n)
	for _, u := range users {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			v := &models.Venue{UserID: userID, Name: "Blue Note", Slug: "blue-note"}
			if assert.NoError(t, db.CreateVenue(ctx, v)) {
				slugs <- v.Slug
			}
		}(u.ID)
	}
	wg.Wait()
	close(slugs)

	seen := map[string]bool{}
	for s := range slugs {
		assert.False(t, seen[s], "duplicate slug %s", s)
		seen[s] = true
	}
	assert.Len(t, seen, n)
	assert.True(t, seen["blue-note"])
}
