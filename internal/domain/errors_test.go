package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	err := ArtistUnavailable()
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, "artist_unavailable", Code(err))

	wrapped := fmt.Errorf("create booking: %w", err)
	assert.ErrorIs(t, wrapped, ErrConflict)
	assert.Equal(t, "artist_unavailable", Code(wrapped))
	assert.Equal(t, "artist is not available in the requested window", Message(wrapped))
}

func TestUnauthenticatedKeepsCause(t *testing.T) {
	cause := errors.New("token expired")
	err := Unauthenticated(cause)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "unauthenticated", Code(err))
}

func TestCodeFallbacks(t *testing.T) {
	assert.Equal(t, "not_found", Code(fmt.Errorf("x: %w", ErrNotFound)))
	assert.Equal(t, "dependency_failure", Code(ErrDependencyFailure))
	assert.Equal(t, "internal_error", Code(errors.New("boom")))
	assert.Equal(t, "boom", Message(errors.New("boom")))
}
