package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gigbook/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestValidation(t *testing.T) {
	start := time.Date(2025, 9, 10, 0, 0, 0, 0, time.UTC)
	negative := -1.0

	tests := []struct {
		name  string
		req   validator
		valid bool
	}{
		{"artist ok", &artistRequest{Name: "A", Rate: 10}, true},
		{"artist blank name", &artistRequest{Name: " "}, false},
		{"artist negative rate", &artistRequest{Name: "A", Rate: -5}, false},
		{"venue ok", &venueRequest{Name: "V"}, true},
		{"venue blank", &venueRequest{}, false},
		{"blackout ok", &unavailabilityRequest{Start: start, End: start.Add(time.Hour)}, true},
		{"blackout inverted", &unavailabilityRequest{Start: start, End: start.Add(-time.Hour)}, false},
		{"blackout empty", &unavailabilityRequest{Start: start, End: start}, false},
		{"blackout missing", &unavailabilityRequest{}, false},
		{"booking ok", &bookingRequest{ArtistID: 1, EventDate: start, Hours: 2}, true},
		{"booking no artist", &bookingRequest{EventDate: start, Hours: 2}, false},
		{"booking no date", &bookingRequest{ArtistID: 1, Hours: 2}, false},
		{"booking no hours", &bookingRequest{ArtistID: 1, EventDate: start}, false},
		{"respond accept", &respondRequest{Action: " ACCEPT "}, true},
		{"respond unknown", &respondRequest{Action: "later"}, false},
		{"event shape ok", &eventRequest{}, true},
		{"event negative budget", &eventRequest{Budget: &negative}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestDecode(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"decline"}`))
	var body respondRequest
	require.NoError(t, decode(req, &body))
	assert.Equal(t, "decline", body.Action)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.ErrorIs(t, decode(req, &body), domain.ErrInvalidInput)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":`))
	assert.ErrorIs(t, decode(req, &body), domain.ErrInvalidInput)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.Unauthenticated(errors.New("x")), http.StatusUnauthorized},
		{domain.Forbidden("x"), http.StatusForbidden},
		{domain.InvalidInput("x"), http.StatusBadRequest},
		{domain.ArtistUnavailable(), http.StatusConflict},
		{domain.NotFound("booking"), http.StatusNotFound},
		{domain.InvalidState("x"), http.StatusConflict},
		{domain.NewError(domain.ErrDependencyFailure, "smtp", "down"), http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
