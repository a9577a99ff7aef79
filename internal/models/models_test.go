package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBooking_EndsAt(t *testing.T) {
	start := time.Date(2025, 9, 12, 20, 0, 0, 0, time.UTC)

	b := &Booking{EventDate: start, Hours: 2}
	assert.Equal(t, start.Add(2*time.Hour), b.EndsAt())

	b.Hours = 1.5
	assert.Equal(t, start.Add(90*time.Minute), b.EndsAt())
}

func TestHoursToDuration_Saturates(t *testing.T) {
	assert.Equal(t, 2*time.Hour, HoursToDuration(2))
	assert.Equal(t, 45*time.Minute, HoursToDuration(0.75))

	huge := HoursToDuration(1e12)
	assert.Positive(t, huge)
	assert.Equal(t, time.Duration(maxWholeSeconds)*time.Second, huge)
	assert.Negative(t, HoursToDuration(-1e12))
}

func TestValidRole(t *testing.T) {
	assert.True(t, ValidRole(RoleArtist))
	assert.True(t, ValidRole(RoleVenue))
	assert.True(t, ValidRole(RoleAdmin))
	assert.False(t, ValidRole("manager"))
	assert.False(t, ValidRole(""))
}

func TestUser_IsAdmin(t *testing.T) {
	var nilUser *User
	assert.False(t, nilUser.IsAdmin())
	assert.False(t, (&User{Role: RoleVenue}).IsAdmin())
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
}
