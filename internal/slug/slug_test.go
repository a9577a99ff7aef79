package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Luna Duo", "luna-duo"},
		{"accents", "Café Müller", "cafe-muller"},
		{"punctuation", "  The   Blue -- Note!! ", "the-blue-note"},
		{"digits", "Club 77", "club-77"},
		{"non latin falls back", "Ночной клуб", "venue"},
		{"empty", "", "venue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.in, "venue"))
		})
	}
}

func TestMake_Truncates(t *testing.T) {
	s := Make(strings.Repeat("ab ", 60), "x")
	assert.LessOrEqual(t, len(s), maxLen)
	assert.False(t, strings.HasSuffix(s, "-"))
}

func TestCandidate(t *testing.T) {
	assert.Equal(t, "luna-duo", Candidate("luna-duo", 1))
	assert.Equal(t, "luna-duo-2", Candidate("luna-duo", 2))
	assert.Equal(t, "luna-duo-10", Candidate("luna-duo", 10))
}
