package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fintech-news/internal/domain/entity"
)

func minutes(t *testing.T, hhmm string) int {
	t.Helper()
	m, err := entity.ParseClockTime(hhmm)
	if err != nil {
		t.Fatalf("bad clock time %q: %v", hhmm, err)
	}
	return m
}

func TestIsQuietNow_OvernightWindow(t *testing.T) {
	window := entity.QuietHours{Enabled: true, Start: "22:00", End: "08:00"}

	tests := []struct {
		now  string
		want bool
	}{
		{"22:00", true},
		{"23:30", true},
		{"00:00", true},
		{"07:59", true},
		{"08:00", false},
		{"12:00", false},
		{"21:59", false},
	}

	for _, tt := range tests {
		t.Run(tt.now, func(t *testing.T) {
			assert.Equal(t, tt.want, IsQuietNow(window, minutes(t, tt.now)))
		})
	}
}

func TestIsQuietNow_SameDayWindow(t *testing.T) {
	window := entity.QuietHours{Enabled: true, Start: "12:00", End: "13:30"}

	assert.False(t, IsQuietNow(window, minutes(t, "11:59")))
	assert.True(t, IsQuietNow(window, minutes(t, "12:00")))
	assert.True(t, IsQuietNow(window, minutes(t, "13:29")))
	assert.False(t, IsQuietNow(window, minutes(t, "13:30")))
}

func TestIsQuietNow_EqualBoundsNeverMatch(t *testing.T) {
	window := entity.QuietHours{Enabled: true, Start: "09:00", End: "09:00"}

	for m := 0; m < 24*60; m++ {
		if IsQuietNow(window, m) {
			t.Fatalf("zero-width window matched at minute %d", m)
		}
	}
}

func TestIsQuietNow_Disabled(t *testing.T) {
	window := entity.QuietHours{Enabled: false, Start: "00:00", End: "23:59"}
	assert.False(t, IsQuietNow(window, minutes(t, "12:00")))
}

func TestIsQuietNow_MalformedNeverMatches(t *testing.T) {
	window := entity.QuietHours{Enabled: true, Start: "10pm", End: "08:00"}
	assert.False(t, IsQuietNow(window, minutes(t, "23:00")))
}

func TestIsQuietAt_UsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	window := entity.QuietHours{Enabled: true, Start: "22:00", End: "08:00"}

	// 14:00 UTC is 23:00 in Tokyo.
	at := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	assert.False(t, IsQuietAt(window, at, nil))
	assert.False(t, IsQuietAt(window, at, time.UTC))
	assert.True(t, IsQuietAt(window, at, tokyo))
}
