package notify

import (
	"time"

	"fintech-news/internal/domain/entity"
)

// IsQuietNow reports whether nowMinutes (minutes since midnight) falls in
// the window. The start bound is inclusive and the end bound exclusive.
// A window whose start equals its end never matches. Start and End must
// already be valid "HH:MM" strings; a malformed window never matches.
func IsQuietNow(window entity.QuietHours, nowMinutes int) bool {
	if !window.Enabled {
		return false
	}

	start, err := entity.ParseClockTime(window.Start)
	if err != nil {
		return false
	}
	end, err := entity.ParseClockTime(window.End)
	if err != nil {
		return false
	}

	switch {
	case start == end:
		return false
	case start < end:
		return nowMinutes >= start && nowMinutes < end
	default:
		// wraps past midnight
		return nowMinutes >= start || nowMinutes < end
	}
}

// IsQuietAt evaluates the window at instant t as seen in loc.
// A nil loc uses t's own location.
func IsQuietAt(window entity.QuietHours, t time.Time, loc *time.Location) bool {
	if loc != nil {
		t = t.In(loc)
	}
	return IsQuietNow(window, t.Hour()*60+t.Minute())
}
