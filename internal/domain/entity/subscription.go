package entity

import "time"

// Frequency controls how often a subscriber may be notified.
type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyHourly    Frequency = "hourly"
	FrequencyDaily     Frequency = "daily"
)

// IsValid reports whether f is one of the three supported frequencies.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyImmediate, FrequencyHourly, FrequencyDaily:
		return true
	default:
		return false
	}
}

// PushKeys are the browser-generated keys of a push subscription.
// They are opaque to the engine and passed to the delivery transport as-is.
type PushKeys struct {
	P256dh string
	Auth   string
}

// QuietHours is a daily time-of-day window during which non-urgent
// notifications are suppressed. Start and End are "HH:MM" (24h).
type QuietHours struct {
	Enabled bool
	Start   string
	End     string
}

// Preferences holds the subscriber-controlled notification settings.
type Preferences struct {
	// Enabled turns all notifications on or off.
	Enabled bool
	// Categories is the allow-list. Empty means every category.
	Categories []Category
	Frequency  Frequency
	QuietHours QuietHours
	// Timezone is the IANA zone used to evaluate quiet hours.
	// Empty means the server's configured default zone.
	Timezone string
}

// AllowsCategory reports whether the allow-list admits c.
func (p Preferences) AllowsCategory(c Category) bool {
	if len(p.Categories) == 0 {
		return true
	}
	for _, allowed := range p.Categories {
		if allowed == c {
			return true
		}
	}
	return false
}

// DefaultPreferences mirrors the settings a new browser client starts with.
func DefaultPreferences() Preferences {
	return Preferences{
		Enabled:    true,
		Categories: nil,
		Frequency:  FrequencyDaily,
		QuietHours: QuietHours{Enabled: true, Start: "22:00", End: "08:00"},
	}
}

// Subscription is a push registration. One user owns exactly one endpoint;
// re-registration creates a new record.
type Subscription struct {
	UserID       string
	Endpoint     string
	Keys         PushKeys
	Preferences  Preferences
	Active       bool
	LastNotified *time.Time
	CreatedAt    time.Time
}
