package notify

import (
	"fmt"
	"sync"
	"time"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/usecase/classify"
)

// Decision is the outcome of evaluating one article for one subscriber.
type Decision int

const (
	Allow Decision = iota
	DenyDisabled
	DenyCategory
	DenyQuiet
	DenyThrottle
)

var decisionNames = [...]string{
	Allow:        "allow",
	DenyDisabled: "deny_disabled",
	DenyCategory: "deny_category",
	DenyQuiet:    "deny_quiet",
	DenyThrottle: "deny_throttle",
}

func (d Decision) String() string {
	if d < 0 || int(d) >= len(decisionNames) {
		return fmt.Sprintf("decision(%d)", int(d))
	}
	return decisionNames[d]
}

// MarshalText lets decisions render as their names in JSON.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Options tunes decision and dispatch behavior.
type Options struct {
	// Location evaluates quiet hours for subscribers without a timezone.
	// Nil means UTC.
	Location *time.Location
	// Concurrency bounds subscribers processed at once. <= 0 means 1.
	Concurrency int
	// DeliveryTimeout bounds a single push. <= 0 means defaultDeliveryTimeout.
	DeliveryTimeout time.Duration
}

// Decide applies the eligibility rules in fixed order:
// disabled, category, urgency override, quiet hours, throttle.
// Urgent articles skip quiet hours and throttling but never the category filter.
func Decide(article *entity.Article, sub *entity.Subscription, now time.Time, opts Options) Decision {
	prefs := sub.Preferences

	if !prefs.Enabled {
		return DenyDisabled
	}

	if !prefs.AllowsCategory(article.Category) {
		return DenyCategory
	}

	if classify.ArticleUrgency(article) == entity.UrgencyHigh {
		return Allow
	}

	if IsQuietAt(prefs.QuietHours, now, SubscriberLocation(prefs.Timezone, opts.Location)) {
		return DenyQuiet
	}

	if throttled(prefs.Frequency, sub.LastNotified, now) {
		return DenyThrottle
	}

	return Allow
}

func throttled(freq entity.Frequency, last *time.Time, now time.Time) bool {
	if last == nil {
		return false
	}

	var interval time.Duration
	switch freq {
	case entity.FrequencyHourly:
		interval = time.Hour
	case entity.FrequencyDaily:
		interval = 24 * time.Hour
	default:
		return false
	}

	return now.Sub(*last) < interval
}

var locationCache sync.Map // string -> *time.Location

// SubscriberLocation resolves a subscriber timezone name, falling back to def and then UTC.
func SubscriberLocation(name string, def *time.Location) *time.Location {
	if name != "" {
		if cached, ok := locationCache.Load(name); ok {
			return cached.(*time.Location)
		}
		if loc, err := time.LoadLocation(name); err == nil {
			locationCache.Store(name, loc)
			return loc
		}
	}
	if def != nil {
		return def
	}
	return time.UTC
}
