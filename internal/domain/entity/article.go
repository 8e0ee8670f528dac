// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as Article and Subscription, along with
// their validation rules and domain-specific errors.
package entity

import "time"

// Category is the topic tag assigned to an article by the classifier.
type Category string

// Categories known to the application. CategoryFintech is the catch-all.
const (
	CategoryAIML       Category = "ai-ml"
	CategoryBlockchain Category = "blockchain"
	CategoryCloud      Category = "cloud"
	CategorySecurity   Category = "security"
	CategoryStartup    Category = "startup"
	CategoryFintech    Category = "fintech"
)

// AllCategories lists every valid category in classification priority order.
var AllCategories = []Category{
	CategoryAIML,
	CategoryBlockchain,
	CategoryCloud,
	CategorySecurity,
	CategoryStartup,
	CategoryFintech,
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// TechLevel is the technical audience of an article.
// The zero value TechLevelUnset means "unknown" and is not a fourth level.
type TechLevel string

const (
	TechLevelUnset        TechLevel = ""
	TechLevelBeginner     TechLevel = "beginner"
	TechLevelIntermediate TechLevel = "intermediate"
	TechLevelAdvanced     TechLevel = "advanced"
)

// IsSet reports whether the tech level was determined.
func (l TechLevel) IsSet() bool {
	return l != TechLevelUnset
}

// UrgencyTier is how time-sensitive an article is.
// It is derived on demand and never persisted.
type UrgencyTier string

const (
	UrgencyLow    UrgencyTier = "low"
	UrgencyMedium UrgencyTier = "medium"
	UrgencyHigh   UrgencyTier = "high"
)

// Article represents a classified news article.
// Articles are immutable once classified.
type Article struct {
	ID          string
	Title       string
	Summary     string
	Content     string
	URL         string
	ImageURL    string
	Source      string
	PublishedAt time.Time
	Category    Category
	TechLevel   TechLevel
	ReadingTime int // minutes, always >= 1
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
