// Package classify assigns category, tech level, reading time and urgency
// to raw article text. Every function is pure: the same input always
// yields the same output and nothing reads the clock.
package classify

import (
	"strings"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/utils/text"
)

// wordsPerMinute is the reading speed used for ReadingTime.
const wordsPerMinute = 200

// Result is the full classification of one article.
type Result struct {
	Category    entity.Category
	TechLevel   entity.TechLevel
	ReadingTime int
	Urgency     entity.UrgencyTier
}

// Classify runs every classifier over the article text. It never fails;
// empty input yields the fintech category, no tech level, one minute and
// low urgency.
func Classify(title, description, body string) Result {
	return Result{
		Category:    Categorize(title, description),
		TechLevel:   DetermineTechLevel(title, description),
		ReadingTime: ReadingTime(body),
		Urgency:     Urgency(title, description),
	}
}

// Categorize returns the first category whose keywords appear in the
// title or description, falling back to fintech.
func Categorize(title, description string) entity.Category {
	return firstMatch(categoryRules, searchText(title, description), entity.CategoryFintech)
}

// DetermineTechLevel checks beginner, then advanced, then intermediate.
// No match returns TechLevelUnset.
func DetermineTechLevel(title, description string) entity.TechLevel {
	return firstMatch(techLevelRules, searchText(title, description), entity.TechLevelUnset)
}

// ReadingTime estimates minutes to read body at 200 words per minute,
// rounded up, never less than one.
func ReadingTime(body string) int {
	words := text.CountWords(body)
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Urgency grades how time-sensitive an article is from its title and summary.
func Urgency(title, summary string) entity.UrgencyTier {
	return firstMatch(urgencyRules, searchText(title, summary), entity.UrgencyLow)
}

// ArticleUrgency is Urgency applied to a stored article.
func ArticleUrgency(a *entity.Article) entity.UrgencyTier {
	if a == nil {
		return entity.UrgencyLow
	}
	return Urgency(a.Title, a.Summary)
}

func searchText(title, description string) string {
	return strings.ToLower(title + " " + description)
}

func firstMatch[T any](rules []keywordRule[T], haystack string, fallback T) T {
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(haystack, kw) {
				return rule.label
			}
		}
	}
	return fallback
}
