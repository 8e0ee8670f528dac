// Package article serves the recent article feed read by the web client.
package article

import (
	"time"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/usecase/classify"
)

// DTO is the JSON form of an article. Content is omitted from listings.
type DTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Content     string    `json:"content,omitempty"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Source      string    `json:"source"`
	Category    string    `json:"category"`
	TechLevel   string    `json:"techLevel,omitempty"`
	Urgency     string    `json:"urgency"`
	ReadingTime int       `json:"readingTime"`
	PublishedAt time.Time `json:"publishedAt"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toDTO(a *entity.Article, withContent bool) DTO {
	out := DTO{
		ID:          a.ID,
		Title:       a.Title,
		Summary:     a.Summary,
		URL:         a.URL,
		ImageURL:    a.ImageURL,
		Source:      a.Source,
		Category:    string(a.Category),
		TechLevel:   string(a.TechLevel),
		Urgency:     string(classify.ArticleUrgency(a)),
		ReadingTime: a.ReadingTime,
		PublishedAt: a.PublishedAt,
		CreatedAt:   a.CreatedAt,
	}
	if withContent {
		out.Content = a.Content
	}
	return out
}

// ListResponse wraps a page of the feed.
type ListResponse struct {
	Articles []DTO `json:"articles"`
	Count    int   `json:"count"`
}
