package notify

import (
	"fmt"
	"time"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/usecase/classify"
	"fintech-news/internal/utils/text"
)

const (
	messageTitle = "FinTech News"
	urgentPrefix = "🔴 Breaking: "
	iconPath     = "/icon-192x192.png"
	badgePath    = "/badge-72x72.png"
	maxBodyRunes = 240

	// dailyBatchHour is the local hour daily digests go out.
	dailyBatchHour = 9
)

// Message is the human-readable part of a notification.
type Message struct {
	Title string
	Body  string
}

// GenerateMessage summarizes articles for one subscriber.
// One article is shown by title, prefixed when urgent. Several articles
// are summarized by count, calling out urgent ones.
func GenerateMessage(articles []*entity.Article, freq entity.Frequency) Message {
	switch len(articles) {
	case 0:
		return Message{Title: messageTitle, Body: "No new articles"}
	case 1:
		a := articles[0]
		body := a.Title
		if classify.ArticleUrgency(a) == entity.UrgencyHigh {
			body = urgentPrefix + a.Title
		}
		return Message{Title: messageTitle, Body: text.Truncate(body, maxBodyRunes)}
	}

	urgent := 0
	for _, a := range articles {
		if classify.ArticleUrgency(a) == entity.UrgencyHigh {
			urgent++
		}
	}

	if urgent > 0 {
		return Message{
			Title: messageTitle,
			Body:  fmt.Sprintf("🔴 %d new articles, including %d urgent", len(articles), urgent),
		}
	}

	if freq == entity.FrequencyHourly {
		return Message{Title: messageTitle, Body: fmt.Sprintf("%d new articles in the last hour", len(articles))}
	}
	return Message{Title: messageTitle, Body: fmt.Sprintf("%d new articles today", len(articles))}
}

// Payload is the JSON document the service worker receives.
type Payload struct {
	Title string      `json:"title"`
	Body  string      `json:"body"`
	Icon  string      `json:"icon"`
	Badge string      `json:"badge"`
	Tag   string      `json:"tag"`
	Data  PayloadData `json:"data"`
}

// PayloadData tells the client where a click should navigate.
type PayloadData struct {
	URL       string `json:"url"`
	ArticleID string `json:"articleId,omitempty"`
}

// BuildPayload wraps GenerateMessage with icon, tag and click target.
func BuildPayload(articles []*entity.Article, freq entity.Frequency) Payload {
	msg := GenerateMessage(articles, freq)
	p := Payload{
		Title: msg.Title,
		Body:  msg.Body,
		Icon:  iconPath,
		Badge: badgePath,
		Tag:   "fintech-news",
		Data:  PayloadData{URL: "/"},
	}

	switch len(articles) {
	case 0:
	case 1:
		id := articles[0].ID
		p.Tag = id
		p.Data = PayloadData{URL: "/articles/" + id, ArticleID: id}
	default:
		p.Tag = "fintech-news-digest"
	}
	return p
}

// NextBatchTime returns when a subscriber with freq should next receive a
// batch: now for immediate, the next top of the hour for hourly, and the
// next 09:00 in loc for daily. A nil loc uses now's location.
func NextBatchTime(freq entity.Frequency, now time.Time, loc *time.Location) time.Time {
	if loc != nil {
		now = now.In(loc)
	}

	switch freq {
	case entity.FrequencyImmediate:
		return now
	case entity.FrequencyHourly:
		return time.Date(now.Year(), now.Month(), now.Day(), now.Hour()+1, 0, 0, 0, now.Location())
	default:
		next := time.Date(now.Year(), now.Month(), now.Day(), dailyBatchHour, 0, 0, 0, now.Location())
		if !next.After(now) {
			next = time.Date(now.Year(), now.Month(), now.Day()+1, dailyBatchHour, 0, 0, 0, now.Location())
		}
		return next
	}
}
