package ingest

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// stripPolicy removes every tag and keeps the text content.
var stripPolicy = bluemonday.StrictPolicy()

// plainText turns a possibly-HTML fragment into single-spaced plain text.
// Entities are decoded after sanitising so escaped markup stays text.
func plainText(s string) string {
	if s == "" {
		return ""
	}
	cleaned := html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.Join(strings.Fields(cleaned), " ")
}

// normalize cleans the text fields of raw and trims the rest.
func normalize(raw RawArticle) RawArticle {
	return RawArticle{
		Title:       plainText(raw.Title),
		Description: plainText(raw.Description),
		Content:     plainText(raw.Content),
		URL:         strings.TrimSpace(raw.URL),
		ImageURL:    strings.TrimSpace(raw.ImageURL),
		Source:      strings.TrimSpace(raw.Source),
		PublishedAt: raw.PublishedAt,
	}
}
