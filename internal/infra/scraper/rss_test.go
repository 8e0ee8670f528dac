package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintech-news/internal/resilience/retry"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
  <channel>
    <title>Fin Daily</title>
    <link>https://example.com</link>
    <description>Payments and banking</description>
    <item>
      <title>Card network fees cut</title>
      <link>https://example.com/fees</link>
      <description>&lt;p&gt;Regulators act on interchange.&lt;/p&gt;</description>
      <pubDate>Mon, 10 Mar 2025 08:00:00 +0000</pubDate>
      <enclosure url="https://example.com/fees.jpg" type="image/jpeg" length="1000"/>
    </item>
    <item>
      <title>Open banking adoption grows</title>
      <link>https://example.com/open-banking</link>
      <description>Usage is up.</description>
    </item>
  </channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Ledger Notes</title>
  <link href="https://example.org"/>
  <updated>2025-03-09T00:00:00Z</updated>
  <entry>
    <title>Tokenised deposits pilot</title>
    <link href="https://example.org/pilot"/>
    <updated>2025-03-09T12:00:00Z</updated>
    <summary>Banks test settlement.</summary>
    <content type="html">&lt;p&gt;Full pilot details.&lt;/p&gt;</content>
  </entry>
</feed>`

// fastRetry keeps retry tests quick.
func fastRetry(attempts int) retry.Config {
	return retry.Config{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

func serve(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(body))
	}))
}

func TestRSSSource_Fetch_RSS(t *testing.T) {
	// Arrange
	srv := serve(rssFeed)
	defer srv.Close()
	src := NewRSSSource("fin-daily", srv.URL, srv.Client())

	// Act
	items, err := src.Fetch(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "Card network fees cut", first.Title)
	assert.Equal(t, "https://example.com/fees", first.URL)
	assert.Equal(t, "<p>Regulators act on interchange.</p>", first.Description)
	assert.Equal(t, "https://example.com/fees.jpg", first.ImageURL)
	assert.Equal(t, "fin-daily", first.Source)
	assert.Equal(t, time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC), first.PublishedAt.UTC())

	assert.True(t, items[1].PublishedAt.IsZero())
	assert.Empty(t, items[1].ImageURL)
	assert.Equal(t, "fin-daily", src.Name())
}

func TestRSSSource_Fetch_Atom(t *testing.T) {
	srv := serve(atomFeed)
	defer srv.Close()
	src := NewRSSSource("", srv.URL, srv.Client())

	items, err := src.Fetch(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Tokenised deposits pilot", items[0].Title)
	assert.Equal(t, "https://example.org/pilot", items[0].URL)
	assert.Equal(t, "Banks test settlement.", items[0].Description)
	assert.Contains(t, items[0].Content, "Full pilot details.")
	assert.Equal(t, "Ledger Notes", items[0].Source, "feed title names an unnamed source")
	assert.Equal(t, time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC), items[0].PublishedAt.UTC())
}

func TestRSSSource_Fetch_Errors(t *testing.T) {
	t.Run("server error is retried", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = w.Write([]byte(rssFeed))
		}))
		defer srv.Close()

		src := NewRSSSource("fin-daily", srv.URL, srv.Client())
		src.retryConfig = fastRetry(3)

		items, err := src.Fetch(context.Background())

		require.NoError(t, err)
		assert.Len(t, items, 2)
		assert.Equal(t, int32(2), hits.Load())
	})

	t.Run("not found is not retried", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		src := NewRSSSource("gone", srv.URL, srv.Client())
		src.retryConfig = fastRetry(3)

		_, err := src.Fetch(context.Background())

		var httpErr *retry.HTTPError
		require.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("malformed feed", func(t *testing.T) {
		srv := serve("this is not xml")
		defer srv.Close()

		src := NewRSSSource("broken", srv.URL, srv.Client())
		src.retryConfig = fastRetry(1)

		_, err := src.Fetch(context.Background())
		assert.Error(t, err)
	})
}
