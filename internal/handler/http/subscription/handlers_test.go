package subscription_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/handler/http/subscription"
	subUC "fintech-news/internal/usecase/subscription"
)

/* ───────── in-memory repository ───────── */

type memRepo struct {
	mu   sync.Mutex
	data map[string]*entity.Subscription
	err  error
}

func (m *memRepo) Get(_ context.Context, id string) (*entity.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[id], m.err
}

func (m *memRepo) Create(_ context.Context, s *entity.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[s.UserID] = s
	return nil
}

func (m *memRepo) UpdatePreferences(_ context.Context, id string, p entity.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.data[id]
	if !ok {
		return entity.ErrNotFound
	}
	s.Preferences = p
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[id]; !ok {
		return entity.ErrNotFound
	}
	delete(m.data, id)
	return nil
}

func (m *memRepo) ListActive(context.Context) ([]*entity.Subscription, error) { return nil, nil }
func (m *memRepo) TouchLastNotified(context.Context, string, time.Time) error { return nil }
func (m *memRepo) Deactivate(context.Context, string) error                   { return nil }

/* ───────── helpers ───────── */

const missingID = "00000000-0000-4000-8000-000000000000"

var fixedNow = time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

func setup(t *testing.T) (*http.ServeMux, *memRepo) {
	t.Helper()
	repo := &memRepo{data: map[string]*entity.Subscription{}}
	mux := http.NewServeMux()
	subscription.Register(mux, subUC.Service{Repo: repo, Now: func() time.Time { return fixedNow }}, nil)
	return mux, repo
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out
}

const registerBody = `{
	"endpoint": "https://203.0.114.7/push/v2/abc",
	"keys": {"p256dh": "BNcRdreALRFXTkOOUHK1EtK2wtaz5Ry4YfYCA_0QTpQt", "auth": "tBHItJI5svbpez7KI4CCXg"},
	"preferences": {"categories": ["fintech", "security"], "frequency": "immediate"}
}`

func register(t *testing.T, mux http.Handler) string {
	t.Helper()
	rr := do(mux, http.MethodPost, "/subscriptions", registerBody)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decodeBody(t, rr)["userId"].(string)
}

/* ───────── POST /subscriptions ───────── */

func TestCreateHandler(t *testing.T) {
	t.Run("registers with merged preferences", func(t *testing.T) {
		mux, repo := setup(t)

		id := register(t, mux)

		stored := repo.data[id]
		require.NotNil(t, stored)
		assert.True(t, stored.Active)
		assert.Equal(t, entity.FrequencyImmediate, stored.Preferences.Frequency)
		assert.Equal(t, []entity.Category{entity.CategoryFintech, entity.CategorySecurity}, stored.Preferences.Categories)
		assert.True(t, stored.Preferences.Enabled, "omitted enabled takes the default")
		assert.Equal(t, "22:00", stored.Preferences.QuietHours.Start)
	})

	t.Run("validation errors are 400", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{"malformed json", `{"endpoint":`},
			{"http endpoint", `{"endpoint":"http://203.0.114.7/p","keys":{"p256dh":"a","auth":"b"}}`},
			{"missing keys", `{"endpoint":"https://203.0.114.7/p"}`},
			{"bad frequency", `{"endpoint":"https://203.0.114.7/p","keys":{"p256dh":"a","auth":"b"},"preferences":{"frequency":"weekly"}}`},
			{"bad category", `{"endpoint":"https://203.0.114.7/p","keys":{"p256dh":"a","auth":"b"},"preferences":{"categories":["sports"]}}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				mux, repo := setup(t)

				rr := do(mux, http.MethodPost, "/subscriptions", tt.body)

				assert.Equal(t, http.StatusBadRequest, rr.Code)
				assert.NotEmpty(t, decodeBody(t, rr)["error"])
				assert.Empty(t, repo.data)
			})
		}
	})

	t.Run("storage failure is 500 without details", func(t *testing.T) {
		mux, repo := setup(t)
		repo.err = errors.New("pq: connection refused")

		rr := do(mux, http.MethodPost, "/subscriptions", registerBody)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.Equal(t, "internal server error", decodeBody(t, rr)["error"])
	})
}

/* ───────── GET /subscriptions/{id} ───────── */

func TestGetHandler(t *testing.T) {
	mux, _ := setup(t)
	id := register(t, mux)

	t.Run("found", func(t *testing.T) {
		rr := do(mux, http.MethodGet, "/subscriptions/"+id, "")

		require.Equal(t, http.StatusOK, rr.Code)
		var dto subscription.SubscriptionDTO
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&dto))
		assert.Equal(t, id, dto.UserID)
		assert.True(t, dto.IsActive)
		assert.Equal(t, "immediate", dto.Preferences.Frequency)
		assert.NotContains(t, rr.Body.String(), "p256dh")
	})

	t.Run("missing", func(t *testing.T) {
		rr := do(mux, http.MethodGet, "/subscriptions/"+missingID, "")

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "subscription not found", decodeBody(t, rr)["error"])
	})

	t.Run("malformed id", func(t *testing.T) {
		rr := do(mux, http.MethodGet, "/subscriptions/42", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

/* ───────── PUT /subscriptions/{id}/preferences ───────── */

func TestUpdatePreferencesHandler(t *testing.T) {
	mux, repo := setup(t)
	id := register(t, mux)

	t.Run("replaces preferences", func(t *testing.T) {
		body := `{"enabled": false, "frequency": "hourly", "quietHours": {"enabled": true, "start": "23:00", "end": "07:00"}, "timezone": "Europe/Berlin"}`

		rr := do(mux, http.MethodPut, "/subscriptions/"+id+"/preferences", body)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		prefs := repo.data[id].Preferences
		assert.False(t, prefs.Enabled)
		assert.Equal(t, entity.FrequencyHourly, prefs.Frequency)
		assert.Equal(t, "23:00", prefs.QuietHours.Start)
		assert.Equal(t, "Europe/Berlin", prefs.Timezone)
		assert.Empty(t, prefs.Categories)
	})

	t.Run("missing subscription", func(t *testing.T) {
		rr := do(mux, http.MethodPut, "/subscriptions/"+missingID+"/preferences", `{"frequency":"daily"}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("invalid quiet hours", func(t *testing.T) {
		rr := do(mux, http.MethodPut, "/subscriptions/"+id+"/preferences", `{"quietHours":{"enabled":true,"start":"9pm","end":"07:00"}}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

/* ───────── DELETE /subscriptions/{id} ───────── */

func TestDeleteHandler(t *testing.T) {
	mux, repo := setup(t)
	id := register(t, mux)

	rr := do(mux, http.MethodDelete, "/subscriptions/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, decodeBody(t, rr)["success"])
	assert.Empty(t, repo.data)

	rr = do(mux, http.MethodDelete, "/subscriptions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

/* ───────── POST /subscriptions/{id}/preview ───────── */

func TestPreviewHandler(t *testing.T) {
	mux, _ := setup(t)
	id := register(t, mux)

	t.Run("allowed article", func(t *testing.T) {
		rr := do(mux, http.MethodPost, "/subscriptions/"+id+"/preview", `{"title":"Neobank lending volumes grow","category":"fintech"}`)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		body := decodeBody(t, rr)
		assert.Equal(t, "allow", body["decision"])
		assert.Equal(t, true, body["wouldNotify"])
		assert.Equal(t, "2025-03-10T14:30:00Z", body["nextBatchTime"])
	})

	t.Run("filtered category", func(t *testing.T) {
		rr := do(mux, http.MethodPost, "/subscriptions/"+id+"/preview", `{"title":"Cloud region expands","category":"cloud"}`)

		require.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, "deny_category", body["decision"])
		assert.Equal(t, false, body["wouldNotify"])
	})

	t.Run("missing title", func(t *testing.T) {
		rr := do(mux, http.MethodPost, "/subscriptions/"+id+"/preview", `{}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown subscriber", func(t *testing.T) {
		rr := do(mux, http.MethodPost, "/subscriptions/"+missingID+"/preview", `{"title":"x"}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestRegister_RateLimitWrapsCreateOnly(t *testing.T) {
	repo := &memRepo{data: map[string]*entity.Subscription{}}
	mux := http.NewServeMux()
	blocked := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	subscription.Register(mux, subUC.Service{Repo: repo}, blocked)

	assert.Equal(t, http.StatusTooManyRequests, do(mux, http.MethodPost, "/subscriptions", registerBody).Code)
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodGet, "/subscriptions/"+missingID, "").Code)
}

/* ───────── public key ───────── */

func TestPublicKeyHandler(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		rec := httptest.NewRecorder()
		subscription.PublicKeyHandler{Key: "BPublicKey"}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/push/public-key", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"publicKey":"BPublicKey"}`, rec.Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		subscription.PublicKeyHandler{}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/push/public-key", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
