// Package subscription serves the push subscription API.
package subscription

import (
	"net/http"

	subUC "fintech-news/internal/usecase/subscription"
)

// Register mounts the subscription routes on mux. Registration is wrapped
// by limit when it is non-nil.
func Register(mux *http.ServeMux, svc subUC.Service, limit func(http.Handler) http.Handler) {
	var create http.Handler = CreateHandler{svc}
	if limit != nil {
		create = limit(create)
	}

	mux.Handle("POST /subscriptions", create)
	mux.Handle("GET /subscriptions/{id}", GetHandler{svc})
	mux.Handle("PUT /subscriptions/{id}/preferences", UpdatePreferencesHandler{svc})
	mux.Handle("DELETE /subscriptions/{id}", DeleteHandler{svc})
	mux.Handle("POST /subscriptions/{id}/preview", PreviewHandler{svc})
}
