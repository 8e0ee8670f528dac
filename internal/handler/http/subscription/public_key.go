package subscription

import (
	"errors"
	"net/http"

	"fintech-news/internal/handler/http/respond"
)

var errNoPublicKey = errors.New("push notifications are not configured")

type publicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

// PublicKeyHandler serves the VAPID application server key browsers need
// to create a push subscription.
type PublicKeyHandler struct{ Key string }

func (h PublicKeyHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	if h.Key == "" {
		respond.Error(w, http.StatusServiceUnavailable, errNoPublicKey)
		return
	}
	respond.JSON(w, http.StatusOK, publicKeyResponse{PublicKey: h.Key})
}
