package subscription

import (
	"net/http"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/handler/http/respond"
	subUC "fintech-news/internal/usecase/subscription"
)

// CreateHandler registers a browser push subscription.
type CreateHandler struct{ Svc subUC.Service }

func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}

	var prefs *entity.Preferences
	if req.Preferences != nil {
		p := req.Preferences.toPreferences()
		prefs = &p
	}

	sub, err := h.Svc.Register(r.Context(), subUC.RegisterInput{
		Endpoint:    req.Endpoint,
		Keys:        entity.PushKeys{P256dh: req.Keys.P256dh, Auth: req.Keys.Auth},
		Preferences: prefs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, registerResponse{UserID: sub.UserID, Success: true})
}
