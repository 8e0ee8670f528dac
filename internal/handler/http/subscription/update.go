package subscription

import (
	"net/http"

	"fintech-news/internal/handler/http/pathutil"
	"fintech-news/internal/handler/http/respond"
	subUC "fintech-news/internal/usecase/subscription"
)

// UpdatePreferencesHandler replaces a subscriber's preferences. The body
// is a PreferencesDTO; omitted fields reset to their defaults.
type UpdatePreferencesHandler struct{ Svc subUC.Service }

func (h UpdatePreferencesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req PreferencesDTO
	if !decode(w, r, &req) {
		return
	}

	if err := h.Svc.UpdatePreferences(r.Context(), id, req.toPreferences()); err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, successResponse{Success: true})
}
