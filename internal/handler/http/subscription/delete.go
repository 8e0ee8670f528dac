package subscription

import (
	"net/http"

	"fintech-news/internal/handler/http/pathutil"
	"fintech-news/internal/handler/http/respond"
	subUC "fintech-news/internal/usecase/subscription"
)

type DeleteHandler struct{ Svc subUC.Service }

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Svc.Unregister(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, successResponse{Success: true})
}
