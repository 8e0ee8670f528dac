package subscription

import (
	"net/http"

	"fintech-news/internal/handler/http/pathutil"
	"fintech-news/internal/handler/http/respond"
	subUC "fintech-news/internal/usecase/subscription"
)

type GetHandler struct{ Svc subUC.Service }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sub, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(sub))
}
