package article

import (
	"net/http"

	"fintech-news/internal/handler/http/pathutil"
	"fintech-news/internal/handler/http/respond"
	artUC "fintech-news/internal/usecase/article"
)

// GetHandler serves GET /articles/{id} including the article body.
type GetHandler struct{ Svc artUC.Service }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	a, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(a, true))
}
