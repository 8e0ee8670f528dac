package article

import (
	"errors"
	"net/http"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/handler/http/pathutil"
	"fintech-news/internal/handler/http/respond"
	artUC "fintech-news/internal/usecase/article"
)

// Register mounts the read-only article routes on mux.
func Register(mux *http.ServeMux, svc artUC.Service) {
	mux.Handle("GET /articles", ListHandler{svc})
	mux.Handle("GET /articles/{id}", GetHandler{svc})
}

func writeError(w http.ResponseWriter, err error) {
	var ve *entity.ValidationError
	switch {
	case errors.As(err, &ve), errors.Is(err, pathutil.ErrInvalidID):
		respond.SafeError(w, http.StatusBadRequest, err)
	case errors.Is(err, artUC.ErrArticleNotFound):
		respond.SafeError(w, http.StatusNotFound, err)
	default:
		respond.SafeError(w, http.StatusInternalServerError, err)
	}
}
