package article

import (
	"net/http"
	"strconv"
	"time"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/handler/http/respond"
	artUC "fintech-news/internal/usecase/article"
)

// ListHandler serves GET /articles?category=&since=&limit=.
// since is RFC 3339; limit defaults to 20 and may not exceed 100.
type ListHandler struct{ Svc artUC.Service }

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := artUC.ListInput{Category: q.Get("category")}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, &entity.ValidationError{Field: "limit", Message: "must be an integer"})
			return
		}
		in.Limit = n
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, &entity.ValidationError{Field: "since", Message: "must be an RFC 3339 timestamp"})
			return
		}
		in.Since = t
	}

	articles, err := h.Svc.ListRecent(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	out := ListResponse{Articles: make([]DTO, 0, len(articles)), Count: len(articles)}
	for _, a := range articles {
		out.Articles = append(out.Articles, toDTO(a, false))
	}
	respond.JSON(w, http.StatusOK, out)
}
