package subscription

import (
	"net/http"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/handler/http/pathutil"
	"fintech-news/internal/handler/http/respond"
	subUC "fintech-news/internal/usecase/subscription"
)

// PreviewHandler reports whether an article would be pushed to the
// subscriber right now, and when their next batch is due. Nothing is sent.
type PreviewHandler struct{ Svc subUC.Service }

func (h PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req previewRequest
	if !decode(w, r, &req) {
		return
	}

	in := subUC.PreviewInput{
		Title:    req.Title,
		Summary:  req.Summary,
		Content:  req.Content,
		URL:      req.URL,
		Category: entity.Category(req.Category),
	}
	if req.PublishedAt != nil {
		in.PublishedAt = *req.PublishedAt
	}

	res, err := h.Svc.Preview(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toPreviewResponse(res))
}
