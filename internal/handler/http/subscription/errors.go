package subscription

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"fintech-news/internal/domain/entity"
	"fintech-news/internal/handler/http/pathutil"
	"fintech-news/internal/handler/http/respond"
	subUC "fintech-news/internal/usecase/subscription"
)

var errInvalidBody = errors.New("invalid request body")

// writeError maps use case errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	var ve *entity.ValidationError
	switch {
	case errors.As(err, &ve), errors.Is(err, entity.ErrInvalidInput), errors.Is(err, pathutil.ErrInvalidID):
		respond.SafeError(w, http.StatusBadRequest, err)
	case errors.Is(err, subUC.ErrSubscriptionNotFound):
		respond.SafeError(w, http.StatusNotFound, err)
	default:
		respond.SafeError(w, http.StatusInternalServerError, err)
	}
}

// decode reads a JSON body into v, answering 400 or 413 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respond.SafeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("request body must not exceed %d bytes", tooLarge.Limit))
		return false
	}
	respond.SafeError(w, http.StatusBadRequest, errInvalidBody)
	return false
}
