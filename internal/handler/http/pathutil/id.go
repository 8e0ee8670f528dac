// Package pathutil extracts identifiers from request paths.
package pathutil

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// ErrInvalidID is returned when the path ID is missing or not a UUID.
var ErrInvalidID = errors.New("invalid id")

// ID returns the {id} path value of r as a canonical UUID string.
// The route must be registered with an {id} wildcard.
func ID(r *http.Request) (string, error) {
	raw := r.PathValue("id")
	if raw == "" {
		return "", ErrInvalidID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalidID
	}
	return id.String(), nil
}
