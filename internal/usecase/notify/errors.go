package notify

import "errors"

// Sentinel errors for notify use case operations.
var (
	// ErrInvalidArticle indicates a nil article or one without ID or title.
	ErrInvalidArticle = errors.New("invalid article data")

	// ErrPermanentFailure marks a push endpoint that no longer exists.
	// Delivery implementations wrap it so callers can use errors.Is.
	ErrPermanentFailure = errors.New("push endpoint permanently unavailable")

	// ErrTransientFailure marks a delivery that may succeed on a later pass.
	ErrTransientFailure = errors.New("push delivery failed")
)
