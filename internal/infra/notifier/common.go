package notifier

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"fintech-news/internal/resilience/retry"
	"fintech-news/internal/usecase/notify"
)

// maxErrorBody bounds how much of a push service error response is logged.
const maxErrorBody = 512

// errSubscriberScoped marks failures caused by one subscription's data
// rather than by the push service. They do not count against the breaker.
var errSubscriberScoped = errors.New("push rejected for this subscription")

// classifyStatus maps a push service response status to an error.
// 404 and 410 mean the subscription is gone and wrap notify.ErrPermanentFailure.
// Other non-2xx responses become *retry.HTTPError; 400, 403 and 413 also
// wrap errSubscriberScoped.
func classifyStatus(status int, body string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound || status == http.StatusGone:
		return fmt.Errorf("%w: push service returned %d", notify.ErrPermanentFailure, status)
	case status == http.StatusBadRequest || status == http.StatusForbidden ||
		status == http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%w: %w", errSubscriberScoped, &retry.HTTPError{StatusCode: status, Message: body})
	default:
		return &retry.HTTPError{StatusCode: status, Message: body}
	}
}

// isTransportError reports whether err came from reaching the push service
// rather than from preparing the request.
func isTransportError(err error) bool {
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &urlErr) ||
		errors.As(err, &netErr) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// outcomeOf maps a send error to the delivery outcome reported upstream.
func outcomeOf(err error) notify.DeliveryOutcome {
	switch {
	case err == nil:
		return notify.Delivered
	case errors.Is(err, notify.ErrPermanentFailure):
		return notify.PermanentFailure
	default:
		return notify.TransientFailure
	}
}
