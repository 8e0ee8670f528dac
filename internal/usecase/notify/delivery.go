package notify

import (
	"context"

	"fintech-news/internal/domain/entity"
)

// DeliveryOutcome classifies the result of one push attempt.
type DeliveryOutcome int

const (
	Delivered DeliveryOutcome = iota
	TransientFailure
	PermanentFailure
)

func (o DeliveryOutcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case TransientFailure:
		return "transient_failure"
	case PermanentFailure:
		return "permanent_failure"
	default:
		return "unknown"
	}
}

// Target identifies a push endpoint. Keys are passed through unexamined.
type Target struct {
	UserID   string
	Endpoint string
	Keys     entity.PushKeys
}

// Delivery sends an encoded payload to a push endpoint.
//
// Implementations must be safe for concurrent use, respect ctx, and never
// retry on their own. PermanentFailure means the endpoint is gone and the
// subscriber will be deactivated.
type Delivery interface {
	Deliver(ctx context.Context, target Target, payload []byte) (DeliveryOutcome, error)
}
