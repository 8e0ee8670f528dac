package notifier

import (
	"context"
	"log/slog"

	"fintech-news/internal/usecase/notify"
)

// LogOnlyNotifier reports every delivery as transient without sending it.
// The worker uses it when VAPID keys are not configured, so no subscriber
// is marked as notified and none is deactivated.
type LogOnlyNotifier struct {
	logger *slog.Logger
}

func NewLogOnlyNotifier(logger *slog.Logger) *LogOnlyNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogOnlyNotifier{logger: logger}
}

func (n *LogOnlyNotifier) Deliver(ctx context.Context, target notify.Target, payload []byte) (notify.DeliveryOutcome, error) {
	n.logger.InfoContext(ctx, "push disabled, delivery skipped",
		slog.String("user_id", target.UserID),
		slog.Int("payload_bytes", len(payload)))
	return notify.TransientFailure, notify.ErrTransientFailure
}
