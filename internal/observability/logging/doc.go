// Package logging configures the process-wide slog logger and carries
// request-scoped loggers through context.
//
//	logger := logging.NewLogger("worker")
//	slog.SetDefault(logger)
//
//	log := logging.WithRequestID(ctx, logger)
//	log.Info("dispatch pass started")
package logging
