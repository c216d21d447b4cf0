package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes alerts to structured logs. The default sink: every
// deployment has logs even when no email channel is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier over the given logger; nil falls back to
// slog.Default.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, alert Alert) error {
	n.logger.WarnContext(ctx, "operation reached terminal state",
		slog.String("operation_id", alert.OperationID.String()),
		slog.String("owner_id", alert.OwnerID),
		slog.String("kind", alert.Kind),
		slog.String("status", alert.Status),
		slog.String("reason", alert.Reason),
		slog.Int("attempt_count", alert.AttemptCount),
		slog.Time("at", alert.At))
	return nil
}
