package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier records messages in the log instead of delivering them. Used in development.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Send implements Notifier.
func (n *LogNotifier) Send(_ context.Context, to, subject, body string) Result {
	n.logger.Info("notification (log driver)", zap.String("to", to), zap.String("subject", subject), zap.Int("body_length", len(body)))
	return Delivered()
}
