// README: Logging notifier for processes with no websocket surface.
package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier writes notifications to the log instead of a transport. Used by
// binaries that mutate state but host no subscriber connections of their own.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, topic string, msg Message) error {
	l.log.Debug("notification", zap.String("topic", topic), zap.String("type", msg.Type))
	return nil
}
