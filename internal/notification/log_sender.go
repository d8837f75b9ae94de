package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jinkaiteo/edms-sub019/internal/domain/event"
)

// LogSender is the default NotificationSender. It writes a structured log
// line per event instead of calling an external channel; deployments wire a
// real sender in its place.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-backed notification sender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the event as a notification
func (s *LogSender) Send(ctx context.Context, evt *event.Event) error {
	s.logger.Info("NOTIFY",
		zap.String("event_type", evt.Type.String()),
		zap.Int64("instance_id", evt.InstanceID),
		zap.String("document_id", evt.DocumentID),
		zap.String("summary", summarize(evt)))
	return nil
}

func summarize(evt *event.Event) string {
	switch evt.Type {
	case event.TypeTransitionCommitted:
		return fmt.Sprintf("document %s moved %s -> %s by %s",
			evt.DocumentID, evt.FromState, evt.ToState, evt.Actor)
	case event.TypeInstanceOverdue:
		return fmt.Sprintf("document %s has been sitting in %s past its deadline",
			evt.DocumentID, evt.FromState)
	case event.TypeInstanceCreated:
		return fmt.Sprintf("document %s entered the lifecycle", evt.DocumentID)
	default:
		return string(evt.Type)
	}
}
