package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jinkaiteo/edms-sub019/internal/application/dispatcher"
	"github.com/jinkaiteo/edms-sub019/internal/application/port"
	"github.com/jinkaiteo/edms-sub019/internal/domain/event"
)

// Forwarder bridges the in-process event dispatcher and the external
// notification collaborator. A send failure is logged and dropped; the
// transition that produced the event stays committed.
type Forwarder struct {
	sender port.NotificationSender
	logger *zap.Logger
}

// NewForwarder creates a notification forwarder
func NewForwarder(sender port.NotificationSender, logger *zap.Logger) *Forwarder {
	return &Forwarder{
		sender: sender,
		logger: logger,
	}
}

// Register subscribes the forwarder to the event types worth notifying on
func (f *Forwarder) Register(d dispatcher.Dispatcher) {
	d.Subscribe(event.TypeTransitionCommitted, "notification-forwarder", f.Handle)
	d.Subscribe(event.TypeInstanceOverdue, "notification-forwarder", f.Handle)
}

// Handle forwards one event to the sender
func (f *Forwarder) Handle(ctx context.Context, evt *event.Event) error {
	if err := f.sender.Send(ctx, evt); err != nil {
		f.logger.Error("Notification delivery failed",
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type.String()),
			zap.Int64("instance_id", evt.InstanceID),
			zap.Error(err))
		return fmt.Errorf("send notification: %w", err)
	}

	f.logger.Debug("Notification delivered",
		zap.String("event_id", evt.ID),
		zap.String("event_type", evt.Type.String()),
		zap.Int64("instance_id", evt.InstanceID))

	return nil
}
