package port

import (
	"context"

	"github.com/jinkaiteo/edms-sub019/internal/domain/event"
)

// AuthorizationProvider is the external capability check consumed by the
// authorization gate. The core owns no retry logic around it.
type AuthorizationProvider interface {
	IsAuthorized(ctx context.Context, actor, capability string) (bool, error)
}

// NotificationSender delivers transition events to the external
// notification collaborator. Delivery is best-effort; the core never
// retries a failed send.
type NotificationSender interface {
	Send(ctx context.Context, evt *event.Event) error
}
