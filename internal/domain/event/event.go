package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/jinkaiteo/edms-sub019/internal/domain/lifecycle"
)

// Event represents a domain event emitted by the lifecycle core. Transition
// events are published best-effort after commit; a failed delivery never
// rolls back the committed state change.
type Event struct {
	ID            string    `json:"id"`
	Type          Type      `json:"type"`
	InstanceID    int64     `json:"instance_id"`
	DocumentID    string    `json:"document_id"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id"`

	// Transition details, set for transition.committed events
	FromState lifecycle.State `json:"from_state,omitempty"`
	ToState   lifecycle.State `json:"to_state,omitempty"`
	Actor     string          `json:"actor,omitempty"`
	Comment   string          `json:"comment,omitempty"`
}

// NewInstanceCreated builds an event announcing a freshly created workflow instance
func NewInstanceCreated(instanceID int64, documentID string) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          TypeInstanceCreated,
		InstanceID:    instanceID,
		DocumentID:    documentID,
		Timestamp:     time.Now(),
		CorrelationID: uuid.NewString(),
	}
}

// NewTransitionCommitted builds an event describing one committed transition
func NewTransitionCommitted(instanceID int64, documentID string, from, to lifecycle.State, actor, comment string) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          TypeTransitionCommitted,
		InstanceID:    instanceID,
		DocumentID:    documentID,
		Timestamp:     time.Now(),
		CorrelationID: uuid.NewString(),
		FromState:     from,
		ToState:       to,
		Actor:         actor,
		Comment:       comment,
	}
}

// NewInstanceOverdue builds the overdue signal raised by the scheduler sweep
// for instances stuck past their configured timeout; it carries no mutation.
func NewInstanceOverdue(instanceID int64, documentID string, state lifecycle.State) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          TypeInstanceOverdue,
		InstanceID:    instanceID,
		DocumentID:    documentID,
		Timestamp:     time.Now(),
		CorrelationID: uuid.NewString(),
		FromState:     state,
	}
}
