package entity

import (
	"time"

	"github.com/jinkaiteo/edms-sub019/internal/domain/lifecycle"
)

// WorkflowInstance represents the lifecycle of exactly one controlled
// document. It holds the only mutable lifecycle state in the system and is
// mutated solely by the transition engine under the version compare-and-swap.
type WorkflowInstance struct {
	ID         int64           `json:"id"`
	DocumentID string          `json:"document_id"`
	State      lifecycle.State `json:"state"`
	// Version increments on every committed transition; writers must
	// present the version they last read
	Version  int64           `json:"version"`
	Assignee string          `json:"assignee,omitempty"`
	Label    lifecycle.Label `json:"label,omitempty"`

	// InheritedFrom references the parent instance when this instance was
	// spawned as a new version of an effective document
	InheritedFrom *int64 `json:"inherited_from,omitempty"`

	// EffectiveDate and ObsolescenceDate are the recorded trigger dates
	// evaluated by the scheduler sweep
	EffectiveDate    *time.Time `json:"effective_date,omitempty"`
	ObsolescenceDate *time.Time `json:"obsolescence_date,omitempty"`

	// StateEnteredAt is when the instance entered its current state; the
	// sweep compares it against the configured overdue timeout
	StateEnteredAt time.Time `json:"state_entered_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsTerminal reports whether the instance has reached a terminal state
func (i *WorkflowInstance) IsTerminal() bool {
	return i.State.IsTerminal()
}
