package entity

import (
	"time"

	"github.com/jinkaiteo/edms-sub019/internal/domain/lifecycle"
)

// TransitionRecord is one immutable entry in the audit ledger. Records are
// created exactly once per committed transition and never updated or
// removed; per-instance sequence numbers start at 1 and are gapless.
type TransitionRecord struct {
	ID         int64 `json:"id"`
	InstanceID int64 `json:"instance_id"`
	Seq        int64 `json:"seq"`

	FromState lifecycle.State `json:"from_state"`
	ToState   lifecycle.State `json:"to_state"`
	Actor     string          `json:"actor"`

	// Comment is stored verbatim; mandatory on rejections and cancellations
	Comment string `json:"comment,omitempty"`

	// Structured per-transition-type payload
	Label            lifecycle.Label `json:"label,omitempty"`
	ChangeReason     string          `json:"change_reason,omitempty"`
	EffectiveDate    *time.Time      `json:"effective_date,omitempty"`
	ObsolescenceDate *time.Time      `json:"obsolescence_date,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}
