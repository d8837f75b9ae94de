package lifecycle

import (
	"fmt"
	"strings"
	"time"
)

// Payload carries the per-transition-type data supplied by the caller.
// Which fields are required depends on the edge being taken; unrelated
// fields are ignored. The checklist is enforced by Validate.
type Payload struct {
	// Comment is free text, mandatory on rejection and cancellation edges
	Comment string `json:"comment,omitempty"`

	// Reviewer optionally names the next assignee on submit
	Reviewer string `json:"reviewer,omitempty"`

	// EffectiveDate is mandatory when entering APPROVED_PENDING_EFFECTIVE
	EffectiveDate *time.Time `json:"effective_date,omitempty"`

	// ObsolescenceDate is mandatory when entering SCHEDULED_FOR_OBSOLESCENCE
	ObsolescenceDate *time.Time `json:"obsolescence_date,omitempty"`

	// Label and ChangeReason feed the sensitivity classifier on
	// approval-family targets
	Label        Label  `json:"label,omitempty"`
	ChangeReason string `json:"change_reason,omitempty"`
}

// Validated is the outcome of a successful payload validation, consumed by
// the transition engine when committing
type Validated struct {
	Comment          string
	Reviewer         string
	EffectiveDate    *time.Time
	ObsolescenceDate *time.Time
	// Classification is non-nil only for approval-family targets
	Classification *Classification
}

// Validate checks the payload against the required-field checklist for the
// (from, to) edge. priorLabel is the instance's current sensitivity label,
// empty when the document has never been classified. Validation is
// all-or-nothing: callers mutate nothing unless it succeeds.
func (p Payload) Validate(reg *Registry, from, to State, priorLabel Label) (*Validated, error) {
	category, ok := reg.CategoryOf(from, to)
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	v := &Validated{
		Comment:          strings.TrimSpace(p.Comment),
		Reviewer:         strings.TrimSpace(p.Reviewer),
		EffectiveDate:    p.EffectiveDate,
		ObsolescenceDate: p.ObsolescenceDate,
	}

	if reg.IsRejection(from, to) && v.Comment == "" {
		return nil, fmt.Errorf("%w: rejection requires a comment", ErrMissingRequiredField)
	}
	if category == CategoryCancel && v.Comment == "" {
		return nil, fmt.Errorf("%w: cancellation requires a comment", ErrMissingRequiredField)
	}

	if to == StateApprovedPendingEffective && p.EffectiveDate == nil {
		return nil, fmt.Errorf("%w: effective date is required when scheduling effectiveness", ErrMissingRequiredField)
	}
	if to == StateScheduledForObsolescence && p.ObsolescenceDate == nil {
		return nil, fmt.Errorf("%w: obsolescence date is required when scheduling obsolescence", ErrMissingRequiredField)
	}

	if to.IsApprovalFamily() {
		classification, err := Classify(priorLabel, p.Label, p.ChangeReason)
		if err != nil {
			return nil, err
		}
		v.Classification = classification
	}

	return v, nil
}
