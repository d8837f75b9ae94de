package lifecycle

import (
	"fmt"
	"strings"
)

// Label is a closed-set data sensitivity classification carried by a
// workflow instance and recorded on its approval-family transitions
type Label string

const (
	LabelPublic       Label = "PUBLIC"
	LabelInternal     Label = "INTERNAL"
	LabelConfidential Label = "CONFIDENTIAL"
	LabelRestricted   Label = "RESTRICTED"
	LabelProprietary  Label = "PROPRIETARY"
)

// MinChangeReasonLength is the minimum length of the justification
// required when a label differs from the prior or inherited value.
const MinChangeReasonLength = 20

var validLabels = map[Label]bool{
	LabelPublic:       true,
	LabelInternal:     true,
	LabelConfidential: true,
	LabelRestricted:   true,
	LabelProprietary:  true,
}

// IsValid returns true if the label belongs to the closed set
func (l Label) IsValid() bool {
	return validLabels[l]
}

// String returns the string representation of the label
func (l Label) String() string {
	return string(l)
}

// Classification is the outcome of evaluating the sensitivity rule at an
// approval-family transition
type Classification struct {
	Label        Label
	ChangeReason string
	// Reclassified is true when the label differs from the prior value
	Reclassified bool
}

// Classify evaluates the sensitivity rule for an approval-family transition.
// prior is the instance's current label, empty for a document that has never
// been classified. supplied and reason come from the transition payload.
//
//   - no prior label: a valid supplied label is mandatory and accepted as-is
//   - supplied equals prior: confirmation, no justification needed
//   - supplied differs from prior: reason of at least MinChangeReasonLength
//     characters is mandatory
func Classify(prior, supplied Label, reason string) (*Classification, error) {
	if supplied == "" {
		return nil, fmt.Errorf("%w: sensitivity label is required at approval", ErrMissingRequiredField)
	}
	if !supplied.IsValid() {
		return nil, fmt.Errorf("%w: unknown sensitivity label %q", ErrMissingRequiredField, supplied)
	}

	if prior == "" || supplied == prior {
		return &Classification{Label: supplied, ChangeReason: strings.TrimSpace(reason)}, nil
	}

	trimmed := strings.TrimSpace(reason)
	if len(trimmed) < MinChangeReasonLength {
		return nil, fmt.Errorf("%w: reclassification from %s to %s requires a justification of at least %d characters",
			ErrMissingRequiredField, prior, supplied, MinChangeReasonLength)
	}

	return &Classification{Label: supplied, ChangeReason: trimmed, Reclassified: true}, nil
}
