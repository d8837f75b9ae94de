package lifecycle

// State represents a document lifecycle state
type State string

const (
	StateDraft                    State = "DRAFT"
	StatePendingReview            State = "PENDING_REVIEW"
	StateUnderReview              State = "UNDER_REVIEW"
	StateReviewCompleted          State = "REVIEW_COMPLETED"
	StatePendingApproval          State = "PENDING_APPROVAL"
	StateUnderApproval            State = "UNDER_APPROVAL"
	StateApproved                 State = "APPROVED"
	StateApprovedPendingEffective State = "APPROVED_PENDING_EFFECTIVE"
	StateEffective                State = "EFFECTIVE"
	StateScheduledForObsolescence State = "SCHEDULED_FOR_OBSOLESCENCE"
	StateObsolete                 State = "OBSOLETE"
	StateSuperseded               State = "SUPERSEDED"
	StateTerminated               State = "TERMINATED"
)

// StateInitial is the single state in which every new instance starts.
const StateInitial = StateDraft

var validStates = map[State]bool{
	StateDraft:                    true,
	StatePendingReview:            true,
	StateUnderReview:              true,
	StateReviewCompleted:          true,
	StatePendingApproval:          true,
	StateUnderApproval:            true,
	StateApproved:                 true,
	StateApprovedPendingEffective: true,
	StateEffective:                true,
	StateScheduledForObsolescence: true,
	StateObsolete:                 true,
	StateSuperseded:               true,
	StateTerminated:               true,
}

var terminalStates = map[State]bool{
	StateObsolete:   true,
	StateSuperseded: true,
	StateTerminated: true,
}

// approvalFamily covers the states whose entry sets or confirms the
// sensitivity label on the instance.
var approvalFamily = map[State]bool{
	StateApproved:                 true,
	StateApprovedPendingEffective: true,
}

// dateTriggered covers the states the scheduler sweep may leave on
// behalf of the SYSTEM actor when their recorded date has passed.
var dateTriggered = map[State]bool{
	StateApprovedPendingEffective: true,
	StateScheduledForObsolescence: true,
}

// IsTerminal returns true if the state permits no further transitions
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a known lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}

// IsApprovalFamily returns true if entering the state requires a sensitivity label
func (s State) IsApprovalFamily() bool {
	return approvalFamily[s]
}

// IsDateTriggered returns true if the state is left automatically once its
// recorded date passes
func (s State) IsDateTriggered() bool {
	return dateTriggered[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// AllStates returns every valid lifecycle state
func AllStates() []State {
	states := make([]State, 0, len(validStates))
	for s := range validStates {
		states = append(states, s)
	}
	return states
}
