package lifecycle

import "testing"

func TestRegistry_CanTransition(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name    string
		from    State
		to      State
		allowed bool
	}{
		{"draft to pending review", StateDraft, StatePendingReview, true},
		{"pending review to under review", StatePendingReview, StateUnderReview, true},
		{"under review to review completed", StateUnderReview, StateReviewCompleted, true},
		{"review rejection to draft", StateUnderReview, StateDraft, true},
		{"review completed to pending approval", StateReviewCompleted, StatePendingApproval, true},
		{"pending approval to under approval", StatePendingApproval, StateUnderApproval, true},
		{"under approval to approved", StateUnderApproval, StateApproved, true},
		{"approval rejection to draft", StateUnderApproval, StateDraft, true},
		{"approved to pending effective", StateApproved, StateApprovedPendingEffective, true},
		{"pending effective to effective", StateApprovedPendingEffective, StateEffective, true},
		{"effective to scheduled obsolescence", StateEffective, StateScheduledForObsolescence, true},
		{"effective to superseded", StateEffective, StateSuperseded, true},
		{"scheduled to obsolete", StateScheduledForObsolescence, StateObsolete, true},

		{"draft cannot jump to effective", StateDraft, StateEffective, false},
		{"draft cannot reach approved", StateDraft, StateApproved, false},
		{"pending review cannot skip review", StatePendingReview, StateReviewCompleted, false},
		{"effective cannot return to draft", StateEffective, StateDraft, false},
		{"approved cannot go straight effective", StateApproved, StateEffective, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reg.CanTransition(tt.from, tt.to); got != tt.allowed {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestRegistry_CancellationFromEveryNonTerminal(t *testing.T) {
	reg := NewRegistry()

	for _, s := range AllStates() {
		if s.IsTerminal() {
			if reg.CanTransition(s, StateTerminated) {
				t.Errorf("terminal state %s must not allow cancellation", s)
			}
			continue
		}
		if !reg.CanTransition(s, StateTerminated) {
			t.Errorf("non-terminal state %s must allow cancellation", s)
		}
		cat, ok := reg.CategoryOf(s, StateTerminated)
		if !ok || cat != CategoryCancel {
			t.Errorf("CategoryOf(%s, TERMINATED) = %v, want CANCEL", s, cat)
		}
	}
}

func TestRegistry_TerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	reg := NewRegistry()

	for _, s := range []State{StateObsolete, StateSuperseded, StateTerminated} {
		if targets := reg.AllowedTargets(s); len(targets) != 0 {
			t.Errorf("terminal state %s has outgoing edges %v", s, targets)
		}
	}
}

func TestRegistry_CategoryOf(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		from     State
		to       State
		category Category
	}{
		{StateDraft, StatePendingReview, CategorySubmit},
		{StatePendingReview, StateUnderReview, CategoryReview},
		{StateUnderReview, StateDraft, CategoryReview},
		{StateUnderApproval, StateApproved, CategoryApproval},
		{StateApproved, StateApprovedPendingEffective, CategoryApproval},
		{StateApprovedPendingEffective, StateEffective, CategorySchedule},
		{StateEffective, StateScheduledForObsolescence, CategorySchedule},
		{StateEffective, StateSuperseded, CategoryApproval},
		{StateScheduledForObsolescence, StateObsolete, CategorySchedule},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			got, ok := reg.CategoryOf(tt.from, tt.to)
			if !ok {
				t.Fatalf("CategoryOf(%s, %s) edge not found", tt.from, tt.to)
			}
			if got != tt.category {
				t.Errorf("CategoryOf(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.category)
			}
		})
	}

	if _, ok := reg.CategoryOf(StateDraft, StateEffective); ok {
		t.Error("CategoryOf should report missing edge")
	}
}

func TestRegistry_IsRejection(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		from     State
		to       State
		expected bool
	}{
		{StateUnderReview, StateDraft, true},
		{StateUnderApproval, StateDraft, true},
		{StateDraft, StatePendingReview, false},
		{StateUnderReview, StateReviewCompleted, false},
	}

	for _, tt := range tests {
		if got := reg.IsRejection(tt.from, tt.to); got != tt.expected {
			t.Errorf("IsRejection(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.expected)
		}
	}
}
