package lifecycle

import "fmt"

// Category classifies a transition edge for authorization and
// required-field purposes
type Category string

const (
	CategorySubmit   Category = "SUBMIT"
	CategoryReview   Category = "REVIEW"
	CategoryApproval Category = "APPROVAL"
	CategorySchedule Category = "SCHEDULE"
	CategoryCancel   Category = "CANCEL"
)

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

// edge describes one legal transition out of a state
type edge struct {
	target   State
	category Category
}

// Registry is the static adjacency table of legal transitions. It is the
// single source of truth consulted by the transition engine; no other
// component hardcodes adjacency. Read-only after construction.
type Registry struct {
	edges map[State][]edge
}

// registryBuilder assembles the adjacency table
type registryBuilder struct {
	edges map[State][]edge
}

func newRegistryBuilder() *registryBuilder {
	return &registryBuilder{edges: make(map[State][]edge)}
}

// permit records a legal transition from one state to another
func (b *registryBuilder) permit(from, to State, category Category) *registryBuilder {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid from state: %s", from))
	}
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}
	if from.IsTerminal() {
		panic(fmt.Sprintf("terminal state cannot have outgoing transitions: %s", from))
	}
	b.edges[from] = append(b.edges[from], edge{target: to, category: category})
	return b
}

func (b *registryBuilder) build() *Registry {
	edgesCopy := make(map[State][]edge, len(b.edges))
	for from, list := range b.edges {
		edgesCopy[from] = append([]edge{}, list...)
	}
	return &Registry{edges: edgesCopy}
}

// NewRegistry creates the document lifecycle adjacency table
func NewRegistry() *Registry {
	b := newRegistryBuilder()

	b.permit(StateDraft, StatePendingReview, CategorySubmit)

	b.permit(StatePendingReview, StateUnderReview, CategoryReview)
	b.permit(StateUnderReview, StateReviewCompleted, CategoryReview)
	b.permit(StateUnderReview, StateDraft, CategoryReview) // rejection
	b.permit(StateReviewCompleted, StatePendingApproval, CategoryReview)

	b.permit(StatePendingApproval, StateUnderApproval, CategoryApproval)
	b.permit(StateUnderApproval, StateApproved, CategoryApproval)
	b.permit(StateUnderApproval, StateDraft, CategoryApproval) // rejection
	b.permit(StateApproved, StateApprovedPendingEffective, CategoryApproval)

	b.permit(StateApprovedPendingEffective, StateEffective, CategorySchedule)
	b.permit(StateEffective, StateScheduledForObsolescence, CategorySchedule)
	b.permit(StateEffective, StateSuperseded, CategoryApproval)
	b.permit(StateScheduledForObsolescence, StateObsolete, CategorySchedule)

	// Cancellation is legal from every non-terminal state
	for _, s := range AllStates() {
		if !s.IsTerminal() {
			b.permit(s, StateTerminated, CategoryCancel)
		}
	}

	return b.build()
}

// CanTransition returns true if target is in the allowed set for from
func (r *Registry) CanTransition(from, to State) bool {
	for _, e := range r.edges[from] {
		if e.target == to {
			return true
		}
	}
	return false
}

// CategoryOf returns the category of the (from, to) edge. The boolean is
// false when the edge is not in the registry.
func (r *Registry) CategoryOf(from, to State) (Category, bool) {
	for _, e := range r.edges[from] {
		if e.target == to {
			return e.category, true
		}
	}
	return "", false
}

// AllowedTargets returns the states reachable from the given state
func (r *Registry) AllowedTargets(from State) []State {
	targets := make([]State, 0, len(r.edges[from]))
	for _, e := range r.edges[from] {
		targets = append(targets, e.target)
	}
	return targets
}

// IsRejection returns true if the (from, to) edge moves the document back
// to DRAFT, which requires a comment from the acting reviewer or approver.
func (r *Registry) IsRejection(from, to State) bool {
	if to != StateDraft {
		return false
	}
	return from == StateUnderReview || from == StateUnderApproval
}
