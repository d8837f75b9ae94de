package entity

// ActorSystem is the reserved actor reference used by the scheduler sweep
// when committing date-triggered transitions.
const ActorSystem = "SYSTEM"

// Capability constants consumed by the authorization gate
const (
	CapabilityAuthor   = "author"
	CapabilityReviewer = "reviewer"
	CapabilityApprover = "approver"
)
