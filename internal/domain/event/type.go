package event

// Type identifies the type of domain event
type Type string

const (
	TypeInstanceCreated     Type = "instance.created"
	TypeTransitionCommitted Type = "transition.committed"
	TypeInstanceOverdue     Type = "instance.overdue"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeInstanceCreated,
		TypeTransitionCommitted,
		TypeInstanceOverdue:
		return true
	default:
		return false
	}
}
