package lifecycle

import "errors"

var (
	// ErrInvalidTransition is returned when the target state is not adjacent
	// to the instance's current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrUnauthorized is returned when the actor lacks the capability
	// required by the transition category
	ErrUnauthorized = errors.New("actor not authorized for transition")

	// ErrMissingRequiredField is returned when the payload fails the
	// required-field checklist for the transition
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrConcurrentModification is returned when the expected version does
	// not match the instance's current version; the caller must refetch and retry
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrNotFound is returned when the referenced instance or document does not exist
	ErrNotFound = errors.New("not found")
)
