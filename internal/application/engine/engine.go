// Package engine implements the transition engine: the single writer of
// workflow instance state. Every committed transition is validated
// all-or-nothing (adjacency, authorization, required fields, optimistic
// version) and appends exactly one audit ledger record.
package engine

import (
	"context"

	"github.com/jinkaiteo/edms-sub019/internal/domain/entity"
	"github.com/jinkaiteo/edms-sub019/internal/domain/lifecycle"
)

// TransitionResult reports the committed outcome of a transition
type TransitionResult struct {
	State   lifecycle.State `json:"state"`
	Version int64           `json:"version"`
}

// DocumentState is the read-only view served to rendering collaborators
type DocumentState struct {
	DocumentID string          `json:"document_id"`
	State      lifecycle.State `json:"state"`
	Label      lifecycle.Label `json:"sensitivity_label,omitempty"`
	Version    int64           `json:"version"`
}

// Authorizer is the authorization gate consumed by the engine
type Authorizer interface {
	Authorize(ctx context.Context, actor string, category lifecycle.Category) error
}

// Engine is the programmatic surface of the lifecycle core
type Engine interface {
	// CreateInstance starts the lifecycle for a document. A non-nil
	// parentInstanceID spawns a new version from an effective document,
	// inheriting its sensitivity label.
	CreateInstance(ctx context.Context, documentID string, parentInstanceID *int64) (*entity.WorkflowInstance, error)

	// AttemptTransition validates and atomically commits a single state
	// transition. expectedVersion must equal the instance's current
	// version; mismatches fail with lifecycle.ErrConcurrentModification
	// and the caller must refetch and retry.
	AttemptTransition(ctx context.Context, instanceID int64, target lifecycle.State, actor string, payload lifecycle.Payload, expectedVersion int64) (*TransitionResult, error)

	// GetCurrentState returns the current state and sensitivity label of a document
	GetCurrentState(ctx context.Context, documentID string) (*DocumentState, error)

	// ListTransitions returns the audit ledger of an instance, sequence ascending
	ListTransitions(ctx context.Context, instanceID int64) ([]*entity.TransitionRecord, error)
}
