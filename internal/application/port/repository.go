package port

import (
	"context"

	"github.com/jinkaiteo/edms-sub019/internal/domain/entity"
)

// InstanceRepository defines persistence operations for WorkflowInstance.
// Implementations return lifecycle.ErrNotFound when the instance does not
// exist and lifecycle.ErrConcurrentModification when a compare-and-swap
// update misses its expected version.
type InstanceRepository interface {
	Create(ctx context.Context, instance *entity.WorkflowInstance) error
	GetByID(ctx context.Context, id int64) (*entity.WorkflowInstance, error)
	GetByDocumentID(ctx context.Context, documentID string) (*entity.WorkflowInstance, error)

	// UpdateState commits the mutated instance fields (state, assignee,
	// label, trigger dates, state_entered_at) if and only if the stored
	// version still equals expectedVersion; on success the stored version
	// becomes expectedVersion+1 and instance.Version is updated to match.
	UpdateState(ctx context.Context, instance *entity.WorkflowInstance, expectedVersion int64) error

	// ListNonTerminal pages through instances that can still transition,
	// ordered by id, for the scheduler sweep
	ListNonTerminal(ctx context.Context, limit, offset int) ([]*entity.WorkflowInstance, error)
}

// LedgerRepository defines the append-only audit ledger contract. There is
// deliberately no update or delete operation.
type LedgerRepository interface {
	// Append writes one transition record, assigning the next gapless
	// per-instance sequence number. Used only by the transition engine.
	Append(ctx context.Context, record *entity.TransitionRecord) error

	// ListByInstanceID returns all records for an instance ordered by
	// sequence ascending
	ListByInstanceID(ctx context.Context, instanceID int64) ([]*entity.TransitionRecord, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
