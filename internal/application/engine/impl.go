package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jinkaiteo/edms-sub019/internal/application/dispatcher"
	"github.com/jinkaiteo/edms-sub019/internal/application/port"
	"github.com/jinkaiteo/edms-sub019/internal/domain/entity"
	"github.com/jinkaiteo/edms-sub019/internal/domain/event"
	"github.com/jinkaiteo/edms-sub019/internal/domain/lifecycle"
)

// engineImpl is the concrete implementation of Engine
type engineImpl struct {
	registry     *lifecycle.Registry
	gate         Authorizer
	instanceRepo port.InstanceRepository
	ledgerRepo   port.LedgerRepository
	txManager    port.TransactionManager
	dispatcher   dispatcher.Dispatcher
	logger       *zap.Logger
	now          func() time.Time
}

// Option configures the engine
type Option func(*engineImpl)

// WithDispatcher sets the event dispatcher used for post-commit publication
func WithDispatcher(d dispatcher.Dispatcher) Option {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithClock overrides the engine clock, used by tests
func WithClock(now func() time.Time) Option {
	return func(e *engineImpl) {
		e.now = now
	}
}

// New creates a transition engine
func New(
	registry *lifecycle.Registry,
	gate Authorizer,
	instanceRepo port.InstanceRepository,
	ledgerRepo port.LedgerRepository,
	txManager port.TransactionManager,
	logger *zap.Logger,
	opts ...Option,
) Engine {
	e := &engineImpl{
		registry:     registry,
		gate:         gate,
		instanceRepo: instanceRepo,
		ledgerRepo:   ledgerRepo,
		txManager:    txManager,
		logger:       logger,
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// CreateInstance starts the lifecycle for a document
func (e *engineImpl) CreateInstance(ctx context.Context, documentID string, parentInstanceID *int64) (*entity.WorkflowInstance, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: document id is required", lifecycle.ErrMissingRequiredField)
	}

	if existing, err := e.instanceRepo.GetByDocumentID(ctx, documentID); err == nil && existing != nil {
		return nil, fmt.Errorf("document %s already has a workflow instance", documentID)
	}

	now := e.now()
	instance := &entity.WorkflowInstance{
		DocumentID:     documentID,
		State:          lifecycle.StateInitial,
		Version:        0,
		StateEnteredAt: now,
	}

	if parentInstanceID != nil {
		parent, err := e.instanceRepo.GetByID(ctx, *parentInstanceID)
		if err != nil {
			return nil, fmt.Errorf("parent instance %d: %w", *parentInstanceID, err)
		}
		if parent.State != lifecycle.StateEffective {
			return nil, fmt.Errorf("%w: new versions can only be spawned from an effective document (parent is %s)",
				lifecycle.ErrInvalidTransition, parent.State)
		}
		instance.InheritedFrom = parentInstanceID
		instance.Label = parent.Label
	}

	if err := e.instanceRepo.Create(ctx, instance); err != nil {
		return nil, err
	}

	e.logger.Info("Workflow instance created",
		zap.Int64("instance_id", instance.ID),
		zap.String("document_id", documentID),
		zap.Bool("inherited", parentInstanceID != nil))

	e.publish(ctx, event.NewInstanceCreated(instance.ID, documentID))

	return instance, nil
}

// AttemptTransition validates and atomically commits a single state transition
func (e *engineImpl) AttemptTransition(ctx context.Context, instanceID int64, target lifecycle.State, actor string, payload lifecycle.Payload, expectedVersion int64) (*TransitionResult, error) {
	instance, err := e.instanceRepo.GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	from := instance.State
	if !e.registry.CanTransition(from, target) {
		return nil, fmt.Errorf("%w: %s -> %s", lifecycle.ErrInvalidTransition, from, target)
	}

	category, _ := e.registry.CategoryOf(from, target)
	if err := e.gate.Authorize(ctx, actor, category); err != nil {
		return nil, err
	}

	validated, err := payload.Validate(e.registry, from, target, instance.Label)
	if err != nil {
		return nil, err
	}

	if instance.Version != expectedVersion {
		return nil, fmt.Errorf("%w: expected version %d, current %d",
			lifecycle.ErrConcurrentModification, expectedVersion, instance.Version)
	}

	now := e.now()
	e.applyValidated(instance, target, validated, now)

	record := &entity.TransitionRecord{
		InstanceID: instanceID,
		FromState:  from,
		ToState:    target,
		Actor:      actor,
		Comment:    validated.Comment,
		Timestamp:  now,
	}
	if validated.Classification != nil {
		record.Label = validated.Classification.Label
		record.ChangeReason = validated.Classification.ChangeReason
	}
	if target == lifecycle.StateApprovedPendingEffective {
		record.EffectiveDate = validated.EffectiveDate
	}
	if target == lifecycle.StateScheduledForObsolescence {
		record.ObsolescenceDate = validated.ObsolescenceDate
	}

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.instanceRepo.UpdateState(txCtx, instance, expectedVersion); err != nil {
			return err
		}
		return e.ledgerRepo.Append(txCtx, record)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Transition committed",
		zap.Int64("instance_id", instanceID),
		zap.String("document_id", instance.DocumentID),
		zap.String("from", from.String()),
		zap.String("to", target.String()),
		zap.String("actor", actor),
		zap.Int64("version", instance.Version))

	e.publish(ctx, event.NewTransitionCommitted(instanceID, instance.DocumentID, from, target, actor, validated.Comment))

	return &TransitionResult{State: instance.State, Version: instance.Version}, nil
}

// applyValidated mutates the in-memory instance with the effects of the
// validated transition; persistence happens under the compare-and-swap.
func (e *engineImpl) applyValidated(instance *entity.WorkflowInstance, target lifecycle.State, v *lifecycle.Validated, now time.Time) {
	instance.State = target
	instance.StateEnteredAt = now

	// A rejection returns the document to DRAFT but retains the reviewer
	// assignment for audit continuity, so only an explicit reviewer in the
	// payload changes the assignee.
	if v.Reviewer != "" {
		instance.Assignee = v.Reviewer
	}
	if v.Classification != nil {
		instance.Label = v.Classification.Label
	}
	if target == lifecycle.StateApprovedPendingEffective {
		instance.EffectiveDate = v.EffectiveDate
	}
	if target == lifecycle.StateScheduledForObsolescence {
		instance.ObsolescenceDate = v.ObsolescenceDate
	}
}

// GetCurrentState returns the current state and sensitivity label of a document
func (e *engineImpl) GetCurrentState(ctx context.Context, documentID string) (*DocumentState, error) {
	instance, err := e.instanceRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return &DocumentState{
		DocumentID: documentID,
		State:      instance.State,
		Label:      instance.Label,
		Version:    instance.Version,
	}, nil
}

// ListTransitions returns the audit ledger of an instance
func (e *engineImpl) ListTransitions(ctx context.Context, instanceID int64) ([]*entity.TransitionRecord, error) {
	if _, err := e.instanceRepo.GetByID(ctx, instanceID); err != nil {
		return nil, err
	}
	return e.ledgerRepo.ListByInstanceID(ctx, instanceID)
}

// publish emits an event best-effort after a successful commit. The event
// context is detached so a cancelled request cannot abort delivery.
func (e *engineImpl) publish(ctx context.Context, evt *event.Event) {
	if e.dispatcher == nil {
		return
	}
	e.dispatcher.DispatchAsync(context.WithoutCancel(ctx), evt)
}
