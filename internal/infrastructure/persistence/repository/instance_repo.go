package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/jinkaiteo/edms-sub019/internal/application/port"
	"github.com/jinkaiteo/edms-sub019/internal/domain/entity"
	"github.com/jinkaiteo/edms-sub019/internal/domain/lifecycle"
	"github.com/jinkaiteo/edms-sub019/internal/infrastructure/persistence/sqlite"
)

// InstanceRepository implements port.InstanceRepository over sqlite
type InstanceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInstanceRepository creates a new instance repository
func NewInstanceRepository(db *sql.DB, logger *zap.Logger) port.InstanceRepository {
	return &InstanceRepository{
		db:     db,
		logger: logger,
	}
}

const instanceColumns = `
	id, document_id, state, version, assignee, label, inherited_from,
	effective_date, obsolescence_date, state_entered_at, created_at, updated_at`

// Create inserts a new workflow instance at its initial state
func (r *InstanceRepository) Create(ctx context.Context, instance *entity.WorkflowInstance) error {
	query := `
		INSERT INTO workflow_instances (
			document_id, state, version, assignee, label, inherited_from, state_entered_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		instance.DocumentID,
		instance.State.String(),
		instance.Version,
		instance.Assignee,
		nullableLabel(instance.Label),
		instance.InheritedFrom,
		instance.StateEnteredAt,
	)
	if err != nil {
		r.logger.Error("Failed to create instance", zap.String("document_id", instance.DocumentID), zap.Error(err))
		return fmt.Errorf("failed to create instance: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	instance.ID = id
	return nil
}

// GetByID retrieves a workflow instance by ID
func (r *InstanceRepository) GetByID(ctx context.Context, id int64) (*entity.WorkflowInstance, error) {
	query := `SELECT` + instanceColumns + ` FROM workflow_instances WHERE id = ?`
	return r.scanOne(ctx, query, id)
}

// GetByDocumentID retrieves the workflow instance bound to a document
func (r *InstanceRepository) GetByDocumentID(ctx context.Context, documentID string) (*entity.WorkflowInstance, error) {
	query := `SELECT` + instanceColumns + ` FROM workflow_instances WHERE document_id = ?`
	return r.scanOne(ctx, query, documentID)
}

// UpdateState commits the mutated instance under the version
// compare-and-swap. Zero rows affected means either the instance is gone
// or another writer won the race.
func (r *InstanceRepository) UpdateState(ctx context.Context, instance *entity.WorkflowInstance, expectedVersion int64) error {
	query := `
		UPDATE workflow_instances
		SET state = ?, version = version + 1, assignee = ?, label = ?,
			effective_date = ?, obsolescence_date = ?, state_entered_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		instance.State.String(),
		instance.Assignee,
		nullableLabel(instance.Label),
		instance.EffectiveDate,
		instance.ObsolescenceDate,
		instance.StateEnteredAt,
		instance.ID,
		expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update instance state", zap.Int64("id", instance.ID), zap.Error(err))
		return fmt.Errorf("failed to update instance state: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		var current int64
		err := sqlite.ExecutorFrom(ctx, r.db).
			QueryRowContext(ctx, `SELECT version FROM workflow_instances WHERE id = ?`, instance.ID).
			Scan(&current)
		if err == sql.ErrNoRows {
			return fmt.Errorf("instance %d: %w", instance.ID, lifecycle.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check instance version: %w", err)
		}
		return fmt.Errorf("%w: expected version %d, current %d",
			lifecycle.ErrConcurrentModification, expectedVersion, current)
	}

	instance.Version = expectedVersion + 1
	return nil
}

// ListNonTerminal pages through instances that can still transition
func (r *InstanceRepository) ListNonTerminal(ctx context.Context, limit, offset int) ([]*entity.WorkflowInstance, error) {
	query := `SELECT` + instanceColumns + `
		FROM workflow_instances
		WHERE state NOT IN (?, ?, ?)
		ORDER BY id
		LIMIT ? OFFSET ?`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query,
		lifecycle.StateObsolete.String(),
		lifecycle.StateSuperseded.String(),
		lifecycle.StateTerminated.String(),
		limit, offset,
	)
	if err != nil {
		r.logger.Error("Failed to list non-terminal instances", zap.Error(err))
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}
	defer rows.Close()

	var instances []*entity.WorkflowInstance
	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		instances = append(instances, instance)
	}

	return instances, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func (r *InstanceRepository) scanOne(ctx context.Context, query string, arg interface{}) (*entity.WorkflowInstance, error) {
	row := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, arg)
	instance, err := scanInstance(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("instance %v: %w", arg, lifecycle.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get instance", zap.Any("key", arg), zap.Error(err))
		return nil, err
	}
	return instance, nil
}

func scanInstance(s scanner) (*entity.WorkflowInstance, error) {
	var instance entity.WorkflowInstance
	var state string
	var assignee, label sql.NullString
	var inheritedFrom sql.NullInt64
	var effectiveDate, obsolescenceDate sql.NullTime

	err := s.Scan(
		&instance.ID,
		&instance.DocumentID,
		&state,
		&instance.Version,
		&assignee,
		&label,
		&inheritedFrom,
		&effectiveDate,
		&obsolescenceDate,
		&instance.StateEnteredAt,
		&instance.CreatedAt,
		&instance.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan instance: %w", err)
	}

	instance.State = lifecycle.State(state)
	if assignee.Valid {
		instance.Assignee = assignee.String
	}
	if label.Valid {
		instance.Label = lifecycle.Label(label.String)
	}
	if inheritedFrom.Valid {
		instance.InheritedFrom = &inheritedFrom.Int64
	}
	if effectiveDate.Valid {
		instance.EffectiveDate = &effectiveDate.Time
	}
	if obsolescenceDate.Valid {
		instance.ObsolescenceDate = &obsolescenceDate.Time
	}

	return &instance, nil
}

// nullableLabel stores an unclassified document as NULL rather than an empty string
func nullableLabel(label lifecycle.Label) sql.NullString {
	if label == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: label.String(), Valid: true}
}

// Verify interface compliance
var _ port.InstanceRepository = (*InstanceRepository)(nil)
