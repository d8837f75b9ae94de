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

// LedgerRepository implements port.LedgerRepository over the append-only
// transition_log table. The table carries a UNIQUE(instance_id, seq)
// constraint; no update or delete statement exists in this package.
type LedgerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLedgerRepository creates a new audit ledger repository
func NewLedgerRepository(db *sql.DB, logger *zap.Logger) port.LedgerRepository {
	return &LedgerRepository{
		db:     db,
		logger: logger,
	}
}

// Append writes one transition record with the next gapless per-instance
// sequence number. Callers run it inside the same transaction as the
// instance compare-and-swap, which serializes appends per instance.
func (r *LedgerRepository) Append(ctx context.Context, record *entity.TransitionRecord) error {
	query := `
		INSERT INTO transition_log (
			instance_id, seq, from_state, to_state, actor, comment,
			label, change_reason, effective_date, obsolescence_date, timestamp
		) VALUES (
			?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM transition_log WHERE instance_id = ?),
			?, ?, ?, ?, ?, ?, ?, ?, ?
		)
	`

	exec := sqlite.ExecutorFrom(ctx, r.db)
	result, err := exec.ExecContext(ctx, query,
		record.InstanceID,
		record.InstanceID,
		record.FromState.String(),
		record.ToState.String(),
		record.Actor,
		record.Comment,
		nullableLabel(record.Label),
		record.ChangeReason,
		record.EffectiveDate,
		record.ObsolescenceDate,
		record.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append transition record",
			zap.Int64("instance_id", record.InstanceID), zap.Error(err))
		return fmt.Errorf("failed to append transition record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	record.ID = id

	err = exec.QueryRowContext(ctx, `SELECT seq FROM transition_log WHERE id = ?`, id).Scan(&record.Seq)
	if err != nil {
		return fmt.Errorf("failed to read assigned sequence: %w", err)
	}

	return nil
}

// ListByInstanceID returns all records for an instance, sequence ascending
func (r *LedgerRepository) ListByInstanceID(ctx context.Context, instanceID int64) ([]*entity.TransitionRecord, error) {
	query := `
		SELECT id, instance_id, seq, from_state, to_state, actor, comment,
			label, change_reason, effective_date, obsolescence_date, timestamp
		FROM transition_log
		WHERE instance_id = ?
		ORDER BY seq ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, instanceID)
	if err != nil {
		r.logger.Error("Failed to list transition records",
			zap.Int64("instance_id", instanceID), zap.Error(err))
		return nil, fmt.Errorf("failed to list transition records: %w", err)
	}
	defer rows.Close()

	var records []*entity.TransitionRecord
	for rows.Next() {
		var record entity.TransitionRecord
		var fromState, toState string
		var label sql.NullString
		var changeReason sql.NullString
		var effectiveDate, obsolescenceDate sql.NullTime

		err := rows.Scan(
			&record.ID,
			&record.InstanceID,
			&record.Seq,
			&fromState,
			&toState,
			&record.Actor,
			&record.Comment,
			&label,
			&changeReason,
			&effectiveDate,
			&obsolescenceDate,
			&record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transition record: %w", err)
		}

		record.FromState = lifecycle.State(fromState)
		record.ToState = lifecycle.State(toState)
		if label.Valid {
			record.Label = lifecycle.Label(label.String)
		}
		if changeReason.Valid {
			record.ChangeReason = changeReason.String
		}
		if effectiveDate.Valid {
			record.EffectiveDate = &effectiveDate.Time
		}
		if obsolescenceDate.Valid {
			record.ObsolescenceDate = &obsolescenceDate.Time
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.LedgerRepository = (*LedgerRepository)(nil)
