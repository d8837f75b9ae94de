package database

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations holds the full schema history, applied in version order and
// tracked in schema_migrations.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_workflow_instances",
		SQL: `
			CREATE TABLE IF NOT EXISTS workflow_instances (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				document_id TEXT NOT NULL UNIQUE,
				state TEXT NOT NULL,
				version INTEGER NOT NULL DEFAULT 0,
				assignee TEXT,
				label TEXT,
				inherited_from INTEGER REFERENCES workflow_instances(id),
				effective_date DATETIME,
				obsolescence_date DATETIME,
				state_entered_at DATETIME NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_instances_state ON workflow_instances(state);
		`,
	},
	{
		Version: 2,
		Name:    "create_transition_log",
		SQL: `
			CREATE TABLE IF NOT EXISTS transition_log (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				instance_id INTEGER NOT NULL REFERENCES workflow_instances(id),
				seq INTEGER NOT NULL,
				from_state TEXT NOT NULL,
				to_state TEXT NOT NULL,
				actor TEXT NOT NULL,
				comment TEXT NOT NULL DEFAULT '',
				label TEXT,
				change_reason TEXT,
				effective_date DATETIME,
				obsolescence_date DATETIME,
				timestamp DATETIME NOT NULL,
				UNIQUE(instance_id, seq)
			);
			CREATE INDEX IF NOT EXISTS idx_transition_log_instance ON transition_log(instance_id);
		`,
	},
}

// Migrator handles database migrations
type Migrator struct {
	db     *DB
	logger *zap.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *DB, logger *zap.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: logger,
	}
}

// createMigrationsTable creates the migrations tracking table
func (m *Migrator) createMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
	`
	_, err := m.db.Exec(query)
	return err
}

// getAppliedMigrations returns the set of applied migration versions
func (m *Migrator) getAppliedMigrations() (map[int]bool, error) {
	rows, err := m.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// RunMigrations applies all pending migrations in version order
func (m *Migrator) RunMigrations() error {
	m.logger.Info("Starting database migrations")

	if err := m.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	pending := make([]Migration, 0, len(migrations))
	for _, mig := range migrations {
		if !applied[mig.Version] {
			pending = append(pending, mig)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].Version < pending[j].Version })

	for _, mig := range pending {
		if err := m.apply(mig); err != nil {
			return fmt.Errorf("migration %d (%s): %w", mig.Version, mig.Name, err)
		}
		m.logger.Info("Migration applied",
			zap.Int("version", mig.Version),
			zap.String("name", mig.Name))
	}

	m.logger.Info("Database migrations complete", zap.Int("applied", len(pending)))
	return nil
}

// apply runs one migration and records it atomically
func (m *Migrator) apply(mig Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(mig.SQL); err != nil {
		_ = tx.Rollback()
		return err
	}

	if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", mig.Version, mig.Name); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}
