package attendance

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"cuadrilla/internal/logging"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes
// and add the upgrade step to migrations.
const schemaVersion = 2

// requiredTables lists the tables CheckHealth expects to find.
var requiredTables = []string{"sites", "workers", "attendance", "site_activities"}

// migrations upgrades a database from the keyed version to the next one.
var migrations = map[int]string{
	1: `CREATE TABLE site_activities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    site_id INTEGER NOT NULL REFERENCES sites(id),
    date TEXT NOT NULL,
    description TEXT NOT NULL,
    order_index INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX idx_site_activities_day ON site_activities(site_id, date, order_index);`,
}

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	version, err := s.readSchemaVersion(ctx)
	if err != nil {
		return err
	}
	if version < schemaVersion {
		if version, err = s.migrate(ctx, version); err != nil {
			return err
		}
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (move %s aside to start fresh)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) readSchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// migrate applies the upgrade steps from version up to schemaVersion in one
// transaction and returns the resulting version.
func (s *Store) migrate(ctx context.Context, version int) (int, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for v := version; v < schemaVersion; v++ {
			step, ok := migrations[v]
			if !ok {
				return fmt.Errorf("%w: no upgrade path from version %d", ErrSchemaMismatch, v)
			}
			if _, err := tx.ExecContext(ctx, step); err != nil {
				return fmt.Errorf("migrate schema from version %d: %w", v, err)
			}
		}
		_, err := tx.ExecContext(ctx, "UPDATE schema_version SET version = ?", schemaVersion)
		return err
	})
	if err != nil {
		return version, err
	}
	s.logger.Info("schema migrated", logging.Int("from", version), logging.Int("to", schemaVersion))
	return schemaVersion, nil
}
