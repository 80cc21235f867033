package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order exactly once each; the applied version is
// tracked in schema_migrations.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS meetings (
		id TEXT PRIMARY KEY,
		unique_id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		organizer_name TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		start_hour INTEGER NOT NULL,
		end_hour INTEGER NOT NULL,
		slot_duration_minutes INTEGER NOT NULL,
		voting_deadline TEXT,
		max_voters INTEGER NOT NULL DEFAULT 0,
		creator_json TEXT NOT NULL,
		admin_key_hash TEXT NOT NULL DEFAULT '',
		votes_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS participants (
		id TEXT PRIMARY KEY,
		meeting_id TEXT NOT NULL REFERENCES meetings(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		is_host INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_participants_meeting ON participants(meeting_id)`,
	`CREATE TABLE IF NOT EXISTS availabilities (
		participant_id TEXT PRIMARY KEY REFERENCES participants(id) ON DELETE CASCADE,
		meeting_id TEXT NOT NULL,
		slot_ids_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_availabilities_meeting ON availabilities(meeting_id)`,
}

// Migrate brings the database schema up to date.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL DEFAULT (datetime('now')))`); err != nil {
		return fmt.Errorf("sqlite: create schema_migrations: %w", err)
	}

	var current int
	err := cp.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("sqlite: read schema version: %w", err)
	}

	for version := current; version < len(migrations); version++ {
		statement := migrations[version]
		if err := cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.Exec(statement); err != nil {
				return fmt.Errorf("sqlite: migration %d: %w", version+1, err)
			}
			if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, version+1); err != nil {
				return fmt.Errorf("sqlite: record migration %d: %w", version+1, err)
			}
			return nil
		}); err != nil {
			return err
		}
	}

	return nil
}
