package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: items created before moderation audit fields existed have
	// flag columns without the resolver audit trail; nothing to backfill, the
	// index just needs to exist on older databases.
	`CREATE INDEX IF NOT EXISTS idx_messages_flagged ON messages(flagged) WHERE flagged = 1`,

	// Migration 2: one conversation per (item, participant pair). Databases
	// created before the table carried the constraint get it as an index,
	// which also serves as the upsert conflict target.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_conversations_pair
	    ON conversations(item_id, participant_a, participant_b)`,
}

// Migrate runs the database schema migrations.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
