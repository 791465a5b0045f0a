package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS items (
    id               TEXT PRIMARY KEY,
    type             TEXT NOT NULL CHECK (type IN ('LOST', 'FOUND')),
    title            TEXT NOT NULL,
    description      TEXT,
    category         TEXT NOT NULL DEFAULT 'Other',
    location         TEXT,
    date             TEXT NOT NULL,
    image            BLOB,
    image_mime       TEXT,
    contact_name     TEXT,
    status           TEXT NOT NULL DEFAULT 'OPEN' CHECK (status IN ('OPEN', 'RESOLVED')),
    owner_id         INTEGER REFERENCES users(id),
    match_confidence REAL,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_type_status ON items(type, status);

CREATE TABLE IF NOT EXISTS conversations (
    id            TEXT PRIMARY KEY,
    item_id       TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    participant_a INTEGER NOT NULL REFERENCES users(id),
    participant_b INTEGER NOT NULL REFERENCES users(id),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK (participant_a < participant_b),
    UNIQUE (item_id, participant_a, participant_b)
);

CREATE INDEX IF NOT EXISTS idx_conversations_item ON conversations(item_id);

CREATE TABLE IF NOT EXISTS messages (
    id               TEXT PRIMARY KEY,
    conversation_id  TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
    sender_id        INTEGER NOT NULL REFERENCES users(id),
    sender_name      TEXT,
    text             TEXT NOT NULL,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    flagged          INTEGER NOT NULL DEFAULT 0,
    flag_reason      TEXT,
    flagged_at       DATETIME,
    flag_resolved_at DATETIME,
    flag_resolved_by INTEGER REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
CREATE INDEX IF NOT EXISTS idx_messages_flagged ON messages(flagged) WHERE flagged = 1;

CREATE TABLE IF NOT EXISTS pending_items (
    id           TEXT PRIMARY KEY,
    type         TEXT NOT NULL CHECK (type IN ('LOST', 'FOUND')),
    title        TEXT NOT NULL,
    description  TEXT,
    category     TEXT NOT NULL DEFAULT 'Other',
    location     TEXT,
    date         TEXT NOT NULL,
    image        BLOB,
    image_mime   TEXT,
    contact_name TEXT,
    owner_id     INTEGER,
    queued_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    attempts     INTEGER NOT NULL DEFAULT 0,
    last_error   TEXT
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
