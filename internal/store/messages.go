package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/reclaimhq/reclaim/internal/model"
)

const messageColumns = `id, conversation_id, sender_id, sender_name, text, created_at,
	flagged, flag_reason, flagged_at, flag_resolved_at, flag_resolved_by`

// CreateMessage appends a message to a conversation.
func CreateMessage(ctx context.Context, db *sql.DB, conversationID string, senderID int64, senderName, text string) (*model.Message, error) {
	id := uuid.New().String()
	_, err := db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, sender_name, text)
		 VALUES (?, ?, ?, ?, ?)`,
		id, conversationID, senderID, senderName, text,
	)
	if err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	return GetMessage(ctx, db, id)
}

// GetMessage returns a message by ID.
func GetMessage(ctx context.Context, db *sql.DB, id string) (*model.Message, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE id = ?`, id,
	)
	msg, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting message: %w", err)
	}
	return msg, nil
}

// ListMessages returns a conversation's messages ordered by creation time
// ascending. Re-reading after new sends replays the full history in order,
// which is what live subscriptions rely on for replay.
func ListMessages(ctx context.Context, db *sql.DB, conversationID string) ([]model.Message, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE conversation_id = ?
		 ORDER BY created_at, rowid`, conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// FlagMessage marks a message for moderation review with a reason.
func FlagMessage(ctx context.Context, db *sql.DB, id, reason string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE messages SET flagged = 1, flag_reason = ?, flagged_at = CURRENT_TIMESTAMP,
		 flag_resolved_at = NULL, flag_resolved_by = NULL
		 WHERE id = ?`,
		reason, id,
	)
	if err != nil {
		return fmt.Errorf("flagging message: %w", err)
	}
	return nil
}

// ResolveFlag clears a message's flag, recording who resolved it and when.
// The message itself is preserved.
func ResolveFlag(ctx context.Context, db *sql.DB, id string, resolverID int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE messages SET flagged = 0, flag_resolved_at = CURRENT_TIMESTAMP, flag_resolved_by = ?
		 WHERE id = ?`,
		resolverID, id,
	)
	if err != nil {
		return fmt.Errorf("resolving flag: %w", err)
	}
	return nil
}

// DeleteMessage permanently removes a message. Moderation only.
func DeleteMessage(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	return nil
}

// ListFlaggedMessages returns all currently-flagged messages across every
// conversation, oldest flag first, for the moderation review feed. Each
// message carries its conversation id.
func ListFlaggedMessages(ctx context.Context, db *sql.DB) ([]model.Message, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE flagged = 1
		 ORDER BY flagged_at, rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing flagged messages: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

func collectMessages(rows *sql.Rows) ([]model.Message, error) {
	var messages []model.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, *msg)
	}
	return messages, rows.Err()
}

func scanMessage(s scanner) (*model.Message, error) {
	msg := &model.Message{}
	var senderName, flagReason sql.NullString
	var flagged int
	var flaggedAt, resolvedAt sql.NullTime
	var resolvedBy sql.NullInt64
	err := s.Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &senderName, &msg.Text,
		&msg.CreatedAt, &flagged, &flagReason, &flaggedAt, &resolvedAt, &resolvedBy)
	if err != nil {
		return nil, err
	}
	msg.SenderName = senderName.String
	msg.Flagged = flagged != 0
	msg.FlagReason = flagReason.String
	if flaggedAt.Valid {
		msg.FlaggedAt = &flaggedAt.Time
	}
	if resolvedAt.Valid {
		msg.FlagResolvedAt = &resolvedAt.Time
	}
	if resolvedBy.Valid {
		msg.FlagResolvedBy = &resolvedBy.Int64
	}
	return msg, nil
}
