package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/reclaimhq/reclaim/internal/model"
)

// ErrSelfConversation is returned when both participants are the same user.
var ErrSelfConversation = errors.New("conversation requires two distinct participants")

// orderPair returns the two user ids in ascending order, matching how
// conversation participants are stored.
func orderPair(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// FindConversation looks up the conversation for an item between two users.
// Returns nil if none exists.
func FindConversation(ctx context.Context, db *sql.DB, itemID string, userA, userB int64) (*model.Conversation, error) {
	a, b := orderPair(userA, userB)
	c := &model.Conversation{}
	err := db.QueryRowContext(ctx,
		`SELECT id, item_id, participant_a, participant_b, created_at
		 FROM conversations WHERE item_id = ? AND participant_a = ? AND participant_b = ?`,
		itemID, a, b,
	).Scan(&c.ID, &c.ItemID, &c.ParticipantA, &c.ParticipantB, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding conversation: %w", err)
	}
	return c, nil
}

// GetConversation returns a conversation by ID.
func GetConversation(ctx context.Context, db *sql.DB, id string) (*model.Conversation, error) {
	c := &model.Conversation{}
	err := db.QueryRowContext(ctx,
		`SELECT id, item_id, participant_a, participant_b, created_at
		 FROM conversations WHERE id = ?`, id,
	).Scan(&c.ID, &c.ItemID, &c.ParticipantA, &c.ParticipantB, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	return c, nil
}

// GetOrCreateConversation returns the conversation for (item, unordered user
// pair), creating it if none exists. Both participants may call this
// concurrently; the unique index on the pair turns a lost race into a no-op
// insert, after which the winner's row is read back.
func GetOrCreateConversation(ctx context.Context, db *sql.DB, itemID string, userA, userB int64) (*model.Conversation, error) {
	if userA == userB {
		return nil, ErrSelfConversation
	}

	existing, err := FindConversation(ctx, db, itemID, userA, userB)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	a, b := orderPair(userA, userB)
	id := uuid.New().String()
	res, err := db.ExecContext(ctx,
		`INSERT INTO conversations (id, item_id, participant_a, participant_b) VALUES (?, ?, ?, ?)
		 ON CONFLICT(item_id, participant_a, participant_b) DO NOTHING`,
		id, itemID, a, b,
	)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	if n, raErr := res.RowsAffected(); raErr == nil && n == 0 {
		// The other participant won the insert.
		existing, err = FindConversation(ctx, db, itemID, userA, userB)
		if err == nil && existing == nil {
			err = fmt.Errorf("creating conversation: conflicting row vanished")
		}
		return existing, err
	}

	return GetConversation(ctx, db, id)
}

// ListConversations returns all conversations the user participates in,
// newest first.
func ListConversations(ctx context.Context, db *sql.DB, userID int64) ([]model.Conversation, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, participant_a, participant_b, created_at
		 FROM conversations WHERE participant_a = ? OR participant_b = ?
		 ORDER BY created_at DESC, id`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	var conversations []model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.ID, &c.ItemID, &c.ParticipantA, &c.ParticipantB, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	return conversations, rows.Err()
}
