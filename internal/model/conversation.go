package model

import "time"

// Conversation links exactly two users discussing one item. Participants are
// stored ordered (A < B) so the unordered pair maps to a single row.
type Conversation struct {
	ID           string    `json:"id"`
	ItemID       string    `json:"item_id"`
	ParticipantA int64     `json:"participant_a"`
	ParticipantB int64     `json:"participant_b"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID int64) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// Message is one chat message. Messages are append-only: there is no edit,
// only the flag/resolve moderation transitions and physical delete.
type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       int64      `json:"sender_id"`
	SenderName     string     `json:"sender_name,omitempty"`
	Text           string     `json:"text"`
	CreatedAt      time.Time  `json:"created_at"`
	Flagged        bool       `json:"flagged"`
	FlagReason     string     `json:"flag_reason,omitempty"`
	FlaggedAt      *time.Time `json:"flagged_at,omitempty"`
	FlagResolvedAt *time.Time `json:"flag_resolved_at,omitempty"`
	FlagResolvedBy *int64     `json:"flag_resolved_by,omitempty"`
}
