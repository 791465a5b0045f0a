// Package chat delivers live message feeds over websockets: one room per
// conversation plus a cross-conversation moderation room for flagged
// messages. Subscribing replays the current full history from the store and
// then streams live events; a subscriber is dropped the moment its
// connection goes away, so no listener outlives its view.
package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/reclaimhq/reclaim/internal/model"
)

// Event is the wire format pushed to subscribers.
type Event struct {
	Type           string         `json:"type"`
	Message        *model.Message `json:"message,omitempty"`
	MessageID      string         `json:"message_id,omitempty"`
	ConversationID string         `json:"conversation_id,omitempty"`
}

// Event types.
const (
	EventMessage  = "message"
	EventFlagged  = "message_flagged"
	EventResolved = "flag_resolved"
	EventDeleted  = "message_deleted"
)

// Hub tracks conversation rooms and the moderation room.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]map[*client]bool
	moderation map[*client]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*client]bool),
		moderation: make(map[*client]bool),
	}
}

func (h *Hub) join(convID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[convID] == nil {
		h.rooms[convID] = make(map[*client]bool)
	}
	h.rooms[convID][c] = true
}

func (h *Hub) joinModeration(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.moderation[c] = true
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.moderation, c)
	if c.room == "" {
		return
	}
	if m := h.rooms[c.room]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.rooms, c.room)
		}
	}
}

// NotifyMessage pushes a new message to its conversation room.
func (h *Hub) NotifyMessage(msg *model.Message) {
	h.broadcast(msg.ConversationID, Event{
		Type:           EventMessage,
		Message:        msg,
		ConversationID: msg.ConversationID,
	})
}

// NotifyFlagged pushes a freshly flagged message to the moderation room.
func (h *Hub) NotifyFlagged(msg *model.Message) {
	h.broadcastModeration(Event{
		Type:           EventFlagged,
		Message:        msg,
		ConversationID: msg.ConversationID,
	})
}

// NotifyResolved tells moderators a flag was cleared.
func (h *Hub) NotifyResolved(msg *model.Message) {
	h.broadcastModeration(Event{
		Type:           EventResolved,
		Message:        msg,
		ConversationID: msg.ConversationID,
	})
}

// NotifyDeleted tells both the conversation room and moderators that a
// message is gone.
func (h *Hub) NotifyDeleted(conversationID, messageID string) {
	ev := Event{
		Type:           EventDeleted,
		MessageID:      messageID,
		ConversationID: conversationID,
	}
	h.broadcast(conversationID, ev)
	h.broadcastModeration(ev)
}

func (h *Hub) broadcast(convID string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.RLock()
	conns := make([]*client, 0, len(h.rooms[convID]))
	for c := range h.rooms[convID] {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		c.push(ev, payload)
	}
}

func (h *Hub) broadcastModeration(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.RLock()
	conns := make([]*client, 0, len(h.moderation))
	for c := range h.moderation {
		conns = append(conns, c)
	}
	h.mu.RUnlock()
	for _, c := range conns {
		c.push(ev, payload)
	}
}

// Websocket keepalive timings.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)
