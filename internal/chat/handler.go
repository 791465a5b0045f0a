package chat

import (
	"database/sql"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/reclaimhq/reclaim/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The API is token-authenticated; origin checks belong to the proxy.
		return true
	},
}

// ServeConversation upgrades the request and subscribes it to a
// conversation: the full message history replays first (creation order),
// then live events stream until the connection drops. Re-subscribing repeats
// the replay, so a client can always rebuild its view from scratch.
// The caller must have verified the viewer is a participant.
func ServeConversation(h *Hub, db *sql.DB, w http.ResponseWriter, r *http.Request, conversationID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	// Join before loading history so nothing committed after the join can
	// slip past both the replay and the live feed.
	c := newClient(h, conversationID, conn)
	h.join(conversationID, c)

	history, err := store.ListMessages(r.Context(), db, conversationID)
	if err != nil {
		c.close()
		return
	}

	replayed := make(map[string]bool, len(history))
	for i := range history {
		replayed[history[i].ID] = true
		ev := Event{Type: EventMessage, Message: &history[i], ConversationID: conversationID}
		if err := c.writeDirect(ev); err != nil {
			c.close()
			return
		}
	}

	c.goLive(EventMessage, replayed)
	go c.writePump()
	go c.readPump()
}

// ServeModeration subscribes an admin to the flagged-message feed: all
// currently-flagged messages replay first, then live flag/resolve/delete
// events stream. The caller must have verified the viewer is an admin.
func ServeModeration(h *Hub, db *sql.DB, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := newClient(h, "", conn)
	h.joinModeration(c)

	flagged, err := store.ListFlaggedMessages(r.Context(), db)
	if err != nil {
		c.close()
		return
	}

	replayed := make(map[string]bool, len(flagged))
	for i := range flagged {
		replayed[flagged[i].ID] = true
		ev := Event{Type: EventFlagged, Message: &flagged[i], ConversationID: flagged[i].ConversationID}
		if err := c.writeDirect(ev); err != nil {
			c.close()
			return
		}
	}

	c.goLive(EventFlagged, replayed)
	go c.writePump()
	go c.readPump()
}
