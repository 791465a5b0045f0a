package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// client is one websocket subscriber, either in a conversation room
// (room set) or the moderation room (room empty).
//
// A client joins its room before the history replay is written, so events
// raised during the replay land in backlog instead of racing it; goLive
// flushes the backlog minus whatever the replay already covered. Delivery
// is at least once: an event committed before the history query but
// announced after the flush can arrive twice.
type client struct {
	conn *websocket.Conn
	hub  *Hub
	room string
	send chan []byte

	mu      sync.Mutex
	closed  bool
	live    bool
	backlog []heldEvent
}

type heldEvent struct {
	ev      Event
	payload []byte
}

func newClient(h *Hub, room string, conn *websocket.Conn) *client {
	return &client{conn: conn, hub: h, room: room, send: make(chan []byte, 256)}
}

// push queues a payload for delivery. Safe at any point in the client's
// life; a push that lands after close is dropped.
func (c *client) push(ev Event, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if !c.live {
		c.backlog = append(c.backlog, heldEvent{ev: ev, payload: payload})
		return
	}
	c.enqueue(payload)
}

// enqueue hands a payload to the write pump, dropping the client if its
// buffer is full (a stuck reader must not block the hub). Callers hold c.mu.
func (c *client) enqueue(payload []byte) {
	select {
	case c.send <- payload:
	default:
		go c.close()
	}
}

// writeDirect writes an event on the caller's goroutine. Only valid before
// the write pump starts.
func (c *client) writeDirect(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// goLive flushes the backlog and switches to direct delivery. replayed holds
// the message ids the history replay covered; backlog events of replayType
// for those ids are duplicates and dropped. Other event types (deletions,
// flag resolutions) always flush, the replay predates them.
func (c *client) goLive(replayType string, replayed map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for _, h := range c.backlog {
		if h.ev.Type == replayType && h.ev.Message != nil && replayed[h.ev.Message.ID] {
			continue
		}
		c.enqueue(h.payload)
	}
	c.backlog = nil
	c.live = true
}

func (c *client) readPump() {
	defer c.close()
	c.conn.SetReadLimit(8 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		// Feeds are push-only; inbound frames are drained for pong handling.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
	c.hub.leave(c)
	c.conn.Close()
}
