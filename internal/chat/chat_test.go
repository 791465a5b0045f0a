package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/reclaimhq/reclaim/internal/db"
	"github.com/reclaimhq/reclaim/internal/model"
	"github.com/reclaimhq/reclaim/internal/store"
)

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	return ev
}

func TestConversationFeedReplayAndLive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	hub := NewHub()

	a, _ := store.CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	b, _ := store.CreateUser(ctx, database, "bob", "hash", model.RoleUser)
	item, _ := store.CreateItem(ctx, database, &model.Item{Type: model.TypeFound, Title: "Hat", Category: "Clothing", Date: "2026-08-20"})
	conv, _ := store.GetOrCreateConversation(ctx, database, item.ID, a.ID, b.ID)

	store.CreateMessage(ctx, database, conv.ID, a.ID, "alice", "first")
	store.CreateMessage(ctx, database, conv.ID, b.ID, "bob", "second")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeConversation(hub, database, w, r, conv.ID)
	}))
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv.URL)

	// History replays in order.
	if ev := readEvent(t, conn); ev.Type != EventMessage || ev.Message.Text != "first" {
		t.Errorf("unexpected first replay event: %+v", ev)
	}
	if ev := readEvent(t, conn); ev.Message.Text != "second" {
		t.Errorf("unexpected second replay event: %+v", ev)
	}

	// A live message follows the replay.
	msg, _ := store.CreateMessage(ctx, database, conv.ID, a.ID, "alice", "third")
	hub.NotifyMessage(msg)

	if ev := readEvent(t, conn); ev.Message == nil || ev.Message.Text != "third" {
		t.Errorf("unexpected live event: %+v", ev)
	}
}

func TestModerationFeed(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	hub := NewHub()

	a, _ := store.CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	b, _ := store.CreateUser(ctx, database, "bob", "hash", model.RoleUser)
	item, _ := store.CreateItem(ctx, database, &model.Item{Type: model.TypeFound, Title: "Hat", Category: "Clothing", Date: "2026-08-20"})
	conv, _ := store.GetOrCreateConversation(ctx, database, item.ID, a.ID, b.ID)

	bad, _ := store.CreateMessage(ctx, database, conv.ID, b.ID, "bob", "spam")
	store.FlagMessage(ctx, database, bad.ID, "spam")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeModeration(hub, database, w, r)
	}))
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv.URL)

	// The existing flag replays first.
	if ev := readEvent(t, conn); ev.Type != EventFlagged || ev.Message.ID != bad.ID {
		t.Errorf("unexpected replay event: %+v", ev)
	}

	// A deletion reaches moderators live.
	hub.NotifyDeleted(conv.ID, bad.ID)
	if ev := readEvent(t, conn); ev.Type != EventDeleted || ev.MessageID != bad.ID {
		t.Errorf("unexpected delete event: %+v", ev)
	}
}

func TestConversationRoomsAreIsolated(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	hub := NewHub()

	a, _ := store.CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	b, _ := store.CreateUser(ctx, database, "bob", "hash", model.RoleUser)
	c, _ := store.CreateUser(ctx, database, "carol", "hash", model.RoleUser)
	item, _ := store.CreateItem(ctx, database, &model.Item{Type: model.TypeFound, Title: "Hat", Category: "Clothing", Date: "2026-08-20"})
	conv1, _ := store.GetOrCreateConversation(ctx, database, item.ID, a.ID, b.ID)
	conv2, _ := store.GetOrCreateConversation(ctx, database, item.ID, a.ID, c.ID)

	// One existing message so the replay read below doubles as a barrier
	// for the room join.
	store.CreateMessage(ctx, database, conv1.ID, a.ID, "alice", "hello")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeConversation(hub, database, w, r, conv1.ID)
	}))
	t.Cleanup(srv.Close)

	conn := dialWS(t, srv.URL)
	if ev := readEvent(t, conn); ev.Message == nil || ev.Message.Text != "hello" {
		t.Fatalf("unexpected replay event: %+v", ev)
	}

	// Traffic in the other conversation must not arrive here.
	other, _ := store.CreateMessage(ctx, database, conv2.ID, a.ID, "alice", "wrong room")
	hub.NotifyMessage(other)

	mine, _ := store.CreateMessage(ctx, database, conv1.ID, a.ID, "alice", "right room")
	hub.NotifyMessage(mine)

	if ev := readEvent(t, conn); ev.Message == nil || ev.Message.Text != "right room" {
		t.Errorf("expected only this room's message, got %+v", ev)
	}
}

func decodeQueued(t *testing.T, c *client) Event {
	t.Helper()
	select {
	case payload := <-c.send:
		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.Fatalf("decoding queued event: %v", err)
		}
		return ev
	default:
		t.Fatal("no queued event")
	}
	return Event{}
}

func TestPushAfterCloseIsDropped(t *testing.T) {
	hub := NewHub()
	joined := make(chan *client, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := newClient(hub, "room-1", conn)
		hub.join("room-1", c)
		c.goLive(EventMessage, nil)
		joined <- c
	}))
	t.Cleanup(srv.Close)

	dialWS(t, srv.URL)
	c := <-joined

	// A broadcast can snapshot the room right before its client disconnects,
	// so the push lands after close. It must be a no-op, not a panic.
	c.close()
	c.push(Event{Type: EventMessage}, []byte(`{"type":"message"}`))
	c.close()
}

func TestBacklogHeldUntilReplayDone(t *testing.T) {
	hub := NewHub()
	c := newClient(hub, "room-1", nil)
	hub.join("room-1", c)

	// Events arriving while the history replay is still being written.
	hub.NotifyMessage(&model.Message{ID: "m1", ConversationID: "room-1", Text: "covered by replay"})
	hub.NotifyMessage(&model.Message{ID: "m2", ConversationID: "room-1", Text: "missed by replay"})
	hub.NotifyDeleted("room-1", "m0")

	select {
	case <-c.send:
		t.Fatal("event delivered before the replay finished")
	default:
	}

	c.goLive(EventMessage, map[string]bool{"m1": true})

	if ev := decodeQueued(t, c); ev.Type != EventMessage || ev.Message == nil || ev.Message.ID != "m2" {
		t.Errorf("expected the unreplayed message first, got %+v", ev)
	}
	if ev := decodeQueued(t, c); ev.Type != EventDeleted || ev.MessageID != "m0" {
		t.Errorf("expected the deletion to flush, got %+v", ev)
	}
	select {
	case <-c.send:
		t.Error("replayed message delivered a second time")
	default:
	}

	// After the flush, events go straight through.
	hub.NotifyMessage(&model.Message{ID: "m3", ConversationID: "room-1", Text: "live"})
	if ev := decodeQueued(t, c); ev.Message == nil || ev.Message.ID != "m3" {
		t.Errorf("expected live delivery after flush, got %+v", ev)
	}
}
