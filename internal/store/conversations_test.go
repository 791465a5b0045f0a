package store

import (
	"context"
	"errors"
	"testing"

	"github.com/reclaimhq/reclaim/internal/db"
	"github.com/reclaimhq/reclaim/internal/model"
)

func TestGetOrCreateConversation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	b, _ := CreateUser(ctx, database, "bob", "hash", model.RoleUser)
	item, _ := CreateItem(ctx, database, &model.Item{Type: model.TypeFound, Title: "Hat", Category: "Clothing", Date: "2026-08-20"})

	conv, err := GetOrCreateConversation(ctx, database, item.ID, a.ID, b.ID)
	if err != nil {
		t.Fatalf("GetOrCreateConversation: %v", err)
	}
	if conv.ParticipantA >= conv.ParticipantB {
		t.Errorf("expected participants stored in ascending order, got %d, %d", conv.ParticipantA, conv.ParticipantB)
	}

	// Same pair in either order returns the same conversation.
	again, err := GetOrCreateConversation(ctx, database, item.ID, b.ID, a.ID)
	if err != nil {
		t.Fatalf("GetOrCreateConversation (swapped): %v", err)
	}
	if again.ID != conv.ID {
		t.Errorf("expected same conversation, got %s and %s", conv.ID, again.ID)
	}
}

func TestGetOrCreateConversationSelf(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	item, _ := CreateItem(ctx, database, &model.Item{Type: model.TypeLost, Title: "Ring", Category: "Jewelry", Date: "2026-08-20"})

	_, err := GetOrCreateConversation(ctx, database, item.ID, a.ID, a.ID)
	if !errors.Is(err, ErrSelfConversation) {
		t.Errorf("expected ErrSelfConversation, got %v", err)
	}
}

func TestConversationsPerItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	b, _ := CreateUser(ctx, database, "bob", "hash", model.RoleUser)
	item1, _ := CreateItem(ctx, database, &model.Item{Type: model.TypeFound, Title: "Hat", Category: "Clothing", Date: "2026-08-20"})
	item2, _ := CreateItem(ctx, database, &model.Item{Type: model.TypeFound, Title: "Glove", Category: "Clothing", Date: "2026-08-20"})

	c1, _ := GetOrCreateConversation(ctx, database, item1.ID, a.ID, b.ID)
	c2, _ := GetOrCreateConversation(ctx, database, item2.ID, a.ID, b.ID)
	if c1.ID == c2.ID {
		t.Error("expected distinct conversations for distinct items")
	}
}

func TestListConversations(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	b, _ := CreateUser(ctx, database, "bob", "hash", model.RoleUser)
	c, _ := CreateUser(ctx, database, "carol", "hash", model.RoleUser)
	item, _ := CreateItem(ctx, database, &model.Item{Type: model.TypeFound, Title: "Hat", Category: "Clothing", Date: "2026-08-20"})

	GetOrCreateConversation(ctx, database, item.ID, a.ID, b.ID)
	GetOrCreateConversation(ctx, database, item.ID, b.ID, c.ID)

	forA, err := ListConversations(ctx, database, a.ID)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(forA) != 1 {
		t.Errorf("expected 1 conversation for alice, got %d", len(forA))
	}

	forB, _ := ListConversations(ctx, database, b.ID)
	if len(forB) != 2 {
		t.Errorf("expected 2 conversations for bob, got %d", len(forB))
	}
}

func TestConversationPairUnique(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	b, _ := CreateUser(ctx, database, "bob", "hash", model.RoleUser)
	item, _ := CreateItem(ctx, database, &model.Item{Type: model.TypeFound, Title: "Hat", Category: "Clothing", Date: "2026-08-20"})

	conv, err := GetOrCreateConversation(ctx, database, item.ID, a.ID, b.ID)
	if err != nil {
		t.Fatalf("GetOrCreateConversation: %v", err)
	}

	// A second row for the same (item, pair) must hit the unique index,
	// so a race between two creators cannot leave duplicates behind.
	_, err = database.ExecContext(ctx,
		`INSERT INTO conversations (id, item_id, participant_a, participant_b) VALUES (?, ?, ?, ?)`,
		"second-"+conv.ID, item.ID, conv.ParticipantA, conv.ParticipantB,
	)
	if err == nil {
		t.Fatal("expected duplicate pair insert to fail")
	}
}
