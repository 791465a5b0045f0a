package store

import (
	"context"
	"testing"

	"github.com/reclaimhq/reclaim/internal/db"
	"github.com/reclaimhq/reclaim/internal/model"
)

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner, _ := CreateUser(ctx, database, "finder", "hash", model.RoleUser)

	item, err := CreateItem(ctx, database, &model.Item{
		Type:     model.TypeFound,
		Title:    "Blue Backpack",
		Category: "Accessories",
		Location: "Central Park",
		Date:     "2026-08-20",
		OwnerID:  &owner.ID,
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.ID == "" {
		t.Error("expected item to get an id")
	}
	if item.Status != model.StatusOpen {
		t.Errorf("expected status OPEN, got %q", item.Status)
	}
	if item.MatchConfidence != nil {
		t.Error("expected new item to have no match confidence")
	}

	got, err := GetItem(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got == nil || got.Title != "Blue Backpack" {
		t.Errorf("expected to get item back, got %+v", got)
	}
}

func TestCreateItemNormalizesCategory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := CreateItem(ctx, database, &model.Item{
		Type:     model.TypeLost,
		Title:    "Mystery Object",
		Category: "Gadgets",
		Date:     "2026-08-20",
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.Category != "Other" {
		t.Errorf("expected unknown category to become Other, got %q", item.Category)
	}
}

func TestListItemsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateItem(ctx, database, &model.Item{Type: model.TypeLost, Title: "Lost Keys", Category: "Keys", Date: "2026-08-20"})
	CreateItem(ctx, database, &model.Item{Type: model.TypeFound, Title: "Found Keys", Category: "Keys", Date: "2026-08-21"})
	CreateItem(ctx, database, &model.Item{Type: model.TypeFound, Title: "Found Phone", Category: "Electronics", Date: "2026-08-21"})

	all, _ := ListItems(ctx, database, "", "")
	if len(all) != 3 {
		t.Errorf("expected 3 items, got %d", len(all))
	}

	found, _ := ListItems(ctx, database, model.TypeFound, "")
	if len(found) != 2 {
		t.Errorf("expected 2 FOUND items, got %d", len(found))
	}

	foundKeys, _ := ListItems(ctx, database, model.TypeFound, "Keys")
	if len(foundKeys) != 1 || foundKeys[0].Title != "Found Keys" {
		t.Errorf("expected only the found keys, got %+v", foundKeys)
	}
}

func TestUpdateItemStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, &model.Item{Type: model.TypeLost, Title: "Wallet", Category: "Wallet/Purse", Date: "2026-08-20"})

	if err := UpdateItemStatus(ctx, database, item.ID, model.StatusResolved); err != nil {
		t.Fatalf("UpdateItemStatus: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.Status != model.StatusResolved {
		t.Errorf("expected status RESOLVED, got %q", got.Status)
	}
}

func TestSetMatchConfidence(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, &model.Item{Type: model.TypeFound, Title: "Umbrella", Category: "Other", Date: "2026-08-20"})

	if err := SetMatchConfidence(ctx, database, item.ID, 0.85); err != nil {
		t.Fatalf("SetMatchConfidence: %v", err)
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got.MatchConfidence == nil || *got.MatchConfidence != 0.85 {
		t.Errorf("expected confidence 0.85, got %+v", got.MatchConfidence)
	}

	// Only the confidence column changes.
	if got.Title != "Umbrella" || got.Status != model.StatusOpen {
		t.Error("expected other columns untouched")
	}
}

func TestSetMatchConfidenceMissingItem(t *testing.T) {
	database := db.NewTestDB(t)

	if err := SetMatchConfidence(context.Background(), database, "no-such-id", 0.5); err == nil {
		t.Error("expected error for missing item")
	}
}

func TestDeleteItemCascades(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	a, _ := CreateUser(ctx, database, "alice", "hash", model.RoleUser)
	b, _ := CreateUser(ctx, database, "bob", "hash", model.RoleUser)

	item, _ := CreateItem(ctx, database, &model.Item{Type: model.TypeFound, Title: "Scarf", Category: "Clothing", Date: "2026-08-20"})
	conv, err := GetOrCreateConversation(ctx, database, item.ID, a.ID, b.ID)
	if err != nil {
		t.Fatalf("GetOrCreateConversation: %v", err)
	}
	CreateMessage(ctx, database, conv.ID, a.ID, "alice", "is this mine?")

	if err := DeleteItem(ctx, database, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	if got, _ := GetItem(ctx, database, item.ID); got != nil {
		t.Error("expected item to be gone")
	}
	if got, _ := GetConversation(ctx, database, conv.ID); got != nil {
		t.Error("expected conversation to cascade away with the item")
	}
}

func TestItemImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateItem(ctx, database, &model.Item{Type: model.TypeFound, Title: "Camera", Category: "Electronics", Date: "2026-08-20"})

	imageData := []byte("fake image data")
	if err := SetItemImage(ctx, database, item.ID, imageData, "image/jpeg"); err != nil {
		t.Fatalf("SetItemImage: %v", err)
	}

	data, mime, err := GetItemImage(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItemImage: %v", err)
	}
	if string(data) != "fake image data" {
		t.Errorf("expected image data, got %q", string(data))
	}
	if mime != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", mime)
	}
}
