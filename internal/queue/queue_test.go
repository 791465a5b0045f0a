package queue

import (
	"context"
	"testing"

	"github.com/reclaimhq/reclaim/internal/db"
	"github.com/reclaimhq/reclaim/internal/model"
	"github.com/reclaimhq/reclaim/internal/store"
)

func TestEnqueueAndPending(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner, _ := store.CreateUser(ctx, database, "finder", "hash", model.RoleUser)

	id, err := Enqueue(ctx, database, &model.Item{
		Type:     model.TypeFound,
		Title:    "Backpack",
		Category: "Accessories",
		Date:     "2026-08-20",
		OwnerID:  &owner.ID,
	}, []byte("img"), "image/jpeg")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	entries, err := Pending(ctx, database)
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != id {
		t.Fatalf("expected 1 pending entry %s, got %+v", id, entries)
	}
	if string(entries[0].Image) != "img" {
		t.Error("expected image data preserved")
	}
}

func TestFlushCreatesItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner, _ := store.CreateUser(ctx, database, "finder", "hash", model.RoleUser)

	Enqueue(ctx, database, &model.Item{
		Type: model.TypeFound, Title: "Backpack", Category: "Accessories",
		Date: "2026-08-20", OwnerID: &owner.ID,
	}, []byte("img"), "image/jpeg")

	flushed, err := Flush(ctx, database, nil)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if flushed != 1 {
		t.Errorf("expected 1 flushed, got %d", flushed)
	}

	items, _ := store.ListItems(ctx, database, "", "")
	if len(items) != 1 || items[0].Title != "Backpack" {
		t.Fatalf("expected flushed item, got %+v", items)
	}

	data, mime, _ := store.GetItemImage(ctx, database, items[0].ID)
	if string(data) != "img" || mime != "image/jpeg" {
		t.Error("expected image attached to flushed item")
	}

	if entries, _ := Pending(ctx, database); len(entries) != 0 {
		t.Errorf("expected queue drained, got %d entries", len(entries))
	}
}

func TestFlushSkipsEntriesWithoutOwner(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	Enqueue(ctx, database, &model.Item{
		Type: model.TypeFound, Title: "Orphan", Category: "Other", Date: "2026-08-20",
	}, nil, "")

	flushed, err := Flush(ctx, database, nil)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if flushed != 0 {
		t.Errorf("expected nothing flushed, got %d", flushed)
	}

	// The entry stays queued until an identity is attached.
	entries, _ := Pending(ctx, database)
	if len(entries) != 1 {
		t.Errorf("expected entry kept, got %d entries", len(entries))
	}
	if items, _ := store.ListItems(ctx, database, "", ""); len(items) != 0 {
		t.Errorf("expected no items created, got %d", len(items))
	}
}

func TestFlushIsIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	owner, _ := store.CreateUser(ctx, database, "finder", "hash", model.RoleUser)
	Enqueue(ctx, database, &model.Item{
		Type: model.TypeFound, Title: "Backpack", Category: "Accessories",
		Date: "2026-08-20", OwnerID: &owner.ID,
	}, nil, "")

	Flush(ctx, database, nil)
	flushed, err := Flush(ctx, database, nil)
	if err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if flushed != 0 {
		t.Errorf("expected second flush to be a no-op, got %d", flushed)
	}

	items, _ := store.ListItems(ctx, database, "", "")
	if len(items) != 1 {
		t.Errorf("expected exactly one item after double flush, got %d", len(items))
	}
}

func TestFlushKeepsFailedEntries(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	// Owner id that does not exist violates the foreign key, so the
	// create fails and the entry must survive with an attempt recorded.
	ghost := int64(9999)
	Enqueue(ctx, database, &model.Item{
		Type: model.TypeFound, Title: "Doomed", Category: "Other",
		Date: "2026-08-20", OwnerID: &ghost,
	}, nil, "")

	flushed, err := Flush(ctx, database, nil)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if flushed != 0 {
		t.Errorf("expected nothing flushed, got %d", flushed)
	}

	entries, _ := Pending(ctx, database)
	if len(entries) != 1 {
		t.Fatalf("expected failed entry kept, got %d entries", len(entries))
	}
	if entries[0].Attempts != 1 {
		t.Errorf("expected 1 attempt recorded, got %d", entries[0].Attempts)
	}
	if entries[0].LastError == "" {
		t.Error("expected last error recorded")
	}
}
