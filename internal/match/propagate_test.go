package match

import (
	"context"
	"testing"

	"github.com/reclaimhq/reclaim/internal/db"
	"github.com/reclaimhq/reclaim/internal/model"
	"github.com/reclaimhq/reclaim/internal/store"
)

func TestPropagateWritesConfidence(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := store.CreateItem(ctx, database, &model.Item{
		Type:     model.TypeFound,
		Title:    "Backpack",
		Category: "Accessories",
		Date:     "2026-08-20",
	})
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	resp := &model.MatchResponse{Matches: []model.MatchResult{
		{ItemID: item.ID, Confidence: 85},
		{ItemID: "missing-item", Confidence: 70},
	}}

	// The missing item is logged and skipped, not fatal.
	Propagate(ctx, database, resp, nil)

	got, _ := store.GetItem(ctx, database, item.ID)
	if got.MatchConfidence == nil || *got.MatchConfidence != 85 {
		t.Errorf("expected confidence 85 written through, got %+v", got.MatchConfidence)
	}
}
