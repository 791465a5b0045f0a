package match

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/reclaimhq/reclaim/internal/model"
	"github.com/reclaimhq/reclaim/internal/store"
)

// Propagate merge-writes returned confidence scores back onto the matched
// candidate items. This is the write that makes a previously hidden FOUND
// item discoverable under the visibility policy.
//
// Writes are independent and idempotent: a failed write is logged and
// skipped, never aborting the rest. A missed write is healed by the next
// match run for the same target.
func Propagate(ctx context.Context, db *sql.DB, resp *model.MatchResponse, log *slog.Logger) {
	if resp == nil {
		return
	}
	if log == nil {
		log = slog.Default()
	}

	for _, m := range resp.Matches {
		if err := store.SetMatchConfidence(ctx, db, m.ItemID, m.Confidence); err != nil {
			log.Warn("failed to propagate match confidence",
				"item", m.ItemID, "confidence", m.Confidence, "error", err)
		}
	}
}
