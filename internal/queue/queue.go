// Package queue holds item submissions that could not be persisted right
// away (deferred uploads, store failures). Entries are appended to a local
// table and a flush walks them oldest-first, creating at most one item per
// entry and removing only the ones that succeeded; failed entries stay for
// the next flush. Flush runs at startup and on demand; running it twice is
// harmless.
package queue

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/reclaimhq/reclaim/internal/model"
	"github.com/reclaimhq/reclaim/internal/store"
)

// Entry is one queued item submission with its optional image.
type Entry struct {
	ID        string
	Item      model.Item
	Image     []byte
	ImageMime string
	Attempts  int
	LastError string
}

// Enqueue appends a submission. The owner may still be unresolved (nil);
// flush will skip the entry until an identity is attached.
func Enqueue(ctx context.Context, db *sql.DB, item *model.Item, image []byte, imageMime string) (string, error) {
	id := uuid.New().String()
	_, err := db.ExecContext(ctx,
		`INSERT INTO pending_items (id, type, title, description, category, location, date, image, image_mime, contact_name, owner_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, item.Type, item.Title, item.Description, model.NormalizeCategory(item.Category),
		item.Location, item.Date, image, imageMime, item.ContactName, item.OwnerID,
	)
	if err != nil {
		return "", fmt.Errorf("enqueueing item: %w", err)
	}
	return id, nil
}

// Pending returns all queued entries oldest-first.
func Pending(ctx context.Context, db *sql.DB) ([]Entry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, type, title, description, category, location, date, image, image_mime,
		        contact_name, owner_id, attempts, last_error
		 FROM pending_items ORDER BY queued_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pending items: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var description, location, imageMime, contactName, lastError sql.NullString
		var ownerID sql.NullInt64
		if err := rows.Scan(&e.ID, &e.Item.Type, &e.Item.Title, &description, &e.Item.Category,
			&location, &e.Item.Date, &e.Image, &imageMime, &contactName, &ownerID,
			&e.Attempts, &lastError); err != nil {
			return nil, fmt.Errorf("scanning pending item: %w", err)
		}
		e.Item.Description = description.String
		e.Item.Location = location.String
		e.ImageMime = imageMime.String
		e.Item.ContactName = contactName.String
		e.LastError = lastError.String
		if ownerID.Valid {
			e.Item.OwnerID = &ownerID.Int64
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Flush attempts every queued entry. Succeeded entries are removed; failed
// ones are kept with an attempt count and error for the next flush. An entry
// without a resolved owner is left queued untouched: uploads require an
// identity. Returns how many entries were persisted.
func Flush(ctx context.Context, db *sql.DB, log *slog.Logger) (int, error) {
	if log == nil {
		log = slog.Default()
	}

	entries, err := Pending(ctx, db)
	if err != nil {
		return 0, err
	}

	flushed := 0
	for _, e := range entries {
		if e.Item.OwnerID == nil {
			log.Info("skipping queued item without resolved identity", "entry", e.ID)
			continue
		}

		item, err := store.CreateItem(ctx, db, &e.Item)
		if err != nil {
			markFailed(ctx, db, e.ID, err, log)
			continue
		}
		if len(e.Image) > 0 {
			if err := store.SetItemImage(ctx, db, item.ID, e.Image, e.ImageMime); err != nil {
				// The item exists; the image can be re-uploaded. Still
				// remove the entry so the flush never creates a duplicate.
				log.Warn("queued item created but image upload failed", "entry", e.ID, "item", item.ID, "error", err)
			}
		}

		if _, err := db.ExecContext(ctx, `DELETE FROM pending_items WHERE id = ?`, e.ID); err != nil {
			log.Warn("failed to remove flushed queue entry", "entry", e.ID, "error", err)
			continue
		}
		flushed++
	}

	return flushed, nil
}

func markFailed(ctx context.Context, db *sql.DB, id string, cause error, log *slog.Logger) {
	_, err := db.ExecContext(ctx,
		`UPDATE pending_items SET attempts = attempts + 1, last_error = ? WHERE id = ?`,
		cause.Error(), id,
	)
	if err != nil {
		log.Warn("failed to record queue entry failure", "entry", id, "error", err)
	}
}
