package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/reclaimhq/reclaim/internal/model"
)

const itemColumns = `id, type, title, description, category, location, date, image_mime,
	contact_name, status, owner_id, match_confidence, created_at, updated_at`

// CreateItem persists a new item report and assigns its id.
func CreateItem(ctx context.Context, db *sql.DB, item *model.Item) (*model.Item, error) {
	id := uuid.New().String()
	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, type, title, description, category, location, date, contact_name, status, owner_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, item.Type, item.Title, item.Description, model.NormalizeCategory(item.Category),
		item.Location, item.Date, item.ContactName, model.StatusOpen, item.OwnerID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all items newest first, optionally filtered by type
// and/or category. Visibility filtering is the caller's job: every listing
// path applies the same visibility policy to the result.
func ListItems(ctx context.Context, db *sql.DB, itemType, category string) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var args []any
	switch {
	case itemType != "" && category != "":
		query += ` WHERE type = ? AND category = ?`
		args = append(args, itemType, category)
	case itemType != "":
		query += ` WHERE type = ?`
		args = append(args, itemType)
	case category != "":
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItemStatus sets an item's status (OPEN or RESOLVED).
func UpdateItemStatus(ctx context.Context, db *sql.DB, id, status string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("updating item status: %w", err)
	}
	return nil
}

// SetMatchConfidence merge-writes the match confidence onto a single item.
// Only this column is touched; concurrent edits to other fields are not
// clobbered. Returns sql.ErrNoRows if the item does not exist.
func SetMatchConfidence(ctx context.Context, db *sql.DB, id string, confidence float64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET match_confidence = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		confidence, id,
	)
	if err != nil {
		return fmt.Errorf("setting match confidence: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting match confidence: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteItem permanently removes an item and, via cascade, its conversations.
func DeleteItem(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, db *sql.DB, id string, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, db *sql.DB, id string) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*model.Item, error) {
	item := &model.Item{}
	var description, location, imageMime, contactName sql.NullString
	var ownerID sql.NullInt64
	var confidence sql.NullFloat64
	err := s.Scan(&item.ID, &item.Type, &item.Title, &description, &item.Category,
		&location, &item.Date, &imageMime, &contactName, &item.Status,
		&ownerID, &confidence, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.Location = location.String
	item.ImageMime = imageMime.String
	item.ContactName = contactName.String
	if ownerID.Valid {
		item.OwnerID = &ownerID.Int64
	}
	if confidence.Valid {
		item.MatchConfidence = &confidence.Float64
	}
	return item, nil
}
