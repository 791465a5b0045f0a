package model

import "time"

// Item is a lost or found report posted by a user.
//
// Date is the calendar date the item was lost or found, as reported by the
// user. It is not the creation time and is stored as YYYY-MM-DD text.
type Item struct {
	ID              string     `json:"id"`
	Type            string     `json:"type"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Category        string     `json:"category"`
	Location        string     `json:"location,omitempty"`
	Date            string     `json:"date"`
	ImageMime       string     `json:"image_mime,omitempty"`
	ContactName     string     `json:"contact_name,omitempty"`
	Status          string     `json:"status"`
	OwnerID         *int64     `json:"owner_id,omitempty"`
	MatchConfidence *float64   `json:"match_confidence,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Item types.
const (
	TypeLost  = "LOST"
	TypeFound = "FOUND"
)

// Item statuses. Resolved items stay listed for their owner but are excluded
// from future match candidate pools.
const (
	StatusOpen     = "OPEN"
	StatusResolved = "RESOLVED"
)

// Categories is the fixed category list; unknown values fall back to Other.
var Categories = []string{
	"Electronics",
	"Keys",
	"Wallet/Purse",
	"Clothing",
	"Pets",
	"Documents",
	"Jewelry",
	"Accessories",
	"Other",
}

// ValidCategory reports whether c is a known category.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// NormalizeCategory maps unknown categories to the Other fallback.
func NormalizeCategory(c string) string {
	if ValidCategory(c) {
		return c
	}
	return "Other"
}
