// Package visibility decides which viewers may see which items.
//
// FOUND items default to hidden from the general public to deter false
// claims; they surface only to their owner, to admins, or once the matcher
// has linked them to somebody. Every listing path must go through Visible;
// there is deliberately no second copy of these rules anywhere.
package visibility

import (
	"github.com/reclaimhq/reclaim/internal/model"
)

// Threshold is the match confidence above which a FOUND item becomes
// discoverable to non-owners. The comparison is exclusive: exactly 0.1 stays
// hidden.
const Threshold = 0.1

// Viewer is the identity applying for access. The zero value is an
// anonymous, non-admin viewer.
type Viewer struct {
	ID    int64
	Admin bool
}

// Visible reports whether the viewer may see the item. Rules are evaluated
// in order, first match wins:
//
//  1. admins see everything
//  2. anything that isn't a FOUND item is public
//  3. owners see their own posts
//  4. a FOUND item with match confidence above Threshold is discoverable
//  5. otherwise hidden
func Visible(viewer Viewer, item *model.Item) bool {
	if viewer.Admin {
		return true
	}
	if item.Type != model.TypeFound {
		return true
	}
	if item.OwnerID != nil && viewer.ID != 0 && *item.OwnerID == viewer.ID {
		return true
	}
	if item.MatchConfidence != nil && *item.MatchConfidence > Threshold {
		return true
	}
	return false
}

// Filter returns the items the viewer may see, preserving order.
func Filter(viewer Viewer, items []model.Item) []model.Item {
	visible := make([]model.Item, 0, len(items))
	for i := range items {
		if Visible(viewer, &items[i]) {
			visible = append(visible, items[i])
		}
	}
	return visible
}
