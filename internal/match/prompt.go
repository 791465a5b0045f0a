package match

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/reclaimhq/reclaim/internal/model"
)

// comparisonRecord is the minimal projection of an item sent to the
// reasoning service. Keeping the payload small bounds cost and latency.
type comparisonRecord struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	Type        string `json:"type,omitempty"`
}

func project(item *model.Item, withID, withType bool) comparisonRecord {
	rec := comparisonRecord{
		Title:       item.Title,
		Description: item.Description,
		Category:    item.Category,
		Location:    item.Location,
		Date:        item.Date,
	}
	if withID {
		rec.ID = item.ID
	}
	if withType {
		rec.Type = item.Type
	}
	return rec
}

// buildMatchPrompt renders the matching instructions. The date rule is
// advisory only: real-world reporting delay violates it often, so the
// engine never enforces it as a filter.
func buildMatchPrompt(target *model.Item, candidates []model.Item) string {
	targetJSON, _ := json.Marshal(project(target, false, true))

	records := make([]comparisonRecord, 0, len(candidates))
	for i := range candidates {
		records = append(records, project(&candidates[i], true, false))
	}
	candidatesJSON, _ := json.Marshal(records)

	oppositeType := model.TypeFound
	if target.Type == model.TypeFound {
		oppositeType = model.TypeLost
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert Lost & Found matcher.\n")
	fmt.Fprintf(&b, "I have a target item that is %s.\n", target.Type)
	fmt.Fprintf(&b, "Target Item Details: %s\n\n", targetJSON)
	fmt.Fprintf(&b, "Here is a list of potential matches (items that were %s):\n%s\n\n", oppositeType, candidatesJSON)
	b.WriteString(`Analyze the descriptions, locations, dates, and categories.
Identify which candidates are likely to be the same physical object as the target item.

Matching Rules:
1. Category Match: High importance.
2. Keyword Match: Look for matching brand names (e.g. "SG", "Nike") or specific object types (e.g. "Cricket Bat").
3. Fuzzy Description: Be lenient with minor color or description discrepancies (e.g. "Blue decals" vs "Red decals") if the core object and brand match strongly.
4. Location: Plausible proximity is good, but items move.
5. Date: Lost date must be before or same as Found date.

Return a JSON object with a "matches" array. Each match should have:
- "itemId": The ID of the matching candidate.
- "confidence": A number 0-100 indicating confidence level.
- "reasoning": A short explanation of why it matches.

Return matches with confidence > 30.
`)
	return b.String()
}
