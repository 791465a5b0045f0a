// Package match ranks candidate items against a target using the external
// reasoning service, then validates and scores the result. The reasoning
// service is best-effort and non-deterministic; everything around it
// (filtering, parsing, clamping, ordering) is this package's contract.
package match

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/reclaimhq/reclaim/internal/ai"
	"github.com/reclaimhq/reclaim/internal/model"
)

// RelevanceFloor is the minimum confidence for a match to be surfaced. The
// floor is requested in the prompt and re-enforced here: sub-threshold
// entries are silently dropped, never errors.
const RelevanceFloor = 30

// Engine finds and ranks matches for a target item.
type Engine struct {
	gen ai.Generator
	log *slog.Logger
}

// NewEngine creates a match engine over the given reasoning client.
func NewEngine(gen ai.Generator, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{gen: gen, log: log}
}

// FindMatches ranks pool candidates against the target. The returned
// response is always non-nil and sorted by confidence descending; an empty
// Matches slice with a nil error means no match was found. A non-nil error
// means the reasoning call failed and the response is empty; a partial or
// corrupt match list is never returned.
func (e *Engine) FindMatches(ctx context.Context, target *model.Item, pool []model.Item) (*model.MatchResponse, error) {
	empty := &model.MatchResponse{Matches: []model.MatchResult{}}

	if target == nil || target.ID == "" {
		return empty, fmt.Errorf("match target is required")
	}

	candidates := FilterCandidates(target, pool)
	if len(candidates) == 0 {
		// Nothing to compare; skip the external call entirely.
		return empty, nil
	}

	prompt := buildMatchPrompt(target, candidates)
	resp, err := e.gen.Generate(ctx, ai.Request{Prompt: prompt})
	if err != nil {
		return empty, fmt.Errorf("reasoning call failed: %w", err)
	}

	matches, err := parseMatches(resp.Content, candidates)
	if err != nil {
		return empty, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	e.log.Info("match run complete",
		"target", target.ID,
		"candidates", len(candidates),
		"matches", len(matches))

	return &model.MatchResponse{Matches: matches}, nil
}

// FilterCandidates keeps pool items eligible for matching against the
// target: opposite type, not resolved, not the target itself. Category is
// deliberately not filtered here; mismatched categories still go to the
// reasoner, which weighs them.
func FilterCandidates(target *model.Item, pool []model.Item) []model.Item {
	var candidates []model.Item
	for _, item := range pool {
		if item.Type == target.Type {
			continue
		}
		if item.Status == model.StatusResolved {
			continue
		}
		if item.ID == target.ID {
			continue
		}
		candidates = append(candidates, item)
	}
	return candidates
}

// rawMatch tolerates the loosely-typed shapes the reasoning service
// produces: confidence as number or string, and "id" as an itemId alias.
type rawMatch struct {
	ItemID     string `json:"itemId"`
	ID         string `json:"id"`
	Confidence any    `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// parseMatches validates the raw response against the candidate pool. An
// unknown itemId or an uncoercible confidence drops that entry, not the
// batch. Out-of-range confidences clamp to [0,100]; entries at or below the
// relevance floor are dropped.
func parseMatches(content string, candidates []model.Item) ([]model.MatchResult, error) {
	extracted := ai.ExtractJSON(content)
	if extracted == "" {
		return nil, &ai.MalformedResponseError{Reason: "no JSON object in response"}
	}

	var parsed struct {
		Matches []rawMatch `json:"matches"`
	}
	if err := json.Unmarshal([]byte(extracted), &parsed); err != nil {
		return nil, &ai.MalformedResponseError{Reason: fmt.Sprintf("invalid matches JSON: %v", err)}
	}

	known := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		known[c.ID] = true
	}

	var matches []model.MatchResult
	for _, raw := range parsed.Matches {
		itemID := raw.ItemID
		if itemID == "" {
			itemID = raw.ID
		}
		if !known[itemID] {
			continue
		}

		confidence, ok := coerceConfidence(raw.Confidence)
		if !ok {
			continue
		}
		confidence = clamp(confidence, 0, 100)
		if confidence <= RelevanceFloor {
			continue
		}

		matches = append(matches, model.MatchResult{
			ItemID:     itemID,
			Confidence: confidence,
			Reasoning:  raw.Reasoning,
		})
	}
	return matches, nil
}

// coerceConfidence accepts a JSON number or a numeric string.
func coerceConfidence(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
