package model

// MatchResult is one ranked candidate returned by the match engine.
// Confidence is a 0-100 score; ItemID references an item from the candidate
// pool the engine was given.
type MatchResult struct {
	ItemID     string  `json:"itemId"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// MatchResponse is an ordered (confidence descending) sequence of results.
// An empty Matches slice means no match was found; it is not a failure.
type MatchResponse struct {
	Matches []MatchResult `json:"matches"`
}

// AIAnalysis is the result of analyzing an item photo: suggested form fields
// for a new report.
type AIAnalysis struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Color       string   `json:"color"`
	Tags        []string `json:"tags"`
}
