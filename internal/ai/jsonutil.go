package ai

import (
	"regexp"
	"strings"
)

// The reasoning service is asked for bare JSON but routinely wraps it in
// markdown code fences or appends commentary. These patterns recover the
// object before unmarshaling.
var (
	// fencedJSONPattern matches JSON inside a markdown code block: ```json { ... } ```
	fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	// bareObjectPattern matches any JSON object (greedy fallback).
	bareObjectPattern = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON extracts a JSON object from a reasoning service response,
// stripping code-fence markers and trailing commas. Returns "" when no
// object is present.
func ExtractJSON(content string) string {
	content = strings.TrimSpace(content)

	var raw string
	if matches := fencedJSONPattern.FindStringSubmatch(content); len(matches) > 1 {
		raw = matches[1]
	} else {
		raw = bareObjectPattern.FindString(content)
	}
	if raw == "" {
		return ""
	}

	return trailingCommaPattern.ReplaceAllString(raw, "$1")
}
