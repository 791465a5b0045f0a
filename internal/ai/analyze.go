package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/reclaimhq/reclaim/internal/model"
)

const analyzePrompt = `Analyze this image of a lost or found item.
Identify the object, its color, and any distinctive features.
CRITICAL: If there is any text, brand name, or model number visible (e.g. "Nike", "Apple", "SG", "Samsung"), you MUST include it in the title and description.

Return the result as a JSON object matching this schema:
{
  "title": "A short, descriptive title including Brand/Model if visible (e.g. 'Blue Nike Backpack', 'SG Cricket Bat')",
  "description": "A detailed description of the visual appearance. Mention specific logos, text, scratches, or unique identifiers.",
  "category": "One of: Electronics, Keys, Wallet/Purse, Clothing, Pets, Documents, Jewelry, Accessories, Other",
  "color": "Dominant color",
  "tags": ["array", "of", "keywords", "including", "brand", "names"]
}`

// AnalyzeImage asks the reasoning service to describe an item photo so the
// report form can be pre-filled. Unknown categories fall back to Other.
func AnalyzeImage(ctx context.Context, gen Generator, image []byte, mimeType string) (*model.AIAnalysis, error) {
	if len(image) == 0 || mimeType == "" {
		return nil, fmt.Errorf("image data and media type are required")
	}

	resp, err := gen.Generate(ctx, Request{
		Prompt:    analyzePrompt,
		Image:     image,
		ImageMIME: mimeType,
	})
	if err != nil {
		return nil, err
	}

	extracted := ExtractJSON(resp.Content)
	if extracted == "" {
		return nil, &MalformedResponseError{Reason: "no JSON object in analysis response"}
	}

	var analysis model.AIAnalysis
	if err := json.Unmarshal([]byte(extracted), &analysis); err != nil {
		return nil, &MalformedResponseError{Reason: fmt.Sprintf("invalid analysis JSON: %v", err)}
	}
	analysis.Category = model.NormalizeCategory(analysis.Category)

	return &analysis, nil
}
