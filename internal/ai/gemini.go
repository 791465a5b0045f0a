package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultModel is the reasoning model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// maxResponseSize caps the response body read to keep a misbehaving service
// from exhausting memory.
const maxResponseSize = 10 << 20

// GeminiClient implements Generator against the Gemini generateContent API.
type GeminiClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

var _ Generator = (*GeminiClient)(nil)

// GeminiOption configures a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithModel overrides the default model.
func WithModel(model string) GeminiOption {
	return func(c *GeminiClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL overrides the API base URL (used by tests and proxies).
func WithBaseURL(url string) GeminiOption {
	return func(c *GeminiClient) {
		if url != "" {
			c.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) GeminiOption {
	return func(c *GeminiClient) {
		c.httpClient = hc
	}
}

// NewGeminiClient builds a client. The key may be empty; Generate then fails
// fast with ErrNotConfigured without dialing.
func NewGeminiClient(apiKey string, opts ...GeminiOption) *GeminiClient {
	c := &GeminiClient{
		apiKey:  apiKey,
		model:   DefaultModel,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Request/response shapes for the generateContent endpoint.
type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiRequest struct {
	Contents []struct {
		Parts []geminiPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		ResponseMIMEType string `json:"responseMimeType,omitempty"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate makes one blocking generateContent round trip.
func (c *GeminiClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	var parts []geminiPart
	if len(req.Image) > 0 {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MIMEType: req.ImageMIME,
			Data:     base64.StdEncoding.EncodeToString(req.Image),
		}})
	}
	parts = append(parts, geminiPart{Text: req.Prompt})

	var payload geminiRequest
	payload.Contents = []struct {
		Parts []geminiPart `json:"parts"`
	}{{Parts: parts}}
	payload.GenerationConfig.ResponseMIMEType = "application/json"

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, NewTransportError(fmt.Errorf("calling reasoning service: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, NewTransportError(fmt.Errorf("reading response: %w", err))
	}

	if err := classifyStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &MalformedResponseError{Reason: fmt.Sprintf("invalid JSON envelope: %v", err)}
	}
	if len(parsed.Candidates) == 0 {
		return nil, &MalformedResponseError{Reason: "no candidates in response"}
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return nil, &MalformedResponseError{Reason: "empty candidate content"}
	}

	return &Response{Content: text.String(), Model: c.model}, nil
}

// classifyStatus maps non-2xx statuses onto the error taxonomy.
func classifyStatus(status int, body []byte) error {
	if status < http.StatusBadRequest {
		return nil
	}

	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 512 {
		snippet = snippet[:512]
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &PermissionError{Status: status, Body: snippet}
	case status == http.StatusTooManyRequests:
		return &QuotaError{Body: snippet}
	case status >= http.StatusInternalServerError:
		return NewTransportError(fmt.Errorf("reasoning service error %d: %s", status, snippet))
	default:
		return &MalformedResponseError{Reason: fmt.Sprintf("unexpected status %d: %s", status, snippet)}
	}
}
