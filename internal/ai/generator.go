// Package ai is the boundary to the external reasoning service. It owns the
// transport, the credential, the error taxonomy, and the cleanup of the
// service's loosely-formatted JSON output. Callers (the match engine, the
// image analyzer) treat it as a black box that turns a prompt into text.
package ai

import "context"

// Request is a single generation request. Image is optional; when set it is
// sent inline alongside the prompt.
type Request struct {
	Prompt    string
	Image     []byte
	ImageMIME string
}

// Response is the raw generation result. Content may be JSON wrapped in
// markdown code fences; use ExtractJSON before unmarshaling.
type Response struct {
	Content string
	Model   string
}

// Generator produces a completion for a request. Implementations make one
// blocking round trip and classify failures with this package's error types.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}
