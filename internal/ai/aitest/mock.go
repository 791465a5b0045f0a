// Package aitest provides a mock reasoning service client for tests. No test
// should depend on a live model's output, only on the engine's filtering,
// parsing, sorting and validation contract.
package aitest

import (
	"context"
	"sync"

	"github.com/reclaimhq/reclaim/internal/ai"
)

// MockGenerator is a thread-safe ai.Generator that returns canned responses
// in sequence and counts calls, so tests can assert the external service was
// (or was not) invoked.
type MockGenerator struct {
	mu        sync.Mutex
	Responses []*ai.Response // returned in order; last one repeats
	Err       error          // takes precedence over Responses
	calls     int
	lastReq   ai.Request
}

var _ ai.Generator = (*MockGenerator)(nil)

// Generate returns the next canned response or the configured error.
func (m *MockGenerator) Generate(_ context.Context, req ai.Request) (*ai.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastReq = req
	m.calls++

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return &ai.Response{Content: "", Model: "mock"}, nil
	}
	idx := m.calls - 1
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	return m.Responses[idx], nil
}

// CallCount returns how many times Generate was called.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastRequest returns the most recent request passed to Generate.
func (m *MockGenerator) LastRequest() ai.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReq
}
