package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one scripted reply.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// Mock replays scripted responses in order and records requests. An empty
// script yields ErrProviderUnavailable.
type Mock struct {
	mu     sync.Mutex
	script []MockResponse
	calls  []Request
}

// NewMock returns a Mock with the given script.
func NewMock(script ...MockResponse) *Mock {
	return &Mock{script: script}
}

func (m *Mock) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)

	if len(m.script) == 0 {
		return nil, &ErrProviderUnavailable{}
	}
	next := m.script[0]
	m.script = m.script[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return finish(req, next.Content, next.Usage, "mock", StopEnd)
}

func (m *Mock) Name() string    { return ProviderMock }
func (m *Mock) ModelID() string { return "mock" }

// Push appends to the script.
func (m *Mock) Push(r MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, r)
}

// Calls returns the requests received so far.
func (m *Mock) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.calls...)
}
