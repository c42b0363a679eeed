// Package llm talks to hosted language models. The tutor uses it to explain
// wrong quiz answers. Providers return JSON that conforms to a
// caller-supplied schema; decorators add journaling, retries and a deadline.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates one structured completion.
type Provider interface {
	// Generate sends req and returns the model's output. When req.Schema is
	// set the output has already been validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name is the provider name ("anthropic", "openai", ...).
	Name() string

	// ModelID is the model the provider is configured to call.
	ModelID() string
}

// Request is a single-turn prompt.
type Request struct {
	System string
	Prompt string

	// Schema, when set, asks for JSON output matching it. Without a schema
	// Content holds the raw text.
	Schema *Schema

	MaxTokens   int
	Temperature float64 // 0 leaves the provider default
}

// Schema is a named JSON Schema.
type Schema struct {
	// Name is kebab-case, e.g. "answer-explanations". It keys the compiled
	// schema cache and names the tool or response format on the wire.
	Name        string
	Description string
	Definition  map[string]any
}

// StopReason is why generation ended, normalized across providers.
type StopReason string

const (
	StopEnd       StopReason = "end"
	StopMaxTokens StopReason = "max_tokens"
)

// Response is the model's output.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string // model that actually served the request
	StopReason StopReason
}

// Usage is token consumption for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total is input plus output tokens.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// finish applies the checks every provider shares: truncated structured
// output is an error, and structured output must match the schema.
func finish(req Request, content json.RawMessage, usage Usage, model string, stop StopReason) (*Response, error) {
	if req.Schema != nil {
		if stop == StopMaxTokens {
			return nil, &ErrMaxTokensExceeded{Content: content}
		}
		if err := req.Schema.Check(content); err != nil {
			return nil, err
		}
	}
	return &Response{Content: content, Usage: usage, Model: model, StopReason: stop}, nil
}
