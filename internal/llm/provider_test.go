package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

var explainSchema = &Schema{
	Name: "test-explain",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{"type": "string"},
		},
		"required":             []any{"summary"},
		"additionalProperties": false,
	},
}

func TestMockReplaysScriptInOrder(t *testing.T) {
	m := NewMock(
		MockResponse{Content: json.RawMessage(`{"summary":"one"}`), Usage: Usage{InputTokens: 10, OutputTokens: 2}},
		MockResponse{Err: &ErrRateLimit{}},
	)

	resp, err := m.Generate(context.Background(), Request{Prompt: "a", Schema: explainSchema})
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if string(resp.Content) != `{"summary":"one"}` || resp.Usage.Total() != 12 {
		t.Errorf("resp = %s usage %+v", resp.Content, resp.Usage)
	}

	_, err = m.Generate(context.Background(), Request{Prompt: "b"})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Errorf("second call err = %v, want rate limit", err)
	}

	_, err = m.Generate(context.Background(), Request{Prompt: "c"})
	var un *ErrProviderUnavailable
	if !errors.As(err, &un) {
		t.Errorf("exhausted script err = %v, want unavailable", err)
	}

	calls := m.Calls()
	if len(calls) != 3 || calls[0].Prompt != "a" || calls[2].Prompt != "c" {
		t.Errorf("calls = %+v", calls)
	}
}

func TestMockChecksSchema(t *testing.T) {
	m := NewMock(MockResponse{Content: json.RawMessage(`{"other":1}`)})
	_, err := m.Generate(context.Background(), Request{Schema: explainSchema})
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("err = %v, want invalid response", err)
	}
}

func TestFinish(t *testing.T) {
	good := json.RawMessage(`{"summary":"ok"}`)

	if _, err := finish(Request{Schema: explainSchema}, good, Usage{}, "m", StopMaxTokens); err == nil {
		t.Error("truncated structured output accepted")
	} else {
		var mt *ErrMaxTokensExceeded
		if !errors.As(err, &mt) {
			t.Errorf("err = %v, want max tokens", err)
		}
	}

	resp, err := finish(Request{}, json.RawMessage("plain text"), Usage{}, "m", StopMaxTokens)
	if err != nil {
		t.Fatalf("unstructured output rejected: %v", err)
	}
	if resp.StopReason != StopMaxTokens {
		t.Errorf("stop = %q", resp.StopReason)
	}

	resp, err = finish(Request{Schema: explainSchema}, good, Usage{InputTokens: 3}, "served-model", StopEnd)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if resp.Model != "served-model" || resp.Usage.InputTokens != 3 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestPurposeFrom(t *testing.T) {
	if got := PurposeFrom(context.Background()); got != "unspecified" {
		t.Errorf("default purpose = %q", got)
	}
	if got := PurposeFrom(WithPurpose(context.Background(), "quiz-feedback")); got != "quiz-feedback" {
		t.Errorf("purpose = %q", got)
	}
}

func TestEstimateCost(t *testing.T) {
	cost, ok := EstimateCost("claude-haiku-4-5", 1_000_000, 1_000_000)
	if !ok || cost != 6 {
		t.Errorf("cost = %v, %v; want 6, true", cost, ok)
	}
	if _, ok := EstimateCost("mystery-model", 1, 1); ok {
		t.Error("unknown model priced")
	}
}

func TestFromStatus(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{429, func(err error) bool { var e *ErrRateLimit; return errors.As(err, &e) }},
		{401, func(err error) bool { var e *ErrRejected; return errors.As(err, &e) && e.Status == 401 }},
		{404, func(err error) bool { var e *ErrRejected; return errors.As(err, &e) }},
		{503, func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) }},
		{0, func(err error) bool { var e *ErrProviderUnavailable; return errors.As(err, &e) }},
	}
	for _, tt := range tests {
		err := fromStatus(tt.status, base)
		if !tt.check(err) {
			t.Errorf("status %d classified as %T", tt.status, err)
		}
		if !errors.Is(err, base) {
			t.Errorf("status %d lost the cause", tt.status)
		}
	}
}
