package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSchemaCheck(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"summary":"fine"}`, false},
		{"missing field", `{}`, true},
		{"extra field", `{"summary":"a","x":1}`, true},
		{"wrong type", `{"summary":3}`, true},
		{"not json", `summary: fine`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := explainSchema.Check(json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Check() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var inv *ErrInvalidResponse
				if !errors.As(err, &inv) || string(inv.Content) != tt.raw {
					t.Errorf("err = %#v, want ErrInvalidResponse carrying the content", err)
				}
			}
		})
	}
}

func TestSchemaCheckNil(t *testing.T) {
	var s *Schema
	if err := s.Check(json.RawMessage("anything")); err != nil {
		t.Errorf("nil schema rejected: %v", err)
	}
}

func TestSchemaCompileIsCached(t *testing.T) {
	s := &Schema{Name: "test-cache", Definition: map[string]any{"type": "string"}}
	a, err := s.compile()
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.compile()
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("schema compiled twice")
	}
}

func TestSchemaBadDefinition(t *testing.T) {
	s := &Schema{Name: "test-broken", Definition: map[string]any{"type": 12}}
	if err := s.Check(json.RawMessage(`"x"`)); err == nil {
		t.Error("broken schema accepted")
	}
}
