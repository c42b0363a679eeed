package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestToGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type":        "object",
		"description": "feedback",
		"properties": map[string]any{
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"verdict": map[string]any{"type": "string", "enum": []any{"close", "far"}},
						"score":   map[string]any{"type": "integer"},
					},
					"required": []string{"verdict"},
				},
			},
			"mystery": map[string]any{"type": "tuple"},
		},
		"required": []any{"items"},
	}

	s := toGeminiSchema(def)
	if s.Type != genai.TypeObject || s.Description != "feedback" {
		t.Fatalf("root = %+v", s)
	}
	if len(s.Required) != 1 || s.Required[0] != "items" {
		t.Errorf("required = %v", s.Required)
	}
	items := s.Properties["items"]
	if items == nil || items.Type != genai.TypeArray || items.Items == nil {
		t.Fatalf("items = %+v", items)
	}
	elem := items.Items
	if elem.Properties["score"].Type != genai.TypeInteger {
		t.Errorf("score type = %v", elem.Properties["score"].Type)
	}
	if got := elem.Properties["verdict"].Enum; len(got) != 2 || got[1] != "far" {
		t.Errorf("enum = %v", got)
	}
	if len(elem.Required) != 1 {
		t.Errorf("[]string required lost: %v", elem.Required)
	}
	if s.Properties["mystery"].Type != genai.TypeString {
		t.Errorf("unknown type = %v, want string", s.Properties["mystery"].Type)
	}
}
