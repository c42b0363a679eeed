package tutor

import "github.com/abhisek/lessonkit/internal/llm"

// FeedbackSchema is the structured output Explain asks for.
var FeedbackSchema = &llm.Schema{
	Name:        "quiz-feedback",
	Description: "Explanations for incorrectly answered quiz questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"explanations": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"index": map[string]any{
							"type":        "integer",
							"description": "Number of the question as listed in the prompt",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "Why the correct answer is right and the learner's answer is not, in 1-3 sentences",
						},
						"tip": map[string]any{
							"type":        "string",
							"description": "One short hint for remembering the concept",
						},
					},
					"required":             []any{"index", "explanation", "tip"},
					"additionalProperties": false,
				},
			},
			"encouragement": map[string]any{
				"type":        "string",
				"description": "One sentence of encouragement that mentions the score",
			},
		},
		"required":             []any{"explanations", "encouragement"},
		"additionalProperties": false,
	},
}
