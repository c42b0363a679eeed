// Package tutor explains the questions a learner got wrong on a graded quiz.
package tutor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/abhisek/lessonkit/internal/llm"
	"github.com/abhisek/lessonkit/internal/lms"
)

// Purpose labels tutor calls in the LLM journal.
const Purpose = "quiz-feedback"

// ErrNotGraded is returned when there is no graded result to explain.
var ErrNotGraded = errors.New("quiz has not been graded yet")

// Config holds generation settings.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the generation defaults.
func DefaultConfig() Config {
	return Config{MaxTokens: 1024, Temperature: 0.3}
}

// Explanation is feedback on one wrong answer. The correct answer is the
// one the server returned after grading.
type Explanation struct {
	Question      string
	YourAnswer    string
	CorrectAnswer string
	Why           string
	Tip           string
}

// Feedback is the tutor's response to a graded result.
type Feedback struct {
	LessonID      string
	Explanations  []Explanation
	Encouragement string
	Usage         llm.Usage
}

// Tutor explains graded quiz results through an LLM provider.
type Tutor struct {
	provider llm.Provider
	cfg      Config
}

// New returns a Tutor. Zero config fields take their defaults.
func New(provider llm.Provider, cfg Config) *Tutor {
	def := DefaultConfig()
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = def.Temperature
	}
	return &Tutor{provider: provider, cfg: cfg}
}

type feedbackOutput struct {
	Explanations []struct {
		Index       int    `json:"index"`
		Explanation string `json:"explanation"`
		Tip         string `json:"tip"`
	} `json:"explanations"`
	Encouragement string `json:"encouragement"`
}

// Explain returns feedback for each incorrect answer in result. A perfect
// score yields empty Feedback without calling the model.
func (t *Tutor) Explain(ctx context.Context, quizTitle string, result *lms.QuizResult) (*Feedback, error) {
	if result == nil || len(result.Details) == 0 {
		return nil, ErrNotGraded
	}

	wrong := result.Incorrect()
	fb := &Feedback{LessonID: result.LessonID}
	for _, d := range wrong {
		fb.Explanations = append(fb.Explanations, Explanation{
			Question:      d.Question,
			YourAnswer:    d.YourAnswer,
			CorrectAnswer: d.CorrectAnswer,
		})
	}
	if len(wrong) == 0 {
		return fb, nil
	}

	resp, err := t.provider.Generate(llm.WithPurpose(ctx, Purpose), llm.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(quizTitle, result, wrong),
		Schema:      FeedbackSchema,
		MaxTokens:   t.cfg.MaxTokens,
		Temperature: t.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("quiz feedback: %w", err)
	}

	var out feedbackOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse quiz feedback: %w", err)
	}
	for _, e := range out.Explanations {
		// Indexes are 1-based in the prompt. Stray indexes are ignored.
		i := e.Index - 1
		if i < 0 || i >= len(fb.Explanations) {
			continue
		}
		fb.Explanations[i].Why = e.Explanation
		fb.Explanations[i].Tip = e.Tip
	}
	fb.Encouragement = out.Encouragement
	fb.Usage = resp.Usage
	return fb, nil
}
