package tutor

import (
	"fmt"
	"strings"

	"github.com/abhisek/lessonkit/internal/lms"
)

const systemPrompt = `You are a concise, friendly course tutor. A learner has just received a graded quiz. Explain each question they got wrong so they understand the correct answer. Do not dispute the grading: the correct answers given are authoritative.`

func buildPrompt(title string, result *lms.QuizResult, wrong []lms.AnswerDetail) string {
	var b strings.Builder

	if title != "" {
		fmt.Fprintf(&b, "Quiz: %s\n", title)
	}
	fmt.Fprintf(&b, "Score: %d/%d (%.0f%%)\n", result.Score, result.Total, result.Percentage)

	b.WriteString("\nIncorrect answers:\n")
	for i, d := range wrong {
		fmt.Fprintf(&b, "%d. Question: %s\n", i+1, d.Question)
		fmt.Fprintf(&b, "   Learner answered: %s\n", orNone(d.YourAnswer))
		fmt.Fprintf(&b, "   Correct answer: %s\n", d.CorrectAnswer)
	}

	b.WriteString(`
Instructions:
For every numbered question above, return one explanation with the same index.
Keep each explanation under 60 words and use plain text.`)

	return b.String()
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(no answer)"
	}
	return s
}
