package quiz

import (
	"fmt"

	"github.com/abhisek/lessonkit/internal/lms"
)

// CheckAnswers verifies answers against q: one answer per question, each
// naming a question of q at most once with one of that question's options.
func CheckAnswers(q *lms.Quiz, answers []lms.Answer) error {
	if len(answers) != len(q.Questions) {
		return &lms.ValidationError{
			Field:  "answers",
			Reason: fmt.Sprintf("got %d answers for %d questions", len(answers), len(q.Questions)),
		}
	}

	seen := make(map[string]bool, len(answers))
	for i, a := range answers {
		if err := lms.Validate(a); err != nil {
			ve := err.(*lms.ValidationError)
			return &lms.ValidationError{Field: fmt.Sprintf("answers[%d].%s", i, ve.Field), Reason: ve.Reason}
		}
		question, ok := q.Question(a.QuestionID)
		if !ok {
			return &lms.ValidationError{
				Field:  fmt.Sprintf("answers[%d].questionId", i),
				Reason: fmt.Sprintf("question %q is not part of this quiz", a.QuestionID),
			}
		}
		if seen[a.QuestionID] {
			return &lms.ValidationError{
				Field:  fmt.Sprintf("answers[%d].questionId", i),
				Reason: fmt.Sprintf("question %q answered more than once", a.QuestionID),
			}
		}
		seen[a.QuestionID] = true
		if !question.HasOption(a.Answer) {
			return &lms.ValidationError{
				Field:  fmt.Sprintf("answers[%d].answer", i),
				Reason: fmt.Sprintf("%q is not an option of question %q", a.Answer, a.QuestionID),
			}
		}
	}
	return nil
}
