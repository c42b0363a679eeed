package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/lessonkit/internal/lms"
	"github.com/abhisek/lessonkit/internal/quiz"
	"github.com/abhisek/lessonkit/internal/tutor"
	"github.com/abhisek/lessonkit/internal/ui/theme"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Take lesson quizzes and review results",
}

var quizShowCmd = &cobra.Command{
	Use:   "show <lessonId>",
	Short: "Show a lesson's quiz questions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, needSession)
		if err != nil {
			return err
		}
		defer rt.Close()
		ctx := rt.session.Context()
		out := cmd.OutOrStdout()

		q, err := rt.session.Quiz.FetchQuiz(ctx, args[0])
		if err != nil {
			return err
		}
		if q == nil {
			lipgloss.Fprintln(out, theme.Hint.Render("This lesson has no quiz."))
			return nil
		}
		if _, err := rt.session.Quiz.FetchResult(ctx, args[0]); err != nil {
			return err
		}

		if q.Title != "" {
			lipgloss.Fprintln(out, theme.Title.Render(q.Title))
		}
		for i, question := range q.Questions {
			lipgloss.Fprintf(out, "%d. %s %s\n", i+1, question.Text, theme.Hint.Render("("+question.ID+")"))
			for j, opt := range question.Options {
				lipgloss.Fprintf(out, "   %d) %s\n", j+1, opt)
			}
		}
		if rt.session.Quiz.State(args[0]) == quiz.StateGraded {
			lipgloss.Fprintln(out, theme.Hint.Render("\nAlready submitted. See `lessonkit quiz result "+args[0]+"`."))
		}
		return nil
	},
}

var quizResultCmd = &cobra.Command{
	Use:   "result <lessonId>",
	Short: "Show your graded quiz result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, needSession)
		if err != nil {
			return err
		}
		defer rt.Close()

		r, err := rt.session.Quiz.FetchResult(rt.session.Context(), args[0])
		if err != nil {
			return err
		}
		if r == nil {
			lipgloss.Fprintln(cmd.OutOrStdout(), theme.Hint.Render("You have not taken this quiz yet."))
			return nil
		}
		printResult(cmd.OutOrStdout(), r, rt.session.Quiz.Passed(r))
		return nil
	},
}

var quizSubmitCmd = &cobra.Command{
	Use:   "submit <lessonId>",
	Short: "Submit answers (one attempt per quiz)",
	Long: "Submit answers as --answer <questionId>=<answer>, once per question. " +
		"The answer may be the option text or its 1-based number.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetStringArray("answer")

		rt, err := setup(cmd, needSession)
		if err != nil {
			return err
		}
		defer rt.Close()
		ctx := rt.session.Context()

		q, err := rt.session.Quiz.FetchQuiz(ctx, args[0])
		if err != nil {
			return err
		}
		if q == nil {
			return errors.New("this lesson has no quiz")
		}
		answers, err := parseAnswers(q, raw)
		if err != nil {
			return err
		}

		r, err := rt.session.Quiz.Submit(ctx, args[0], answers)
		if err != nil {
			return err
		}
		printResult(cmd.OutOrStdout(), r, rt.session.Quiz.Passed(r))
		return nil
	},
}

var quizExplainCmd = &cobra.Command{
	Use:   "explain <lessonId>",
	Short: "Explain the questions you got wrong",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, needTutor)
		if err != nil {
			return err
		}
		defer rt.Close()
		ctx := rt.session.Context()
		out := cmd.OutOrStdout()

		r, err := rt.session.Quiz.FetchResult(ctx, args[0])
		if err != nil {
			return err
		}
		var title string
		if q, err := rt.session.Quiz.FetchQuiz(ctx, args[0]); err == nil && q != nil {
			title = q.Title
		}

		fb, err := rt.session.Tutor.Explain(ctx, title, r)
		if errors.Is(err, tutor.ErrNotGraded) {
			lipgloss.Fprintln(out, theme.Hint.Render("Nothing to explain: submit the quiz first."))
			return nil
		}
		if err != nil {
			return err
		}
		printFeedback(out, fb)
		return nil
	},
}

// parseAnswers turns "qid=value" pairs into answers. A value that is not an
// option but is a valid 1-based option number selects that option.
func parseAnswers(q *lms.Quiz, raw []string) ([]lms.Answer, error) {
	answers := make([]lms.Answer, 0, len(raw))
	for _, pair := range raw {
		id, value, ok := strings.Cut(pair, "=")
		id, value = strings.TrimSpace(id), strings.TrimSpace(value)
		if !ok || id == "" {
			return nil, fmt.Errorf("answer %q: want <questionId>=<answer>", pair)
		}
		if question, found := q.Question(id); found && !question.HasOption(value) {
			if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= len(question.Options) {
				value = question.Options[n-1]
			}
		}
		answers = append(answers, lms.Answer{QuestionID: id, Answer: value})
	}
	return answers, nil
}

func printResult(w io.Writer, r *lms.QuizResult, passed bool) {
	verdict := "not passed"
	if passed {
		verdict = "passed"
	}
	lipgloss.Fprintln(w, theme.Field("Score", fmt.Sprintf("%d/%d (%.0f%%)", r.Score, r.Total, r.Percentage)))
	lipgloss.Fprintln(w, theme.Field("Result", theme.Verdict(passed, verdict)))
	if !r.SubmittedAt.IsZero() {
		lipgloss.Fprintln(w, theme.Field("Submitted", r.SubmittedAt.Local().Format("2006-01-02 15:04")))
	}
	if len(r.Details) == 0 {
		return
	}
	lipgloss.Fprintln(w)
	for i, d := range r.Details {
		lipgloss.Fprintf(w, "%s %d. %s\n", theme.Mark(d.IsCorrect), i+1, d.Question)
		if !d.IsCorrect {
			lipgloss.Fprintf(w, "     you: %s  correct: %s\n", d.YourAnswer, theme.Good.Render(d.CorrectAnswer))
		}
	}
}

func printFeedback(w io.Writer, fb *tutor.Feedback) {
	if len(fb.Explanations) == 0 {
		lipgloss.Fprintln(w, theme.Good.Render("Every answer was correct."))
		return
	}
	for i, e := range fb.Explanations {
		var b strings.Builder
		fmt.Fprintf(&b, "%s\n", theme.Title.Render(fmt.Sprintf("%d. %s", i+1, e.Question)))
		fmt.Fprintf(&b, "%s\n", theme.Field("Your answer", e.YourAnswer))
		fmt.Fprintf(&b, "%s\n", theme.Field("Correct", theme.Good.Render(e.CorrectAnswer)))
		if e.Why != "" {
			fmt.Fprintf(&b, "\n%s", e.Why)
		}
		if e.Tip != "" {
			fmt.Fprintf(&b, "\n%s", theme.Hint.Render("Tip: "+e.Tip))
		}
		lipgloss.Fprintln(w, theme.Card.Width(72).Render(b.String()))
	}
	if fb.Encouragement != "" {
		lipgloss.Fprintln(w, theme.Body.Render(fb.Encouragement))
	}
}

func init() {
	quizSubmitCmd.Flags().StringArrayP("answer", "a", nil, "Answer as <questionId>=<answer> (repeatable)")

	quizCmd.AddCommand(quizShowCmd)
	quizCmd.AddCommand(quizResultCmd)
	quizCmd.AddCommand(quizSubmitCmd)
	quizCmd.AddCommand(quizExplainCmd)
}
