package cmd

import (
	"fmt"
	"io"
	"slices"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/lessonkit/internal/lms"
	"github.com/abhisek/lessonkit/internal/ui/theme"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show and update lesson progress",
}

var progressShowCmd = &cobra.Command{
	Use:   "show <courseId>",
	Short: "Show completed lessons and course progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, needSession)
		if err != nil {
			return err
		}
		defer rt.Close()
		ctx := rt.session.Context()

		course, err := rt.client.GetCourse(ctx, args[0])
		if err != nil {
			return err
		}
		snap, err := rt.session.Progress.Snapshot(ctx, course)
		if err != nil {
			return err
		}
		printProgress(cmd.OutOrStdout(), course, snap)
		return nil
	},
}

func setCompletionCmd(use, short string, completed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <courseId> <lessonId>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, needSession)
			if err != nil {
				return err
			}
			defer rt.Close()
			ctx := rt.session.Context()

			course, err := rt.client.GetCourse(ctx, args[0])
			if err != nil {
				return err
			}
			pct, err := rt.session.Progress.SetLessonCompletion(ctx, course, args[1], completed)
			if err != nil {
				return err
			}

			state := "completed"
			if !completed {
				state = "not completed"
			}
			out := cmd.OutOrStdout()
			lipgloss.Fprintln(out, theme.Field("Lesson", fmt.Sprintf("%s marked %s", args[1], state)))
			lipgloss.Fprintln(out, theme.Field("Progress", theme.ProgressBar(pct, 30)))
			return nil
		},
	}
}

var progressWatchCmd = &cobra.Command{
	Use:   "watch <courseId> <lessonId>",
	Short: "Record the lesson as last watched",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, needSession)
		if err != nil {
			return err
		}
		defer rt.Close()
		ctx := rt.session.Context()

		course, err := rt.client.GetCourse(ctx, args[0])
		if err != nil {
			return err
		}
		if err := rt.session.Progress.SetLastWatched(ctx, course, args[1]); err != nil {
			return err
		}
		lipgloss.Fprintln(cmd.OutOrStdout(), theme.Field("Last watched", args[1]))
		return nil
	},
}

func printProgress(w io.Writer, course *lms.Course, p lms.CourseProgress) {
	lipgloss.Fprintln(w, theme.Title.Render(course.Title))
	lipgloss.Fprintln(w, theme.Field("Progress", theme.ProgressBar(p.Progress, 30)))
	lipgloss.Fprintln(w, theme.Field("Completed", fmt.Sprintf("%d of %d lessons", len(p.CompletedLessons), course.LessonCount())))
	if course.IsEnded {
		lipgloss.Fprintln(w, theme.Hint.Render("This course has ended."))
	}
	lipgloss.Fprintln(w)

	for i, l := range course.Lessons {
		name := l.Title
		if name == "" {
			name = l.ID
		}
		line := fmt.Sprintf("%s %2d. %s", theme.Mark(slices.Contains(p.CompletedLessons, l.ID)), i+1, name)
		if l.HasQuiz {
			line += theme.Hint.Render("  [quiz]")
		}
		if l.ID == p.LastWatchedLesson {
			line += theme.Caution.Render("  ← last watched")
		}
		lipgloss.Fprintln(w, line)
	}
}

func init() {
	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(setCompletionCmd("complete", "Mark a lesson completed", true))
	progressCmd.AddCommand(setCompletionCmd("undo", "Mark a lesson not completed", false))
	progressCmd.AddCommand(progressWatchCmd)
}
