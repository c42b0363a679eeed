package cmd

import (
	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/lessonkit/internal/lms"
	"github.com/abhisek/lessonkit/internal/ui/theme"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review courses",
}

var reviewCheckCmd = &cobra.Command{
	Use:   "check <courseId>",
	Short: "Ask the platform whether you may review a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, needSession)
		if err != nil {
			return err
		}
		defer rt.Close()

		e, err := rt.session.Reviews.CanReview(rt.session.Context(), args[0])
		if err != nil {
			return err
		}
		verdict := "no"
		if e.CanReview {
			verdict = "yes"
		}
		out := cmd.OutOrStdout()
		lipgloss.Fprintln(out, theme.Field("Can review", theme.Verdict(e.CanReview, verdict)))
		if e.Reason != "" {
			lipgloss.Fprintln(out, theme.Field("Reason", e.Reason))
		}
		return nil
	},
}

var reviewCreateCmd = &cobra.Command{
	Use:   "create <courseId>",
	Short: "Post a course review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rating, _ := cmd.Flags().GetInt("rating")
		comment, _ := cmd.Flags().GetString("comment")

		rt, err := setup(cmd, needSession)
		if err != nil {
			return err
		}
		defer rt.Close()

		r, err := rt.session.Reviews.Create(rt.session.Context(), args[0], lms.ReviewInput{Rating: rating, Comment: comment})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		lipgloss.Fprintln(out, theme.Good.Render("Review posted."))
		lipgloss.Fprintln(out, theme.Field("Rating", stars(r.Rating)))
		if r.Comment != "" {
			lipgloss.Fprintln(out, theme.Field("Comment", r.Comment))
		}
		return nil
	},
}

func stars(n int) string {
	out := ""
	for i := 1; i <= 5; i++ {
		if i <= n {
			out += "★"
		} else {
			out += "☆"
		}
	}
	return theme.Caution.Render(out)
}

func init() {
	reviewCreateCmd.Flags().IntP("rating", "r", 0, "Rating from 1 to 5")
	reviewCreateCmd.Flags().StringP("comment", "m", "", "Review text")
	_ = reviewCreateCmd.MarkFlagRequired("rating")

	reviewCmd.AddCommand(reviewCheckCmd)
	reviewCmd.AddCommand(reviewCreateCmd)
}
