package cmd

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/lessonkit/internal/ui/theme"
)

var accessCmd = &cobra.Command{
	Use:   "access <courseId>",
	Short: "Check whether you can open a course",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, needSession)
		if err != nil {
			return err
		}
		defer rt.Close()

		d, err := rt.session.Access.Check(rt.session.Context(), args[0])
		if err != nil {
			return err
		}
		verdict := "denied"
		if d.Granted {
			verdict = "granted"
		}
		out := cmd.OutOrStdout()
		lipgloss.Fprintln(out, theme.Field("Access", theme.Verdict(d.Granted, verdict)))
		lipgloss.Fprintln(out, theme.Field("Reason", string(d.Reason)))
		if d.Order != nil {
			lipgloss.Fprintln(out, theme.Field("Order", fmt.Sprintf("%s (%s)", d.Order.ID, d.Order.PaymentStatus)))
		}
		if d.Enrollment != nil {
			lipgloss.Fprintln(out, theme.Field("Progress", theme.ProgressBar(d.Enrollment.Progress, 30)))
		}
		return nil
	},
}
