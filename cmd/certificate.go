package cmd

import (
	"fmt"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/lessonkit/internal/ui/theme"
)

var certificateCmd = &cobra.Command{
	Use:   "certificate",
	Short: "Check course certificates",
}

var certificateStatusCmd = &cobra.Command{
	Use:   "status <courseId>",
	Short: "Check whether a course certificate can be downloaded",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, needSession)
		if err != nil {
			return err
		}
		defer rt.Close()
		out := cmd.OutOrStdout()

		status, signals, err := rt.session.Certificates.Check(rt.session.Context(), args[0])
		if err != nil {
			return err
		}

		if signals.Course != nil {
			lipgloss.Fprintln(out, theme.Title.Render(signals.Course.Title))
		}
		if status.Ready {
			lipgloss.Fprintln(out, theme.Field("Certificate", theme.Good.Render("ready")))
			lipgloss.Fprintln(out, theme.Field("Download", status.DownloadURL))
			return nil
		}
		lipgloss.Fprintln(out, theme.Field("Certificate", theme.Bad.Render("not available yet")))
		if signals.Progress != nil {
			lipgloss.Fprintln(out, theme.Field("Progress", theme.ProgressBar(*signals.Progress, 30)))
		}
		for _, c := range status.Unmet {
			lipgloss.Fprintf(out, "  %s %s\n", theme.Mark(false), c)
		}
		return nil
	},
}

var certificateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your issued certificates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, needSession)
		if err != nil {
			return err
		}
		defer rt.Close()

		certs, err := rt.client.MyCertificates(rt.session.Context())
		if err != nil {
			return err
		}
		if len(certs) == 0 {
			lipgloss.Fprintln(cmd.OutOrStdout(), theme.Hint.Render("No certificates issued yet."))
			return nil
		}

		t := theme.Table("Course", "Issued", "URL")
		for _, c := range certs {
			name := c.Course.Title
			if name == "" {
				name = c.Course.ID
			}
			issued := "-"
			if !c.IssuedAt.IsZero() {
				issued = c.IssuedAt.Local().Format("2006-01-02")
			}
			t.Row(name, issued, c.CertificateURL)
		}
		lipgloss.Fprintln(cmd.OutOrStdout(), t)
		lipgloss.Fprintln(cmd.OutOrStdout(), theme.Hint.Render(fmt.Sprintf("%d certificate(s)", len(certs))))
		return nil
	},
}

func init() {
	certificateCmd.AddCommand(certificateStatusCmd)
	certificateCmd.AddCommand(certificateListCmd)
}
