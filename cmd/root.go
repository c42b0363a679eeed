package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lessonkit",
	Short: "Learner-side client for the course platform",
	Long: "lessonkit tracks lesson progress, takes quizzes, checks certificates, " +
		"enrollment and reviews against the course platform API, and keeps a local activity journal.",
	SilenceUsage: true,
}

// Execute runs the root command under ctx.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to config file (default $XDG_CONFIG_HOME/lessonkit/config.yaml)")
	pf.String("db", "", "Path to the activity journal (overrides LESSONKIT_DB)")
	pf.String("base-url", "", "Platform API base URL (overrides LESSONKIT_BASE_URL)")
	pf.String("token", "", "Bearer token (overrides LESSONKIT_TOKEN)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(certificateCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(accessCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
