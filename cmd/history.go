package cmd

import (
	"fmt"
	"sort"
	"strconv"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/abhisek/lessonkit/internal/llm"
	"github.com/abhisek/lessonkit/internal/store"
	"github.com/abhisek/lessonkit/internal/ui/theme"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent activity from the local journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		course, _ := cmd.Flags().GetString("course")

		rt, err := setup(cmd, needJournal)
		if err != nil {
			return err
		}
		defer rt.Close()

		events, err := rt.journal().QueryActivity(cmd.Context(), store.QueryOpts{Limit: limit, CourseID: course})
		if err != nil {
			return fmt.Errorf("query activity: %w", err)
		}
		if len(events) == 0 {
			lipgloss.Fprintln(cmd.OutOrStdout(), theme.Hint.Render("No activity recorded yet."))
			return nil
		}

		t := theme.Table("#", "Time", "Activity", "Course", "Lesson", "Detail")
		for _, e := range events {
			t.Row(
				strconv.FormatInt(e.Sequence, 10),
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				string(e.Kind),
				e.CourseID,
				e.LessonID,
				detail(e.Detail),
			)
		}
		lipgloss.Fprintln(cmd.OutOrStdout(), t)
		return nil
	},
}

var historyRequestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Show API call counts, failures and latency per endpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, needJournal)
		if err != nil {
			return err
		}
		defer rt.Close()

		stats, err := rt.journal().RequestStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("query request stats: %w", err)
		}
		if len(stats) == 0 {
			lipgloss.Fprintln(cmd.OutOrStdout(), theme.Hint.Render("No API calls recorded yet."))
			return nil
		}

		t := theme.Table("Endpoint", "Calls", "Failed", "Avg ms", "Max ms")
		for _, s := range stats {
			failed := strconv.Itoa(s.Failures)
			if s.Failures > 0 {
				failed = theme.Bad.Render(failed)
			}
			t.Row(s.Path, strconv.Itoa(s.Calls), failed,
				strconv.FormatInt(s.AvgLatencyMs, 10), strconv.FormatInt(s.MaxLatencyMs, 10))
		}
		lipgloss.Fprintln(cmd.OutOrStdout(), t)
		return nil
	},
}

var historyLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Show tutor LLM calls, token usage and estimated cost",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		rt, err := setup(cmd, needJournal)
		if err != nil {
			return err
		}
		defer rt.Close()
		repo := rt.journal()
		out := cmd.OutOrStdout()

		recent, err := repo.QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query LLM events: %w", err)
		}
		if len(recent) == 0 {
			lipgloss.Fprintln(out, theme.Hint.Render("No LLM calls recorded yet."))
			return nil
		}

		calls := theme.Table("#", "Time", "Purpose", "Model", "In", "Out", "Ms", "OK")
		for _, e := range recent {
			calls.Row(
				strconv.FormatInt(e.Sequence, 10),
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Purpose,
				truncate(e.Model, 28),
				strconv.Itoa(e.InputTokens),
				strconv.Itoa(e.OutputTokens),
				strconv.FormatInt(e.LatencyMs, 10),
				theme.Mark(e.Success),
			)
		}
		lipgloss.Fprintln(out, theme.Title.Render("Recent calls"))
		lipgloss.Fprintln(out, calls)

		usage, err := repo.LLMUsageByPurpose(cmd.Context())
		if err != nil {
			return fmt.Errorf("query LLM usage: %w", err)
		}
		byPurpose := theme.Table("Purpose", "Calls", "Input", "Output", "Total")
		for _, u := range usage {
			byPurpose.Row(u.Purpose, strconv.Itoa(u.Calls), strconv.Itoa(u.InputTokens),
				strconv.Itoa(u.OutputTokens), strconv.Itoa(u.InputTokens+u.OutputTokens))
		}
		lipgloss.Fprintln(out, theme.Title.Render("Usage by purpose"))
		lipgloss.Fprintln(out, byPurpose)

		all, err := repo.QueryLLMEvents(cmd.Context(), store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("query LLM events: %w", err)
		}
		total, unpriced := costByModel(all)
		line := "Estimated cost: " + formatCost(total)
		if len(unpriced) > 0 {
			line += fmt.Sprintf(" (partial, no pricing for %v)", unpriced)
		}
		lipgloss.Fprintln(out, theme.Hint.Render(line))
		return nil
	},
}

// costByModel sums the estimated cost of events and lists unpriced models.
func costByModel(events []store.LLMEvent) (float64, []string) {
	var total float64
	seen := map[string]bool{}
	var unpriced []string
	for _, e := range events {
		c, ok := llm.EstimateCost(e.Model, e.InputTokens, e.OutputTokens)
		if !ok {
			if !seen[e.Model] {
				seen[e.Model] = true
				unpriced = append(unpriced, e.Model)
			}
			continue
		}
		total += c
	}
	sort.Strings(unpriced)
	return total, unpriced
}

func detail(d map[string]any) string {
	if len(d) == 0 {
		return ""
	}
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	s := ""
	for i, k := range keys {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%v", k, d[k])
	}
	return truncate(s, 48)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	historyCmd.Flags().String("course", "", "Only show activity for this course")
	historyLLMCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")

	historyCmd.AddCommand(historyRequestsCmd)
	historyCmd.AddCommand(historyLLMCmd)
}
