package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyplan/internal/questionbank"
	"github.com/abhisek/studyplan/internal/stats"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show progress statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd, func(rt *runtime) error {
				sum, err := rt.tracker.Summary()
				if err != nil {
					return err
				}
				subjects, err := rt.tracker.Subjects()
				if err != nil {
					return err
				}
				a, err := rt.tracker.Analytics()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Day %d of %d  (%d days left)\n", sum.CurrentDay, sum.TotalDays, sum.DaysLeft)
				fmt.Fprintf(out, "Completed %d/%d topics (%d%%)\n", sum.Overall.Completed, sum.Overall.Total, sum.Overall.Percentage)
				fmt.Fprintf(out, "Streak: %d days\n", sum.Streak)
				fmt.Fprintf(out, "Pace: %s\n", stats.PaceMessage(sum.Pace))

				fmt.Fprintln(out)
				fmt.Fprintf(out, "%-24s  %9s  %5s\n", "Subject", "Done", "%")
				fmt.Fprintln(out, strings.Repeat("─", 42))
				for _, s := range subjects {
					fmt.Fprintf(out, "%-24s  %4d/%-4d  %4d%%\n",
						truncate(s.Subject.Name, 24), s.Completed, s.Total, s.Percentage)
				}

				fmt.Fprintln(out)
				fmt.Fprintf(out, "Quizzes taken: %d  Questions answered: %d\n", a.QuizzesTaken, a.QuestionsAnswered)
				for _, d := range questionbank.Difficulties() {
					pct, ok := a.Accuracy(d)
					if !ok {
						fmt.Fprintf(out, "  %-7s  -\n", d)
						continue
					}
					fmt.Fprintf(out, "  %-7s  %d%%\n", d, pct)
				}
				return nil
			})
		},
	}
}
