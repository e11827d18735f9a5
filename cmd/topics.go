package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyplan/internal/curriculum"
)

func newTopicsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "topics",
		Short: "List topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			filterVal, _ := cmd.Flags().GetString("filter")
			subject, _ := cmd.Flags().GetString("subject")
			priority, _ := cmd.Flags().GetString("priority")

			filter, err := curriculum.ParseFilter(filterVal)
			if err != nil {
				return err
			}

			return withUser(cmd, func(rt *runtime) error {
				topics, err := rt.tracker.Topics(curriculum.Query{
					Filter:    filter,
					SubjectID: subject,
					Priority:  priority,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(topics) == 0 {
					fmt.Fprintln(out, "No topics match.")
					return nil
				}

				fmt.Fprintf(out, "%-3s  %-10s  %-4s  %-4s  %-36s  %s\n", "", "ID", "Day", "Subj", "Title", "Best")
				fmt.Fprintln(out, strings.Repeat("─", 72))
				for _, tv := range topics {
					mark := "[ ]"
					if tv.Completed {
						mark = "[x]"
					}
					best := "-"
					if tv.HasScore {
						best = fmt.Sprintf("%d/10", tv.BestScore)
					}
					fmt.Fprintf(out, "%-3s  %-10s  %-4d  %-4s  %-36s  %s\n",
						mark, tv.Topic.ID, tv.Topic.Day, tv.Subject.ShortName, truncate(tv.Topic.Title, 36), best)
				}
				fmt.Fprintf(out, "\n%d topics\n", len(topics))
				return nil
			})
		},
	}
	c.Flags().StringP("filter", "f", "all", "today, week, pending, completed or all")
	c.Flags().StringP("subject", "s", "", "Only this subject id")
	c.Flags().StringP("priority", "p", "", "Only subjects with this priority")
	return c
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <topicId>",
		Short: "Flip a topic's completion without a quiz",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUser(cmd, func(rt *runtime) error {
				done, err := rt.tracker.Toggle(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				state := "pending"
				if done {
					state = "completed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s marked %s\n", args[0], state)
				return nil
			})
		},
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
