package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List learners in the roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, setupOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			current, err := rt.store.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, u := range rt.tracker.Users() {
				mark := " "
				if u.ID == current {
					mark = "*"
				}
				fmt.Fprintf(out, "%s %-12s  %s\n", mark, u.ID, u.DisplayName)
			}
			return nil
		},
	}
}

func newUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Set the current learner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, setupOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.tracker.Select(cmd.Context(), args[0]); err != nil {
				return err
			}
			ws, _ := rt.tracker.Active()
			fmt.Fprintf(cmd.OutOrStdout(), "Now studying as %s (%s)\n", ws.User.DisplayName, ws.Curriculum.Title())
			return nil
		},
	}
}
