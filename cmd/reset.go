package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "reset",
		Short: "Clear all progress for the current learner",
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			return withUser(cmd, func(rt *runtime) error {
				ws, err := rt.tracker.Active()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if !yes {
					fmt.Fprintf(out, "Reset all progress for %s? [y/N]: ", ws.User.DisplayName)
					in := bufio.NewScanner(cmd.InOrStdin())
					if !in.Scan() || !strings.EqualFold(strings.TrimSpace(in.Text()), "y") {
						fmt.Fprintln(out, "Cancelled.")
						return nil
					}
				}
				if err := rt.tracker.Reset(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(out, "Progress reset.")
				return nil
			})
		},
	}
	c.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	return c
}
