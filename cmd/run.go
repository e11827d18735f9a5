package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyplan/internal/app"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the interactive tracker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd)
		},
	}
}

// runApp opens the store, restores the current learner, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	rt, err := setup(cmd, setupOptions{tui: true})
	if err != nil {
		return err
	}
	defer rt.Close()

	if id, _ := cmd.Flags().GetString("user"); id != "" {
		if err := rt.tracker.Select(cmd.Context(), id); err != nil {
			return fmt.Errorf("select user: %w", err)
		}
	} else if _, err := rt.tracker.Restore(cmd.Context()); err != nil {
		return fmt.Errorf("restore user: %w", err)
	}

	return app.Run(app.Options{
		Tracker:   rt.tracker,
		ExportDir: ".",
		Logger:    rt.log,
	})
}
