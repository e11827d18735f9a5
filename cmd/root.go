package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. A fresh tree per call keeps flag
// state from leaking between executions.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "studyplan",
		Short: "Day-by-day study plan tracker",
		Long:  "StudyPlan tracks progress through a scheduled curriculum, gates completion behind quizzes and syncs progress to a remote store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd)
		},
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides STUDYPLAN_DB)")
	pf.String("config", "", "Path to a studyplan.yaml config file")
	pf.String("user", "", "Act as this user instead of the current one")
	pf.BoolP("verbose", "v", false, "Log to stderr")

	root.AddCommand(
		newRunCmd(),
		newUsersCmd(),
		newUseCmd(),
		newTopicsCmd(),
		newToggleCmd(),
		newStatsCmd(),
		newQuizCmd(),
		newSyncCmd(),
		newExportCmd(),
		newImportCmd(),
		newResetCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}
