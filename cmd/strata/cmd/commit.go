package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Commit staged changes",
	Long: `Commit the staged changes, one commit per touched layer.

Every touched layer reference moves in a single transaction: either all
layers advance to their new commit or none does. On success the staging
index is cleared and the moves are recorded in the audit trail.`,
	Example: `% strata commit -m "tighten linter for the website project"`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		optionInputs := newCliOptionInputs(config, &strataFlags)
		w, err := optionInputs.workspace()
		if err != nil {
			wrapFatalln("configure workspace", err)
			return
		}
		summaries, err := w.Commit(ctx, strataFlags.commit.Message)
		if err != nil {
			wrapFatalln("commit", err)
			return
		}
		for _, summary := range summaries {
			infoLogger.Printf("%v -> %s (%d added, %d modified, %d deleted)",
				summary.Layer, summary.Commit, summary.Adds, summary.Modifies, summary.Deletes)
		}
	},
}

func init() {
	requiredFlags := []string{addMessageFlag(commitCmd)}

	for _, flag := range requiredFlags {
		err := commitCmd.MarkFlagRequired(flag)
		if err != nil {
			logFatalln(err)
		}
	}

	rootCmd.AddCommand(commitCmd)
}
