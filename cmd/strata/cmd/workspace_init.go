package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var workspaceInitCmd = &cobra.Command{
	Use:   "init PROJECT",
	Short: "Initialize a workspace",
	Long: `Initialize the working directory as a strata workspace bound to a project.

This records the project context next to the materialized files. The object
store is not touched: layers appear in it on the first commit.`,
	Example: `% strata init website`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		optionInputs := newCliOptionInputs(config, &strataFlags)
		w, err := optionInputs.workspace()
		if err != nil {
			wrapFatalln("configure workspace", err)
			return
		}
		pc, err := w.Init(ctx, args[0])
		if err != nil {
			wrapFatalln("initialize workspace", err)
			return
		}
		infoLogger.Printf("initialized workspace for project %q", pc.Project)
	},
}

func init() {
	rootCmd.AddCommand(workspaceInitCmd)
}
