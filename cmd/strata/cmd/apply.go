package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Materialize the layer stack into the workspace",
	Long: `Materialize the configuration into the workspace.

Every layer matching the active context is folded in precedence order, most
specific layer last, and the merged files are written out. Files produced by
a previous apply that no longer exist in any layer are removed. A dirty
workspace refuses to apply unless --force is given.`,
	Example: `% strata apply
% strata apply --force`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		optionInputs := newCliOptionInputs(config, &strataFlags)
		w, err := optionInputs.workspace()
		if err != nil {
			wrapFatalln("configure workspace", err)
			return
		}
		summary, err := w.Apply(ctx, strataFlags.apply.force)
		if err != nil {
			wrapFatalln("apply", err)
			return
		}
		for _, layer := range summary.LayersUsed {
			infoLogger.Printf("layer %v", layer)
		}
		for _, pth := range summary.FilesWritten {
			infoLogger.Printf("wrote %s", pth)
		}
		for _, pth := range summary.FilesRemoved {
			infoLogger.Printf("removed %s", pth)
		}
	},
}

func init() {
	addApplyForceFlag(applyCmd)

	rootCmd.AddCommand(applyCmd)
}
