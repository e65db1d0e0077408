package cmd

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"
)

var unstageCmd = &cobra.Command{
	Use:   "unstage [FILE ...]",
	Short: "Drop pending changes",
	Long: `Drop pending changes from the staging index before they are committed.

Paths are matched against the layer picked by the selector flags, the same
way "strata stage" picked it. With --all the whole index is cleared and
staged content not referenced by any other pending entry is evicted.`,
	Example: `% strata unstage settings.json
% strata unstage --global keybindings.json
% strata unstage --all`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		optionInputs := newCliOptionInputs(config, &strataFlags)
		stg, err := optionInputs.stageIndex()
		if err != nil {
			wrapFatalln("open staging index", err)
			return
		}
		if strataFlags.unstage.all {
			if err = stg.Clear(ctx); err != nil {
				wrapFatalln("clear staging index", err)
				return
			}
			infoLogger.Println("cleared all pending changes")
			return
		}
		if len(args) == 0 {
			wrapFatalln("specify the files to unstage, or --all", nil)
			return
		}
		w, err := optionInputs.workspace()
		if err != nil {
			wrapFatalln("configure workspace", err)
			return
		}
		layer, err := optionInputs.targetLayer(ctx, w)
		if err != nil {
			wrapFatalln("resolve target layer", err)
			return
		}
		for _, arg := range args {
			pth := filepath.ToSlash(arg)
			removed, err := stg.Remove(ctx, pth, layer)
			if err != nil {
				wrapFatalln("unstage "+pth, err)
				return
			}
			if !removed {
				infoLogger.Printf("nothing staged for %s in layer %v", pth, layer)
				continue
			}
			infoLogger.Printf("unstaged %s from layer %v", pth, layer)
		}
	},
}

func init() {
	addTargetGlobalFlag(unstageCmd)
	addTargetLocalFlag(unstageCmd)
	addTargetModeFlag(unstageCmd)
	addTargetProjectFlag(unstageCmd)
	addTargetScopeFlag(unstageCmd)
	addUnstageAllFlag(unstageCmd)

	rootCmd.AddCommand(unstageCmd)
}
