package cmd

import (
	"context"
	"path/filepath"

	"github.com/strataconf/strata/pkg/model"
	"github.com/strataconf/strata/pkg/stage"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var stageCmd = &cobra.Command{
	Use:   "stage FILE ...",
	Short: "Stage files into a layer",
	Long: `Stage the content of one or more workspace files into a layer.

The target layer is picked by the selector flags, resolved against the active
context: no flag stages into the current project layer, --global into the
global layer, --mode into the layer of the active mode, and --scope narrows
any of those to a named scope. With --delete the paths are marked for removal
from the layer instead.

Staged changes are pending until the next commit and can be dropped with
"strata unstage".`,
	Example: `% strata stage settings.json
% strata stage --global keybindings.json
% strata stage --mode --project --scope work linter.yaml
% strata stage --delete --global obsolete.toml`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		optionInputs := newCliOptionInputs(config, &strataFlags)
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
		stg, err := optionInputs.stageIndex()
		if err != nil {
			wrapFatalln("open staging index", err)
			return
		}
		fs := optionInputs.workspaceFs()
		for _, arg := range args {
			pth := filepath.ToSlash(arg)
			if strataFlags.stage.deletion {
				if _, err = stg.MarkDelete(ctx, pth, layer); err != nil {
					wrapFatalln("stage deletion of "+pth, err)
					return
				}
				infoLogger.Printf("staged deletion of %s in layer %v", pth, layer)
				continue
			}
			if err = stageOne(ctx, stg, fs, pth, layer); err != nil {
				wrapFatalln("stage "+pth, err)
				return
			}
			infoLogger.Printf("staged %s in layer %v", pth, layer)
		}
	},
}

func stageOne(ctx context.Context, stg *stage.Stage, fs afero.Fs, pth string, layer model.LayerID) error {
	f, err := fs.Open(pth)
	if err != nil {
		return err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return err
	}
	_, err = stg.Add(ctx, stage.AddEntry{
		Path:   pth,
		Stream: f,
		Mtime:  fi.ModTime(),
		Mode:   model.FileMode(fi.Mode().Perm()),
		Layer:  layer,
	})
	return err
}

func init() {
	addTargetGlobalFlag(stageCmd)
	addTargetLocalFlag(stageCmd)
	addTargetModeFlag(stageCmd)
	addTargetProjectFlag(stageCmd)
	addTargetScopeFlag(stageCmd)
	addStageDeleteFlag(stageCmd)

	rootCmd.AddCommand(stageCmd)
}
