package cmd

import (
	"context"

	"github.com/strataconf/strata/pkg/storage/localfs"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull a layer's history from a remote store",
	Long: `Pull one layer's commit history from a remote object store and reconcile
it with the local head.

A remote strictly ahead fast-forwards the local layer. Diverged histories
are joined by a three way merge against their common ancestor: structured
files merge key by key with local values winning, text files merge line by
line. Text conflicts leave the target file untouched and write a labeled
<file>.conflict sidecar next to it; the command then exits with code 2 so
scripts notice. Local commits are never rewritten.`,
	Example: `% strata sync --global --remote /mnt/team/strata-store
% strata sync --layer "project:project=website" --remote /mnt/team/strata-store`,
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
		DieIfNotAccessible(strataFlags.sync.remote)
		DieIfNotDirectory(strataFlags.sync.remote)
		remote := localfs.New(afero.NewBasePathFs(afero.NewOsFs(), strataFlags.sync.remote))

		summary, err := w.Sync(ctx, layer, remote)
		if err != nil {
			wrapFatalln("sync layer "+layer.String(), err)
			return
		}
		infoLogger.Printf("%v: %s", summary.Layer, summary.Action)
		if summary.Commit != "" {
			infoLogger.Printf("head is now %s", summary.Commit)
		}
		for _, pth := range summary.Merged {
			infoLogger.Printf("merged %s", pth)
		}
		for _, pth := range summary.Sidecars {
			infoLogger.Printf("conflict sidecar %s", pth)
		}
		for _, pth := range summary.Unresolved {
			infoLogger.Printf("unresolved %s (local version kept)", pth)
		}
		if len(summary.Unresolved) > 0 {
			wrapFatalWithCodef(2, "%d path(s) left unresolved", len(summary.Unresolved))
			return
		}
	},
}

func init() {
	addTargetGlobalFlag(syncCmd)
	addTargetLocalFlag(syncCmd)
	addTargetModeFlag(syncCmd)
	addTargetProjectFlag(syncCmd)
	addTargetScopeFlag(syncCmd)
	addLayerFlag(syncCmd)

	requiredFlags := []string{addSyncRemoteFlag(syncCmd)}

	for _, flag := range requiredFlags {
		err := syncCmd.MarkFlagRequired(flag)
		if err != nil {
			logFatalln(err)
		}
	}

	rootCmd.AddCommand(syncCmd)
}
