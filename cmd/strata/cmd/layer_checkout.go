package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var layerCheckoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Materialize a single layer for inspection",
	Long: `Write the files of one layer's head commit to a directory, without
any merging. This is the raw content of the layer, useful to see what a
layer contributes before it is folded into the stack.`,
	Example: `% strata layer checkout --global --dest /tmp/global-layer
% strata layer checkout --layer "mode:mode=vim"`,
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
		files, err := w.CheckoutLayer(ctx, layer, strataFlags.checkout.dest)
		if err != nil {
			wrapFatalln("checkout layer "+layer.String(), err)
			return
		}
		for _, pth := range files {
			infoLogger.Printf("wrote %s", pth)
		}
	},
}

func init() {
	addTargetGlobalFlag(layerCheckoutCmd)
	addTargetLocalFlag(layerCheckoutCmd)
	addTargetModeFlag(layerCheckoutCmd)
	addTargetProjectFlag(layerCheckoutCmd)
	addTargetScopeFlag(layerCheckoutCmd)
	addLayerFlag(layerCheckoutCmd)
	addCheckoutDestFlag(layerCheckoutCmd)

	layerCmd.AddCommand(layerCheckoutCmd)
}
