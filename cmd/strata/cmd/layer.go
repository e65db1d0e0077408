package cmd

import (
	"github.com/spf13/cobra"
)

// layerCmd represents the layer related commands
var layerCmd = &cobra.Command{
	Use:   "layer",
	Short: "Commands to inspect layers",
	Long: `Commands to inspect the layers recorded in the object store,
independently of the active context.`,
}

func init() {
	rootCmd.AddCommand(layerCmd)
}
