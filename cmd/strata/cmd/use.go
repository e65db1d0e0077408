package cmd

import (
	"github.com/spf13/cobra"
)

// useCmd represents the context switching commands
var useCmd = &cobra.Command{
	Use:   "use",
	Short: "Commands to switch the active context",
	Long: `Commands to switch the active context of the workspace.

The context decides which layers participate in the next apply. Switching
invalidates the record of the last apply, so the workspace reports DETACHED
until "strata apply" is run again.`,
}

func init() {
	rootCmd.AddCommand(useCmd)
}
