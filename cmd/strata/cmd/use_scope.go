package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var useScopeCmd = &cobra.Command{
	Use:   "scope [NAME]",
	Short: "Set or clear the active scope",
	Long: `Set the active scope of the workspace. Without an argument the active
scope is cleared and scope layers stop participating in applies.`,
	Example: `% strata use scope work
% strata use scope`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		optionInputs := newCliOptionInputs(config, &strataFlags)
		w, err := optionInputs.workspace()
		if err != nil {
			wrapFatalln("configure workspace", err)
			return
		}
		var name string
		if len(args) == 1 {
			name = args[0]
		}
		pc, cleared, err := w.UseScope(ctx, name)
		if err != nil {
			wrapFatalln("use scope", err)
			return
		}
		if pc.Scope == "" {
			infoLogger.Println("scope cleared")
		} else {
			infoLogger.Printf("scope set to %q", pc.Scope)
		}
		if cleared {
			infoLogger.Println("cleared the record of the last apply, run 'strata apply' to rematerialize")
		}
	},
}

func init() {
	useCmd.AddCommand(useScopeCmd)
}
