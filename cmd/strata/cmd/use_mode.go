package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var useModeCmd = &cobra.Command{
	Use:   "mode [NAME]",
	Short: "Set or clear the active mode",
	Long: `Set the active tool mode of the workspace. Without an argument the
active mode is cleared and mode layers stop participating in applies.`,
	Example: `% strata use mode vim
% strata use mode`,
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
		pc, cleared, err := w.UseMode(ctx, name)
		if err != nil {
			wrapFatalln("use mode", err)
			return
		}
		if pc.Mode == "" {
			infoLogger.Println("mode cleared")
		} else {
			infoLogger.Printf("mode set to %q", pc.Mode)
		}
		if cleared {
			infoLogger.Println("cleared the record of the last apply, run 'strata apply' to rematerialize")
		}
	},
}

func init() {
	useCmd.AddCommand(useModeCmd)
}
