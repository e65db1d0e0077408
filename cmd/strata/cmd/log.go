package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// logCmd represents the log command
var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Get the commit history of a layer",
	Long: `Display the commit history of one layer, newest first.

The layer is picked by the selector flags or addressed directly with
--layer. History follows first parents, so a merge landed by sync shows
as one entry.`,
	Example: `% strata log --global
% strata log --layer "project:project=website" --max 5`,
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
		entries, err := w.Log(ctx, layer, strataFlags.core.Max)
		if err != nil {
			wrapFatalln("log layer "+layer.String(), err)
			return
		}
		for _, entry := range entries {
			fmt.Print(" commit: ")
			color.Set(color.FgMagenta)
			fmt.Println(entry.Commit)
			color.Unset()
			fmt.Print("authors: ")
			for i, contributor := range entry.Contributors {
				if i > 0 {
					fmt.Print(", ")
				}
				color.Set(color.FgYellow)
				fmt.Print(contributor.String())
				color.Unset()
			}
			fmt.Println()
			fmt.Print("   date: ")
			color.Set(color.FgYellow)
			fmt.Println(entry.Timestamp.Format(time.RFC3339))
			color.Unset()
			fmt.Println()
			fmt.Println(entry.Message)
			fmt.Println()
		}
	},
}

func init() {
	addTargetGlobalFlag(logCmd)
	addTargetLocalFlag(logCmd)
	addTargetModeFlag(logCmd)
	addTargetProjectFlag(logCmd)
	addTargetScopeFlag(logCmd)
	addLayerFlag(logCmd)
	addMaxResultsFlag(logCmd)

	rootCmd.AddCommand(logCmd)
}
