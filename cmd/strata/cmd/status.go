package cmd

import (
	"context"
	"time"

	"github.com/strataconf/strata/pkg/model"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report the workspace state",
	Long: `Report the workspace state and the pending changes.

CLEAN means every applied file still matches the recorded apply. DIRTY means
files were edited or removed behind strata's back. DETACHED means the layer
stack moved since the last apply (new commits, a context switch) and the
materialized files are out of date: run "strata apply" to catch up.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		optionInputs := newCliOptionInputs(config, &strataFlags)
		w, err := optionInputs.workspace()
		if err != nil {
			wrapFatalln("configure workspace", err)
			return
		}
		state, report, err := w.Status(ctx)
		if err != nil {
			wrapFatalln("status", err)
			return
		}
		painter := color.YellowString
		switch state {
		case model.StateClean:
			painter = color.GreenString
		case model.StateDirty:
			painter = color.RedString
		}
		infoLogger.Printf("state: %s", painter("%v", state))
		if report.Metadata != nil {
			infoLogger.Printf("last applied: %s (%d files from %d layers)",
				report.Metadata.Timestamp.Format(time.RFC3339),
				len(report.Metadata.Files),
				len(report.Metadata.AppliedLayers))
		}
		for _, pth := range report.ModifiedPaths {
			infoLogger.Printf("modified: %s", pth)
		}
		for _, pth := range report.MissingPaths {
			infoLogger.Printf("missing: %s", pth)
		}
		for _, layer := range report.StaleLayers {
			infoLogger.Printf("stale layer: %v", layer)
		}

		stg, err := optionInputs.stageIndex()
		if err != nil {
			wrapFatalln("open staging index", err)
			return
		}
		pending, err := stg.Pending(ctx)
		if err != nil {
			wrapFatalln("list pending changes", err)
			return
		}
		for _, changes := range pending {
			infoLogger.Printf("staged in layer %v:", changes.Layer)
			for _, entry := range changes.Entries {
				infoLogger.Printf("  %-6s %s", entry.Op, entry.Path)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
