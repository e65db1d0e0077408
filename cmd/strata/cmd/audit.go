package cmd

import (
	"github.com/spf13/cobra"
)

// auditCmd represents the audit trail commands
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Commands to read the audit trail",
	Long: `Commands to read the audit trail.

Every commit transaction appends one record per moved layer reference:
who moved which layer to which commit, and when.`,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
