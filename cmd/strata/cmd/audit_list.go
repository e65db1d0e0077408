package cmd

import (
	"bytes"
	"context"
	"log"
	"text/template"

	"github.com/spf13/cobra"
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit records",
	Long: `List audit records in the order they were written.

Tokens are K-sortable, so --from-token resumes a previous listing.`,
	Example: `% strata audit list --max 20
% strata audit list --from-token 1srOrx2ZWZBpBUvZwXKQmoEYga2`,
	Run: func(cmd *cobra.Command, args []string) {
		const listLineTemplateString = `{{.Token}} , {{.Timestamp}} , {{.Layer}} , {{.Commit}} , {{.Message}}`
		listLineTemplate := template.Must(template.New("list line").Parse(listLineTemplateString))
		ctx := context.Background()
		optionInputs := newCliOptionInputs(config, &strataFlags)
		trail, err := optionInputs.auditTrail()
		if err != nil {
			wrapFatalln("open audit trail", err)
			return
		}
		entries, err := trail.List(ctx, strataFlags.audit.fromToken, strataFlags.core.Max)
		if err != nil {
			wrapFatalln("list audit records", err)
			return
		}
		for _, entry := range entries {
			var buf bytes.Buffer
			err := listLineTemplate.Execute(&buf, entry)
			if err != nil {
				log.Println("executing template:", err)
			}
			log.Println(buf.String())
		}
	},
}

func init() {
	addAuditFromTokenFlag(auditListCmd)
	addMaxResultsFlag(auditListCmd)

	auditCmd.AddCommand(auditListCmd)
}
