package cmd

import (
	"bytes"
	"context"
	"log"
	"text/template"

	"github.com/spf13/cobra"
)

var layerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List layers",
	Long:  "List every layer with a recorded head commit, in precedence order",
	Run: func(cmd *cobra.Command, args []string) {
		const listLineTemplateString = `{{.Layer}} , {{.Commit}}`
		listLineTemplate := template.Must(template.New("list line").Parse(listLineTemplateString))
		ctx := context.Background()
		optionInputs := newCliOptionInputs(config, &strataFlags)
		objects, err := optionInputs.objectStore()
		if err != nil {
			wrapFatalln("open object store", err)
			return
		}
		layers, err := objects.ListRefs(ctx)
		if err != nil {
			wrapFatalln("list layers", err)
			return
		}
		for _, layer := range layers {
			head, err := objects.ResolveRef(ctx, layer)
			if err != nil {
				wrapFatalln("resolve head of "+layer.String(), err)
				return
			}
			var buf bytes.Buffer
			err = listLineTemplate.Execute(&buf, struct {
				Layer  string
				Commit string
			}{Layer: layer.String(), Commit: head.String()})
			if err != nil {
				log.Println("executing template:", err)
			}
			log.Println(buf.String())
		}
	},
}

func init() {
	layerCmd.AddCommand(layerListCmd)
}
