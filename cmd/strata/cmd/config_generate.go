package cmd

import (
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/spf13/cobra"
)

var configGen = &cobra.Command{
	Use:   "create",
	Short: "Create a config",
	Long:  "Create a config to use for strata. Config file will be placed in $HOME/.strata/strata.yaml",
	Run: func(cmd *cobra.Command, args []string) {
		user, err := user.Current()
		if user == nil || err != nil {
			wrapFatalln("Could not get home directory for user", nil)
			return
		}
		config := CLIConfig{
			Store: strataFlags.root.store,
			Name:  strataFlags.contributor.Name,
			Email: strataFlags.contributor.Email,
		}
		o, e := yaml.Marshal(&config)
		if e != nil {
			wrapFatalln("serialize config to yaml", e)
			return
		}
		_ = os.Mkdir(filepath.Join(user.HomeDir, ".strata"), 0777)
		err = ioutil.WriteFile(filepath.Join(user.HomeDir, ".strata", "strata.yaml"), o, 0666)
		if err != nil {
			wrapFatalln("write config file", err)
			return
		}
	},
}

func init() {
	addContributorName(configGen)
	addContributorEmail(configGen)

	configCmd.AddCommand(configGen)
}
