package cmd

import (
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CLIConfig describes the CLI configuration.
type CLIConfig struct {
	// bug in viper? Need to keep names of fields the same as the serialized names..
	Store string `json:"store" yaml:"store"` // Root directory of the object store
	Name  string `json:"name" yaml:"name"`   // Contributor name recorded in commits
	Email string `json:"email" yaml:"email"` // Contributor email recorded in commits

	onceLogger sync.Once
	logger     *zap.Logger
}

func newConfig() (*CLIConfig, error) {
	var config CLIConfig
	err := viper.Unmarshal(&config)
	if err != nil {
		return nil, err
	}
	return &config, nil
}

// configCmd represents the config related commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage the strata config",
	Long: `Commands to manage the strata CLI config.

Configuration for strata is the common set of flags that are needed for most commands and do not change across runs,
analogous to "git config ...".`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
