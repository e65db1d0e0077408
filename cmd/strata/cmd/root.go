package cmd

import (
	"fmt"
	"log"
	"os"
	"runtime/pprof"

	"github.com/spf13/viper"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "strata",
	Short: "Strata manages tool configuration as stacked layers",
	Long: `Strata manages the configuration of developer tools as stacked layers.

Settings are staged into named layers (global, per mode, per project, per scope)
and stored as content-addressed commits in an object store on the side.
Applying the stack deep-merges every layer matching the active context and
materializes the result into the plain configuration files your tools
already read, most specific layer last.

Strata works with the formats tools actually use: the same merge runs over
JSON, YAML, TOML and INI files.
`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if strataFlags.root.cpuProf {
			f, err := os.Create("cpu.prof")
			if err != nil {
				log.Fatal(err)
			}
			_ = pprof.StartCPUProfile(f)
		}
	},
	// upstream api note:  *PostRun functions aren't called in case of a panic() in Run
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if strataFlags.root.cpuProf {
			pprof.StopCPUProfile()
		}
	},
}

var config *CLIConfig

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	addLogLevel(rootCmd)
	addCPUProfFlag(rootCmd)
	addStoreFlag(rootCmd)
	addWorkspaceFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	viper.SetDefault("store", "")
	viper.SetDefault("name", "")
	viper.SetDefault("email", "")
	if os.Getenv("STRATA_CONFIG") != "" {
		// Use config file from the environment.
		viper.SetConfigFile(os.Getenv("STRATA_CONFIG"))
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.strata")
		viper.AddConfigPath("/etc/strata")
		viper.SetConfigName("strata")
	}

	viper.SetEnvPrefix("strata")
	viper.AutomaticEnv() // read in environment variables that match
	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}
	var err error
	config, err = newConfig()
	if err != nil {
		logFatalln(err)
	}
	strataFlags.setDefaultsFromConfig(config)
}
