// surveyctl administers an argument survey deployment: seed the dataset,
// inspect a participant's saved progress and summarize archived responses.
//
// Usage:
//
//	surveyctl seed [--out data/survey_data.csv]
//	surveyctl inspect --client <id> [--driver file|redis] [--dir .survey-state]
//	surveyctl archive [--dir responses]
package main

import (
	"fmt"
	"os"

	"arguesurvey/config"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
}

var rootCmd = &cobra.Command{
	Use:   "surveyctl",
	Short: "Administer the argument survey",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configPath, "config", "./config/config.yml", "path to the YAML config")
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.Version = version
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfigOrDefault(rootFlags.configPath)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
