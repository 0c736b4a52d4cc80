package main

import (
	"fmt"

	"arguesurvey/services"

	"github.com/spf13/cobra"
)

var archiveFlags struct {
	dir string
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Summarize the responses received by /save_response",
	RunE:  runArchive,
}

func init() {
	archiveCmd.Flags().StringVar(&archiveFlags.dir, "dir", "", "responses directory (default: survey.responsesDir from config)")
}

func runArchive(cmd *cobra.Command, _ []string) error {
	dir := archiveFlags.dir
	if dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir = cfg.Survey.ResponsesDir
	}

	stats, err := services.Stats(dir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Directory: %s\n", dir)
	fmt.Fprintf(out, "Responses: %d\n", stats.Files)
	fmt.Fprintf(out, "CSV rows:  %d\n", stats.CSVRows)
	return nil
}
