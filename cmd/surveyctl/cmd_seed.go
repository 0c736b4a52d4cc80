package main

import (
	"fmt"

	"arguesurvey/utils"

	"github.com/spf13/cobra"
)

var seedFlags struct {
	out string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the sample opinion dataset if none exists",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFlags.out, "out", "", "dataset path (default: survey.dataPath from config)")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	path := seedFlags.out
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		path = cfg.Survey.DataPath
	}

	wrote, err := utils.CreateSampleData(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !wrote {
		fmt.Fprintf(out, "%s already exists, left unchanged\n", path)
		return nil
	}
	fmt.Fprintf(out, "Created %s with %d opinions\n", path, utils.SampleSize())
	return nil
}
