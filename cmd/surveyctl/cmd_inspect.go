package main

import (
	"context"
	"fmt"
	"sort"

	"arguesurvey/internal/durable"
	"arguesurvey/internal/survey"

	"github.com/spf13/cobra"
)

var inspectFlags struct {
	clientID string
	driver   string
	dir      string
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the saved progress of one participant client",
	RunE:  runInspect,
}

func init() {
	f := inspectCmd.Flags()
	f.StringVar(&inspectFlags.clientID, "client", "", "participant client id (required)")
	f.StringVar(&inspectFlags.driver, "driver", "", "override durable.driver")
	f.StringVar(&inspectFlags.dir, "dir", "", "override durable.dir")

	_ = inspectCmd.MarkFlagRequired("client")
}

func runInspect(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if inspectFlags.driver != "" {
		cfg.Durable.Driver = inspectFlags.driver
	}
	if inspectFlags.dir != "" {
		cfg.Durable.Dir = inspectFlags.dir
	}

	backend, err := durable.Open(cfg)
	if err != nil {
		return fmt.Errorf("open durable store: %w", err)
	}
	defer backend.Close()

	store, err := backend.For(inspectFlags.clientID)
	if err != nil {
		return err
	}
	snap := survey.NewMirror(store, nil).Restore(context.Background())

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Client:  %s\n", inspectFlags.clientID)
	if snap.HasPage {
		fmt.Fprintf(out, "Page:    %d\n", snap.PageIndex)
	} else {
		fmt.Fprintf(out, "Page:    (none saved)\n")
	}
	if snap.Identity.IsZero() {
		fmt.Fprintf(out, "User:    (none saved)\n")
	} else {
		fmt.Fprintf(out, "User:    %s <%s> %s\n", snap.Identity.Name, snap.Identity.Email, snap.Identity.Affiliation)
	}

	keys := make([]string, 0, len(snap.Responses))
	for k := range snap.Responses {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(out, "Answers: %d\n", len(keys))
	for _, k := range keys {
		fmt.Fprintf(out, "  %s = %s\n", k, snap.Responses[k])
	}
	return nil
}
