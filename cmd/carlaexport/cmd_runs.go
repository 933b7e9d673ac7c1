package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/stars-project/carla-export/internal/journal"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show journaled job outcomes",
		Long: `Runs lists the outcomes the pipeline has journaled, newest first.
The journal is bookkeeping only; artifacts are always correlated by
map name and seed, never through the journal.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			failedOnly, _ := cmd.Flags().GetBool("failed")
			limit, _ := cmd.Flags().GetInt("limit")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jnl, err := journal.Open(cfg.DataRoot)
			if err != nil {
				return err
			}
			defer jnl.Close()

			status := ""
			if failedOnly {
				status = journal.StatusFailed
			}
			entries, err := jnl.List(cmd.Context(), status, limit)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(entries)
			}
			if len(entries) == 0 {
				fmt.Println("no journaled runs")
				return nil
			}
			for _, e := range entries {
				line := fmt.Sprintf("%s  %-8s %s/%s seed %d",
					e.CreatedAt.Format(time.RFC3339), e.Status, e.Kind, e.MapName, e.Seed)
				if e.Detail != "" {
					line += ": " + e.Detail
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().Bool("failed", false, "Show only failed outcomes")
	cmd.Flags().Int("limit", 50, "Maximum entries to show (0 for all)")
	return cmd
}
