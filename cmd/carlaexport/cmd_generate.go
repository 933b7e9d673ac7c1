package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate <map>",
		Short: "Run the full pipeline: record, then monitor",
		Long: `Generate runs the whole export per seed: it records a scenario and
immediately replays it into the dynamic artifact, extracting static
map data on the way when absent.

A seed whose recording failed is not replayed; later seeds still run.

Example:
  carlaexport generate Town02 --seeds 1..50`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seedExpr, _ := cmd.Flags().GetString("seeds")
			seeds, err := parseSeeds(seedExpr)
			if err != nil {
				return err
			}

			p, jnl, err := loadPipeline(cmd)
			if err != nil {
				return err
			}
			defer jnl.Close()

			fmt.Fprintf(cmd.ErrOrStderr(), "generating %d run(s) on %s\n", len(seeds), args[0])
			return reportOutcomes(cmd, p.GenerateBatch(cmd.Context(), args[0], seeds))
		},
	}
	cmd.Flags().String("seeds", "0", "Seeds to generate: N, N..M, or a comma list")
	return cmd
}
