package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record <map>",
		Short: "Record traffic scenarios and sample their weather",
		Long: `Record runs one live scenario per seed on the given map, writing the
simulator recording and a paired weather artifact for each.

Each seed gets its own simulator instance. A run whose traffic never
gets moving is aborted and leaves no artifacts.

Example:
  carlaexport record Town01 --seeds 1..20`,
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

			fmt.Fprintf(cmd.ErrOrStderr(), "recording %d run(s) on %s\n", len(seeds), args[0])
			return reportOutcomes(cmd, p.RecordBatch(cmd.Context(), args[0], seeds))
		},
	}
	cmd.Flags().String("seeds", "0", "Seeds to record: N, N..M, or a comma list")
	return cmd
}
