package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor [recording...]",
		Short: "Replay recordings into dynamic data artifacts",
		Long: `Monitor replays each recording and writes the dynamic data artifact
for its map and seed. The recording and its weather artifact must
already exist; the static map artifact is extracted on demand.

With --all, every recording under the data root is monitored instead
of an explicit list. Existing dynamic artifacts are skipped unless
--update is set.

Example:
  carlaexport monitor --all
  carlaexport monitor generated-data/recordings/Town01/Town01_seed3.log`,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			update, _ := cmd.Flags().GetBool("update")
			if all == (len(args) > 0) {
				return fmt.Errorf("pass either recording paths or --all")
			}

			p, jnl, err := loadPipeline(cmd)
			if err != nil {
				return err
			}
			defer jnl.Close()

			if all {
				outcomes, err := p.MonitorAll(cmd.Context(), update)
				if err != nil {
					return err
				}
				return reportOutcomes(cmd, outcomes)
			}
			return reportOutcomes(cmd, p.MonitorBatch(cmd.Context(), args, update))
		},
	}
	cmd.Flags().Bool("all", false, "Monitor every recording under the data root")
	cmd.Flags().Bool("update", false, "Rewrite existing dynamic artifacts")
	return cmd
}
