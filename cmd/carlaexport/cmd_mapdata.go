package main

import (
	"github.com/spf13/cobra"
)

func newMapDataCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapdata [map...]",
		Short: "Extract static road network data per map",
		Long: `Mapdata extracts the static artifact for each named map: its road
network grouped into blocks, lane midpoints, junction contact areas,
landmarks, speed limits and traffic lights.

Extraction is seed-independent and idempotent; an existing artifact is
skipped unless --update is set. Without arguments every configured map
is extracted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			update, _ := cmd.Flags().GetBool("update")

			p, jnl, err := loadPipeline(cmd)
			if err != nil {
				return err
			}
			defer jnl.Close()

			maps := args
			if len(maps) == 0 {
				maps = p.Config.SupportedMaps
			}
			return reportOutcomes(cmd, p.MapDataBatch(cmd.Context(), maps, update))
		},
	}
	cmd.Flags().Bool("update", false, "Rewrite existing static artifacts")
	return cmd
}
