package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/stars-project/carla-export/internal/artifact"
)

type mapStatus struct {
	Map        string `json:"map"`
	StaticData bool   `json:"static_data"`
	Recordings int    `json:"recordings"`
	Dynamic    int    `json:"dynamic"`
}

func newMapsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maps",
		Short: "List configured maps and their artifact coverage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			var rows []mapStatus
			for _, mapName := range cfg.SupportedMaps {
				clean := artifact.CleanMapName(mapName)
				row := mapStatus{
					Map:        clean,
					StaticData: artifact.Exists(artifact.Path(cfg.DataRoot, artifact.KindStatic, mapName, 0)),
					Recordings: countMatches(filepath.Join(cfg.DataRoot, "recordings", clean, clean+"_seed*.log")),
					Dynamic:    countMatches(filepath.Join(cfg.DataRoot, "simulation_runs", clean, "dynamic_data_*.json.gz")),
				}
				rows = append(rows, row)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(rows)
			}
			for _, row := range rows {
				static := "missing"
				if row.StaticData {
					static = "present"
				}
				fmt.Printf("%-12s static: %-8s recordings: %-4d dynamic: %d\n",
					row.Map, static, row.Recordings, row.Dynamic)
			}
			return nil
		},
	}
}

func countMatches(pattern string) int {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return 0
	}
	return len(matches)
}
