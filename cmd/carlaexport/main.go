package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "carlaexport",
		Short: "CARLA traffic scenario export pipeline",
		Long: `carlaexport drives a CARLA simulator to produce a correlated artifact
store of traffic scenarios: per-run recordings with sampled weather,
replayed dynamic data, and per-map static road network data.

Artifacts are correlated purely by map name and seed; every command
derives its file paths from those two values.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("config", "", "Config file (default <data-root>/carlaexport.yaml)")
	rootCmd.PersistentFlags().String("data-root", "", "Artifact store directory (overrides config)")

	// Add subcommands
	rootCmd.AddCommand(
		newVersionCmd(),
		newRecordCmd(),
		newMonitorCmd(),
		newMapDataCmd(),
		newGenerateCmd(),
		newMapsCmd(),
		newRunsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{"version": version})
			} else {
				fmt.Printf("carlaexport version %s\n", version)
			}
		},
	}
}
