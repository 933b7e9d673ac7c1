package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stars-project/carla-export/internal/config"
	"github.com/stars-project/carla-export/internal/export"
	"github.com/stars-project/carla-export/internal/journal"
	"github.com/stars-project/carla-export/internal/logging"
)

// loadConfig resolves the effective config from the --config and
// --data-root flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	dataRoot, _ := cmd.Flags().GetString("data-root")

	var cfg *config.Config
	var err error
	switch {
	case path != "":
		cfg, err = config.LoadFromFile(path)
	case dataRoot != "":
		cfg, err = config.Load(dataRoot)
	default:
		cfg, err = config.Load(config.Default().DataRoot)
	}
	if err != nil {
		return nil, err
	}
	if dataRoot != "" {
		cfg.DataRoot = dataRoot
	}
	return cfg, nil
}

// loadPipeline builds the production pipeline plus its journal. The
// caller must Close the journal.
func loadPipeline(cmd *cobra.Command) (*export.Pipeline, *journal.Journal, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	log := logging.NewLogger(cfg.Logging.Level, os.Stderr)

	jnl, err := journal.Open(cfg.DataRoot)
	if err != nil {
		return nil, nil, err
	}
	return export.NewPipeline(cfg, log, jnl), jnl, nil
}

// parseSeeds expands a seed expression: a single seed ("7"), an
// inclusive range ("1..20"), or a comma list ("1,4,9").
func parseSeeds(expr string) ([]int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty seed expression")
	}

	if lo, hi, ok := strings.Cut(expr, ".."); ok {
		from, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid seed range start %q", lo)
		}
		to, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("invalid seed range end %q", hi)
		}
		if to < from {
			return nil, fmt.Errorf("seed range %s is reversed", expr)
		}
		seeds := make([]int, 0, to-from+1)
		for s := from; s <= to; s++ {
			seeds = append(seeds, s)
		}
		return seeds, nil
	}

	var seeds []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(expr, ",") {
		s, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q", part)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		seeds = append(seeds, s)
	}
	sort.Ints(seeds)
	return seeds, nil
}

// reportOutcomes prints the batch result and returns an error when any
// artifact failed, so the process exits nonzero.
func reportOutcomes(cmd *cobra.Command, outcomes export.Outcomes) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	if jsonOut {
		type row struct {
			Artifact string `json:"artifact"`
			Status   string `json:"status"`
			Error    string `json:"error,omitempty"`
		}
		rows := make([]row, len(outcomes))
		for i, o := range outcomes {
			rows[i] = row{Artifact: o.Ref.String(), Status: journal.StatusOK}
			switch {
			case o.Failed():
				rows[i].Status = journal.StatusFailed
				rows[i].Error = o.Err.Error()
			case o.Skipped:
				rows[i].Status = journal.StatusSkipped
			}
		}
		json.NewEncoder(os.Stdout).Encode(rows)
	} else {
		for _, o := range outcomes {
			switch {
			case o.Failed():
				fmt.Printf("failed   %s: %v\n", o.Ref.String(), o.Err)
			case o.Skipped:
				fmt.Printf("skipped  %s\n", o.Ref.String())
			default:
				fmt.Printf("ok       %s\n", o.Ref.String())
			}
		}
		ok, skipped, failed := outcomes.Counts()
		fmt.Printf("%d produced, %d skipped, %d failed\n", ok, skipped, failed)
	}

	if outcomes.Failed() {
		_, _, failed := outcomes.Counts()
		return fmt.Errorf("%d artifact(s) failed", failed)
	}
	return nil
}
