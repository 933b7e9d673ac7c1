package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/stars-project/carla-export/internal/artifact"
	"github.com/stars-project/carla-export/internal/config"
	"github.com/stars-project/carla-export/internal/journal"
	"github.com/stars-project/carla-export/internal/sim"
)

// Pipeline ties the export stages to their configuration, logging,
// session opener and optional run journal.
type Pipeline struct {
	Config *config.Config
	Log    *slog.Logger
	Open   SessionFunc

	// Journal, when set, receives one entry per artifact outcome.
	Journal *journal.Journal
}

// NewPipeline wires the production pipeline for the given config.
func NewPipeline(cfg *config.Config, log *slog.Logger, jnl *journal.Journal) *Pipeline {
	return &Pipeline{
		Config:  cfg,
		Log:     log,
		Open:    OpenSession(cfg, log),
		Journal: jnl,
	}
}

// Outcome is the result of producing one artifact.
type Outcome struct {
	Ref     artifact.Ref
	Skipped bool
	Err     error
}

// Failed reports whether the artifact was neither produced nor skipped.
func (o Outcome) Failed() bool { return o.Err != nil }

// Outcomes collects the per-artifact results of one batch.
type Outcomes []Outcome

// Failed reports whether any artifact in the batch failed.
func (os Outcomes) Failed() bool {
	for _, o := range os {
		if o.Failed() {
			return true
		}
	}
	return false
}

// Counts tallies the batch by result.
func (os Outcomes) Counts() (ok, skipped, failed int) {
	for _, o := range os {
		switch {
		case o.Failed():
			failed++
		case o.Skipped:
			skipped++
		default:
			ok++
		}
	}
	return ok, skipped, failed
}

// withSession runs one job against a fresh exclusive session.
func (p *Pipeline) withSession(ctx context.Context, fn func(sim.Client) error) error {
	sess, err := p.Open(ctx)
	if err != nil {
		return err
	}
	return errors.Join(fn(sess.Client), sess.Close())
}

// note records one outcome in the log, the journal and the batch.
func (p *Pipeline) note(ctx context.Context, outcomes Outcomes, o Outcome) Outcomes {
	switch {
	case o.Failed():
		p.Log.Error("artifact failed", "artifact", o.Ref.String(), "error", o.Err)
	case o.Skipped:
		p.Log.Debug("artifact skipped", "artifact", o.Ref.String())
	default:
		p.Log.Info("artifact produced", "artifact", o.Ref.String())
	}
	if p.Journal != nil {
		if err := p.Journal.Record(ctx, journal.FromOutcome(string(o.Ref.Kind), o.Ref.MapName, o.Ref.Seed, o.Skipped, o.Err)); err != nil {
			p.Log.Warn("journal write failed", "error", err)
		}
	}
	return append(outcomes, o)
}

// RecordBatch runs one recording job per seed. Every job gets its own
// simulator session, and a failing seed never stops the batch.
func (p *Pipeline) RecordBatch(ctx context.Context, mapName string, seeds []int) Outcomes {
	var outcomes Outcomes
	for _, seed := range seeds {
		err := p.withSession(ctx, func(c sim.Client) error {
			return p.Record(ctx, c, mapName, seed)
		})
		recRef := artifact.Ref{Kind: artifact.KindRecording, MapName: artifact.CleanMapName(mapName), Seed: seed}
		if err != nil {
			outcomes = p.note(ctx, outcomes, Outcome{Ref: recRef, Err: err})
			continue
		}
		outcomes = p.note(ctx, outcomes, Outcome{Ref: recRef})
		outcomes = p.note(ctx, outcomes, Outcome{
			Ref: artifact.Ref{Kind: artifact.KindWeather, MapName: recRef.MapName, Seed: seed},
		})
	}
	return outcomes
}

// MonitorBatch runs one monitoring job per recording path.
func (p *Pipeline) MonitorBatch(ctx context.Context, paths []string, update bool) Outcomes {
	var outcomes Outcomes
	for _, path := range paths {
		ref := artifact.Ref{Kind: artifact.KindDynamic}
		if mapName, seed, err := artifact.ParseRecordingPath(path); err == nil {
			ref.MapName, ref.Seed = mapName, seed
		}
		var skipped bool
		err := p.withSession(ctx, func(c sim.Client) error {
			var err error
			skipped, err = p.Monitor(ctx, c, path, update)
			return err
		})
		outcomes = p.note(ctx, outcomes, Outcome{Ref: ref, Skipped: skipped, Err: err})
	}
	return outcomes
}

// MonitorAll monitors every recording under the data root, in stable
// path order.
func (p *Pipeline) MonitorAll(ctx context.Context, update bool) (Outcomes, error) {
	paths, err := p.findRecordings()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		p.Log.Info("no recordings found", "root", p.Config.DataRoot)
		return nil, nil
	}
	return p.MonitorBatch(ctx, paths, update), nil
}

func (p *Pipeline) findRecordings() ([]string, error) {
	root := filepath.Join(p.Config.DataRoot, "recordings")
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && artifact.IsRecording(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning recordings: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// MapDataBatch extracts the static artifact for each map.
func (p *Pipeline) MapDataBatch(ctx context.Context, maps []string, update bool) Outcomes {
	var outcomes Outcomes
	for _, mapName := range maps {
		var skipped bool
		err := p.withSession(ctx, func(c sim.Client) error {
			var err error
			_, skipped, err = p.MapData(ctx, c, mapName, update)
			return err
		})
		outcomes = p.note(ctx, outcomes, Outcome{
			Ref:     artifact.Ref{Kind: artifact.KindStatic, MapName: artifact.CleanMapName(mapName)},
			Skipped: skipped,
			Err:     err,
		})
	}
	return outcomes
}

// GenerateBatch runs the full pipeline per seed: a recording job
// followed by a monitoring job, each against its own session. A seed
// whose recording failed is not monitored.
func (p *Pipeline) GenerateBatch(ctx context.Context, mapName string, seeds []int) Outcomes {
	var outcomes Outcomes
	for _, seed := range seeds {
		batch := p.RecordBatch(ctx, mapName, []int{seed})
		outcomes = append(outcomes, batch...)
		if batch.Failed() {
			continue
		}
		recPath := artifact.Path(p.Config.DataRoot, artifact.KindRecording, mapName, seed)
		outcomes = append(outcomes, p.MonitorBatch(ctx, []string{recPath}, false)...)
	}
	return outcomes
}
