package export

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/stars-project/carla-export/internal/artifact"
	"github.com/stars-project/carla-export/internal/schema"
	"github.com/stars-project/carla-export/internal/sim"
)

const (
	// stallCheckAt is the simulation time at which the ego vehicle must
	// have left its spawn point.
	stallCheckAt = 10.0

	// stallDistance is the minimum distance the ego must have covered
	// by the stall check, in metres.
	stallDistance = 0.5
)

// Record runs one live scenario on the given map and seed and commits
// its recording and weather artifacts. The weather is drawn from the
// configured bounds with a seed-derived generator, so reruns of the
// same (map, seed) reproduce it. A run whose ego vehicle has not moved
// by the stall check is aborted and leaves no artifacts behind.
func (p *Pipeline) Record(ctx context.Context, c sim.Client, mapName string, seed int) error {
	cfg := p.Config
	if !cfg.SupportsMap(mapName) {
		return fmt.Errorf("%w: %s", ErrUnsupportedMap, mapName)
	}

	if err := c.LoadWorld(ctx, mapName); err != nil {
		return fmt.Errorf("loading %s: %w", mapName, err)
	}
	if err := c.SetSeed(ctx, seed); err != nil {
		return fmt.Errorf("seeding world: %w", err)
	}

	rng := rand.New(rand.NewSource(int64(seed)))
	weather := cfg.Weather.Sample(rng)
	if err := c.SetWeather(ctx, weather); err != nil {
		return fmt.Errorf("applying weather: %w", err)
	}
	p.Log.Debug("weather sampled", "map", mapName, "seed", seed,
		"cloudiness", weather.Cloudiness, "precipitation", weather.Precipitation)

	recPath := artifact.Path(cfg.DataRoot, artifact.KindRecording, mapName, seed)
	if err := os.MkdirAll(filepath.Dir(recPath), 0o755); err != nil {
		return err
	}
	if err := c.StartRecorder(ctx, recPath); err != nil {
		return fmt.Errorf("starting recorder: %w", err)
	}

	spec := sim.TrafficSpec{
		Vehicles: cfg.Traffic.Vehicles,
		Walkers:  cfg.Traffic.Walkers,
		Seed:     seed,
	}
	vehicleIDs, err := c.SpawnTraffic(ctx, spec)
	if err != nil {
		return p.abortRecording(ctx, c, recPath, fmt.Errorf("spawning traffic: %w", err))
	}
	p.Log.Info("scenario running", "map", mapName, "seed", seed,
		"vehicles", len(vehicleIDs), "walkers", spec.Walkers)

	var egoID int
	var egoStart schema.Location
	if len(vehicleIDs) > 0 {
		egoID = vehicleIDs[0]
		if loc, ok := actorLocation(ctx, c, egoID); ok {
			egoStart = loc
		}
	}

	total := cfg.Sampling.RunLength.Seconds()
	stallChecked := false
	for elapsed := 0.0; elapsed < total; {
		if err := ctx.Err(); err != nil {
			return p.abortRecording(ctx, c, recPath, err)
		}
		elapsed, err = c.Tick(ctx)
		if err != nil {
			return p.abortRecording(ctx, c, recPath, fmt.Errorf("advancing simulation: %w", err))
		}
		if !stallChecked && elapsed >= stallCheckAt && egoID != 0 {
			stallChecked = true
			loc, ok := actorLocation(ctx, c, egoID)
			if ok && loc.DistanceTo(egoStart) < stallDistance {
				return p.abortRecording(ctx, c, recPath,
					fmt.Errorf("%w: ego moved %.2fm in %.0fs", ErrStalledTraffic, loc.DistanceTo(egoStart), stallCheckAt))
			}
		}
	}

	if err := c.StopRecorder(ctx); err != nil {
		return fmt.Errorf("stopping recorder: %w", err)
	}

	weatherPath := artifact.Path(cfg.DataRoot, artifact.KindWeather, mapName, seed)
	if err := artifact.WriteJSON(weatherPath, weather); err != nil {
		return fmt.Errorf("writing weather artifact: %w", err)
	}
	p.Log.Info("recording committed", "recording", recPath, "weather", weatherPath)
	return nil
}

// abortRecording stops the recorder and removes the partial recording
// file so a failed run leaves nothing behind.
func (p *Pipeline) abortRecording(ctx context.Context, c sim.Client, recPath string, cause error) error {
	if err := c.StopRecorder(ctx); err != nil {
		p.Log.Warn("stopping recorder after abort", "error", err)
	}
	if err := os.Remove(recPath); err != nil && !os.IsNotExist(err) {
		p.Log.Warn("removing aborted recording", "path", recPath, "error", err)
	}
	return cause
}

func actorLocation(ctx context.Context, c sim.Client, id int) (schema.Location, bool) {
	actors, err := c.Actors(ctx)
	if err != nil {
		return schema.Location{}, false
	}
	for _, a := range actors {
		if a.ID == id {
			return a.Location, true
		}
	}
	return schema.Location{}, false
}
