package simtest

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stars-project/carla-export/internal/sim"
)

func TestRoadNetworkDeterministicPerMap(t *testing.T) {
	ctx := context.Background()

	f := New()
	if err := f.LoadWorld(ctx, "Town01"); err != nil {
		t.Fatalf("LoadWorld: %v", err)
	}
	first, err := f.RoadNetwork(ctx)
	if err != nil {
		t.Fatalf("RoadNetwork: %v", err)
	}
	second, err := f.RoadNetwork(ctx)
	if err != nil {
		t.Fatalf("RoadNetwork: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same map produced different networks (-first +second):\n%s", diff)
	}

	if err := f.LoadWorld(ctx, "Town02"); err != nil {
		t.Fatalf("LoadWorld: %v", err)
	}
	other, err := f.RoadNetwork(ctx)
	if err != nil {
		t.Fatalf("RoadNetwork: %v", err)
	}
	if cmp.Equal(first.Roads[0], other.Roads[0]) {
		t.Error("distinct maps produced identical road geometry")
	}
}

func TestRecordThenReplay(t *testing.T) {
	ctx := context.Background()
	f := New()
	if err := f.LoadWorld(ctx, "Town01"); err != nil {
		t.Fatalf("LoadWorld: %v", err)
	}
	if err := f.SetSeed(ctx, 7); err != nil {
		t.Fatalf("SetSeed: %v", err)
	}
	if _, err := f.SpawnTraffic(ctx, sim.TrafficSpec{Vehicles: 3, Walkers: 1, Seed: 7}); err != nil {
		t.Fatalf("SpawnTraffic: %v", err)
	}

	path := filepath.Join(t.TempDir(), "run.log")
	if err := f.StartRecorder(ctx, path); err != nil {
		t.Fatalf("StartRecorder: %v", err)
	}
	const ticks = 10
	for i := 0; i < ticks; i++ {
		if _, err := f.Tick(ctx); err != nil {
			t.Fatalf("Tick: %v", err)
		}
	}
	if err := f.StopRecorder(ctx); err != nil {
		t.Fatalf("StopRecorder: %v", err)
	}

	info, stream, err := f.Replay(ctx, path)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if info.Frames != ticks {
		t.Errorf("info.Frames = %d, want %d", info.Frames, ticks)
	}

	var last float64
	n := 0
	for {
		state, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if state.Elapsed <= last {
			t.Fatalf("tick %d elapsed %v not after %v", n, state.Elapsed, last)
		}
		last = state.Elapsed
		n++
	}
	if n != ticks {
		t.Errorf("streamed %d frames, want %d", n, ticks)
	}
}

func TestStalledVehiclesDoNotMove(t *testing.T) {
	ctx := context.Background()
	f := New()
	f.Stalled = true
	if err := f.LoadWorld(ctx, "Town01"); err != nil {
		t.Fatalf("LoadWorld: %v", err)
	}
	if _, err := f.SpawnTraffic(ctx, sim.TrafficSpec{Vehicles: 2, Seed: 1}); err != nil {
		t.Fatalf("SpawnTraffic: %v", err)
	}
	before, _ := f.Actors(ctx)
	for i := 0; i < 20; i++ {
		f.Tick(ctx)
	}
	after, _ := f.Actors(ctx)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("stalled actors moved (-before +after):\n%s", diff)
	}
}
