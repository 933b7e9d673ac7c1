package export

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stars-project/carla-export/internal/artifact"
	"github.com/stars-project/carla-export/internal/config"
	"github.com/stars-project/carla-export/internal/journal"
	"github.com/stars-project/carla-export/internal/schema"
	"github.com/stars-project/carla-export/internal/sim/simtest"
)

func testPipeline(t *testing.T, fake *simtest.Fake) *Pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.DataRoot = t.TempDir()
	cfg.Sampling.RunLength = 12 * time.Second
	cfg.Traffic.Vehicles = 3
	cfg.Traffic.Walkers = 1
	return &Pipeline{
		Config: cfg,
		Log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Open: func(ctx context.Context) (*Session, error) {
			return NewSession(fake), nil
		},
	}
}

func TestRecordProducesRecordingAndWeather(t *testing.T) {
	ctx := context.Background()
	fake := simtest.New()
	p := testPipeline(t, fake)

	outcomes := p.RecordBatch(ctx, "Town01", []int{1})
	if outcomes.Failed() {
		t.Fatalf("batch failed: %+v", outcomes)
	}
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want recording and weather", len(outcomes))
	}

	recPath := artifact.Path(p.Config.DataRoot, artifact.KindRecording, "Town01", 1)
	if !artifact.Exists(recPath) {
		t.Errorf("recording %s not written", recPath)
	}

	var weather schema.WeatherParameters
	weatherPath := artifact.Path(p.Config.DataRoot, artifact.KindWeather, "Town01", 1)
	if err := artifact.ReadJSON(weatherPath, &weather); err != nil {
		t.Fatalf("reading weather: %v", err)
	}
	if !p.Config.Weather.Contains(weather) {
		t.Errorf("weather %+v outside configured bounds", weather)
	}
	if diff := cmp.Diff(fake.Weather(), weather); diff != "" {
		t.Errorf("artifact differs from applied weather (-applied +artifact):\n%s", diff)
	}
}

func TestRecordWeatherDeterministicPerSeed(t *testing.T) {
	ctx := context.Background()

	read := func(t *testing.T) schema.WeatherParameters {
		p := testPipeline(t, simtest.New())
		if outcomes := p.RecordBatch(ctx, "Town01", []int{42}); outcomes.Failed() {
			t.Fatalf("batch failed: %+v", outcomes)
		}
		var w schema.WeatherParameters
		path := artifact.Path(p.Config.DataRoot, artifact.KindWeather, "Town01", 42)
		if err := artifact.ReadJSON(path, &w); err != nil {
			t.Fatalf("reading weather: %v", err)
		}
		return w
	}

	first := read(t)
	second := read(t)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same seed produced different weather (-first +second):\n%s", diff)
	}
}

func TestRecordUnsupportedMap(t *testing.T) {
	p := testPipeline(t, simtest.New())
	outcomes := p.RecordBatch(context.Background(), "Town99", []int{1})
	if len(outcomes) != 1 || !errors.Is(outcomes[0].Err, ErrUnsupportedMap) {
		t.Fatalf("outcomes = %+v, want single ErrUnsupportedMap", outcomes)
	}
}

func TestRecordStalledTrafficLeavesNoArtifacts(t *testing.T) {
	fake := simtest.New()
	fake.Stalled = true
	p := testPipeline(t, fake)

	outcomes := p.RecordBatch(context.Background(), "Town01", []int{1})
	if len(outcomes) != 1 || !errors.Is(outcomes[0].Err, ErrStalledTraffic) {
		t.Fatalf("outcomes = %+v, want single ErrStalledTraffic", outcomes)
	}
	if artifact.Exists(artifact.Path(p.Config.DataRoot, artifact.KindRecording, "Town01", 1)) {
		t.Error("aborted run left a recording behind")
	}
	if artifact.Exists(artifact.Path(p.Config.DataRoot, artifact.KindWeather, "Town01", 1)) {
		t.Error("aborted run left a weather artifact behind")
	}
}

func TestMonitorProducesDynamicData(t *testing.T) {
	ctx := context.Background()
	fake := simtest.New()
	p := testPipeline(t, fake)

	if outcomes := p.RecordBatch(ctx, "Town01", []int{1}); outcomes.Failed() {
		t.Fatalf("record: %+v", outcomes)
	}
	recPath := artifact.Path(p.Config.DataRoot, artifact.KindRecording, "Town01", 1)

	outcomes := p.MonitorBatch(ctx, []string{recPath}, false)
	if outcomes.Failed() {
		t.Fatalf("monitor: %+v", outcomes)
	}

	// Monitoring extracts the static artifact on demand.
	if !artifact.Exists(artifact.Path(p.Config.DataRoot, artifact.KindStatic, "Town01", 0)) {
		t.Error("static artifact not extracted on demand")
	}

	var dyn schema.DynamicData
	dynPath := artifact.Path(p.Config.DataRoot, artifact.KindDynamic, "Town01", 1)
	if err := artifact.ReadJSON(dynPath, &dyn); err != nil {
		t.Fatalf("reading dynamic artifact: %v", err)
	}
	if dyn.MapName != "Town01" || dyn.Seed != 1 {
		t.Errorf("identity = (%s, %d), want (Town01, 1)", dyn.MapName, dyn.Seed)
	}
	if diff := cmp.Diff(fake.Weather(), dyn.Weather); diff != "" {
		t.Errorf("embedded weather mismatch (-applied +artifact):\n%s", diff)
	}
	if violations := schema.ValidateDynamicData(&dyn); len(violations) > 0 {
		t.Errorf("dynamic artifact has violations: %v", violations)
	}

	// 12 s sampled every 500 ms.
	if len(dyn.Ticks) < 20 || len(dyn.Ticks) > 30 {
		t.Errorf("got %d ticks, want roughly 24", len(dyn.Ticks))
	}

	// 3 vehicles, 1 walker, 1 traffic light; the spectator stays out.
	if len(dyn.Actors) != 5 {
		t.Errorf("got %d actors, want 5", len(dyn.Actors))
	}
	egos := 0
	for _, a := range dyn.Actors {
		if a.Kind == schema.KindVehicle && a.Vehicle != nil && a.Vehicle.EgoVehicle {
			egos++
		}
		if a.TypeID == "spectator" {
			t.Error("spectator exported as actor")
		}
	}
	if egos != 1 {
		t.Errorf("got %d ego vehicles, want 1", egos)
	}

	for _, tick := range dyn.Ticks {
		if len(tick.Positions) != 4 {
			t.Fatalf("tick %v has %d positions, want 4", tick.Tick, len(tick.Positions))
		}
		if len(tick.TrafficLights) != 1 {
			t.Fatalf("tick %v has %d light states, want 1", tick.Tick, len(tick.TrafficLights))
		}
		for _, pos := range tick.Positions {
			if pos.RoadID == 0 {
				t.Fatalf("actor %d at tick %v not projected onto a lane", pos.ActorID, tick.Tick)
			}
		}
	}
}

func TestMonitorSkipsExistingUnlessUpdate(t *testing.T) {
	ctx := context.Background()
	fake := simtest.New()
	p := testPipeline(t, fake)

	if outcomes := p.RecordBatch(ctx, "Town01", []int{1}); outcomes.Failed() {
		t.Fatalf("record: %+v", outcomes)
	}
	recPath := artifact.Path(p.Config.DataRoot, artifact.KindRecording, "Town01", 1)

	if outcomes := p.MonitorBatch(ctx, []string{recPath}, false); outcomes.Failed() {
		t.Fatalf("first monitor: %+v", outcomes)
	}
	outcomes := p.MonitorBatch(ctx, []string{recPath}, false)
	if outcomes.Failed() || !outcomes[0].Skipped {
		t.Errorf("second monitor = %+v, want skipped", outcomes)
	}
	outcomes = p.MonitorBatch(ctx, []string{recPath}, true)
	if outcomes.Failed() || outcomes[0].Skipped {
		t.Errorf("update monitor = %+v, want rewrite", outcomes)
	}
}

func TestMonitorMissingWeatherDependency(t *testing.T) {
	ctx := context.Background()
	fake := simtest.New()
	p := testPipeline(t, fake)

	if outcomes := p.RecordBatch(ctx, "Town01", []int{1}); outcomes.Failed() {
		t.Fatalf("record: %+v", outcomes)
	}
	weatherPath := artifact.Path(p.Config.DataRoot, artifact.KindWeather, "Town01", 1)
	if err := os.Remove(weatherPath); err != nil {
		t.Fatalf("removing weather: %v", err)
	}

	recPath := artifact.Path(p.Config.DataRoot, artifact.KindRecording, "Town01", 1)
	outcomes := p.MonitorBatch(ctx, []string{recPath}, false)
	if !errors.Is(outcomes[0].Err, ErrMissingDependency) {
		t.Fatalf("err = %v, want ErrMissingDependency", outcomes[0].Err)
	}
}

func TestMonitorReplayTimeout(t *testing.T) {
	ctx := context.Background()
	fake := simtest.New()
	p := testPipeline(t, fake)

	if outcomes := p.RecordBatch(ctx, "Town01", []int{1}); outcomes.Failed() {
		t.Fatalf("record: %+v", outcomes)
	}

	fake.ReplayRunsLong = true
	p.Config.Sampling.ReplayMargin = time.Second

	recPath := artifact.Path(p.Config.DataRoot, artifact.KindRecording, "Town01", 1)
	outcomes := p.MonitorBatch(ctx, []string{recPath}, false)
	if !errors.Is(outcomes[0].Err, ErrReplayTimeout) {
		t.Fatalf("err = %v, want ErrReplayTimeout", outcomes[0].Err)
	}
	if artifact.Exists(artifact.Path(p.Config.DataRoot, artifact.KindDynamic, "Town01", 1)) {
		t.Error("timed-out replay left a dynamic artifact behind")
	}
}

func TestMonitorAllFindsRecordings(t *testing.T) {
	ctx := context.Background()
	fake := simtest.New()
	p := testPipeline(t, fake)

	if outcomes := p.RecordBatch(ctx, "Town01", []int{1, 2}); outcomes.Failed() {
		t.Fatalf("record: %+v", outcomes)
	}

	outcomes, err := p.MonitorAll(ctx, false)
	if err != nil {
		t.Fatalf("MonitorAll: %v", err)
	}
	if len(outcomes) != 2 || outcomes.Failed() {
		t.Fatalf("outcomes = %+v, want 2 successes", outcomes)
	}

	// An empty store monitors nothing.
	p.Config.DataRoot = t.TempDir()
	outcomes, err = p.MonitorAll(ctx, false)
	if err != nil || len(outcomes) != 0 {
		t.Errorf("empty store: outcomes = %+v, err = %v", outcomes, err)
	}
}

func TestMonitorBatchContinuesAfterFailure(t *testing.T) {
	ctx := context.Background()
	fake := simtest.New()
	p := testPipeline(t, fake)

	if outcomes := p.RecordBatch(ctx, "Town01", []int{2}); outcomes.Failed() {
		t.Fatalf("record: %+v", outcomes)
	}

	missing := artifact.Path(p.Config.DataRoot, artifact.KindRecording, "Town01", 1)
	good := artifact.Path(p.Config.DataRoot, artifact.KindRecording, "Town01", 2)

	outcomes := p.MonitorBatch(ctx, []string{missing, good}, false)
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}
	if !errors.Is(outcomes[0].Err, ErrMissingDependency) {
		t.Errorf("first outcome err = %v, want ErrMissingDependency", outcomes[0].Err)
	}
	if outcomes[1].Failed() {
		t.Errorf("second outcome failed: %v", outcomes[1].Err)
	}
	ok, _, failed := outcomes.Counts()
	if ok != 1 || failed != 1 {
		t.Errorf("counts = (%d ok, %d failed), want (1, 1)", ok, failed)
	}
}

func TestGenerateBatchRecordsThenMonitors(t *testing.T) {
	ctx := context.Background()
	fake := simtest.New()
	p := testPipeline(t, fake)

	outcomes := p.GenerateBatch(ctx, "Town01", []int{1})
	if outcomes.Failed() {
		t.Fatalf("generate: %+v", outcomes)
	}
	// Recording, weather and dynamic artifacts per seed.
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	if !artifact.Exists(artifact.Path(p.Config.DataRoot, artifact.KindDynamic, "Town01", 1)) {
		t.Error("dynamic artifact missing after generate")
	}
}

func TestPipelineJournalsOutcomes(t *testing.T) {
	ctx := context.Background()
	fake := simtest.New()
	p := testPipeline(t, fake)

	jnl, err := journal.Open(p.Config.DataRoot)
	if err != nil {
		t.Fatalf("opening journal: %v", err)
	}
	defer jnl.Close()
	p.Journal = jnl

	p.RecordBatch(ctx, "Town01", []int{1})
	p.RecordBatch(ctx, "Town99", []int{1})

	entries, err := jnl.List(ctx, "", 0)
	if err != nil {
		t.Fatalf("listing journal: %v", err)
	}
	// Recording and weather for the good run, one failure for the bad.
	if len(entries) != 3 {
		t.Fatalf("got %d journal entries, want 3", len(entries))
	}
	failed, err := jnl.List(ctx, journal.StatusFailed, 0)
	if err != nil {
		t.Fatalf("listing failures: %v", err)
	}
	if len(failed) != 1 || failed[0].MapName != "Town99" {
		t.Errorf("failed entries = %+v, want single Town99 failure", failed)
	}
}
