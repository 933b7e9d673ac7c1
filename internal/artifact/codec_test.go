package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stars-project/carla-export/internal/schema"
)

func TestWriteReadRoundTrip(t *testing.T) {
	root := t.TempDir()
	path := Path(root, KindWeather, "Town01", 42)

	want := schema.WeatherParameters{
		Cloudiness:       33.5,
		Precipitation:    12.25,
		SunAzimuthAngle:  180,
		SunAltitudeAngle: -12.5,
		FogFalloff:       0.2,
	}
	if err := WriteJSON(path, want); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var got schema.WeatherParameters
	if err := ReadJSON(path, &got); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteDynamicRoundTrip(t *testing.T) {
	root := t.TempDir()
	path := Path(root, KindDynamic, "Town01", 7)

	limit := 30.0
	want := schema.DynamicData{
		MapName: "Town01",
		Seed:    7,
		Weather: schema.WeatherParameters{Cloudiness: 10},
		Actors: []schema.Actor{
			{ID: 1, Kind: schema.KindVehicle, TypeID: "vehicle.audi.tt", Vehicle: &schema.VehicleAttrs{Model: "vehicle.audi.tt", EgoVehicle: true}},
			{ID: 2, Kind: schema.KindPedestrian, TypeID: "walker.pedestrian.0001"},
			{ID: 3, Kind: schema.KindTrafficSign, TypeID: "traffic.speed_limit.30", TrafficSign: &schema.TrafficSignAttrs{SignType: schema.TrafficSignMaxSpeed, SpeedLimit: &limit}},
		},
		Ticks: []schema.TickData{
			{Tick: 0.5, Positions: []schema.ActorPosition{{ActorID: 1, Tick: 0.5, Location: schema.Location{X: 1.5}, Velocity: schema.Vector3D{X: 3}}}},
			{Tick: 1.0, Positions: []schema.ActorPosition{{ActorID: 1, Tick: 1.0, Location: schema.Location{X: 3.0}}}},
		},
	}
	if err := WriteJSON(path, &want); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var got schema.DynamicData
	if err := ReadJSON(path, &got); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteLeavesNoPartialFile(t *testing.T) {
	root := t.TempDir()
	path := Path(root, KindWeather, "Town01", 3)

	// Channels cannot be marshalled; the write must fail.
	if err := WriteJSON(path, map[string]any{"bad": make(chan int)}); err == nil {
		t.Fatal("expected encode error")
	}
	if Exists(path) {
		t.Error("failed write left a file at the canonical path")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read artifact dir: %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Errorf("temporary file left behind: %s", entry.Name())
		}
	}
}

func TestWriteOverwritesExisting(t *testing.T) {
	root := t.TempDir()
	path := Path(root, KindWeather, "Town01", 3)

	if err := WriteJSON(path, schema.WeatherParameters{Cloudiness: 1}); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := WriteJSON(path, schema.WeatherParameters{Cloudiness: 2}); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	var got schema.WeatherParameters
	if err := ReadJSON(path, &got); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if got.Cloudiness != 2 {
		t.Errorf("expected overwritten value 2, got %v", got.Cloudiness)
	}
}

func TestReadMissingArtifact(t *testing.T) {
	var v schema.WeatherParameters
	err := ReadJSON(filepath.Join(t.TempDir(), "nope.json.gz"), &v)
	if !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
