// Package simtest provides a deterministic in-process Client for
// pipeline tests. The fake synthesizes a small road network per map
// name, moves spawned traffic along it in fixed steps, and records
// replayable runs to real files, so the export stages exercise their
// full read/write paths without a simulator.
package simtest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/stars-project/carla-export/internal/schema"
	"github.com/stars-project/carla-export/internal/sim"
)

// Fake is a deterministic sim.Client. The zero value is not usable;
// construct with New.
type Fake struct {
	// TickDelta is the fixed simulation step in seconds.
	TickDelta float64

	// Stalled freezes all vehicles so runs fail the movement check.
	Stalled bool

	// ReplayRunsLong makes replay streams overshoot the recording's
	// timeline instead of ending, so callers can exercise their
	// runaway-replay handling.
	ReplayRunsLong bool

	mapName string
	rng     *rand.Rand
	elapsed float64
	nextID  int

	actors     []sim.ActorState
	vehicleIDs []int
	lights     []sim.LightState

	recPath   string
	recFrames []sim.WorldState

	weather     schema.WeatherParameters
	ResetCalled bool
	Closed      bool
}

// New returns a fake with the default 50 ms tick.
func New() *Fake {
	return &Fake{TickDelta: 0.05, rng: rand.New(rand.NewSource(1))}
}

// recordingFile is the on-disk shape of a fake recording.
type recordingFile struct {
	MapName string           `json:"map_name"`
	Delta   float64          `json:"delta"`
	Frames  []sim.WorldState `json:"frames"`
	Actors  []sim.ActorState `json:"actors"`
}

func mapHash(name string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return h.Sum32()
}

func (f *Fake) LoadWorld(ctx context.Context, mapName string) error {
	f.mapName = mapName
	f.elapsed = 0
	f.nextID = 0
	f.actors = nil
	f.vehicleIDs = nil
	f.lights = nil
	f.recPath = ""
	f.recFrames = nil
	return nil
}

func (f *Fake) SetSeed(ctx context.Context, seed int) error {
	f.rng = rand.New(rand.NewSource(int64(seed)<<20 + int64(mapHash(f.mapName))))
	return nil
}

func (f *Fake) SetWeather(ctx context.Context, weather schema.WeatherParameters) error {
	f.weather = weather
	return nil
}

// Weather reports the last applied weather, for assertions.
func (f *Fake) Weather() schema.WeatherParameters { return f.weather }

func (f *Fake) StartRecorder(ctx context.Context, path string) error {
	if f.recPath != "" {
		return errors.New("recorder already running")
	}
	f.recPath = path
	f.recFrames = nil
	return nil
}

func (f *Fake) StopRecorder(ctx context.Context) error {
	if f.recPath == "" {
		return errors.New("recorder not running")
	}
	rec := recordingFile{
		MapName: f.mapName,
		Delta:   f.TickDelta,
		Frames:  f.recFrames,
		Actors:  f.snapshotActors(),
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.recPath), 0o755); err != nil {
		return err
	}
	err = os.WriteFile(f.recPath, raw, 0o644)
	f.recPath = ""
	f.recFrames = nil
	return err
}

func (f *Fake) SpawnTraffic(ctx context.Context, spec sim.TrafficSpec) ([]int, error) {
	if f.mapName == "" {
		return nil, errors.New("no world loaded")
	}
	graph, _ := f.RoadNetwork(ctx)
	lane := graph.Roads[0].Lanes[0]

	// The spectator exists in every world and must never surface in
	// exported data.
	f.addActor(sim.ActorState{TypeID: "spectator"})

	ids := make([]int, 0, spec.Vehicles)
	for i := 0; i < spec.Vehicles; i++ {
		point := lane.Centerline[i%len(lane.Centerline)]
		role := "autopilot"
		if i == 0 {
			role = "hero"
		}
		state := sim.ActorState{
			TypeID:   "vehicle.tesla.model3",
			RoleName: role,
			Location: point.Location,
			Velocity: schema.Vector3D{X: 3 + 2*f.rng.Float64()},
		}
		ids = append(ids, f.addActor(state))
	}
	for i := 0; i < spec.Walkers; i++ {
		f.addActor(sim.ActorState{
			TypeID:   "walker.pedestrian.0001",
			Location: schema.Location{X: float64(i) * 2, Y: 10},
			Velocity: schema.Vector3D{X: 1},
		})
	}
	for _, tl := range graph.TrafficLights {
		id := f.addActor(sim.ActorState{
			TypeID:   "traffic.traffic_light",
			Location: tl.Location,
			Rotation: tl.Rotation,
		})
		f.lights = append(f.lights, sim.LightState{ID: id, OpenDriveID: tl.OpenDriveID})
	}
	f.vehicleIDs = ids
	return ids, nil
}

func (f *Fake) addActor(state sim.ActorState) int {
	f.nextID++
	state.ID = f.nextID
	f.actors = append(f.actors, state)
	return state.ID
}

func (f *Fake) Tick(ctx context.Context) (float64, error) {
	f.elapsed += f.TickDelta
	if !f.Stalled {
		for i := range f.actors {
			a := &f.actors[i]
			a.Location.X += a.Velocity.X * f.TickDelta
			a.Location.Y += a.Velocity.Y * f.TickDelta
		}
	}
	if f.recPath != "" {
		f.recFrames = append(f.recFrames, sim.WorldState{
			Elapsed:       f.elapsed,
			Actors:        f.snapshotActors(),
			TrafficLights: f.lightStatesAt(f.elapsed),
		})
	}
	return f.elapsed, nil
}

func (f *Fake) snapshotActors() []sim.ActorState {
	out := make([]sim.ActorState, len(f.actors))
	copy(out, f.actors)
	return out
}

// lightStatesAt cycles every light through a fixed 20 s phase plan.
func (f *Fake) lightStatesAt(elapsed float64) []sim.LightState {
	if len(f.lights) == 0 {
		return nil
	}
	phase := int(elapsed) % 20
	state := schema.LightGreen
	switch {
	case phase >= 17:
		state = schema.LightYellow
	case phase >= 10:
		state = schema.LightRed
	}
	out := make([]sim.LightState, len(f.lights))
	for i, l := range f.lights {
		l.State = state
		out[i] = l
	}
	return out
}

func (f *Fake) Actors(ctx context.Context) ([]sim.ActorState, error) {
	return f.snapshotActors(), nil
}

func (f *Fake) Replay(ctx context.Context, path string) (sim.ReplayInfo, sim.TickStream, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return sim.ReplayInfo{}, nil, err
	}
	var rec recordingFile
	if err := json.Unmarshal(raw, &rec); err != nil {
		return sim.ReplayInfo{}, nil, fmt.Errorf("corrupt recording %s: %w", path, err)
	}
	info := sim.ReplayInfo{
		MapName: rec.MapName,
		Frames:  len(rec.Frames),
	}
	if n := len(rec.Frames); n > 0 {
		info.Duration = rec.Frames[n-1].Elapsed - rec.Frames[0].Elapsed + rec.Delta
	}
	return info, &fakeStream{rec: rec, overshoot: f.ReplayRunsLong}, nil
}

type fakeStream struct {
	rec       recordingFile
	next      int
	overshoot bool
	extra     float64
}

func (s *fakeStream) Next(ctx context.Context) (sim.WorldState, error) {
	if s.next < len(s.rec.Frames) {
		state := s.rec.Frames[s.next]
		s.next++
		return state, nil
	}
	if s.overshoot && len(s.rec.Frames) > 0 {
		// Keep replaying the last frame with advancing time, the way a
		// wedged replay session looks from outside.
		s.extra += s.rec.Delta
		state := s.rec.Frames[len(s.rec.Frames)-1]
		state.Elapsed += s.extra
		return state, nil
	}
	return sim.WorldState{}, io.EOF
}

// RoadNetwork synthesizes a fixed small network whose coordinates are
// offset per map name, so distinct maps yield distinct data.
func (f *Fake) RoadNetwork(ctx context.Context) (*sim.NetworkGraph, error) {
	if f.mapName == "" {
		return nil, errors.New("no world loaded")
	}
	off := float64(mapHash(f.mapName) % 7)

	straight := func(roadID int, origin schema.Location, along schema.Vector3D, length float64) sim.RoadDescriptor {
		const spacing = 2.0
		var line []sim.LanePoint
		for s := 0.0; s <= length; s += spacing {
			line = append(line, sim.LanePoint{
				Location: schema.Location{
					X: origin.X + along.X*s,
					Y: origin.Y + along.Y*s,
					Z: origin.Z,
				},
			})
		}
		return sim.RoadDescriptor{
			RoadID: roadID,
			Lanes: []sim.LaneDescriptor{{
				RoadID:     roadID,
				LaneID:     -1,
				Type:       schema.LaneTypeDriving,
				Width:      3.5,
				Spacing:    spacing,
				Centerline: line,
			}},
		}
	}

	r1 := straight(1, schema.Location{X: off, Y: off}, schema.Vector3D{X: 1}, 100)
	r2 := straight(2, schema.Location{X: off + 120, Y: off - 50}, schema.Vector3D{Y: 1}, 100)

	// Two crossing junction roads connect them.
	j5 := straight(5, schema.Location{X: off + 100, Y: off}, schema.Vector3D{X: 1}, 20)
	j6 := straight(6, schema.Location{X: off + 110, Y: off - 10}, schema.Vector3D{Y: 1}, 20)
	for _, r := range []*sim.RoadDescriptor{&j5, &j6} {
		r.IsJunction = true
		r.JunctionID = 50
	}
	r1.Lanes[0].Successors = []sim.LaneRef{{RoadID: 5, LaneID: -1}}
	j5.Lanes[0].Predecessors = []sim.LaneRef{{RoadID: 1, LaneID: -1}}
	j6.Lanes[0].Successors = []sim.LaneRef{{RoadID: 2, LaneID: -1}}
	r2.Lanes[0].Predecessors = []sim.LaneRef{{RoadID: 6, LaneID: -1}}

	graph := &sim.NetworkGraph{
		MapName: f.mapName,
		Roads:   []sim.RoadDescriptor{r1, r2, j5, j6},
		Landmarks: []sim.LandmarkDescriptor{
			{
				ID:           3001,
				RoadID:       1,
				Name:         "Signal_3Light_Post01",
				S:            90,
				IsDynamic:    true,
				Orientation:  schema.LandmarkOrientationPositive,
				Country:      "OpenDRIVE",
				Type:         schema.LandmarkLightPost,
				Location:     schema.Location{X: off + 95, Y: off + 4},
				LaneValidity: [][2]int{{-1, -1}},
			},
			{
				ID:           3002,
				RoadID:       1,
				Name:         "MaxSpeed_50",
				S:            10,
				Orientation:  schema.LandmarkOrientationPositive,
				Country:      "DEU",
				Type:         schema.LandmarkMaximumSpeed,
				Value:        50,
				Unit:         "km/h",
				Location:     schema.Location{X: off + 10, Y: off + 4},
				LaneValidity: [][2]int{{-1, -1}},
			},
		},
		TrafficLights: []sim.TrafficLightDescriptor{{
			OpenDriveID:   3001,
			RoadID:        1,
			S:             90,
			Location:      schema.Location{X: off + 95, Y: off + 4},
			StopLocations: []schema.Location{{X: off + 95, Y: off}},
			LaneValidity:  [][2]int{{-1, -1}},
		}},
	}
	return graph, nil
}

func (f *Fake) Reset(ctx context.Context) error {
	f.ResetCalled = true
	f.actors = nil
	f.lights = nil
	return nil
}

func (f *Fake) Close() error {
	f.Closed = true
	return nil
}
