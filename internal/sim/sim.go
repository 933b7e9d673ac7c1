// Package sim defines the capability set the export pipeline needs
// from a simulator instance, a production client speaking to the
// simulator bridge endpoint, and the process-lifecycle launcher. Any
// client satisfying the Client interface is substitutable; the tests
// substitute the deterministic fake in simtest.
package sim

import (
	"context"
	"errors"

	"github.com/stars-project/carla-export/internal/schema"
)

// ErrStartupTimeout reports that a launched simulator instance did not
// become connectable within the startup grace period.
var ErrStartupTimeout = errors.New("simulator did not become ready within grace period")

// ActorState is one actor's state at one simulation tick, as reported
// by the simulator.
type ActorState struct {
	ID       int             `json:"id"`
	TypeID   string          `json:"type_id"`
	RoleName string          `json:"role_name,omitempty"`
	Location schema.Location `json:"location"`
	Rotation schema.Rotation `json:"rotation"`
	Velocity schema.Vector3D `json:"velocity"`
}

// LightState is one traffic light's signal state at one tick.
type LightState struct {
	ID          int                      `json:"id"`
	OpenDriveID int                      `json:"open_drive_id"`
	State       schema.TrafficLightState `json:"state"`
}

// WorldState is the full observable state of one simulation tick.
type WorldState struct {
	Elapsed       float64      `json:"elapsed"`
	Actors        []ActorState `json:"actors"`
	TrafficLights []LightState `json:"traffic_lights"`
}

// ReplayInfo describes a recording opened for replay, parsed from the
// simulator's recorder file info.
type ReplayInfo struct {
	MapName  string  `json:"map_name"`
	Frames   int     `json:"frames"`
	Duration float64 `json:"duration"`
}

// TickStream yields per-tick world state during a replay. Next returns
// io.EOF when the recording's timeline ends.
type TickStream interface {
	Next(ctx context.Context) (WorldState, error)
}

// TrafficSpec sizes the scenario population spawned for a recording.
// The seed drives the simulator's randomized spawn and route logic.
type TrafficSpec struct {
	Vehicles int `json:"vehicles"`
	Walkers  int `json:"walkers"`
	Seed     int `json:"seed"`
}

// LaneRef names a lane by its road and lane ids.
type LaneRef struct {
	RoadID int `json:"road_id"`
	LaneID int `json:"lane_id"`
}

// LanePoint is one sampled centerline point of a lane.
type LanePoint struct {
	Location schema.Location `json:"location"`
	Rotation schema.Rotation `json:"rotation"`
}

// LaneDescriptor is the simulator-side description of one lane, with
// its centerline sampled at the descriptor's spacing.
type LaneDescriptor struct {
	RoadID       int             `json:"road_id"`
	LaneID       int             `json:"lane_id"`
	Type         schema.LaneType `json:"lane_type"`
	Width        float64         `json:"width"`
	S            float64         `json:"s"`
	Spacing      float64         `json:"spacing"`
	Centerline   []LanePoint     `json:"centerline"`
	Predecessors []LaneRef       `json:"predecessors"`
	Successors   []LaneRef       `json:"successors"`
}

// RoadDescriptor is the simulator-side description of one road.
// Junction roads share a junction id with the other roads of their
// junction.
type RoadDescriptor struct {
	RoadID     int              `json:"road_id"`
	IsJunction bool             `json:"is_junction"`
	JunctionID int              `json:"junction_id"`
	Lanes      []LaneDescriptor `json:"lanes"`
}

// LandmarkDescriptor is one OpenDRIVE signal with the lane-id
// intervals it applies to.
type LandmarkDescriptor struct {
	ID           int                        `json:"id"`
	RoadID       int                        `json:"road_id"`
	Name         string                     `json:"name"`
	Distance     float64                    `json:"distance"`
	S            float64                    `json:"s"`
	IsDynamic    bool                       `json:"is_dynamic"`
	Orientation  schema.LandmarkOrientation `json:"orientation"`
	ZOffset      float64                    `json:"z_offset"`
	Country      string                     `json:"country"`
	Type         schema.LandmarkType        `json:"type"`
	SubType      string                     `json:"sub_type"`
	Value        float64                    `json:"value"`
	Unit         string                     `json:"unit"`
	Height       float64                    `json:"height"`
	Width        float64                    `json:"width"`
	Text         string                     `json:"text"`
	HOffset      float64                    `json:"h_offset"`
	Pitch        float64                    `json:"pitch"`
	Roll         float64                    `json:"roll"`
	Location     schema.Location            `json:"location"`
	Rotation     schema.Rotation            `json:"rotation"`
	LaneValidity [][2]int                   `json:"lane_validity"`
}

// TrafficLightDescriptor is the static description of one traffic
// light: its OpenDRIVE signal id, pose and stop lines.
type TrafficLightDescriptor struct {
	OpenDriveID   int               `json:"open_drive_id"`
	RoadID        int               `json:"road_id"`
	S             float64           `json:"s"`
	Location      schema.Location   `json:"location"`
	Rotation      schema.Rotation   `json:"rotation"`
	StopLocations []schema.Location `json:"stop_locations"`
	LaneValidity  [][2]int          `json:"lane_validity"`
}

// NetworkGraph is the static road network of the loaded map.
type NetworkGraph struct {
	MapName       string                   `json:"map_name"`
	Roads         []RoadDescriptor         `json:"roads"`
	Landmarks     []LandmarkDescriptor     `json:"landmarks"`
	TrafficLights []TrafficLightDescriptor `json:"traffic_lights"`
}

// Client is the capability set the pipeline needs from a simulator
// instance. One client owns one exclusive instance for the duration of
// one job; no two stages hold a live client against the same instance
// at once.
type Client interface {
	// LoadWorld sets the active map.
	LoadWorld(ctx context.Context, mapName string) error

	// SetSeed deterministically initializes the simulator's
	// pseudo-random systems.
	SetSeed(ctx context.Context, seed int) error

	// SetWeather applies the given weather to the world.
	SetWeather(ctx context.Context, weather schema.WeatherParameters) error

	// StartRecorder begins a full-fidelity recording of the live run,
	// written by the simulator to path.
	StartRecorder(ctx context.Context, path string) error

	// StopRecorder finishes the active recording.
	StopRecorder(ctx context.Context) error

	// SpawnTraffic populates the scenario and returns the spawned
	// vehicle actor ids, first one designated ego.
	SpawnTraffic(ctx context.Context, spec TrafficSpec) ([]int, error)

	// Tick advances the synchronous simulation by one fixed step and
	// returns the elapsed simulation time.
	Tick(ctx context.Context) (float64, error)

	// Actors returns the current state of every actor in the world.
	Actors(ctx context.Context) ([]ActorState, error)

	// Replay opens a recording for replay and streams per-tick state
	// until its timeline ends.
	Replay(ctx context.Context, path string) (ReplayInfo, TickStream, error)

	// RoadNetwork returns the static road network of the loaded map.
	// It is a pure query; no simulation run is required.
	RoadNetwork(ctx context.Context) (*NetworkGraph, error)

	// Reset restores asynchronous world settings and destroys all
	// remaining actors.
	Reset(ctx context.Context) error

	// Close releases the connection. The instance itself is stopped by
	// the Launcher that owns it.
	Close() error
}
