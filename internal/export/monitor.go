package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stars-project/carla-export/internal/artifact"
	"github.com/stars-project/carla-export/internal/logging"
	"github.com/stars-project/carla-export/internal/schema"
	"github.com/stars-project/carla-export/internal/sim"
)

// Monitor replays one recording and commits the dynamic artifact for
// its (map, seed). The recording and its weather artifact must already
// exist; the static map artifact is extracted on demand when absent.
// An existing dynamic artifact is left untouched unless update is set.
// The skipped result reports that nothing was written for that reason.
func (p *Pipeline) Monitor(ctx context.Context, c sim.Client, recordingPath string, update bool) (skipped bool, err error) {
	cfg := p.Config
	mapName, seed, err := artifact.ParseRecordingPath(recordingPath)
	if err != nil {
		return false, err
	}

	if !artifact.Exists(recordingPath) {
		return false, fmt.Errorf("%w: recording %s", ErrMissingDependency, recordingPath)
	}
	weatherPath := artifact.Path(cfg.DataRoot, artifact.KindWeather, mapName, seed)
	if !artifact.Exists(weatherPath) {
		return false, fmt.Errorf("%w: weather for %s seed %d", ErrMissingDependency, mapName, seed)
	}

	dynPath := artifact.Path(cfg.DataRoot, artifact.KindDynamic, mapName, seed)
	if artifact.Exists(dynPath) && !update {
		p.Log.Info("dynamic artifact exists, skipping", "path", dynPath)
		return true, nil
	}

	var weather schema.WeatherParameters
	if err := artifact.ReadJSON(weatherPath, &weather); err != nil {
		return false, fmt.Errorf("reading weather artifact: %w", err)
	}

	mapData, _, err := p.MapData(ctx, c, mapName, false)
	if err != nil {
		return false, fmt.Errorf("static map data for %s: %w", mapName, err)
	}

	info, stream, err := c.Replay(ctx, recordingPath)
	if err != nil {
		return false, fmt.Errorf("opening replay: %w", err)
	}
	p.Log.Info("replay opened", "recording", recordingPath,
		"frames", info.Frames, "duration", info.Duration)

	dyn, err := p.collectTicks(ctx, stream, info, mapData)
	if err != nil {
		return false, err
	}
	dyn.MapName = mapName
	dyn.Seed = seed
	dyn.Weather = weather

	if err := artifact.WriteJSON(dynPath, dyn); err != nil {
		return false, fmt.Errorf("writing dynamic artifact: %w", err)
	}
	p.Log.Info("dynamic artifact committed", "path", dynPath,
		"actors", len(dyn.Actors), "ticks", len(dyn.Ticks))
	return false, nil
}

// collectTicks drains the replay stream, sampling world state at the
// configured interval and declaring each actor once on first sight.
func (p *Pipeline) collectTicks(ctx context.Context, stream sim.TickStream, info sim.ReplayInfo, mapData *schema.MapData) (*schema.DynamicData, error) {
	interval := p.Config.Sampling.SampleInterval.Seconds()
	limit := info.Duration + p.Config.Sampling.ReplayMargin.Seconds()

	dyn := &schema.DynamicData{}
	declared := make(map[int]bool)
	first := true
	var start, nextSample float64

	for {
		state, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("replay stream: %w", err)
		}
		if first {
			start = state.Elapsed
			first = false
		}
		elapsed := state.Elapsed - start
		if elapsed > limit {
			return nil, fmt.Errorf("%w: %.1fs elapsed, recording is %.1fs", ErrReplayTimeout, elapsed, info.Duration)
		}
		if elapsed+1e-9 < nextSample {
			continue
		}
		nextSample += interval

		tick := schema.TickData{Tick: state.Elapsed}
		for _, actor := range state.Actors {
			kind, ok := classifyActor(actor)
			if !ok {
				continue
			}
			if !declared[actor.ID] {
				declared[actor.ID] = true
				dyn.Actors = append(dyn.Actors, declareActor(actor, kind))
			}
			tick.Positions = append(tick.Positions, projectPosition(actor, state.Elapsed, mapData))
		}
		for _, light := range state.TrafficLights {
			if !declared[light.ID] {
				declared[light.ID] = true
				dyn.Actors = append(dyn.Actors, schema.Actor{
					ID:           light.ID,
					Kind:         schema.KindTrafficLight,
					TypeID:       "traffic.traffic_light",
					TrafficLight: &schema.TrafficLightAttrs{OpenDriveID: light.OpenDriveID},
				})
			}
			tick.TrafficLights = append(tick.TrafficLights, schema.TrafficLightSnapshot{
				ActorID: light.ID,
				State:   light.State,
			})
		}
		dyn.Ticks = append(dyn.Ticks, tick)
		p.Log.Log(ctx, logging.LevelTrace, "tick sampled", "elapsed", state.Elapsed,
			"positions", len(tick.Positions))
	}

	if len(dyn.Ticks) == 0 {
		return nil, ErrNoTicks
	}
	return dyn, nil
}

// classifyActor maps a simulator type id to an exported actor kind.
// Spectators, sensors and traffic lights are excluded; lights are
// reported through the per-tick light states instead.
func classifyActor(a sim.ActorState) (schema.ActorKind, bool) {
	switch {
	case strings.HasPrefix(a.TypeID, "vehicle."):
		return schema.KindVehicle, true
	case strings.HasPrefix(a.TypeID, "walker.pedestrian"):
		return schema.KindPedestrian, true
	case a.TypeID == "traffic.traffic_light":
		return "", false
	case strings.HasPrefix(a.TypeID, "traffic."):
		return schema.KindTrafficSign, true
	default:
		return "", false
	}
}

func declareActor(a sim.ActorState, kind schema.ActorKind) schema.Actor {
	actor := schema.Actor{ID: a.ID, Kind: kind, TypeID: a.TypeID}
	switch kind {
	case schema.KindVehicle:
		actor.Vehicle = &schema.VehicleAttrs{
			Model:      strings.TrimPrefix(a.TypeID, "vehicle."),
			EgoVehicle: a.RoleName == "hero",
		}
	case schema.KindTrafficSign:
		actor.TrafficSign = classifySign(a.TypeID)
	}
	return actor
}

// classifySign decodes the sign variant from a type id such as
// "traffic.speed_limit.30" or "traffic.stop".
func classifySign(typeID string) *schema.TrafficSignAttrs {
	rest := strings.TrimPrefix(typeID, "traffic.")
	switch {
	case strings.HasPrefix(rest, "speed_limit."):
		attrs := &schema.TrafficSignAttrs{SignType: schema.TrafficSignMaxSpeed}
		if v, err := strconv.ParseFloat(strings.TrimPrefix(rest, "speed_limit."), 64); err == nil {
			attrs.SpeedLimit = &v
		}
		return attrs
	case rest == "stop":
		return &schema.TrafficSignAttrs{SignType: schema.TrafficSignStop}
	case rest == "yield":
		return &schema.TrafficSignAttrs{SignType: schema.TrafficSignYield}
	default:
		return &schema.TrafficSignAttrs{SignType: schema.TrafficSignUnknown}
	}
}

// projectPosition snaps an actor onto the nearest lane midpoint of the
// static map, which yields its road, lane and position along the lane.
func projectPosition(a sim.ActorState, tick float64, mapData *schema.MapData) schema.ActorPosition {
	pos := schema.ActorPosition{
		ActorID:  a.ID,
		Tick:     tick,
		Location: a.Location,
		Rotation: a.Rotation,
		Velocity: a.Velocity,
	}
	if mp, ok := mapData.NearestMidpoint(a.Location); ok {
		pos.RoadID = mp.RoadID
		pos.LaneID = mp.LaneID
		pos.PositionOnLane = mp.DistanceToStart
	}
	return pos
}
