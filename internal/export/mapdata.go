package export

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/stars-project/carla-export/internal/artifact"
	"github.com/stars-project/carla-export/internal/schema"
	"github.com/stars-project/carla-export/internal/sim"
)

// MapData returns the static artifact for a map, extracting and
// committing it when absent. An existing artifact is read back instead
// unless update is set; skipped reports that path. Extraction is
// seed-independent, so the artifact is written once per map.
func (p *Pipeline) MapData(ctx context.Context, c sim.Client, mapName string, update bool) (m *schema.MapData, skipped bool, err error) {
	cfg := p.Config
	path := artifact.Path(cfg.DataRoot, artifact.KindStatic, mapName, 0)

	if artifact.Exists(path) && !update {
		var existing schema.MapData
		if err := artifact.ReadJSON(path, &existing); err != nil {
			return nil, false, fmt.Errorf("reading static artifact: %w", err)
		}
		return &existing, true, nil
	}

	if !cfg.SupportsMap(mapName) {
		return nil, false, fmt.Errorf("%w: %s", ErrUnsupportedMap, mapName)
	}
	if err := c.LoadWorld(ctx, mapName); err != nil {
		return nil, false, fmt.Errorf("loading %s: %w", mapName, err)
	}
	graph, err := c.RoadNetwork(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("querying road network: %w", err)
	}

	m = buildMapData(graph, artifact.CleanMapName(mapName), cfg.Sampling.MidpointStep)
	if violations := schema.ValidateMapData(m); len(violations) > 0 {
		for _, v := range violations {
			p.Log.Warn("map data violation", "map", mapName, "violation", v.String())
		}
	}
	if err := artifact.WriteJSON(path, m); err != nil {
		return nil, false, fmt.Errorf("writing static artifact: %w", err)
	}
	p.Log.Info("static artifact committed", "path", path, "blocks", len(m.Blocks))
	return m, false, nil
}

// buildMapData converts the simulator's road network into the static
// artifact shape: roads grouped into blocks, lanes resampled into
// midpoints, and junction lane crossings turned into intersecting-lane
// references and contact areas.
func buildMapData(graph *sim.NetworkGraph, mapName string, midpointStep float64) *schema.MapData {
	m := &schema.MapData{MapName: mapName}

	junctions := make(map[int][]sim.RoadDescriptor)
	var junctionOrder []int
	for _, road := range graph.Roads {
		if road.IsJunction {
			if _, seen := junctions[road.JunctionID]; !seen {
				junctionOrder = append(junctionOrder, road.JunctionID)
			}
			junctions[road.JunctionID] = append(junctions[road.JunctionID], road)
			continue
		}
		m.Blocks = append(m.Blocks, schema.Block{
			ID:    strconv.Itoa(road.RoadID),
			Roads: []schema.Road{buildRoad(road, graph, midpointStep)},
		})
	}

	for _, jid := range junctionOrder {
		members := junctions[jid]
		sort.Slice(members, func(i, j int) bool { return members[i].RoadID < members[j].RoadID })
		ids := make([]string, len(members))
		block := schema.Block{}
		for i, road := range members {
			ids[i] = strconv.Itoa(road.RoadID)
			block.Roads = append(block.Roads, buildRoad(road, graph, midpointStep))
		}
		block.ID = strings.Join(ids, "-")
		linkJunctionLanes(&block)
		m.Blocks = append(m.Blocks, block)
	}
	return m
}

func buildRoad(road sim.RoadDescriptor, graph *sim.NetworkGraph, midpointStep float64) schema.Road {
	out := schema.Road{RoadID: road.RoadID, IsJunction: road.IsJunction}
	for _, ld := range road.Lanes {
		out.Lanes = append(out.Lanes, buildLane(ld, graph, midpointStep))
	}
	return out
}

func buildLane(ld sim.LaneDescriptor, graph *sim.NetworkGraph, midpointStep float64) schema.Lane {
	lane := schema.Lane{
		RoadID:       ld.RoadID,
		LaneID:       ld.LaneID,
		Type:         ld.Type,
		Width:        ld.Width,
		S:            ld.S,
		Length:       polylineLength(ld.Centerline),
		Predecessors: toContactInfo(ld.Predecessors),
		Successors:   toContactInfo(ld.Successors),
	}
	lane.Midpoints = resampleMidpoints(ld, midpointStep, lane.Length)

	for _, lm := range graph.Landmarks {
		if lm.RoadID != ld.RoadID || !validForLane(lm.LaneValidity, ld.LaneID) {
			continue
		}
		lane.Landmarks = append(lane.Landmarks, buildLandmark(lm))
		if lm.Type == schema.LandmarkMaximumSpeed {
			lane.SpeedLimits = append(lane.SpeedLimits, schema.SpeedLimit{
				Limit:        lm.Value,
				FromDistance: math.Min(lm.S, lane.Length),
				ToDistance:   lane.Length,
			})
		}
	}

	for _, tl := range graph.TrafficLights {
		if tl.RoadID != ld.RoadID || !validForLane(tl.LaneValidity, ld.LaneID) {
			continue
		}
		dist := 0.0
		if mp, ok := nearestLaneMidpoint(lane.Midpoints, tl.Location); ok {
			dist = mp.DistanceToStart
		}
		lane.TrafficLights = append(lane.TrafficLights, schema.StaticTrafficLight{
			OpenDriveID:      tl.OpenDriveID,
			PositionDistance: dist,
			Location:         tl.Location,
			Rotation:         tl.Rotation,
			StopLocations:    tl.StopLocations,
		})
	}
	return lane
}

func toContactInfo(refs []sim.LaneRef) []schema.ContactLaneInfo {
	out := make([]schema.ContactLaneInfo, len(refs))
	for i, r := range refs {
		out[i] = schema.ContactLaneInfo{RoadID: r.RoadID, LaneID: r.LaneID}
	}
	return out
}

func validForLane(validity [][2]int, laneID int) bool {
	for _, span := range validity {
		lo, hi := span[0], span[1]
		if hi < lo {
			lo, hi = hi, lo
		}
		if laneID >= lo && laneID <= hi {
			return true
		}
	}
	return false
}

func buildLandmark(lm sim.LandmarkDescriptor) schema.Landmark {
	return schema.Landmark{
		ID:          lm.ID,
		RoadID:      lm.RoadID,
		Name:        lm.Name,
		Distance:    lm.Distance,
		S:           lm.S,
		IsDynamic:   lm.IsDynamic,
		Orientation: lm.Orientation,
		ZOffset:     lm.ZOffset,
		Country:     lm.Country,
		Type:        lm.Type,
		SubType:     lm.SubType,
		Value:       lm.Value,
		Unit:        lm.Unit,
		Height:      lm.Height,
		Width:       lm.Width,
		Text:        lm.Text,
		HOffset:     lm.HOffset,
		Pitch:       lm.Pitch,
		Roll:        lm.Roll,
		Location:    lm.Location,
		Rotation:    lm.Rotation,
	}
}

func polylineLength(points []sim.LanePoint) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += points[i-1].Location.DistanceTo(points[i].Location)
	}
	return total
}

// resampleMidpoints walks the centerline emitting a midpoint every
// step metres, always including the lane's terminal point so the far
// end of the lane stays reachable for projection.
func resampleMidpoints(ld sim.LaneDescriptor, step, length float64) []schema.LaneMidpoint {
	if len(ld.Centerline) == 0 {
		return nil
	}
	mid := func(loc schema.Location, rot schema.Rotation, dist float64) schema.LaneMidpoint {
		return schema.LaneMidpoint{
			RoadID:          ld.RoadID,
			LaneID:          ld.LaneID,
			DistanceToStart: dist,
			Location:        loc,
			Rotation:        rot,
		}
	}

	first := ld.Centerline[0]
	out := []schema.LaneMidpoint{mid(first.Location, first.Rotation, 0)}
	if len(ld.Centerline) == 1 {
		return out
	}

	next := step
	walked := 0.0
	for i := 1; i < len(ld.Centerline); i++ {
		prev, cur := ld.Centerline[i-1], ld.Centerline[i]
		seg := prev.Location.DistanceTo(cur.Location)
		for seg > 0 && next <= walked+seg+1e-9 {
			f := (next - walked) / seg
			out = append(out, mid(lerpLocation(prev.Location, cur.Location, f), prev.Rotation, next))
			next += step
		}
		walked += seg
	}

	// Terminal point, unless a sampled midpoint already landed there.
	last := ld.Centerline[len(ld.Centerline)-1]
	if length-out[len(out)-1].DistanceToStart > 1e-6 {
		out = append(out, mid(last.Location, last.Rotation, length))
	}
	return out
}

func lerpLocation(a, b schema.Location, f float64) schema.Location {
	return schema.Location{
		X: a.X + (b.X-a.X)*f,
		Y: a.Y + (b.Y-a.Y)*f,
		Z: a.Z + (b.Z-a.Z)*f,
	}
}

// linkJunctionLanes finds crossing lane pairs inside one junction
// block and records their intersecting-lane references and shared
// contact area on both lanes.
func linkJunctionLanes(block *schema.Block) {
	type laneRef struct{ road, lane int }
	lanes := make(map[laneRef]*schema.Lane)
	var order []laneRef
	for ri := range block.Roads {
		for li := range block.Roads[ri].Lanes {
			lane := &block.Roads[ri].Lanes[li]
			ref := laneRef{lane.RoadID, lane.LaneID}
			lanes[ref] = lane
			order = append(order, ref)
		}
	}

	for i := 0; i < len(order); i++ {
		for j := i + 1; j < len(order); j++ {
			a, b := lanes[order[i]], lanes[order[j]]
			if a.RoadID == b.RoadID {
				continue
			}
			contact, posA, posB, ok := laneCrossing(a.Midpoints, b.Midpoints)
			if !ok {
				continue
			}
			a.Intersecting = append(a.Intersecting, schema.ContactLaneInfo{RoadID: b.RoadID, LaneID: b.LaneID})
			b.Intersecting = append(b.Intersecting, schema.ContactLaneInfo{RoadID: a.RoadID, LaneID: a.LaneID})
			area := schema.NewContactArea(contact, *a, posA, *b, posB)
			a.ContactAreas = append(a.ContactAreas, area)
			b.ContactAreas = append(b.ContactAreas, area)
		}
	}
}

// laneCrossing returns the first intersection of two midpoint
// polylines in the ground plane, with each lane's distance-from-start
// at the crossing.
func laneCrossing(a, b []schema.LaneMidpoint) (contact schema.Location, posA, posB float64, ok bool) {
	for i := 1; i < len(a); i++ {
		for j := 1; j < len(b); j++ {
			loc, fa, fb, hit := segmentIntersection(
				a[i-1].Location, a[i].Location,
				b[j-1].Location, b[j].Location)
			if !hit {
				continue
			}
			posA = a[i-1].DistanceToStart + fa*(a[i].DistanceToStart-a[i-1].DistanceToStart)
			posB = b[j-1].DistanceToStart + fb*(b[j].DistanceToStart-b[j-1].DistanceToStart)
			return loc, posA, posB, true
		}
	}
	return schema.Location{}, 0, 0, false
}

// segmentIntersection intersects two segments projected onto the X/Y
// plane. The returned fractions locate the hit along each segment.
func segmentIntersection(p1, p2, p3, p4 schema.Location) (schema.Location, float64, float64, bool) {
	d := (p2.X-p1.X)*(p4.Y-p3.Y) - (p2.Y-p1.Y)*(p4.X-p3.X)
	if math.Abs(d) < 1e-12 {
		return schema.Location{}, 0, 0, false
	}
	t := ((p3.X-p1.X)*(p4.Y-p3.Y) - (p3.Y-p1.Y)*(p4.X-p3.X)) / d
	u := ((p3.X-p1.X)*(p2.Y-p1.Y) - (p3.Y-p1.Y)*(p2.X-p1.X)) / d
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return schema.Location{}, 0, 0, false
	}
	return lerpLocation(p1, p2, t), t, u, true
}

func nearestLaneMidpoint(points []schema.LaneMidpoint, loc schema.Location) (schema.LaneMidpoint, bool) {
	var best schema.LaneMidpoint
	bestDist := math.Inf(1)
	for _, p := range points {
		if d := p.Location.DistanceTo(loc); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, !math.IsInf(bestDist, 1)
}
