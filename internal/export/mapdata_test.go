package export

import (
	"context"
	"math"
	"testing"

	"github.com/stars-project/carla-export/internal/artifact"
	"github.com/stars-project/carla-export/internal/schema"
	"github.com/stars-project/carla-export/internal/sim/simtest"
)

func extractTown01(t *testing.T) (*Pipeline, *schema.MapData) {
	t.Helper()
	p := testPipeline(t, simtest.New())
	outcomes := p.MapDataBatch(context.Background(), []string{"Town01"}, false)
	if outcomes.Failed() {
		t.Fatalf("extract: %+v", outcomes)
	}
	var m schema.MapData
	path := artifact.Path(p.Config.DataRoot, artifact.KindStatic, "Town01", 0)
	if err := artifact.ReadJSON(path, &m); err != nil {
		t.Fatalf("reading static artifact: %v", err)
	}
	return p, &m
}

func laneByID(t *testing.T, m *schema.MapData, roadID, laneID int) schema.Lane {
	t.Helper()
	for _, lane := range m.Lanes() {
		if lane.RoadID == roadID && lane.LaneID == laneID {
			return lane
		}
	}
	t.Fatalf("lane %d_%d not in artifact", roadID, laneID)
	return schema.Lane{}
}

func TestMapDataBlocksAndValidation(t *testing.T) {
	_, m := extractTown01(t)

	if m.MapName != "Town01" {
		t.Errorf("MapName = %q, want Town01", m.MapName)
	}
	if violations := schema.ValidateMapData(m); len(violations) > 0 {
		t.Errorf("artifact has violations: %v", violations)
	}

	var ids []string
	for _, b := range m.Blocks {
		ids = append(ids, b.ID)
	}
	// Two plain roads plus one junction grouping its member roads.
	want := map[string]bool{"1": true, "2": true, "5-6": true}
	if len(ids) != 3 {
		t.Fatalf("block ids = %v, want 3 blocks", ids)
	}
	for _, id := range ids {
		if !want[id] {
			t.Errorf("unexpected block id %q", id)
		}
	}
}

func TestMapDataMidpointsIncludeTerminal(t *testing.T) {
	_, m := extractTown01(t)
	lane := laneByID(t, m, 1, -1)

	if len(lane.Midpoints) == 0 {
		t.Fatal("lane has no midpoints")
	}
	first := lane.Midpoints[0]
	last := lane.Midpoints[len(lane.Midpoints)-1]
	if first.DistanceToStart != 0 {
		t.Errorf("first midpoint at %v, want 0", first.DistanceToStart)
	}
	if math.Abs(last.DistanceToStart-lane.Length) > 1e-6 {
		t.Errorf("last midpoint at %v, want lane length %v", last.DistanceToStart, lane.Length)
	}
	for i := 1; i < len(lane.Midpoints); i++ {
		if lane.Midpoints[i].DistanceToStart <= lane.Midpoints[i-1].DistanceToStart {
			t.Fatalf("midpoint %d not past midpoint %d", i, i-1)
		}
	}
}

func TestMapDataJunctionCrossing(t *testing.T) {
	_, m := extractTown01(t)
	a := laneByID(t, m, 5, -1)
	b := laneByID(t, m, 6, -1)

	if len(a.Intersecting) != 1 || a.Intersecting[0].RoadID != 6 {
		t.Fatalf("lane 5_-1 intersecting = %v, want road 6", a.Intersecting)
	}
	if len(b.Intersecting) != 1 || b.Intersecting[0].RoadID != 5 {
		t.Fatalf("lane 6_-1 intersecting = %v, want road 5", b.Intersecting)
	}
	if len(a.ContactAreas) != 1 || len(b.ContactAreas) != 1 {
		t.Fatalf("contact areas = %d/%d, want 1 each", len(a.ContactAreas), len(b.ContactAreas))
	}
	if a.ContactAreas[0].ID != b.ContactAreas[0].ID {
		t.Errorf("contact area ids differ: %q vs %q", a.ContactAreas[0].ID, b.ContactAreas[0].ID)
	}
	area := a.ContactAreas[0]
	if area.Lane1RoadID != 5 || area.Lane2RoadID != 6 {
		t.Errorf("area roads = (%d, %d), want (5, 6)", area.Lane1RoadID, area.Lane2RoadID)
	}
	if area.Lane1EndPos <= area.Lane1StartPos || area.Lane2EndPos <= area.Lane2StartPos {
		t.Errorf("degenerate contact sections: %+v", area)
	}
}

func TestMapDataStaticFeatures(t *testing.T) {
	_, m := extractTown01(t)
	lane := laneByID(t, m, 1, -1)

	if len(lane.Landmarks) != 2 {
		t.Fatalf("got %d landmarks on lane 1_-1, want 2", len(lane.Landmarks))
	}
	if len(lane.SpeedLimits) != 1 {
		t.Fatalf("got %d speed limits, want 1", len(lane.SpeedLimits))
	}
	sl := lane.SpeedLimits[0]
	if sl.Limit != 50 {
		t.Errorf("speed limit = %v, want 50", sl.Limit)
	}
	if sl.ToDistance != lane.Length {
		t.Errorf("speed limit ends at %v, want lane length %v", sl.ToDistance, lane.Length)
	}

	if len(lane.TrafficLights) != 1 {
		t.Fatalf("got %d static traffic lights, want 1", len(lane.TrafficLights))
	}
	tl := lane.TrafficLights[0]
	if tl.OpenDriveID != 3001 {
		t.Errorf("OpenDriveID = %d, want 3001", tl.OpenDriveID)
	}
	if len(tl.StopLocations) != 1 {
		t.Errorf("got %d stop locations, want 1", len(tl.StopLocations))
	}
}

func TestMapDataIdempotent(t *testing.T) {
	p, _ := extractTown01(t)

	outcomes := p.MapDataBatch(context.Background(), []string{"Town01"}, false)
	if outcomes.Failed() || !outcomes[0].Skipped {
		t.Errorf("second extract = %+v, want skipped", outcomes)
	}
	outcomes = p.MapDataBatch(context.Background(), []string{"Town01"}, true)
	if outcomes.Failed() || outcomes[0].Skipped {
		t.Errorf("update extract = %+v, want rewrite", outcomes)
	}
}

func TestMapDataUnsupportedMap(t *testing.T) {
	p := testPipeline(t, simtest.New())
	outcomes := p.MapDataBatch(context.Background(), []string{"Town99"}, false)
	if !outcomes.Failed() {
		t.Fatalf("outcomes = %+v, want failure", outcomes)
	}
}
