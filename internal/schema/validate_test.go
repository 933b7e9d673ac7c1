package schema

import (
	"strings"
	"testing"
)

func simpleLane(roadID, laneID int) Lane {
	return Lane{
		RoadID: roadID,
		LaneID: laneID,
		Type:   LaneTypeDriving,
		Width:  3.5,
		Length: 20,
		Midpoints: []LaneMidpoint{
			{RoadID: roadID, LaneID: laneID, DistanceToStart: 0, Location: Location{X: float64(roadID)}},
			{RoadID: roadID, LaneID: laneID, DistanceToStart: 20, Location: Location{X: float64(roadID) + 20}},
		},
	}
}

func validMap() *MapData {
	laneA := simpleLane(1, -1)
	laneB := simpleLane(2, -1)
	laneA.Successors = []ContactLaneInfo{{RoadID: 2, LaneID: -1}}
	laneB.Predecessors = []ContactLaneInfo{{RoadID: 1, LaneID: -1}}
	return &MapData{
		MapName: "Town01",
		Blocks: []Block{
			{ID: "1", Roads: []Road{{RoadID: 1, Lanes: []Lane{laneA}}}},
			{ID: "2", Roads: []Road{{RoadID: 2, Lanes: []Lane{laneB}}}},
		},
	}
}

func TestValidateMapDataClean(t *testing.T) {
	if violations := ValidateMapData(validMap()); len(violations) != 0 {
		t.Errorf("expected no violations, got %v", violations)
	}
}

func TestValidateMapDataDanglingSuccessor(t *testing.T) {
	m := validMap()
	m.Blocks[0].Roads[0].Lanes[0].Successors = append(
		m.Blocks[0].Roads[0].Lanes[0].Successors,
		ContactLaneInfo{RoadID: 99, LaneID: -1},
	)

	violations := ValidateMapData(m)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(violations), violations)
	}
	if !strings.Contains(violations[0].Detail, "99/-1") {
		t.Errorf("violation should name the dangling lane, got %q", violations[0].Detail)
	}
}

func TestValidateMapDataContactAreaRefs(t *testing.T) {
	m := validMap()
	lane := &m.Blocks[0].Roads[0].Lanes[0]
	lane.ContactAreas = []ContactArea{{
		ID:          "1_-1+7_-2",
		Lane1RoadID: 1, Lane1ID: -1,
		Lane2RoadID: 7, Lane2ID: -2,
	}}

	violations := ValidateMapData(m)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(violations), violations)
	}
}

func TestValidateMapDataMisfiledLane(t *testing.T) {
	m := validMap()
	m.Blocks[0].Roads[0].Lanes[0].RoadID = 5

	violations := ValidateMapData(m)
	if len(violations) == 0 {
		t.Fatal("expected a violation for a lane filed under the wrong road")
	}
}

func validDynamic() *DynamicData {
	return &DynamicData{
		MapName: "Town01",
		Seed:    42,
		Actors: []Actor{
			{ID: 1, Kind: KindVehicle, TypeID: "vehicle.audi.tt", Vehicle: &VehicleAttrs{Model: "vehicle.audi.tt"}},
			{ID: 2, Kind: KindTrafficLight, TypeID: "traffic.traffic_light", TrafficLight: &TrafficLightAttrs{OpenDriveID: 17}},
		},
		Ticks: []TickData{
			{
				Tick:          0.5,
				Positions:     []ActorPosition{{ActorID: 1, Tick: 0.5}},
				TrafficLights: []TrafficLightSnapshot{{ActorID: 2, State: LightRed}},
			},
			{
				Tick:          1.0,
				Positions:     []ActorPosition{{ActorID: 1, Tick: 1.0}},
				TrafficLights: []TrafficLightSnapshot{{ActorID: 2, State: LightGreen}},
			},
		},
	}
}

func TestValidateDynamicDataClean(t *testing.T) {
	if violations := ValidateDynamicData(validDynamic()); len(violations) != 0 {
		t.Errorf("expected no violations, got %v", violations)
	}
}

func TestValidateDynamicDataUndeclaredActor(t *testing.T) {
	d := validDynamic()
	d.Ticks[1].Positions = append(d.Ticks[1].Positions, ActorPosition{ActorID: 33, Tick: 1.0})

	violations := ValidateDynamicData(d)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(violations), violations)
	}
	if !strings.Contains(violations[0].Detail, "33") {
		t.Errorf("violation should name actor 33, got %q", violations[0].Detail)
	}
}

func TestValidateDynamicDataDuplicateActor(t *testing.T) {
	d := validDynamic()
	d.Actors = append(d.Actors, Actor{ID: 1, Kind: KindVehicle, TypeID: "vehicle.audi.tt"})

	violations := ValidateDynamicData(d)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(violations), violations)
	}
}

func TestValidateDynamicDataTickOrdering(t *testing.T) {
	d := validDynamic()
	d.Ticks[1].Tick = 0.5 // equal to the first tick

	violations := ValidateDynamicData(d)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d: %v", len(violations), violations)
	}
	if !strings.Contains(violations[0].Detail, "not after") {
		t.Errorf("violation should report ordering, got %q", violations[0].Detail)
	}
}
