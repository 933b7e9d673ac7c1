package schema

import "fmt"

// Violation is one referential-integrity or ordering problem found in
// an artifact.
type Violation struct {
	Entity string `json:"entity"`
	Detail string `json:"detail"`
}

func (v Violation) String() string {
	return v.Entity + ": " + v.Detail
}

// ValidateMapData checks that every back-reference inside a map
// artifact resolves to an entity declared in the same artifact: lane
// predecessors/successors/intersections, contact-area lane pairs, and
// midpoint lane ownership. It returns all violations found.
func ValidateMapData(m *MapData) []Violation {
	var violations []Violation

	declared := make(map[string]bool)
	for _, lane := range m.Lanes() {
		declared[formatLaneRef(lane.RoadID, lane.LaneID)] = true
	}
	checkRef := func(entity string, roadID, laneID int) {
		if !declared[formatLaneRef(roadID, laneID)] {
			violations = append(violations, Violation{
				Entity: entity,
				Detail: fmt.Sprintf("references undeclared lane %d/%d", roadID, laneID),
			})
		}
	}

	for _, block := range m.Blocks {
		for _, road := range block.Roads {
			for _, lane := range road.Lanes {
				ref := formatLaneRef(lane.RoadID, lane.LaneID)
				if lane.RoadID != road.RoadID {
					violations = append(violations, Violation{
						Entity: "lane " + ref,
						Detail: fmt.Sprintf("declared under road %d", road.RoadID),
					})
				}
				for _, contact := range lane.Predecessors {
					checkRef("lane "+ref+" predecessor", contact.RoadID, contact.LaneID)
				}
				for _, contact := range lane.Successors {
					checkRef("lane "+ref+" successor", contact.RoadID, contact.LaneID)
				}
				for _, contact := range lane.Intersecting {
					checkRef("lane "+ref+" intersection", contact.RoadID, contact.LaneID)
				}
				for _, area := range lane.ContactAreas {
					checkRef("contact area "+area.ID, area.Lane1RoadID, area.Lane1ID)
					checkRef("contact area "+area.ID, area.Lane2RoadID, area.Lane2ID)
				}
				for _, point := range lane.Midpoints {
					if point.RoadID != lane.RoadID || point.LaneID != lane.LaneID {
						violations = append(violations, Violation{
							Entity: "lane " + ref,
							Detail: fmt.Sprintf("midpoint tagged for lane %d/%d", point.RoadID, point.LaneID),
						})
					}
				}
				for _, landmark := range lane.Landmarks {
					if !declaredRoad(m, landmark.RoadID) {
						violations = append(violations, Violation{
							Entity: fmt.Sprintf("landmark %d", landmark.ID),
							Detail: fmt.Sprintf("references undeclared road %d", landmark.RoadID),
						})
					}
				}
			}
		}
	}
	return violations
}

func declaredRoad(m *MapData, roadID int) bool {
	for _, block := range m.Blocks {
		for _, road := range block.Roads {
			if road.RoadID == roadID {
				return true
			}
		}
	}
	return false
}

// ValidateDynamicData checks that every per-tick actor reference
// resolves to exactly one declared Actor, that actor ids are declared
// only once, and that tick timestamps are strictly increasing.
func ValidateDynamicData(d *DynamicData) []Violation {
	var violations []Violation

	seen := make(map[int]int)
	for _, actor := range d.Actors {
		seen[actor.ID]++
	}
	for id, count := range seen {
		if count > 1 {
			violations = append(violations, Violation{
				Entity: fmt.Sprintf("actor %d", id),
				Detail: fmt.Sprintf("declared %d times", count),
			})
		}
	}

	prev := 0.0
	for i, tick := range d.Ticks {
		if i > 0 && tick.Tick <= prev {
			violations = append(violations, Violation{
				Entity: fmt.Sprintf("tick %d", i),
				Detail: fmt.Sprintf("timestamp %.3f not after %.3f", tick.Tick, prev),
			})
		}
		prev = tick.Tick

		for _, pos := range tick.Positions {
			if seen[pos.ActorID] == 0 {
				violations = append(violations, Violation{
					Entity: fmt.Sprintf("tick %d", i),
					Detail: fmt.Sprintf("position references undeclared actor %d", pos.ActorID),
				})
			}
		}
		for _, light := range tick.TrafficLights {
			if seen[light.ActorID] == 0 {
				violations = append(violations, Violation{
					Entity: fmt.Sprintf("tick %d", i),
					Detail: fmt.Sprintf("traffic light state references undeclared actor %d", light.ActorID),
				})
			}
		}
	}
	return violations
}
