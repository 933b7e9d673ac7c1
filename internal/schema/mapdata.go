package schema

import "strconv"

// ContactAreaMargin is how far, in metres, a contact area extends along
// each lane to either side of the contact point.
const ContactAreaMargin = 3.0

// MapData is the static artifact for one map: the full road network
// grouped into blocks, with every attached static feature. It is
// seed-independent and written once per map.
type MapData struct {
	MapName string  `json:"map_name"`
	Blocks  []Block `json:"blocks"`
}

// Block groups the roads of either one junction or one multi-lane road.
// Junction blocks get a composite id joined from their member road ids.
type Block struct {
	ID    string `json:"id"`
	Roads []Road `json:"roads"`
}

// Road is an ordered sequence of lanes sharing one OpenDRIVE road id.
type Road struct {
	RoadID     int    `json:"road_id"`
	IsJunction bool   `json:"is_junction"`
	Lanes      []Lane `json:"lanes"`
}

// Lane carries centerline geometry, topology and every static feature
// anchored to it. Predecessor/successor/intersecting references are
// non-owning; they must resolve within the same MapData artifact.
type Lane struct {
	RoadID        int                  `json:"road_id"`
	LaneID        int                  `json:"lane_id"`
	Type          LaneType             `json:"lane_type"`
	Width         float64              `json:"lane_width"`
	Length        float64              `json:"lane_length"`
	S             float64              `json:"s"`
	Predecessors  []ContactLaneInfo    `json:"predecessor_lanes"`
	Successors    []ContactLaneInfo    `json:"successor_lanes"`
	Intersecting  []ContactLaneInfo    `json:"intersecting_lanes"`
	Midpoints     []LaneMidpoint       `json:"lane_midpoints"`
	SpeedLimits   []SpeedLimit         `json:"speed_limits"`
	Landmarks     []Landmark           `json:"landmarks"`
	ContactAreas  []ContactArea        `json:"contact_areas"`
	TrafficLights []StaticTrafficLight `json:"traffic_lights"`
}

// LaneMidpoint is one sampled point on a lane's centerline, at a known
// distance from the lane start. Midpoints drive the projection of actor
// positions onto lanes during monitoring.
type LaneMidpoint struct {
	RoadID          int      `json:"road_id"`
	LaneID          int      `json:"lane_id"`
	DistanceToStart float64  `json:"distance_to_start"`
	Location        Location `json:"location"`
	Rotation        Rotation `json:"rotation"`
}

// ContactLaneInfo is a non-owning reference to another lane that this
// lane touches (precedes, succeeds or crosses).
type ContactLaneInfo struct {
	RoadID int `json:"road_id"`
	LaneID int `json:"lane_id"`
}

// SpeedLimit is one speed-limit section of a lane, in km/h, valid
// between FromDistance and ToDistance from the lane start.
type SpeedLimit struct {
	Limit        float64 `json:"speed_limit"`
	FromDistance float64 `json:"from_distance"`
	ToDistance   float64 `json:"to_distance"`
}

// ContactArea describes where two lanes cross. The per-lane sections
// span ContactAreaMargin metres to either side of the contact point,
// clamped to the lane bounds.
type ContactArea struct {
	ID              string   `json:"id"`
	ContactLocation Location `json:"contact_location"`

	Lane1RoadID   int     `json:"lane_1_road_id"`
	Lane1ID       int     `json:"lane_1_id"`
	Lane1StartPos float64 `json:"lane_1_start_pos"`
	Lane1EndPos   float64 `json:"lane_1_end_pos"`

	Lane2RoadID   int     `json:"lane_2_road_id"`
	Lane2ID       int     `json:"lane_2_id"`
	Lane2StartPos float64 `json:"lane_2_start_pos"`
	Lane2EndPos   float64 `json:"lane_2_end_pos"`
}

// NewContactArea builds the ContactArea for two crossing lanes, given
// the contact location and each lane's distance-from-start at the
// contact point. The lane with the smaller road id is stored first so
// the id is stable regardless of argument order.
func NewContactArea(contact Location, lane1 Lane, pos1 float64, lane2 Lane, pos2 float64) ContactArea {
	if lane2.RoadID < lane1.RoadID {
		lane1, lane2 = lane2, lane1
		pos1, pos2 = pos2, pos1
	}
	return ContactArea{
		ID:              contactAreaID(lane1, lane2),
		ContactLocation: contact,
		Lane1RoadID:     lane1.RoadID,
		Lane1ID:         lane1.LaneID,
		Lane1StartPos:   max(0, pos1-ContactAreaMargin),
		Lane1EndPos:     min(lane1.Length, pos1+ContactAreaMargin),
		Lane2RoadID:     lane2.RoadID,
		Lane2ID:         lane2.LaneID,
		Lane2StartPos:   max(0, pos2-ContactAreaMargin),
		Lane2EndPos:     min(lane2.Length, pos2+ContactAreaMargin),
	}
}

func contactAreaID(lane1, lane2 Lane) string {
	return formatLaneRef(lane1.RoadID, lane1.LaneID) + "+" + formatLaneRef(lane2.RoadID, lane2.LaneID)
}

func formatLaneRef(roadID, laneID int) string {
	return strconv.Itoa(roadID) + "_" + strconv.Itoa(laneID)
}

// Landmark is one OpenDRIVE signal anchored to a road, with the full
// attribute set the simulator exposes.
type Landmark struct {
	ID          int                 `json:"id"`
	RoadID      int                 `json:"road_id"`
	Name        string              `json:"name"`
	Distance    float64             `json:"distance"`
	S           float64             `json:"s"`
	IsDynamic   bool                `json:"is_dynamic"`
	Orientation LandmarkOrientation `json:"orientation"`
	ZOffset     float64             `json:"z_offset"`
	Country     string              `json:"country"`
	Type        LandmarkType        `json:"type"`
	SubType     string              `json:"sub_type"`
	Value       float64             `json:"value"`
	Unit        string              `json:"unit"`
	Height      float64             `json:"height"`
	Width       float64             `json:"width"`
	Text        string              `json:"text"`
	HOffset     float64             `json:"h_offset"`
	Pitch       float64             `json:"pitch"`
	Roll        float64             `json:"roll"`
	Location    Location            `json:"location"`
	Rotation    Rotation            `json:"rotation"`
}

// StaticTrafficLight is the map-side record of a traffic light: where
// it stands and where its stop lines are. The light's signal state over
// time lives in the dynamic artifact; the OpenDriveID joins the two.
type StaticTrafficLight struct {
	OpenDriveID      int        `json:"open_drive_id"`
	PositionDistance float64    `json:"position_distance"`
	Location         Location   `json:"location"`
	Rotation         Rotation   `json:"rotation"`
	StopLocations    []Location `json:"stop_locations"`
}

// Lanes returns every lane of every road in every block, in artifact order.
func (m *MapData) Lanes() []Lane {
	var lanes []Lane
	for _, block := range m.Blocks {
		for _, road := range block.Roads {
			lanes = append(lanes, road.Lanes...)
		}
	}
	return lanes
}

// Midpoints returns every lane midpoint in the artifact, in artifact order.
func (m *MapData) Midpoints() []LaneMidpoint {
	var points []LaneMidpoint
	for _, lane := range m.Lanes() {
		points = append(points, lane.Midpoints...)
	}
	return points
}

// NearestMidpoint returns the lane midpoint closest to loc. The boolean
// is false when the artifact has no midpoints at all.
func (m *MapData) NearestMidpoint(loc Location) (LaneMidpoint, bool) {
	var best LaneMidpoint
	found := false
	bestDist := 0.0
	for _, point := range m.Midpoints() {
		d := point.Location.DistanceTo(loc)
		if !found || d < bestDist {
			best = point
			bestDist = d
			found = true
		}
	}
	return best, found
}

// ContainsLane reports whether the artifact declares a lane with the
// given road and lane id.
func (m *MapData) ContainsLane(roadID, laneID int) bool {
	for _, lane := range m.Lanes() {
		if lane.RoadID == roadID && lane.LaneID == laneID {
			return true
		}
	}
	return false
}

// StaticTrafficLights returns every static traffic light attached to
// any lane of the artifact.
func (m *MapData) StaticTrafficLights() []StaticTrafficLight {
	var lights []StaticTrafficLight
	for _, lane := range m.Lanes() {
		lights = append(lights, lane.TrafficLights...)
	}
	return lights
}
