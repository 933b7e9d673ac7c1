package schema

// DynamicData is the dynamic artifact for one (map, seed): the full
// ordered tick sequence of a replayed recording, the actors that
// appeared in it, and the weather snapshot the recording was made
// under. Weather is embedded once per artifact, not per tick.
type DynamicData struct {
	MapName string            `json:"map_name"`
	Seed    int               `json:"seed"`
	Weather WeatherParameters `json:"weather_parameters"`
	Actors  []Actor           `json:"actors"`
	Ticks   []TickData        `json:"ticks"`
}

// TickData is one sampled simulation timestep: every live actor's
// position and every traffic light's current state. Tick times are
// strictly increasing within one artifact.
type TickData struct {
	Tick          float64                `json:"current_tick"`
	Positions     []ActorPosition        `json:"actor_positions"`
	TrafficLights []TrafficLightSnapshot `json:"traffic_light_states"`
}

// ActorPosition is the minimal per-tick state of one actor. ActorID
// references an Actor declared once in the same artifact. The lane
// projection fields locate the actor on the static map's lane network.
type ActorPosition struct {
	ActorID        int      `json:"actor_id"`
	Tick           float64  `json:"tick"`
	Location       Location `json:"location"`
	Rotation       Rotation `json:"rotation"`
	Velocity       Vector3D `json:"velocity"`
	RoadID         int      `json:"road_id"`
	LaneID         int      `json:"lane_id"`
	PositionOnLane float64  `json:"position_on_lane"`
}

// TrafficLightSnapshot is one traffic light's signal state at one tick.
type TrafficLightSnapshot struct {
	ActorID int               `json:"actor_id"`
	State   TrafficLightState `json:"state"`
}

// Actor is the identity and static attributes of one simulation
// participant. Kind selects which attribute payload is populated; the
// other payloads are nil. Pedestrians carry no payload beyond TypeID.
type Actor struct {
	ID     int       `json:"id"`
	Kind   ActorKind `json:"kind"`
	TypeID string    `json:"type_id"`

	Vehicle      *VehicleAttrs      `json:"vehicle,omitempty"`
	TrafficLight *TrafficLightAttrs `json:"traffic_light,omitempty"`
	TrafficSign  *TrafficSignAttrs  `json:"traffic_sign,omitempty"`
}

// VehicleAttrs are the static attributes of a vehicle actor.
type VehicleAttrs struct {
	Model      string `json:"model"`
	EgoVehicle bool   `json:"ego_vehicle"`
}

// TrafficLightAttrs tie a dynamic traffic light actor back to its
// static map record via the OpenDRIVE signal id.
type TrafficLightAttrs struct {
	OpenDriveID int `json:"open_drive_id"`
}

// TrafficSignAttrs classify a traffic sign actor. SpeedLimit is set
// only for maximum-speed signs, in km/h.
type TrafficSignAttrs struct {
	SignType   TrafficSignType `json:"traffic_sign_type"`
	SpeedLimit *float64        `json:"speed_limit,omitempty"`
}

// ActorByID returns the declared actor with the given id, if any.
func (d *DynamicData) ActorByID(id int) (Actor, bool) {
	for _, actor := range d.Actors {
		if actor.ID == id {
			return actor, true
		}
	}
	return Actor{}, false
}

// Duration returns the timestamp of the final tick, or zero for an
// empty artifact.
func (d *DynamicData) Duration() float64 {
	if len(d.Ticks) == 0 {
		return 0
	}
	return d.Ticks[len(d.Ticks)-1].Tick
}
