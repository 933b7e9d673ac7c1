package schema

// LaneType mirrors the simulator's OpenDRIVE lane type flags.
type LaneType int

const (
	LaneTypeNone          LaneType = 1
	LaneTypeDriving       LaneType = 2
	LaneTypeStop          LaneType = 4
	LaneTypeShoulder      LaneType = 8
	LaneTypeBiking        LaneType = 16
	LaneTypeSidewalk      LaneType = 32
	LaneTypeBorder        LaneType = 64
	LaneTypeRestricted    LaneType = 128
	LaneTypeParking       LaneType = 256
	LaneTypeBidirectional LaneType = 512
	LaneTypeMedian        LaneType = 1024
	LaneTypeSpecial1      LaneType = 2048
	LaneTypeSpecial2      LaneType = 4096
	LaneTypeSpecial3      LaneType = 8192
	LaneTypeRoadWorks     LaneType = 16384
	LaneTypeTram          LaneType = 32768
	LaneTypeRail          LaneType = 65536
	LaneTypeEntry         LaneType = 131072
	LaneTypeExit          LaneType = 262144
	LaneTypeOffRamp       LaneType = 524288
	LaneTypeOnRamp        LaneType = 1048576
	LaneTypeAny           LaneType = -2
)

// LandmarkOrientation mirrors the simulator's landmark orientation values.
type LandmarkOrientation int

const (
	LandmarkOrientationPositive LandmarkOrientation = 0
	LandmarkOrientationNegative LandmarkOrientation = 1
	LandmarkOrientationBoth     LandmarkOrientation = 2
)

// LandmarkType mirrors the simulator's OpenDRIVE signal type codes.
type LandmarkType int

const (
	LandmarkDanger                          LandmarkType = 101
	LandmarkLanesMerging                    LandmarkType = 121
	LandmarkCautionPedestrian               LandmarkType = 133
	LandmarkCautionBicycle                  LandmarkType = 138
	LandmarkLevelCrossing                   LandmarkType = 150
	LandmarkYieldSign                       LandmarkType = 205
	LandmarkStopSign                        LandmarkType = 206
	LandmarkMandatoryTurnDirection          LandmarkType = 209
	LandmarkMandatoryLeftRightDirection     LandmarkType = 211
	LandmarkTwoChoiceTurnDirection          LandmarkType = 214
	LandmarkRoundabout                      LandmarkType = 215
	LandmarkPassRightLeft                   LandmarkType = 222
	LandmarkAccessForbidden                 LandmarkType = 250
	LandmarkAccessForbiddenMotorvehicles    LandmarkType = 251
	LandmarkAccessForbiddenTrucks           LandmarkType = 253
	LandmarkAccessForbiddenBicycle          LandmarkType = 254
	LandmarkAccessForbiddenWeight           LandmarkType = 263
	LandmarkAccessForbiddenWidth            LandmarkType = 264
	LandmarkAccessForbiddenHeight           LandmarkType = 265
	LandmarkAccessForbiddenWrongDirection   LandmarkType = 267
	LandmarkForbiddenUTurn                  LandmarkType = 272
	LandmarkMaximumSpeed                    LandmarkType = 274
	LandmarkForbiddenOvertakingMotorvehicle LandmarkType = 276
	LandmarkForbiddenOvertakingTrucks       LandmarkType = 277
	LandmarkAbsoluteNoStop                  LandmarkType = 283
	LandmarkRestrictedStop                  LandmarkType = 286
	LandmarkHasWayNextIntersection          LandmarkType = 301
	LandmarkPriorityWay                     LandmarkType = 306
	LandmarkPriorityWayEnd                  LandmarkType = 307
	LandmarkCityBegin                       LandmarkType = 310
	LandmarkCityEnd                         LandmarkType = 311
	LandmarkHighway                         LandmarkType = 330
	LandmarkDeadEnd                         LandmarkType = 357
	LandmarkRecommendedSpeed                LandmarkType = 380
	LandmarkRecommendedSpeedEnd             LandmarkType = 381
	LandmarkLightPost                       LandmarkType = 1000001
)

// TrafficSignType classifies a traffic sign actor. Only the subset the
// simulator actually spawns as actors is distinguished; everything else
// reports Unknown.
type TrafficSignType int

const (
	TrafficSignInvalid  TrafficSignType = 0
	TrafficSignYield    TrafficSignType = 27
	TrafficSignStop     TrafficSignType = 28
	TrafficSignMaxSpeed TrafficSignType = 53
	TrafficSignUnknown  TrafficSignType = 72
)

// TrafficLightState is a traffic light's signal state at one tick.
type TrafficLightState int

const (
	LightRed     TrafficLightState = 0
	LightYellow  TrafficLightState = 1
	LightGreen   TrafficLightState = 2
	LightOff     TrafficLightState = 3
	LightUnknown TrafficLightState = 4
)

// String returns the state name used in human-readable output.
func (s TrafficLightState) String() string {
	switch s {
	case LightRed:
		return "red"
	case LightYellow:
		return "yellow"
	case LightGreen:
		return "green"
	case LightOff:
		return "off"
	default:
		return "unknown"
	}
}

// ActorKind tags the variant of an Actor record.
type ActorKind string

const (
	KindVehicle      ActorKind = "vehicle"
	KindPedestrian   ActorKind = "pedestrian"
	KindTrafficLight ActorKind = "traffic_light"
	KindTrafficSign  ActorKind = "traffic_sign"
)
