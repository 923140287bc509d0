// Package robot provides the hexapod's configuration, leg naming, and servo
// calibration.
package robot

// LegName identifies a leg of the hexapod.
type LegName string

// Leg names in index order, clockwise from the front right seen from above.
const (
	FrontRight  LegName = "front_right"
	CenterRight LegName = "center_right"
	RearRight   LegName = "rear_right"
	RearLeft    LegName = "rear_left"
	CenterLeft  LegName = "center_left"
	FrontLeft   LegName = "front_left"
)

// AllLegs returns all leg names in index order (matching leg indices 0-5).
func AllLegs() []LegName {
	return []LegName{
		FrontRight,
		CenterRight,
		RearRight,
		RearLeft,
		CenterLeft,
		FrontLeft,
	}
}

// Joint identifies one of the three servos of a leg.
type Joint int

const (
	Hip Joint = iota
	Knee
	Ankle
)

// NumJoints is the number of servos per leg.
const NumJoints = 3

func (j Joint) String() string {
	switch j {
	case Hip:
		return "hip"
	case Knee:
		return "knee"
	case Ankle:
		return "ankle"
	}
	return "unknown"
}
