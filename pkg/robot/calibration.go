package robot

import "math"

// Servo angles are commanded in degrees over this range.
const (
	MinServoAngle = 0.0
	MaxServoAngle = 180.0
)

// JointCalibration holds wiring and trim for a single servo.
type JointCalibration struct {
	// Channel is the PWM channel on the joint's PCA9685 board.
	Channel int
	// ID is the servo ID on a Feetech bus.
	ID int
	// Correction is added to the commanded angle, in degrees.
	Correction float64
	// Reversed mirrors the angle about 90 degrees for servos mounted the
	// other way round.
	Reversed bool
}

// Apply converts a joint angle from the solver into the servo angle to
// command, clamped to the servo's range.
func (c JointCalibration) Apply(deg float64) float64 {
	a := deg + c.Correction
	if c.Reversed {
		a = MaxServoAngle - a
	}
	return math.Max(MinServoAngle, math.Min(MaxServoAngle, a))
}

// LegCalibration holds the hip, knee and ankle calibration of one leg.
type LegCalibration struct {
	Board  string
	Joints [NumJoints]JointCalibration
}

// Calibration holds calibration for all legs, in leg index order.
type Calibration [6]LegCalibration

// ServoIDs returns the Feetech servo IDs of all joints, leg by leg.
func (c Calibration) ServoIDs() []int {
	ids := make([]int, 0, len(c)*NumJoints)
	for _, leg := range c {
		for _, j := range leg.Joints {
			ids = append(ids, j.ID)
		}
	}
	return ids
}

// ByID returns the leg index, joint and calibration for a given servo ID.
func (c Calibration) ByID(id int) (int, Joint, JointCalibration, bool) {
	for leg, lc := range c {
		for j, jc := range lc.Joints {
			if jc.ID == id {
				return leg, Joint(j), jc, true
			}
		}
	}
	return 0, 0, JointCalibration{}, false
}
