// Package kinematics maps body-frame foot targets to joint angles for a
// six-legged robot with three-joint legs.
//
// Coordinates are in millimetres with the origin at the centre of the body:
// x points right, y points forward, z points up. Angles handed to and
// returned from this package are in degrees unless a name says otherwise.
package kinematics

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// NumLegs is the number of legs on the robot.
const NumLegs = 6

// ErrInvalidGeometry is returned by NewGeometry for impossible dimensions.
var ErrInvalidGeometry = errors.New("invalid leg geometry")

// Leg describes where a leg is mounted on the body.
type Leg struct {
	MountX     float64 // mm
	MountY     float64 // mm
	MountAngle float64 // radians, yaw of the leg's local x axis
}

// Mount returns the mount point in the body frame.
func (l Leg) Mount() r3.Vector {
	return r3.Vector{X: l.MountX, Y: l.MountY}
}

// Geometry holds the fixed dimensions of all six legs. Legs are indexed
// clockwise from the front right (0) to the front left (5).
type Geometry struct {
	Legs [NumLegs]Leg

	RootToJoint1   float64
	Joint1ToJoint2 float64
	Joint2ToJoint3 float64
	Joint3ToTip    float64
}

// NewGeometry builds a Geometry from mount positions, mount angles in degrees
// and link lengths.
func NewGeometry(mountX, mountY, mountAngleDeg [NumLegs]float64, rootToJoint1, joint1ToJoint2, joint2ToJoint3, joint3ToTip float64) (Geometry, error) {
	links := []struct {
		name string
		v    float64
	}{
		{"root to joint1", rootToJoint1},
		{"joint1 to joint2", joint1ToJoint2},
		{"joint2 to joint3", joint2ToJoint3},
		{"joint3 to tip", joint3ToTip},
	}
	for _, l := range links {
		if !(l.v > 0) || math.IsInf(l.v, 0) {
			return Geometry{}, fmt.Errorf("%w: %s length %v must be positive", ErrInvalidGeometry, l.name, l.v)
		}
	}

	g := Geometry{
		RootToJoint1:   rootToJoint1,
		Joint1ToJoint2: joint1ToJoint2,
		Joint2ToJoint3: joint2ToJoint3,
		Joint3ToTip:    joint3ToTip,
	}
	for i := range g.Legs {
		g.Legs[i] = Leg{
			MountX:     mountX[i],
			MountY:     mountY[i],
			MountAngle: radians(mountAngleDeg[i]),
		}
	}
	return g, nil
}

// DefaultGeometry returns the dimensions of the reference robot.
func DefaultGeometry() Geometry {
	g, err := NewGeometry(
		[NumLegs]float64{29.87, 55.41, 29.87, -29.87, -55.41, -29.87},
		[NumLegs]float64{55.41, 0, -55.41, -55.41, 0, 55.41},
		[NumLegs]float64{45, 0, -45, -135, 180, 135},
		20.75, 28.0, 42.6, 89.07,
	)
	if err != nil {
		panic(err)
	}
	return g
}

// Reach returns the inner and outer radius of the annulus, measured from the
// second joint, in which a foot target can be solved.
func (g Geometry) Reach() (inner, outer float64) {
	return math.Abs(g.Joint2ToJoint3 - g.Joint3ToTip), g.Joint2ToJoint3 + g.Joint3ToTip
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
