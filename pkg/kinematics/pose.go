package kinematics

import (
	"math"

	"github.com/golang/geo/r3"
)

// BodyPose holds one foot target per leg in the body frame.
type BodyPose [NumLegs]r3.Vector

// Translate returns the pose with every foot moved by v.
func (p BodyPose) Translate(v r3.Vector) BodyPose {
	var out BodyPose
	for i, foot := range p {
		out[i] = foot.Add(v)
	}
	return out
}

// LegAngles are the three joint angles of one leg in degrees.
type LegAngles struct {
	Hip   float64 // yaw joint
	Knee  float64
	Ankle float64
}

// JointAngles holds the angles of all six legs, indexed like Geometry.Legs.
type JointAngles [NumLegs]LegAngles

// StandbyPose places every foot straight out from its mount for the given
// second and third joint angles. It is the closed form used for resting
// postures, not general forward kinematics.
func StandbyPose(g Geometry, hipPitchDeg, kneeDeg float64) BodyPose {
	h := radians(hipPitchDeg)
	k := radians(kneeDeg)

	reach := g.RootToJoint1 + g.Joint1ToJoint2 +
		g.Joint2ToJoint3*math.Sin(h) + g.Joint3ToTip*math.Cos(k)
	z := g.Joint2ToJoint3*math.Cos(h) - g.Joint3ToTip*math.Sin(k)

	var pose BodyPose
	for i, leg := range g.Legs {
		pose[i] = r3.Vector{
			X: leg.MountX + reach*math.Cos(leg.MountAngle),
			Y: leg.MountY + reach*math.Sin(leg.MountAngle),
			Z: z,
		}
	}
	return pose
}
