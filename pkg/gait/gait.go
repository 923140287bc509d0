// Package gait generates the cyclic foot trajectories the controller loops.
//
// Every generator takes the standby pose and returns one closed cycle: the
// frame after the last one is the first one again, so a cycle can be
// repeated indefinitely without a jump.
package gait

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"github.com/gwillem/hexapod/pkg/kinematics"
)

// Params controls a tripod gait.
type Params struct {
	Direction float64 // degrees counter-clockwise from forward
	Frames    int     // frames per full cycle, must be even
	Stride    float64 // mm each foot travels per step
	Lift      float64 // mm a swinging foot rises
}

// Default parameters for the translating gaits.
var (
	WalkParams     = Params{Frames: 120, Stride: 50, Lift: 30}
	FastWalkParams = Params{Frames: 60, Stride: 80, Lift: 30}
	ClimbParams    = Params{Frames: 160, Stride: 40, Lift: 45}
)

const (
	turnFrames  = 120
	turnAngle   = 20 // degrees of body yaw per cycle
	turnLift    = 30
	swayFrames  = 200
	swayTilt    = 12 // degrees, rotate x and y
	swayYaw     = 15 // degrees, rotate z
	twistFrames = 240
	twistTilt   = 10
)

// ErrInvalidParams is returned for gait parameters that cannot form a cycle.
var ErrInvalidParams = errors.New("invalid gait parameters")

// swingsFirst marks the tripod that lifts during the first half of a cycle:
// front right, rear right... alternating around the body.
var swingsFirst = [kinematics.NumLegs]bool{true, false, true, false, true, false}

// Tripod builds a translating tripod gait.
func Tripod(standby kinematics.BodyPose, p Params) ([]kinematics.BodyPose, error) {
	if p.Frames < 2 || p.Frames%2 != 0 {
		return nil, fmt.Errorf("%w: frames must be even and at least 2, got %d", ErrInvalidParams, p.Frames)
	}
	dir := heading(p.Direction)
	return tripod(standby, p.Frames, p.Lift, func(foot r3.Vector, s float64) r3.Vector {
		return foot.Add(dir.Mul(p.Stride * s))
	}), nil
}

// Walk is the regular tripod walk in the given direction.
func Walk(standby kinematics.BodyPose, direction float64) []kinematics.BodyPose {
	p := WalkParams
	p.Direction = direction
	return mustTripod(standby, p)
}

// FastWalk walks forward, or backward when reverse is set, with a longer stride.
func FastWalk(standby kinematics.BodyPose, reverse bool) []kinematics.BodyPose {
	p := FastWalkParams
	if reverse {
		p.Direction = 180
	}
	return mustTripod(standby, p)
}

// Climb takes short, high steps forward, or backward when reverse is set.
func Climb(standby kinematics.BodyPose, reverse bool) []kinematics.BodyPose {
	p := ClimbParams
	if reverse {
		p.Direction = 180
	}
	return mustTripod(standby, p)
}

// Turn rotates the body on the spot.
func Turn(standby kinematics.BodyPose, left bool) []kinematics.BodyPose {
	angle := radians(turnAngle)
	if !left {
		angle = -angle
	}
	return tripod(standby, turnFrames, turnLift, func(foot r3.Vector, s float64) r3.Vector {
		return rotate(foot, r3.Vector{Z: 1}, angle*s)
	})
}

// RotateX pitches the body back and forth with all feet planted.
func RotateX(standby kinematics.BodyPose) []kinematics.BodyPose {
	return sway(standby, r3.Vector{X: 1}, swayTilt)
}

// RotateY rolls the body from side to side.
func RotateY(standby kinematics.BodyPose) []kinematics.BodyPose {
	return sway(standby, r3.Vector{Y: 1}, swayTilt)
}

// RotateZ yaws the body left and right.
func RotateZ(standby kinematics.BodyPose) []kinematics.BodyPose {
	return sway(standby, r3.Vector{Z: 1}, swayYaw)
}

// Twist tilts the body by a fixed angle while the tilt axis sweeps a full
// circle, so the body top traces a cone.
func Twist(standby kinematics.BodyPose) []kinematics.BodyPose {
	tilt := radians(twistTilt)
	frames := make([]kinematics.BodyPose, twistFrames)
	for k := range frames {
		phase := 2 * math.Pi * float64(k) / twistFrames
		axis := r3.Vector{X: math.Cos(phase), Y: math.Sin(phase)}
		for leg, foot := range standby {
			frames[k][leg] = rotate(foot, axis, tilt)
		}
	}
	return frames
}

// tripod alternates the two tripods between swing and stance. place maps a
// standby foot and a stroke position s in [-0.5, 0.5] to a target: swinging
// feet travel from -0.5 to 0.5 in the air, planted feet from 0.5 to -0.5.
func tripod(standby kinematics.BodyPose, n int, lift float64, place func(r3.Vector, float64) r3.Vector) []kinematics.BodyPose {
	half := n / 2
	frames := make([]kinematics.BodyPose, n)
	for k := range frames {
		t := float64(k%half) / float64(half)
		firstHalf := k < half
		for leg, foot := range standby {
			if swingsFirst[leg] == firstHalf {
				p := place(foot, t-0.5)
				p.Z += lift * math.Sin(math.Pi*t)
				frames[k][leg] = p
			} else {
				frames[k][leg] = place(foot, 0.5-t)
			}
		}
	}
	return frames
}

func sway(standby kinematics.BodyPose, axis r3.Vector, amplitudeDeg float64) []kinematics.BodyPose {
	amplitude := radians(amplitudeDeg)
	frames := make([]kinematics.BodyPose, swayFrames)
	for k := range frames {
		angle := amplitude * math.Sin(2*math.Pi*float64(k)/swayFrames)
		for leg, foot := range standby {
			frames[k][leg] = rotate(foot, axis, angle)
		}
	}
	return frames
}

func mustTripod(standby kinematics.BodyPose, p Params) []kinematics.BodyPose {
	frames, err := Tripod(standby, p)
	if err != nil {
		panic(err)
	}
	return frames
}

// heading is the unit vector for a direction in degrees counter-clockwise
// from forward (+y).
func heading(deg float64) r3.Vector {
	sin, cos := math.Sincos(radians(deg))
	return r3.Vector{X: -sin, Y: cos}
}

// rotate turns v about the unit vector axis by angle radians.
func rotate(v, axis r3.Vector, angle float64) r3.Vector {
	sin, cos := math.Sincos(angle)
	return v.Mul(cos).
		Add(axis.Cross(v).Mul(sin)).
		Add(axis.Mul(axis.Dot(v) * (1 - cos)))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
