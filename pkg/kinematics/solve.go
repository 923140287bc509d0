package kinematics

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
)

// cosTolerance absorbs rounding when a target sits exactly on the edge of the
// reach annulus.
const cosTolerance = 1e-9

// UnreachableTargetError reports a foot target outside a leg's reach annulus.
type UnreachableTargetError struct {
	Leg      int
	Distance float64 // from the second joint, mm
	Min      float64
	Max      float64
}

func (e *UnreachableTargetError) Error() string {
	return fmt.Sprintf("leg %d: target %.2fmm from joint2 is outside reach [%.2f, %.2f]",
		e.Leg, e.Distance, e.Min, e.Max)
}

// Solve computes joint angles for every leg of pose. Legs are solved
// independently: the returned angles are valid for every leg that is not
// named by an *UnreachableTargetError in the returned error, and zero for
// those that are. Use multierr.Errors to inspect individual failures.
func Solve(g Geometry, pose BodyPose) (JointAngles, error) {
	var (
		angles JointAngles
		errs   error
	)
	for i, target := range pose {
		a, err := solveLeg(g, i, target)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		angles[i] = a
	}
	return angles, errs
}

func solveLeg(g Geometry, leg int, target r3.Vector) (LegAngles, error) {
	mount := g.Legs[leg]

	// Into the leg frame. y is mirrored relative to a plain rotation so that
	// a positive hip angle swings the leg the same way on both sides.
	d := target.Sub(mount.Mount())
	sin, cos := math.Sincos(mount.MountAngle)
	x := d.X*cos + d.Y*sin - g.RootToJoint1
	y := d.X*sin - d.Y*cos

	hip := -degrees(math.Atan2(y, x)) + 90

	// Remaining planar two-link problem, origin at the second joint.
	px := math.Hypot(x, y) - g.Joint1ToJoint2
	py := d.Z
	lr := math.Hypot(px, py)

	inner, outer := g.Reach()
	if lr == 0 || math.IsNaN(lr) || math.IsInf(lr, 0) {
		return LegAngles{}, &UnreachableTargetError{Leg: leg, Distance: lr, Min: inner, Max: outer}
	}

	l2, l3 := g.Joint2ToJoint3, g.Joint3ToTip
	c1, ok1 := clampCos((lr*lr + l2*l2 - l3*l3) / (2 * l2 * lr))
	c2, ok2 := clampCos((lr*lr - l2*l2 + l3*l3) / (2 * l3 * lr))
	if !ok1 || !ok2 {
		return LegAngles{}, &UnreachableTargetError{Leg: leg, Distance: lr, Min: inner, Max: outer}
	}

	a1 := math.Acos(c1) // opposite joint3 to tip
	a2 := math.Acos(c2) // opposite joint2 to joint3
	ar := math.Atan2(py, px)

	return LegAngles{
		Hip:   hip,
		Knee:  90 - degrees(ar+a1),
		Ankle: 90 - degrees(a1+a2) + 90,
	}, nil
}

// clampCos pulls v into [-1, 1] when it is within cosTolerance of the range
// and reports whether it was usable.
func clampCos(v float64) (float64, bool) {
	switch {
	case math.IsNaN(v):
		return 0, false
	case v > 1+cosTolerance || v < -1-cosTolerance:
		return 0, false
	case v > 1:
		return 1, true
	case v < -1:
		return -1, true
	}
	return v, true
}
