package kinematics

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

const tolerance = 1e-6

func TestSolve_StandbyRoundTrip(t *testing.T) {
	g := DefaultGeometry()

	for _, hip := range []float64{0, 30, 45, 60} {
		for _, knee := range []float64{15, 45, 60, 75} {
			angles, err := Solve(g, StandbyPose(g, hip, knee))
			require.NoError(t, err, "hip=%v knee=%v", hip, knee)

			for leg, a := range angles {
				assert.InDelta(t, 90, a.Hip, tolerance, "leg %d hip (h=%v k=%v)", leg, hip, knee)
				assert.InDelta(t, hip, a.Knee, tolerance, "leg %d knee (h=%v k=%v)", leg, hip, knee)
				assert.InDelta(t, 90+hip-knee, a.Ankle, tolerance, "leg %d ankle (h=%v k=%v)", leg, hip, knee)
				// The knee input is recovered from the two outer joints.
				assert.InDelta(t, knee, 90+a.Knee-a.Ankle, tolerance, "leg %d recovered knee", leg)
			}
		}
	}
}

func TestSolve_NeverReturnsNaN(t *testing.T) {
	g := DefaultGeometry()
	pose := StandbyPose(g, 60, 75)
	pose[2] = r3.Vector{X: math.NaN(), Y: 0, Z: 0}
	pose[3] = r3.Vector{X: 1000, Y: 1000, Z: 1000}

	angles, err := Solve(g, pose)
	require.Error(t, err)

	for leg, a := range angles {
		assert.False(t, math.IsNaN(a.Hip) || math.IsNaN(a.Knee) || math.IsNaN(a.Ankle), "leg %d has NaN", leg)
	}
	assert.Len(t, multierr.Errors(err), 2)
}

// boundaryPose puts leg 1 (mounted along +x) at distance d from its second
// joint, level with the body, and every other leg at standby.
func boundaryPose(g Geometry, d float64) BodyPose {
	pose := StandbyPose(g, 60, 75)
	leg := g.Legs[1]
	pose[1] = r3.Vector{X: leg.MountX + g.RootToJoint1 + g.Joint1ToJoint2 + d}
	return pose
}

func TestSolve_ReachBoundary(t *testing.T) {
	g := DefaultGeometry()
	inner, outer := g.Reach()

	tests := []struct {
		name      string
		distance  float64
		wantKnee  float64
		wantAnkle float64
	}{
		{"outer edge", outer, 90, 180},
		{"inner edge", inner, -90, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			angles, err := Solve(g, boundaryPose(g, tt.distance))
			require.NoError(t, err)

			assert.InDelta(t, 90, angles[1].Hip, tolerance)
			assert.InDelta(t, tt.wantKnee, angles[1].Knee, 1e-4)
			assert.InDelta(t, tt.wantAnkle, angles[1].Ankle, 1e-4)
		})
	}
}

func TestSolve_BeyondReach(t *testing.T) {
	g := DefaultGeometry()
	inner, outer := g.Reach()

	for _, d := range []float64{outer + 0.01, inner - 0.01, outer * 2} {
		angles, err := Solve(g, boundaryPose(g, d))
		require.Error(t, err, "distance %v", d)

		var unreachable *UnreachableTargetError
		require.True(t, errors.As(err, &unreachable))
		assert.Equal(t, 1, unreachable.Leg)
		assert.Equal(t, inner, unreachable.Min)
		assert.Equal(t, outer, unreachable.Max)
		assert.Len(t, multierr.Errors(err), 1, "only leg 1 should fail")

		// Other legs are still solved.
		assert.InDelta(t, 60, angles[0].Knee, tolerance)
		assert.Equal(t, LegAngles{}, angles[1])
	}
}

func TestSolve_TargetAtSecondJoint(t *testing.T) {
	g := DefaultGeometry()

	_, err := Solve(g, boundaryPose(g, 0))

	var unreachable *UnreachableTargetError
	require.True(t, errors.As(err, &unreachable))
	assert.Equal(t, 1, unreachable.Leg)
	assert.InDelta(t, 0, unreachable.Distance, 1e-9)
}

func TestSolve_HipFollowsSidewaysTarget(t *testing.T) {
	g := DefaultGeometry()
	pose := StandbyPose(g, 60, 75)

	// Leg 1 points along +x; pulling its foot forward turns the hip past 90.
	pose[1] = pose[1].Add(r3.Vector{Y: 20})
	forward, err := Solve(g, pose)
	require.NoError(t, err)

	pose[1] = pose[1].Add(r3.Vector{Y: -40})
	backward, err := Solve(g, pose)
	require.NoError(t, err)

	assert.Greater(t, forward[1].Hip, 90.0)
	assert.Less(t, backward[1].Hip, 90.0)
	assert.InDelta(t, forward[1].Hip-90, 90-backward[1].Hip, tolerance)
}

func TestUnreachableTargetError_Message(t *testing.T) {
	err := &UnreachableTargetError{Leg: 4, Distance: 140.5, Min: 46.47, Max: 131.67}
	assert.Equal(t, "leg 4: target 140.50mm from joint2 is outside reach [46.47, 131.67]", err.Error())
}
