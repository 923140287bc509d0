package kinematics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeometry_Invalid(t *testing.T) {
	var zero [NumLegs]float64

	tests := []struct {
		name              string
		r1, r12, r23, r3t float64
	}{
		{"negative root", -1, 28, 42.6, 89.07},
		{"zero root", 0, 28, 42.6, 89.07},
		{"zero joint1 to joint2", 20.75, 0, 42.6, 89.07},
		{"zero joint2 to joint3", 20.75, 28, 0, 89.07},
		{"zero joint3 to tip", 20.75, 28, 42.6, 0},
		{"NaN", 20.75, math.NaN(), 42.6, 89.07},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGeometry(zero, zero, zero, tt.r1, tt.r12, tt.r23, tt.r3t)
			assert.ErrorIs(t, err, ErrInvalidGeometry)
		})
	}
}

func TestNewGeometry_ConvertsMountAngles(t *testing.T) {
	g, err := NewGeometry(
		[NumLegs]float64{1, 2, 3, 4, 5, 6},
		[NumLegs]float64{-1, -2, -3, -4, -5, -6},
		[NumLegs]float64{0, 90, 180, -90, 45, -45},
		1, 1, 10, 20,
	)
	require.NoError(t, err)

	assert.InDelta(t, math.Pi/2, g.Legs[1].MountAngle, 1e-12)
	assert.InDelta(t, -math.Pi/4, g.Legs[5].MountAngle, 1e-12)
	assert.Equal(t, 3.0, g.Legs[2].MountX)
	assert.Equal(t, -4.0, g.Legs[3].MountY)
}

func TestGeometry_Reach(t *testing.T) {
	g := DefaultGeometry()
	inner, outer := g.Reach()
	assert.InDelta(t, 46.47, inner, 1e-9)
	assert.InDelta(t, 131.67, outer, 1e-9)
}

func TestStandbyPose(t *testing.T) {
	g := DefaultGeometry()
	pose := StandbyPose(g, 60, 75)

	reach := g.RootToJoint1 + g.Joint1ToJoint2 + g.Joint2ToJoint3*math.Sin(math.Pi/3) + g.Joint3ToTip*math.Cos(75*math.Pi/180)
	wantZ := g.Joint2ToJoint3*0.5 - g.Joint3ToTip*math.Sin(75*math.Pi/180)

	// Leg 1 is mounted along +x, leg 4 along -x.
	assert.InDelta(t, g.Legs[1].MountX+reach, pose[1].X, 1e-9)
	assert.InDelta(t, 0, pose[1].Y, 1e-9)
	assert.InDelta(t, g.Legs[4].MountX-reach, pose[4].X, 1e-9)

	for leg, foot := range pose {
		assert.InDelta(t, wantZ, foot.Z, 1e-9, "leg %d", leg)
	}
}
