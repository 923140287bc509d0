package gait

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/hexapod/pkg/kinematics"
)

func standby() kinematics.BodyPose {
	return kinematics.StandbyPose(kinematics.DefaultGeometry(), 60, 75)
}

func generators() map[string]func() []kinematics.BodyPose {
	s := standby()
	return map[string]func() []kinematics.BodyPose{
		"walk0":        func() []kinematics.BodyPose { return Walk(s, 0) },
		"walk135":      func() []kinematics.BodyPose { return Walk(s, 135) },
		"fastforward":  func() []kinematics.BodyPose { return FastWalk(s, false) },
		"fastbackward": func() []kinematics.BodyPose { return FastWalk(s, true) },
		"climb":        func() []kinematics.BodyPose { return Climb(s, false) },
		"turnleft":     func() []kinematics.BodyPose { return Turn(s, true) },
		"turnright":    func() []kinematics.BodyPose { return Turn(s, false) },
		"rotatex":      func() []kinematics.BodyPose { return RotateX(s) },
		"rotatey":      func() []kinematics.BodyPose { return RotateY(s) },
		"rotatez":      func() []kinematics.BodyPose { return RotateZ(s) },
		"twist":        func() []kinematics.BodyPose { return Twist(s) },
	}
}

// maxStep returns the largest distance any foot moves between frames a and b.
func maxStep(a, b kinematics.BodyPose) float64 {
	var m float64
	for leg := range a {
		m = math.Max(m, a[leg].Distance(b[leg]))
	}
	return m
}

func TestGenerators_ClosedCycle(t *testing.T) {
	for name, gen := range generators() {
		t.Run(name, func(t *testing.T) {
			frames := gen()
			require.NotEmpty(t, frames)

			var largest float64
			for k := 0; k+1 < len(frames); k++ {
				largest = math.Max(largest, maxStep(frames[k], frames[k+1]))
			}
			wrap := maxStep(frames[len(frames)-1], frames[0])

			assert.LessOrEqual(t, wrap, largest+1e-6, "looping the cycle must not jump")
		})
	}
}

func TestGenerators_Deterministic(t *testing.T) {
	for name, gen := range generators() {
		assert.Equal(t, gen(), gen(), name)
	}
}

func TestTripod_PlantedFeetStayOnGround(t *testing.T) {
	s := standby()
	frames := Walk(s, 0)
	half := len(frames) / 2

	for k, frame := range frames {
		for leg, foot := range frame {
			planted := swingsFirst[leg] != (k < half)
			if planted {
				assert.InDelta(t, s[leg].Z, foot.Z, 1e-9, "frame %d leg %d", k, leg)
			} else {
				assert.GreaterOrEqual(t, foot.Z, s[leg].Z-1e-9, "frame %d leg %d", k, leg)
			}
		}
	}
}

func TestTripod_Direction(t *testing.T) {
	s := standby()

	tests := []struct {
		direction float64
		want      r3.Vector
	}{
		{0, r3.Vector{Y: 1}},
		{90, r3.Vector{X: -1}},
		{180, r3.Vector{Y: -1}},
		{270, r3.Vector{X: 1}},
	}

	for _, tt := range tests {
		frames := Walk(s, tt.direction)
		// Leg 0 swings during the first half, from -stride/2 to just short of
		// +stride/2 along the heading.
		last := frames[len(frames)/2-1][0].Sub(s[0])
		last.Z = 0
		assert.InDelta(t, 1, last.Normalize().Dot(tt.want), 1e-9, "direction %v", tt.direction)
	}
}

func TestTripod_InvalidParams(t *testing.T) {
	for _, frames := range []int{0, 1, 7} {
		_, err := Tripod(standby(), Params{Frames: frames, Stride: 10})
		assert.ErrorIs(t, err, ErrInvalidParams, "frames=%d", frames)
	}
}

func TestFastWalk_ReverseMirrorsForward(t *testing.T) {
	s := standby()
	fwd := FastWalk(s, false)
	rev := FastWalk(s, true)
	require.Len(t, rev, len(fwd))

	for k := range fwd {
		for leg := range fwd[k] {
			d1 := fwd[k][leg].Sub(s[leg])
			d2 := rev[k][leg].Sub(s[leg])
			assert.InDelta(t, -d1.Y, d2.Y, 1e-9)
			assert.InDelta(t, d1.Z, d2.Z, 1e-9)
		}
	}
}

func TestSway_KeepsFootDistanceFromCentre(t *testing.T) {
	s := standby()
	for _, frames := range [][]kinematics.BodyPose{RotateX(s), RotateY(s), RotateZ(s), Twist(s)} {
		for _, frame := range frames {
			for leg, foot := range frame {
				assert.InDelta(t, s[leg].Norm(), foot.Norm(), 1e-9)
			}
		}
	}
}

func TestRotate(t *testing.T) {
	v := rotate(r3.Vector{X: 1}, r3.Vector{Z: 1}, math.Pi/2)
	assert.InDelta(t, 0, v.X, 1e-12)
	assert.InDelta(t, 1, v.Y, 1e-12)
	assert.InDelta(t, 0, v.Z, 1e-12)
}
