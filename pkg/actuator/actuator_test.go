package actuator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/gwillem/hexapod/pkg/kinematics"
	"github.com/gwillem/hexapod/pkg/robot"
)

func pcaConfig() robot.PCA9685Config {
	return robot.PCA9685Config{
		RightAddress: 0x40,
		LeftAddress:  0x41,
		Frequency:    120,
		MinPulse:     750,
		MaxPulse:     2250,
	}
}

func defaultCalibration(t *testing.T) robot.Calibration {
	t.Helper()
	cal, err := robot.DefaultConfig().Calibration()
	require.NoError(t, err)
	return cal
}

func TestPrescale(t *testing.T) {
	assert.Equal(t, byte(50), Prescale(120))
	assert.Equal(t, byte(121), Prescale(50))
	assert.Equal(t, byte(3), Prescale(1600))
	assert.Equal(t, byte(255), Prescale(10))
}

func TestPCA9685_Init(t *testing.T) {
	rec := &i2ctest.Record{}
	_, err := NewPCA9685(rec, pcaConfig(), defaultCalibration(t))
	require.NoError(t, err)

	want := []i2ctest.IO{
		{Addr: 0x40, W: []byte{regMode1, 0x00}},
		{Addr: 0x40, W: []byte{regMode1, mode1Sleep}},
		{Addr: 0x40, W: []byte{regPrescale, 50}},
		{Addr: 0x40, W: []byte{regMode1, 0x00}},
		{Addr: 0x40, W: []byte{regMode1, mode1Restart | mode1AutoInc}},
		{Addr: 0x41, W: []byte{regMode1, 0x00}},
		{Addr: 0x41, W: []byte{regMode1, mode1Sleep}},
		{Addr: 0x41, W: []byte{regPrescale, 50}},
		{Addr: 0x41, W: []byte{regMode1, 0x00}},
		{Addr: 0x41, W: []byte{regMode1, mode1Restart | mode1AutoInc}},
	}
	require.Len(t, rec.Ops, len(want))
	for i := range want {
		assert.Equal(t, want[i].Addr, rec.Ops[i].Addr, "op %d", i)
		assert.Equal(t, want[i].W, rec.Ops[i].W, "op %d", i)
	}
}

func TestPCA9685_Ticks(t *testing.T) {
	p, err := NewPCA9685(&i2ctest.Record{}, pcaConfig(), robot.Calibration{})
	require.NoError(t, err)

	tests := []struct {
		angle float64
		want  uint16
	}{
		{0, 369},    // 750us
		{90, 737},   // 1500us
		{180, 1106}, // 2250us
		{-15, 369},  // clamped
		{200, 1106}, // clamped
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Ticks(tt.angle), "angle %v", tt.angle)
	}
}

func TestPCA9685_ApplyJointAngles(t *testing.T) {
	var cal robot.Calibration
	for i := range cal {
		cal[i].Board = robot.BoardRight
	}
	cal[0].Board = robot.BoardLeft
	cal[0].Joints = [robot.NumJoints]robot.JointCalibration{
		{Channel: 15},
		{Channel: 14, Correction: 90},
		{Channel: 13, Reversed: true},
	}

	rec := &i2ctest.Record{}
	p, err := NewPCA9685(rec, pcaConfig(), cal)
	require.NoError(t, err)
	rec.Ops = nil

	require.NoError(t, p.ApplyJointAngles(context.Background(), 0, kinematics.LegAngles{Hip: 90, Knee: 0, Ankle: 180}))

	// 90 -> 737 (0x02E1); knee 0+90 -> 737; ankle reversed 180 -> 0 -> 369 (0x0171).
	want := []i2ctest.IO{
		{Addr: 0x41, W: []byte{regLED0OnL + 4*15, 0, 0, 0xE1, 0x02}},
		{Addr: 0x41, W: []byte{regLED0OnL + 4*14, 0, 0, 0xE1, 0x02}},
		{Addr: 0x41, W: []byte{regLED0OnL + 4*13, 0, 0, 0x71, 0x01}},
	}
	require.Len(t, rec.Ops, len(want))
	for i := range want {
		assert.Equal(t, want[i].Addr, rec.Ops[i].Addr, "op %d", i)
		assert.Equal(t, want[i].W, rec.Ops[i].W, "op %d", i)
	}

	assert.Error(t, p.ApplyJointAngles(context.Background(), 6, kinematics.LegAngles{}))
	assert.NoError(t, p.Close())
}

func TestPCA9685_RejectsZeroFrequency(t *testing.T) {
	cfg := pcaConfig()
	cfg.Frequency = 0
	_, err := NewPCA9685(&i2ctest.Record{}, cfg, robot.Calibration{})
	assert.Error(t, err)
}

func TestRawPosition(t *testing.T) {
	tests := []struct {
		angle float64
		want  int
	}{
		{90, 2048},
		{0, 1024},
		{180, 3072},
		{45, 1536},
		{-400, 0},
		{600, 4095},
	}
	for _, tt := range tests {
		if got := RawPosition(tt.angle); got != tt.want {
			t.Errorf("RawPosition(%v) = %d, want %d", tt.angle, got, tt.want)
		}
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	a := kinematics.LegAngles{Hip: 90, Knee: 60, Ankle: 75}
	require.NoError(t, r.ApplyJointAngles(ctx, 5, a))
	require.NoError(t, r.ApplyJointAngles(ctx, 0, a))
	assert.Equal(t, a, r.Last(5))
	assert.Equal(t, 1, r.Writes(0))
	assert.Equal(t, 0, r.Writes(1))
	assert.Equal(t, []int{5, 0}, r.Order())

	boom := errors.New("servo stalled")
	r.FailLeg(1, boom)
	assert.ErrorIs(t, r.ApplyJointAngles(ctx, 1, a), boom)
	assert.Equal(t, 0, r.Writes(1))
	r.FailLeg(1, nil)
	assert.NoError(t, r.ApplyJointAngles(ctx, 1, a))

	assert.Error(t, r.ApplyJointAngles(ctx, -1, a))

	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.ApplyJointAngles(ctx, 0, a), ErrClosed)
}

func TestRecorder_OrderIsBounded(t *testing.T) {
	r := NewRecorder()
	for i := 0; i < 100; i++ {
		require.NoError(t, r.ApplyJointAngles(context.Background(), i%kinematics.NumLegs, kinematics.LegAngles{}))
	}
	order := r.Order()
	assert.Len(t, order, orderLogSize)
	assert.Equal(t, 99%kinematics.NumLegs, order[len(order)-1])
}

func TestOpen(t *testing.T) {
	sink, err := Open(context.Background(), robot.ActuatorConfig{Driver: robot.DriverSim}, robot.Calibration{})
	require.NoError(t, err)
	assert.IsType(t, &Recorder{}, sink)

	_, err = Open(context.Background(), robot.ActuatorConfig{Driver: "stepper"}, robot.Calibration{})
	assert.Error(t, err)
}
