package actuator

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.uber.org/multierr"

	"github.com/gwillem/hexapod/pkg/kinematics"
	"github.com/gwillem/hexapod/pkg/robot"
)

// STS servos resolve one turn into 4096 steps; 90 degrees sits at mid travel.
const (
	stsSteps  = 4096
	stsCenter = 2048
)

// releaseTimeout bounds the torque release on Close.
const releaseTimeout = time.Second

// servoGroup is the part of *feetech.ServoGroup used per leg.
type servoGroup interface {
	EnableAll(ctx context.Context) error
	DisableAll(ctx context.Context) error
	SetPositions(ctx context.Context, positions feetech.PositionMap) error
}

// Feetech drives STS serial bus servos, one servo group per leg.
type Feetech struct {
	bus  io.Closer
	legs [kinematics.NumLegs]servoGroup
	cal  robot.Calibration
}

// OpenFeetech opens the serial bus and enables torque on every leg servo.
func OpenFeetech(ctx context.Context, cfg robot.FeetechConfig, cal robot.Calibration) (*Feetech, error) {
	baud := cfg.BaudRate
	if baud == 0 {
		baud = 1_000_000
	}

	// Open serial bus
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: baud,
		Protocol: feetech.ProtocolSTS,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	f := &Feetech{bus: bus, cal: cal}
	for leg, lc := range cal {
		ids := make([]int, 0, robot.NumJoints)
		for _, jc := range lc.Joints {
			ids = append(ids, jc.ID)
		}
		f.legs[leg] = feetech.NewServoGroupByIDs(bus, ids...)
	}

	if err := f.Enable(ctx); err != nil {
		return nil, multierr.Append(err, bus.Close())
	}
	return f, nil
}

// Enable enables torque on all servos.
func (f *Feetech) Enable(ctx context.Context) error {
	var err error
	for leg, group := range f.legs {
		if gerr := group.EnableAll(ctx); gerr != nil {
			err = multierr.Append(err, fmt.Errorf("enable leg %d: %w", leg, gerr))
		}
	}
	return err
}

// Disable disables torque on all servos.
func (f *Feetech) Disable(ctx context.Context) error {
	var err error
	for leg, group := range f.legs {
		if gerr := group.DisableAll(ctx); gerr != nil {
			err = multierr.Append(err, fmt.Errorf("disable leg %d: %w", leg, gerr))
		}
	}
	return err
}

// ApplyJointAngles writes the three servos of leg in one sync write.
func (f *Feetech) ApplyJointAngles(ctx context.Context, leg int, angles kinematics.LegAngles) error {
	if err := checkLeg(leg); err != nil {
		return err
	}
	lc := f.cal[leg]

	positions := make(feetech.PositionMap, robot.NumJoints)
	for j, deg := range jointAngles(angles) {
		jc := lc.Joints[j]
		positions[jc.ID] = RawPosition(jc.Apply(deg))
	}

	if err := f.legs[leg].SetPositions(ctx, positions); err != nil {
		return fmt.Errorf("write leg %d positions: %w", leg, err)
	}
	return nil
}

// Close releases torque on every servo and closes the bus.
func (f *Feetech) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	return multierr.Append(f.Disable(ctx), f.bus.Close())
}

// RawPosition converts a servo angle in degrees to an STS position step.
func RawPosition(angle float64) int {
	raw := math.Round(stsCenter + (angle-90)*stsSteps/360)
	return int(math.Max(0, math.Min(stsSteps-1, raw)))
}
