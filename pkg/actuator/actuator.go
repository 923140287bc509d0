// Package actuator drives the leg servos. Calibration (trim and mounting
// direction) is applied here so the rest of the robot works in solver angles.
package actuator

import (
	"context"
	"fmt"

	"github.com/gwillem/hexapod/pkg/kinematics"
	"github.com/gwillem/hexapod/pkg/robot"
)

// Sink receives joint angles for one leg at a time.
type Sink interface {
	ApplyJointAngles(ctx context.Context, leg int, angles kinematics.LegAngles) error
	Close() error
}

// Open creates the sink selected by cfg.Driver.
func Open(ctx context.Context, cfg robot.ActuatorConfig, cal robot.Calibration) (Sink, error) {
	switch cfg.Driver {
	case robot.DriverSim, "":
		return NewRecorder(), nil
	case robot.DriverPCA9685:
		p, err := OpenPCA9685(cfg.PCA9685, cal)
		if err != nil {
			return nil, err
		}
		return p, nil
	case robot.DriverFeetech:
		f, err := OpenFeetech(ctx, cfg.Feetech, cal)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return nil, fmt.Errorf("unknown actuator driver %q", cfg.Driver)
}

func checkLeg(leg int) error {
	if leg < 0 || leg >= kinematics.NumLegs {
		return fmt.Errorf("leg %d out of range", leg)
	}
	return nil
}

func jointAngles(a kinematics.LegAngles) [robot.NumJoints]float64 {
	return [robot.NumJoints]float64{a.Hip, a.Knee, a.Ankle}
}
