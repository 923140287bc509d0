package actuator

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/gwillem/hexapod/pkg/kinematics"
	"github.com/gwillem/hexapod/pkg/robot"
)

// PCA9685 registers and MODE1 bits.
const (
	regMode1    = 0x00
	regLED0OnL  = 0x06
	regPrescale = 0xFE

	mode1AutoInc = 0x20
	mode1Sleep   = 0x10
	mode1Restart = 0x80

	oscillatorHz = 25_000_000
	pwmSteps     = 4096
)

// pcaBoard is one PCA9685 on the bus.
type pcaBoard struct {
	dev *i2c.Dev
}

func newPCABoard(bus i2c.Bus, addr uint16, prescale byte) (*pcaBoard, error) {
	b := &pcaBoard{dev: &i2c.Dev{Bus: bus, Addr: addr}}

	// Prescale can only be written while the oscillator sleeps.
	for _, w := range [][]byte{
		{regMode1, 0x00},
		{regMode1, mode1Sleep},
		{regPrescale, prescale},
		{regMode1, 0x00},
	} {
		if err := b.dev.Tx(w, nil); err != nil {
			return nil, fmt.Errorf("init pca9685 0x%02x: %w", addr, err)
		}
	}
	time.Sleep(500 * time.Microsecond)
	if err := b.dev.Tx([]byte{regMode1, mode1Restart | mode1AutoInc}, nil); err != nil {
		return nil, fmt.Errorf("start pca9685 0x%02x: %w", addr, err)
	}
	return b, nil
}

// setTicks sets the off-count of a channel; the on-count is always 0.
func (b *pcaBoard) setTicks(channel int, ticks uint16) error {
	reg := byte(regLED0OnL + 4*channel)
	return b.dev.Tx([]byte{reg, 0, 0, byte(ticks), byte(ticks >> 8)}, nil)
}

// PCA9685 drives hobby servos from two PCA9685 PWM boards on one I2C bus.
type PCA9685 struct {
	closer   i2c.BusCloser
	boards   map[string]*pcaBoard
	cal      robot.Calibration
	freq     float64
	minPulse float64
	maxPulse float64
}

// OpenPCA9685 initialises the host drivers, opens the configured I2C bus and
// sets up both boards.
func OpenPCA9685(cfg robot.PCA9685Config, cal robot.Calibration) (*PCA9685, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", cfg.Bus, err)
	}
	p, err := NewPCA9685(bus, cfg, cal)
	if err != nil {
		return nil, multierr.Append(err, bus.Close())
	}
	p.closer = bus
	return p, nil
}

// NewPCA9685 sets up both boards on an already open bus.
func NewPCA9685(bus i2c.Bus, cfg robot.PCA9685Config, cal robot.Calibration) (*PCA9685, error) {
	if cfg.Frequency <= 0 {
		return nil, fmt.Errorf("pca9685 frequency %v must be positive", cfg.Frequency)
	}
	prescale := Prescale(cfg.Frequency)

	p := &PCA9685{
		boards:   make(map[string]*pcaBoard, 2),
		cal:      cal,
		freq:     cfg.Frequency,
		minPulse: cfg.MinPulse,
		maxPulse: cfg.MaxPulse,
	}
	for _, b := range []struct {
		name string
		addr uint16
	}{
		{robot.BoardRight, cfg.RightAddress},
		{robot.BoardLeft, cfg.LeftAddress},
	} {
		board, err := newPCABoard(bus, b.addr, prescale)
		if err != nil {
			return nil, err
		}
		p.boards[b.name] = board
	}
	return p, nil
}

// Prescale returns the PRE_SCALE register value for a PWM frequency in Hz.
func Prescale(freq float64) byte {
	v := math.Round(oscillatorHz/(pwmSteps*freq)) - 1
	return byte(math.Max(3, math.Min(255, v)))
}

// Ticks converts a servo angle in degrees to a PWM off-count. The angle is
// mapped linearly from [0, 180] onto [minPulse, maxPulse] microseconds.
func (p *PCA9685) Ticks(angle float64) uint16 {
	angle = math.Max(robot.MinServoAngle, math.Min(robot.MaxServoAngle, angle))
	pulse := p.minPulse + (p.maxPulse-p.minPulse)*angle/robot.MaxServoAngle
	return uint16(math.Round(pulse * p.freq * pwmSteps / 1e6))
}

// ApplyJointAngles writes the three servos of leg.
func (p *PCA9685) ApplyJointAngles(ctx context.Context, leg int, angles kinematics.LegAngles) error {
	if err := checkLeg(leg); err != nil {
		return err
	}
	lc := p.cal[leg]
	board, ok := p.boards[lc.Board]
	if !ok {
		return fmt.Errorf("leg %d: unknown board %q", leg, lc.Board)
	}

	var err error
	for j, deg := range jointAngles(angles) {
		jc := lc.Joints[j]
		if werr := board.setTicks(jc.Channel, p.Ticks(jc.Apply(deg))); werr != nil {
			err = multierr.Append(err, fmt.Errorf("leg %d %s: %w", leg, robot.Joint(j), werr))
		}
	}
	return err
}

// Close releases the I2C bus when it was opened by OpenPCA9685.
func (p *PCA9685) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}
