package robot

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/gwillem/hexapod/pkg/kinematics"
	"github.com/gwillem/hexapod/pkg/motion"
)

// Actuator drivers.
const (
	DriverSim     = "sim"
	DriverPCA9685 = "pca9685"
	DriverFeetech = "feetech"
)

// PCA9685 board names used in leg wiring.
const (
	BoardLeft  = "left"
	BoardRight = "right"
)

// geometryKeys must be present in every config file.
var geometryKeys = []string{
	"legMountX",
	"legMountY",
	"legMountAngle",
	"legRootToJoint1",
	"legJoint1ToJoint2",
	"legJoint2ToJoint3",
	"legJoint3ToTip",
}

// ConfigurationError reports a missing or invalid config file or value.
type ConfigurationError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Key == "" {
		return "configuration: " + msg
	}
	return fmt.Sprintf("configuration %s: %s", e.Key, msg)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Config holds the robot configuration
type Config struct {
	LegMountX         []float64 `json:"legMountX" mapstructure:"legMountX"`
	LegMountY         []float64 `json:"legMountY" mapstructure:"legMountY"`
	LegMountAngle     []float64 `json:"legMountAngle" mapstructure:"legMountAngle"`
	LegRootToJoint1   float64   `json:"legRootToJoint1" mapstructure:"legRootToJoint1"`
	LegJoint1ToJoint2 float64   `json:"legJoint1ToJoint2" mapstructure:"legJoint1ToJoint2"`
	LegJoint2ToJoint3 float64   `json:"legJoint2ToJoint3" mapstructure:"legJoint2ToJoint3"`
	LegJoint3ToTip    float64   `json:"legJoint3ToTip" mapstructure:"legJoint3ToTip"`

	TickInterval        string               `json:"tickInterval" mapstructure:"tickInterval"`
	Standby             motion.PostureAngles `json:"standby" mapstructure:"standby"`
	Laydown             motion.PostureAngles `json:"laydown" mapstructure:"laydown"`
	StandbyOnDisconnect bool                 `json:"standbyOnDisconnect" mapstructure:"standbyOnDisconnect"`
	LogLevel            string               `json:"logLevel" mapstructure:"logLevel"`

	TCP       TCPConfig       `json:"tcp" mapstructure:"tcp"`
	WebSocket WebSocketConfig `json:"websocket" mapstructure:"websocket"`
	Actuator  ActuatorConfig  `json:"actuator" mapstructure:"actuator"`
}

// TCPConfig holds the plain TCP listener settings.
type TCPConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// WebSocketConfig holds the WebSocket listener settings.
type WebSocketConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
	Path    string `json:"path" mapstructure:"path"`
}

// ActuatorConfig selects and configures the servo driver.
type ActuatorConfig struct {
	Driver  string        `json:"driver" mapstructure:"driver"`
	PCA9685 PCA9685Config `json:"pca9685" mapstructure:"pca9685"`
	Feetech FeetechConfig `json:"feetech" mapstructure:"feetech"`
	Legs    []LegWiring   `json:"legs,omitempty" mapstructure:"legs"`
}

// PCA9685Config holds the I2C PWM board settings. Pulses are in microseconds.
type PCA9685Config struct {
	Bus          string  `json:"bus" mapstructure:"bus"`
	RightAddress uint16  `json:"rightAddress" mapstructure:"rightAddress"`
	LeftAddress  uint16  `json:"leftAddress" mapstructure:"leftAddress"`
	Frequency    float64 `json:"frequency" mapstructure:"frequency"`
	MinPulse     float64 `json:"minPulse" mapstructure:"minPulse"`
	MaxPulse     float64 `json:"maxPulse" mapstructure:"maxPulse"`
}

// FeetechConfig holds the STS serial bus settings.
type FeetechConfig struct {
	Port     string `json:"port" mapstructure:"port"`
	BaudRate int    `json:"baudRate" mapstructure:"baudRate"`
}

// LegWiring describes how the hip, knee and ankle servos of one leg are
// connected and trimmed.
type LegWiring struct {
	Board      string    `json:"board" mapstructure:"board"`
	Channels   []int     `json:"channels" mapstructure:"channels"`
	IDs        []int     `json:"ids" mapstructure:"ids"`
	Correction []float64 `json:"correction" mapstructure:"correction"`
	Reversed   []bool    `json:"reversed" mapstructure:"reversed"`
}

// DefaultLegWiring returns the stock wiring: the right legs on the left
// board (0x41), the left legs on the right board (0x40).
func DefaultLegWiring() []LegWiring {
	wiring := []LegWiring{
		{Board: BoardLeft, Channels: []int{15, 14, 13}, Correction: []float64{4, 6, 2}},
		{Board: BoardLeft, Channels: []int{8, 4, 11}, Correction: []float64{0, 8, -6}},
		{Board: BoardLeft, Channels: []int{0, 1, 2}, Correction: []float64{2, 8, -1}},
		{Board: BoardRight, Channels: []int{15, 14, 13}, Correction: []float64{-3, 10, -8}},
		{Board: BoardRight, Channels: []int{7, 11, 6}, Correction: []float64{-6, 2, -4}},
		{Board: BoardRight, Channels: []int{0, 4, 5}, Correction: []float64{0, 0, -10}},
	}
	for i := range wiring {
		wiring[i].IDs = []int{i*NumJoints + 1, i*NumJoints + 2, i*NumJoints + 3}
		wiring[i].Reversed = []bool{false, false, false}
	}
	return wiring
}

// DefaultConfig returns a complete configuration for the stock robot.
func DefaultConfig() *Config {
	g := kinematics.DefaultGeometry()
	cfg := &Config{
		LegRootToJoint1:   g.RootToJoint1,
		LegJoint1ToJoint2: g.Joint1ToJoint2,
		LegJoint2ToJoint3: g.Joint2ToJoint3,
		LegJoint3ToTip:    g.Joint3ToTip,

		TickInterval:        "5ms",
		Standby:             motion.DefaultStandby,
		Laydown:             motion.DefaultLaydown,
		StandbyOnDisconnect: true,
		LogLevel:            "info",

		TCP:       TCPConfig{Enabled: true, Address: "0.0.0.0:1234"},
		WebSocket: WebSocketConfig{Address: ":8080", Path: "/ws"},
		Actuator: ActuatorConfig{
			Driver: DriverSim,
			PCA9685: PCA9685Config{
				RightAddress: 0x40,
				LeftAddress:  0x41,
				Frequency:    120,
				MinPulse:     750,
				MaxPulse:     2250,
			},
			Feetech: FeetechConfig{BaudRate: 1_000_000},
			Legs:    DefaultLegWiring(),
		},
	}
	for _, leg := range g.Legs {
		cfg.LegMountX = append(cfg.LegMountX, leg.MountX)
		cfg.LegMountY = append(cfg.LegMountY, leg.MountY)
		cfg.LegMountAngle = append(cfg.LegMountAngle, leg.MountAngle*180/math.Pi)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("tickInterval", d.TickInterval)
	v.SetDefault("standby.hipPitch", d.Standby.HipPitch)
	v.SetDefault("standby.knee", d.Standby.Knee)
	v.SetDefault("laydown.hipPitch", d.Laydown.HipPitch)
	v.SetDefault("laydown.knee", d.Laydown.Knee)
	v.SetDefault("standbyOnDisconnect", d.StandbyOnDisconnect)
	v.SetDefault("logLevel", d.LogLevel)

	v.SetDefault("tcp.enabled", d.TCP.Enabled)
	v.SetDefault("tcp.address", d.TCP.Address)

	v.SetDefault("websocket.enabled", d.WebSocket.Enabled)
	v.SetDefault("websocket.address", d.WebSocket.Address)
	v.SetDefault("websocket.path", d.WebSocket.Path)

	v.SetDefault("actuator.driver", d.Actuator.Driver)
	v.SetDefault("actuator.pca9685.bus", d.Actuator.PCA9685.Bus)
	v.SetDefault("actuator.pca9685.rightAddress", d.Actuator.PCA9685.RightAddress)
	v.SetDefault("actuator.pca9685.leftAddress", d.Actuator.PCA9685.LeftAddress)
	v.SetDefault("actuator.pca9685.frequency", d.Actuator.PCA9685.Frequency)
	v.SetDefault("actuator.pca9685.minPulse", d.Actuator.PCA9685.MinPulse)
	v.SetDefault("actuator.pca9685.maxPulse", d.Actuator.PCA9685.MaxPulse)
	v.SetDefault("actuator.feetech.port", d.Actuator.Feetech.Port)
	v.SetDefault("actuator.feetech.baudRate", d.Actuator.Feetech.BaudRate)
}

// LoadConfigFrom loads configuration from a specific file. Geometry keys are
// required; everything else falls back to defaults. Values may be overridden
// by HEXAPOD_* environment variables (HEXAPOD_TCP_ADDRESS for tcp.address).
func LoadConfigFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("hexapod")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, &ConfigurationError{Reason: "read " + path, Err: err}
	}

	for _, key := range geometryKeys {
		if !v.IsSet(key) {
			return nil, &ConfigurationError{Key: key, Reason: "missing"}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigurationError{Reason: "decode " + path, Err: err}
	}
	if len(cfg.Actuator.Legs) == 0 {
		cfg.Actuator.Legs = DefaultLegWiring()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the robot cannot run with.
func (c *Config) Validate() error {
	for key, arr := range map[string][]float64{
		"legMountX":     c.LegMountX,
		"legMountY":     c.LegMountY,
		"legMountAngle": c.LegMountAngle,
	} {
		if len(arr) != kinematics.NumLegs {
			return &ConfigurationError{Key: key, Reason: fmt.Sprintf("expected %d elements, got %d", kinematics.NumLegs, len(arr))}
		}
	}
	if _, err := c.Geometry(); err != nil {
		return err
	}
	if _, err := c.Tick(); err != nil {
		return err
	}

	switch c.Actuator.Driver {
	case DriverSim, DriverPCA9685, DriverFeetech:
	default:
		return &ConfigurationError{Key: "actuator.driver", Reason: fmt.Sprintf("unknown driver %q", c.Actuator.Driver)}
	}
	if c.Actuator.Driver == DriverPCA9685 {
		p := c.Actuator.PCA9685
		if p.Frequency <= 0 {
			return &ConfigurationError{Key: "actuator.pca9685.frequency", Reason: "must be positive"}
		}
		if p.MinPulse <= 0 || p.MaxPulse <= p.MinPulse {
			return &ConfigurationError{Key: "actuator.pca9685.minPulse", Reason: "pulse range must be positive and increasing"}
		}
	}
	if _, err := c.Calibration(); err != nil {
		return err
	}

	if !c.TCP.Enabled && !c.WebSocket.Enabled {
		return &ConfigurationError{Key: "tcp.enabled", Reason: "no transport enabled"}
	}
	return nil
}

// Geometry builds the leg geometry from the configured dimensions.
func (c *Config) Geometry() (kinematics.Geometry, error) {
	var mx, my, ma [kinematics.NumLegs]float64
	if len(c.LegMountX) != kinematics.NumLegs || len(c.LegMountY) != kinematics.NumLegs || len(c.LegMountAngle) != kinematics.NumLegs {
		return kinematics.Geometry{}, &ConfigurationError{Key: "legMountX", Reason: "mount arrays must have one entry per leg"}
	}
	for _, l := range []struct {
		key string
		v   float64
	}{
		{"legRootToJoint1", c.LegRootToJoint1},
		{"legJoint1ToJoint2", c.LegJoint1ToJoint2},
		{"legJoint2ToJoint3", c.LegJoint2ToJoint3},
		{"legJoint3ToTip", c.LegJoint3ToTip},
	} {
		if !(l.v > 0) {
			return kinematics.Geometry{}, &ConfigurationError{Key: l.key, Reason: fmt.Sprintf("length %v must be positive", l.v)}
		}
	}
	copy(mx[:], c.LegMountX)
	copy(my[:], c.LegMountY)
	copy(ma[:], c.LegMountAngle)

	g, err := kinematics.NewGeometry(mx, my, ma,
		c.LegRootToJoint1, c.LegJoint1ToJoint2, c.LegJoint2ToJoint3, c.LegJoint3ToTip)
	if err != nil {
		return kinematics.Geometry{}, &ConfigurationError{Reason: "geometry", Err: err}
	}
	return g, nil
}

// Tick returns the parsed control loop interval.
func (c *Config) Tick() (time.Duration, error) {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		return 0, &ConfigurationError{Key: "tickInterval", Reason: err.Error()}
	}
	if d <= 0 {
		return 0, &ConfigurationError{Key: "tickInterval", Reason: "must be positive"}
	}
	return d, nil
}

// Calibration assembles the per-joint servo calibration from the leg wiring.
func (c *Config) Calibration() (Calibration, error) {
	var cal Calibration
	if len(c.Actuator.Legs) != kinematics.NumLegs {
		return cal, &ConfigurationError{Key: "actuator.legs", Reason: fmt.Sprintf("expected %d legs, got %d", kinematics.NumLegs, len(c.Actuator.Legs))}
	}
	for i, w := range c.Actuator.Legs {
		key := fmt.Sprintf("actuator.legs.%d", i)
		if w.Board != BoardLeft && w.Board != BoardRight {
			return cal, &ConfigurationError{Key: key + ".board", Reason: fmt.Sprintf("unknown board %q", w.Board)}
		}
		if len(w.Channels) != NumJoints || len(w.IDs) != NumJoints {
			return cal, &ConfigurationError{Key: key, Reason: "channels and ids need one entry per joint"}
		}
		if len(w.Correction) != 0 && len(w.Correction) != NumJoints {
			return cal, &ConfigurationError{Key: key + ".correction", Reason: "need one entry per joint"}
		}
		if len(w.Reversed) != 0 && len(w.Reversed) != NumJoints {
			return cal, &ConfigurationError{Key: key + ".reversed", Reason: "need one entry per joint"}
		}

		cal[i].Board = w.Board
		for j := 0; j < NumJoints; j++ {
			if w.Channels[j] < 0 || w.Channels[j] > 15 {
				return cal, &ConfigurationError{Key: key + ".channels", Reason: fmt.Sprintf("channel %d out of range", w.Channels[j])}
			}
			jc := JointCalibration{Channel: w.Channels[j], ID: w.IDs[j]}
			if len(w.Correction) > 0 {
				jc.Correction = w.Correction[j]
			}
			if len(w.Reversed) > 0 {
				jc.Reversed = w.Reversed[j]
			}
			cal[i].Joints[j] = jc
		}
	}
	return cal, nil
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the config file exists
func ConfigExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
