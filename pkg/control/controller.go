// Package control runs the motion scheduler: a fixed-rate loop that takes
// commands from the queue, steps the active motion and drives the legs.
package control

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/multierr"

	"github.com/gwillem/hexapod/pkg/actuator"
	"github.com/gwillem/hexapod/pkg/kinematics"
	"github.com/gwillem/hexapod/pkg/logging"
	"github.com/gwillem/hexapod/pkg/motion"
)

// DefaultTick is the control loop period.
const DefaultTick = 5 * time.Millisecond

// dispatchOrder writes opposite legs back to back, front to rear.
var dispatchOrder = [kinematics.NumLegs]int{0, 5, 1, 4, 2, 3}

// Source supplies command tokens without blocking. *command.Queue implements
// it.
type Source interface {
	TryPop() (string, bool)
	Len() int
}

// RunState is what the robot is currently doing: a held posture, or a motion
// and the index of the frame the next tick will play.
type RunState struct {
	Token      string
	Descriptor motion.Descriptor
	Index      int
}

// State is a snapshot published after every tick.
type State struct {
	Token string
	Kind  motion.Kind
	// Frame is the frame index played this tick.
	Frame int
	// Angles holds the angles last written to each leg. Held legs keep
	// their previous angles.
	Angles    kinematics.JointAngles
	Held      [kinematics.NumLegs]bool
	Timestamp time.Time
	Error     error
}

// Config holds configuration for the controller.
type Config struct {
	Geometry kinematics.Geometry
	Catalog  *motion.Catalog
	Queue    Source
	Sink     actuator.Sink
	Tick     time.Duration
	Logger   zerolog.Logger
}

// Controller manages the motion control loop.
type Controller struct {
	geometry kinematics.Geometry
	catalog  *motion.Catalog
	queue    Source
	sink     actuator.Sink
	tick     time.Duration

	log     zerolog.Logger
	sampled zerolog.Logger

	mu      sync.RWMutex
	run     RunState
	last    kinematics.JointAngles
	running bool
	stateCh chan State

	ticks        metric.Int64Counter
	commands     metric.Int64Counter
	unreachable  metric.Int64Counter
	sinkErrors   metric.Int64Counter
	tickDuration metric.Float64Histogram
	queueDepth   metric.Int64ObservableGauge
}

// NewController creates a controller holding the standby posture.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Catalog == nil || cfg.Queue == nil || cfg.Sink == nil {
		return nil, errors.New("controller needs a catalog, a queue and a sink")
	}
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}

	log := cfg.Logger.With().Str("component", "controller").Logger()
	c := &Controller{
		geometry: cfg.Geometry,
		catalog:  cfg.Catalog,
		queue:    cfg.Queue,
		sink:     cfg.Sink,
		tick:     cfg.Tick,
		log:      log,
		sampled:  logging.Sampled(log),
		run:      RunState{Token: motion.CmdStandby, Descriptor: cfg.Catalog.Standby()},
		stateCh:  make(chan State, 1),
	}

	// Get meter from global OTel provider (returns no-op if not configured)
	m := meter()

	var err error

	c.ticks, err = m.Int64Counter(
		"hexapod.control.ticks",
		metric.WithDescription("Control loop iterations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	c.commands, err = m.Int64Counter(
		"hexapod.control.commands",
		metric.WithDescription("Commands taken from the queue and applied"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating commands counter: %w", err)
	}

	c.unreachable, err = m.Int64Counter(
		"hexapod.control.unreachable",
		metric.WithDescription("Leg targets outside reach, held at their previous angles"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating unreachable counter: %w", err)
	}

	c.sinkErrors, err = m.Int64Counter(
		"hexapod.control.actuator_errors",
		metric.WithDescription("Failed leg writes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating actuator error counter: %w", err)
	}

	c.tickDuration, err = m.Float64Histogram(
		"hexapod.control.tick_duration",
		metric.WithDescription("Time spent in one control loop iteration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick duration histogram: %w", err)
	}

	c.queueDepth, err = m.Int64ObservableGauge(
		"hexapod.control.queue_depth",
		metric.WithDescription("Commands waiting in the queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue depth gauge: %w", err)
	}

	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(c.queueDepth, int64(c.queue.Len()))
			return nil
		},
		c.queueDepth,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue depth callback: %w", err)
	}

	return c, nil
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Tick returns the control loop period.
func (c *Controller) Tick() time.Duration {
	return c.tick
}

// RunState returns a copy of the current run state.
func (c *Controller) RunState() RunState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.run
}

// Standby writes the standby posture once, outside the loop.
func (c *Controller) Standby(ctx context.Context) error {
	_, err := c.apply(ctx, c.catalog.Standby().Frame(0))
	return err
}

// Start runs the control loop until ctx is cancelled.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	c.log.Info().Dur("tick", c.tick).Str("token", c.RunState().Token).Msg("control loop started")

	// Control loop
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return ctx.Err()
		case <-ticker.C:
			c.step(ctx)
		}
	}
}

// step runs one tick: take at most one command, play one frame.
func (c *Controller) step(ctx context.Context) {
	start := time.Now()

	if token, ok := c.queue.TryPop(); ok {
		c.accept(ctx, token)
	}

	c.mu.Lock()
	run := c.run
	frame := run.Index
	pose := run.Descriptor.Frame(frame)
	if run.Descriptor.Kind == motion.KindMotion {
		c.run.Index = (frame + 1) % run.Descriptor.Len()
	}
	c.mu.Unlock()

	held, err := c.apply(ctx, pose)
	if err != nil {
		c.sampled.Warn().Err(err).Str("token", run.Token).Int("frame", frame).Msg("tick incomplete")
	}

	c.ticks.Add(ctx, 1)
	c.tickDuration.Record(ctx, float64(time.Since(start))/float64(time.Millisecond))

	c.mu.RLock()
	angles := c.last
	c.mu.RUnlock()

	c.sendState(State{
		Token:     run.Token,
		Kind:      run.Descriptor.Kind,
		Frame:     frame,
		Angles:    angles,
		Held:      held,
		Timestamp: time.Now(),
		Error:     err,
	})
}

// accept replaces the run state with the descriptor for token. Unknown
// tokens fall back to standby.
func (c *Controller) accept(ctx context.Context, token string) {
	d, ok := c.catalog.Resolve(token)
	if !ok {
		c.log.Warn().Str("token", token).Msg("unknown command, falling back to standby")
		token = motion.CmdStandby
	}

	c.mu.Lock()
	c.run = RunState{Token: token, Descriptor: d}
	c.mu.Unlock()

	c.commands.Add(ctx, 1, metric.WithAttributes(attribute.String("token", token)))
	c.log.Info().Str("token", token).Stringer("kind", d.Kind).Int("frames", d.Len()).Msg("command applied")
}

// apply solves pose and writes every reachable leg in dispatch order.
// Unreachable legs are not written and keep their previous angles.
func (c *Controller) apply(ctx context.Context, pose kinematics.BodyPose) ([kinematics.NumLegs]bool, error) {
	var held [kinematics.NumLegs]bool

	angles, solveErr := kinematics.Solve(c.geometry, pose)
	for _, err := range multierr.Errors(solveErr) {
		var ute *kinematics.UnreachableTargetError
		if errors.As(err, &ute) {
			held[ute.Leg] = true
			c.unreachable.Add(ctx, 1, metric.WithAttributes(attribute.Int("leg", ute.Leg)))
		}
	}

	var sinkErr error
	for _, leg := range dispatchOrder {
		if held[leg] {
			continue
		}
		if err := c.sink.ApplyJointAngles(ctx, leg, angles[leg]); err != nil {
			c.sinkErrors.Add(ctx, 1, metric.WithAttributes(attribute.Int("leg", leg)))
			sinkErr = multierr.Append(sinkErr, fmt.Errorf("apply leg %d: %w", leg, err))
			continue
		}
		c.mu.Lock()
		c.last[leg] = angles[leg]
		c.mu.Unlock()
	}

	return held, multierr.Combine(solveErr, sinkErr)
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	if err := c.Standby(context.Background()); err != nil {
		c.log.Warn().Err(err).Msg("failed to return to standby")
	} else {
		c.log.Info().Msg("returned to standby")
	}
	c.log.Info().Msg("control loop stopped")
}
