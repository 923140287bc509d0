package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/gwillem/hexapod/pkg/actuator"
	"github.com/gwillem/hexapod/pkg/command"
	"github.com/gwillem/hexapod/pkg/control"
	"github.com/gwillem/hexapod/pkg/logging"
	"github.com/gwillem/hexapod/pkg/motion"
	"github.com/gwillem/hexapod/pkg/robot"
	"github.com/gwillem/hexapod/pkg/transport"
)

type RunCommand struct {
	Config  string `long:"config" short:"c" default:"hexapod.json" description:"Config file"`
	Monitor bool   `long:"monitor" short:"m" description:"Show live leg angles and logs in the terminal"`
}

func (c *RunCommand) Execute(args []string) error {
	// Load config
	if !robot.ConfigExists(c.Config) {
		fmt.Fprintf(os.Stderr, "No configuration found at %s. Run 'hexapod setup' first.\n", c.Config)
		os.Exit(1)
	}
	cfg, err := robot.LoadConfigFrom(c.Config)
	if err != nil {
		return err
	}

	var logs *logging.ChannelWriter
	var out io.Writer = os.Stderr
	if c.Monitor {
		logs = logging.NewChannelWriter(64)
		out = logs
	}
	log := logging.New(out, cfg.LogLevel)

	geometry, err := cfg.Geometry()
	if err != nil {
		return err
	}
	tick, err := cfg.Tick()
	if err != nil {
		return err
	}
	cal, err := cfg.Calibration()
	if err != nil {
		return err
	}
	catalog, err := motion.DefaultCatalog(geometry, cfg.Standby, cfg.Laydown)
	if err != nil {
		return fmt.Errorf("build motion catalog: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	sink, err := actuator.Open(ctx, cfg.Actuator, cal)
	if err != nil {
		return fmt.Errorf("open %s actuator: %w", cfg.Actuator.Driver, err)
	}

	queue := command.NewQueue()
	ctrl, err := control.NewController(control.Config{
		Geometry: geometry,
		Catalog:  catalog,
		Queue:    queue,
		Sink:     sink,
		Tick:     tick,
		Logger:   log,
	})
	if err != nil {
		return multierr.Append(fmt.Errorf("create controller: %w", err), sink.Close())
	}

	if err := ctrl.Standby(ctx); err != nil {
		log.Warn().Err(err).Msg("initial standby incomplete")
	}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return ignoreCanceled(ctrl.Start(gctx))
	})

	if cfg.TCP.Enabled {
		l := transport.NewTCPListener(transport.Config{
			Address:             cfg.TCP.Address,
			Queue:               queue,
			StandbyOnDisconnect: cfg.StandbyOnDisconnect,
			Logger:              log,
		})
		group.Go(func() error {
			return ignoreCanceled(l.Serve(gctx))
		})
	}

	if cfg.WebSocket.Enabled {
		l := transport.NewWebSocketListener(transport.Config{
			Address:             cfg.WebSocket.Address,
			Path:                cfg.WebSocket.Path,
			Queue:               queue,
			StandbyOnDisconnect: cfg.StandbyOnDisconnect,
			Logger:              log,
		})
		group.Go(func() error {
			return ignoreCanceled(l.Serve(gctx))
		})
	}

	if c.Monitor {
		group.Go(func() error {
			// Quitting the monitor stops everything else.
			defer cancel()
			return runMonitor(gctx, ctrl, queue, logs)
		})
	}

	log.Info().
		Str("config", c.Config).
		Str("driver", cfg.Actuator.Driver).
		Int("commands", len(catalog.Tokens())).
		Msg("hexapod running")

	err = group.Wait()
	if cerr := sink.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("close actuator: %w", cerr))
	}
	if err == nil {
		log.Info().Msg("hexapod stopped")
	}
	return err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
