// robotd runs the rover control plane: the command and video server, the
// mode arbiter with its behaviors, telemetry, the power monitor, the CSV
// logger and the dashboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/teslashibe/go-rover/internal/config"
	"github.com/teslashibe/go-rover/internal/log"
	"github.com/teslashibe/go-rover/pkg/behavior"
	"github.com/teslashibe/go-rover/pkg/camera"
	"github.com/teslashibe/go-rover/pkg/mode"
	"github.com/teslashibe/go-rover/pkg/server"
	"github.com/teslashibe/go-rover/pkg/sim"
	"github.com/teslashibe/go-rover/pkg/state"
	"github.com/teslashibe/go-rover/pkg/telemetry"
	"github.com/teslashibe/go-rover/pkg/web"
)

// Options are the command line flags.
type Options struct {
	Config      string `short:"c" long:"config" default:"rover.yaml" description:"YAML config file (missing file means defaults)"`
	LogLevel    string `long:"log-level" description:"Override log level: debug, info, warn, error"`
	NoDashboard bool   `long:"no-dashboard" description:"Do not start the web dashboard"`
	Camera      *int   `long:"camera" description:"Camera device index, -1 for simulated frames"`
	NoCSV       bool   `long:"no-csv" description:"Do not write the CSV data log"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	parser.LongDescription = "Rover control plane daemon"

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.NoDashboard {
		cfg.DashboardAddr = ""
	}
	if opts.Camera != nil {
		cfg.Camera.Device = *opts.Camera
	}
	if opts.NoCSV {
		cfg.CSVPath = ""
	}

	log.Init(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Error("robotd failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	st := state.New()
	hw := sim.New(sim.WithLogLimit(0))

	frames, closeFrames, err := openFrames(cfg.Camera)
	if err != nil {
		return err
	}
	defer closeFrames()

	sched := telemetry.NewScheduler(ctx, st, hw, telemetry.Intervals{
		Ultrasonic: cfg.Telemetry.Ultrasonic,
		Light:      cfg.Telemetry.Light,
		Line:       cfg.Telemetry.Line,
	}, log.Component("telemetry"))
	defer sched.Stop()

	arb := mode.New(ctx, behavior.Deps{
		Actuators: hw,
		Sensors:   hw,
		State:     st,
		Logger:    log.Component("behavior"),
	}, behavior.Thresholds{
		Near:   cfg.Avoidance.Near,
		Wide:   cfg.Avoidance.Wide,
		Medium: cfg.Avoidance.Medium,
		Tight:  cfg.Avoidance.Tight,
	}, sched)
	defer arb.Shutdown()

	power := telemetry.NewPowerMonitor(hw, hw, st, sched, cfg.PowerInterval, log.Component("power"))

	var dash *web.Server
	srvCfg := server.Config{
		ControlAddr: cfg.ControlAddr,
		VideoAddr:   cfg.VideoAddr,
	}
	if cfg.DashboardAddr != "" {
		// The mirror is installed before the dashboard exists, so it
		// dereferences dash lazily.
		srvCfg.Mirror = func(frame []byte) {
			if dash != nil {
				dash.Mirror(frame)
			}
		}
	}
	srv := server.New(srvCfg, server.Deps{
		Arbiter:   arb,
		Telemetry: sched,
		Power:     power,
		Actuators: hw,
		State:     st,
		Frames:    frames.source,
		Logger:    log.Component("server"),
	})
	if cfg.DashboardAddr != "" {
		dash = web.NewServer(cfg.DashboardAddr, web.Deps{
			State:   st,
			Modes:   arb,
			Control: srv,
			Camera:  frames.manager,
			Logger:  log.Component("web"),
		})
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		power.Run(ctx)
	}()

	if cfg.CSVPath != "" {
		csvLog, err := telemetry.OpenCSV(cfg.CSVPath, st, cfg.LogInterval, log.Component("csv"))
		if err != nil {
			return err
		}
		defer csvLog.Close()
		wg.Add(1)
		go func() {
			defer wg.Done()
			csvLog.Run(ctx)
		}()
	}

	if dash != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := dash.Run(ctx); err != nil {
				errs <- fmt.Errorf("dashboard: %w", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx); err != nil && !errors.Is(err, server.ErrServerStopped) {
			errs <- fmt.Errorf("server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-srv.Ready():
		log.Info("robotd ready",
			"control", srv.ControlAddr(),
			"video", srv.VideoAddr(),
			"dashboard", cfg.DashboardAddr,
			"camera", cfg.Camera.Device)
		select {
		case <-ctx.Done():
		case runErr = <-errs:
		}
	case runErr = <-errs:
	case <-ctx.Done():
	}

	log.Info("shutting down")
	quiesce(srv, arb, sched)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		log.Warn("shutdown timed out")
	}
	return runErr
}

// quiesce stops the control plane. The server goes first and Stop waits
// for its read loop, so no command reaches the actuators after the arbiter
// has parked them.
func quiesce(srv interface{ Stop() }, arb interface{ Shutdown() }, sched interface{ Stop() }) {
	srv.Stop()
	arb.Shutdown()
	sched.Stop()
}

// frameSource bundles the video source with the camera settings it reads,
// if any.
type frameSource struct {
	source  server.FrameSource
	manager *camera.Manager
}

// openFrames opens the camera, or simulated frames when the device is
// negative or the binary has no camera support.
func openFrames(cc config.CameraConfig) (frameSource, func(), error) {
	camCfg := camera.DefaultConfig()
	camCfg.Device = cc.Device
	if p := camera.GetPreset(cc.Preset); p != nil {
		camCfg = *p
		camCfg.Device = cc.Device
	} else {
		camCfg.Width, camCfg.Height, camCfg.Quality = cc.Width, cc.Height, cc.Quality
		if cc.Framerate > 0 {
			camCfg.Framerate = cc.Framerate
		}
	}
	if errs := camCfg.Validate(); len(errs) > 0 {
		return frameSource{}, nil, fmt.Errorf("camera config: %v", errs)
	}

	simulated := func() (frameSource, func(), error) {
		f := sim.NewFrames(camCfg.Width, camCfg.Height, time.Second/time.Duration(camCfg.Framerate))
		return frameSource{source: f}, func() { f.Close() }, nil
	}
	if cc.Device < 0 {
		return simulated()
	}

	mgr := camera.NewManager(camCfg)
	src, err := camera.Open(mgr, log.Component("camera"))
	if errors.Is(err, camera.ErrUnavailable) {
		log.Warn("camera unavailable, using simulated frames", "err", err)
		return simulated()
	}
	if err != nil {
		return frameSource{}, nil, err
	}
	return frameSource{source: src, manager: mgr}, func() { src.Close() }, nil
}
