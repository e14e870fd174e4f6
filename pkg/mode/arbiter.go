// Package mode owns drive authority. The Arbiter is the only place a behavior
// task is started or stopped, and the only path for manual drive commands.
package mode

import (
	"context"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-rover/pkg/behavior"
	"github.com/teslashibe/go-rover/pkg/robot"
	"github.com/teslashibe/go-rover/pkg/state"
)

// Telemetry is the part of the telemetry scheduler the arbiter drives.
type Telemetry interface {
	// Enable arms the periodic sender for s.
	Enable(s state.Stream)
	// DisableAll stops every sender and emits one disabled frame for each.
	DisableAll()
}

// Arbiter serializes mode transitions and manual drive commands.
type Arbiter struct {
	mu sync.Mutex

	ctx        context.Context
	deps       behavior.Deps
	thresholds behavior.Thresholds
	telemetry  Telemetry
	log        *slog.Logger

	task        *behavior.Task // behavior holding drive authority
	rotation    *behavior.Task // manual drift rotation
	transitions uint64
	closed      bool
}

// New creates an arbiter in manual mode. Behavior tasks are children of ctx.
func New(ctx context.Context, deps behavior.Deps, th behavior.Thresholds, tel Telemetry) *Arbiter {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Arbiter{
		ctx:        ctx,
		deps:       deps,
		thresholds: th,
		telemetry:  tel,
		log:        log.With("component", "mode"),
	}
}

// Mode returns the current mode.
func (a *Arbiter) Mode() state.Mode {
	return a.deps.State.Mode()
}

// Transitions returns how many SetMode calls completed.
func (a *Arbiter) Transitions() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.transitions
}

// BehaviorAlive reports whether a behavior task is running.
func (a *Arbiter) BehaviorAlive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.task.Alive()
}

// SetMode moves to m. The old holder is cancelled and has returned before
// the actuators are neutralized, and both happen before the new behavior
// starts. Setting the current mode restarts it.
func (a *Arbiter) SetMode(m state.Mode) error {
	if !m.Valid() {
		return &InvalidModeError{Mode: m}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return context.Canceled
	}

	from := a.deps.State.Mode()

	// 1. quiesce the current holder
	a.stopTasks()
	a.deps.State.SetMode(state.Manual, false)

	// 2. neutral actuators
	a.neutral()

	// 3. all streams off, with a final frame each
	a.telemetry.DisableAll()

	// 4. hand authority to the new behavior
	if r, ok := behavior.ForMode(m, a.deps, a.thresholds); ok {
		a.task = behavior.Start(a.ctx, m.String(), r)
		a.deps.State.SetMode(m, true)
		if s, ok := m.Stream(); ok {
			a.telemetry.Enable(s)
		}
	}

	a.transitions++
	a.log.Info("mode changed", "from", from.String(), "to", m.String())
	return nil
}

// Drive applies a raw motor vector. Only accepted in manual mode.
func (a *Arbiter) Drive(m robot.Motors) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.manual(); err != nil {
		return err
	}
	a.stopRotation()
	a.deps.Drive(m)
	return nil
}

// Mecanum applies a translation plus turn command. Only accepted in manual mode.
func (a *Arbiter) Mecanum(angle1, speed1, angle2, speed2 int) error {
	return a.Drive(robot.Mecanum(angle1, speed1, angle2, speed2))
}

// Rotate starts a drift rotation from target at speed, replacing any
// rotation already running. With enable false it stops the rotation and
// drives the plain translation (angle, speed). Only accepted in manual mode.
func (a *Arbiter) Rotate(angle, speed, target int, enable bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.manual(); err != nil {
		return err
	}
	a.stopRotation()
	if !enable {
		a.deps.Drive(robot.Mecanum(angle, speed, target, 0))
		return nil
	}
	a.rotation = behavior.Start(a.ctx, "rotate", behavior.NewRotation(a.deps, target, speed))
	return nil
}

// Shutdown stops every task, neutralizes the actuators and refuses further
// transitions.
func (a *Arbiter) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	a.stopTasks()
	a.deps.State.SetMode(state.Manual, false)
	a.neutral()
	a.telemetry.DisableAll()
	a.log.Info("arbiter stopped")
}

func (a *Arbiter) manual() error {
	if a.closed {
		return context.Canceled
	}
	if a.deps.State.Mode() != state.Manual {
		return ErrNotManual
	}
	return nil
}

// stopTasks must be called with mu held.
func (a *Arbiter) stopTasks() {
	a.task.Stop()
	a.task = nil
	a.stopRotation()
}

func (a *Arbiter) stopRotation() {
	a.rotation.Stop()
	a.rotation = nil
}

// neutral zeroes the motors and centers both servos. A fault is logged and
// the remaining actuators are still commanded.
func (a *Arbiter) neutral() {
	a.deps.Drive(robot.Stop)
	a.deps.Servo(robot.ScanServo, robot.ServoCenter)
	a.deps.Servo(robot.TiltServo, robot.ServoCenter)
}

// InvalidModeError reports a mode outside the known set.
type InvalidModeError struct {
	Mode state.Mode
}

func (e *InvalidModeError) Error() string {
	return "invalid mode " + e.Mode.String()
}
