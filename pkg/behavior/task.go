// Package behavior implements the autonomous control loops that hold drive
// authority outside manual mode: ultrasonic obstacle avoidance, light
// following, line following and the manual drift rotation.
//
// Every loop runs inside a Task and checks its context between steps.
// The worst-case cancellation latency is the longest single hold in a loop
// (1s during the stuck escape reverse), since holds are interruptible sleeps.
package behavior

import (
	"context"
	"sync"
	"time"
)

// Runner is a cancellable control loop.
type Runner interface {
	Run(ctx context.Context)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context)

// Run calls f(ctx).
func (f RunnerFunc) Run(ctx context.Context) { f(ctx) }

// Task is a running Runner. Stop cancels it and waits for the loop to return.
type Task struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Start launches r in its own goroutine.
func Start(parent context.Context, name string, r Runner) *Task {
	ctx, cancel := context.WithCancel(parent)
	t := &Task{
		name:   name,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		r.Run(ctx)
	}()
	return t
}

// Name returns the name the task was started with.
func (t *Task) Name() string {
	return t.name
}

// Stop cancels the task and blocks until its loop has returned.
// Safe to call more than once and on a nil *Task.
func (t *Task) Stop() {
	if t == nil {
		return
	}
	t.once.Do(t.cancel)
	<-t.done
}

// Done is closed when the loop has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Alive reports whether the loop is still running.
func (t *Task) Alive() bool {
	if t == nil {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// sleep waits for d or until ctx is cancelled. It returns false on cancel.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
