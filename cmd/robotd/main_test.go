package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-rover/pkg/behavior"
	"github.com/teslashibe/go-rover/pkg/mode"
	"github.com/teslashibe/go-rover/pkg/robot"
	"github.com/teslashibe/go-rover/pkg/server"
	"github.com/teslashibe/go-rover/pkg/sim"
	"github.com/teslashibe/go-rover/pkg/state"
	"github.com/teslashibe/go-rover/pkg/telemetry"
)

type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) add(name string) {
	r.mu.Lock()
	r.calls = append(r.calls, name)
	r.mu.Unlock()
}

type fakeServer struct{ rec *callRecorder }

func (f fakeServer) Stop() { f.rec.add("server") }

type fakeArbiter struct{ rec *callRecorder }

func (f fakeArbiter) Shutdown() { f.rec.add("arbiter") }

type fakeScheduler struct{ rec *callRecorder }

func (f fakeScheduler) Stop() { f.rec.add("telemetry") }

func TestQuiesce_Order(t *testing.T) {
	rec := &callRecorder{}
	quiesce(fakeServer{rec}, fakeArbiter{rec}, fakeScheduler{rec})
	assert.Equal(t, []string{"server", "arbiter", "telemetry"}, rec.calls)
}

func TestQuiesce_NoCommandAfterNeutral(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hw := sim.New()
	st := state.New()
	sched := telemetry.NewScheduler(ctx, st, hw, telemetry.DefaultIntervals(), log)
	arb := mode.New(ctx, behavior.Deps{Actuators: hw, Sensors: hw, State: st, Logger: log},
		behavior.DefaultThresholds(), sched)
	srv := server.New(server.Config{ControlAddr: "127.0.0.1:0", VideoAddr: "127.0.0.1:0"}, server.Deps{
		Arbiter:   arb,
		Telemetry: sched,
		Power:     telemetry.NewPowerMonitor(hw, hw, st, sched, time.Hour, log),
		Actuators: hw,
		State:     st,
		Frames:    sim.NewFrames(8, 8, 10*time.Millisecond),
		Logger:    log,
	})

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	select {
	case <-srv.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server not ready")
	}

	conn, err := net.DialTimeout("tcp", srv.ControlAddr(), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	var batch strings.Builder
	for i := 0; i < 5000; i++ {
		fmt.Fprintf(&batch, "SERVO#%d#%d\n", i%2, 10+i%150)
	}
	go conn.Write([]byte(batch.String()))
	require.Eventually(t, func() bool { return srv.Stats().FramesProcessed > 10 }, time.Second, 2*time.Millisecond)

	quiesce(srv, arb, sched)

	for i := 0; i < 3; i++ {
		assert.Equal(t, robot.ServoCenter, hw.Servo(robot.ScanServo))
		assert.Equal(t, robot.ServoCenter, hw.Servo(robot.TiltServo))
		assert.Equal(t, robot.Stop, hw.Motors())
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("server still running")
	}
}
