// Package telemetry sends periodic sensor frames to the control peer and
// records the robot state to CSV.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-rover/pkg/protocol"
	"github.com/teslashibe/go-rover/pkg/robot"
	"github.com/teslashibe/go-rover/pkg/state"
)

// ErrNoPeer is returned by Send when no control connection is attached.
var ErrNoPeer = errors.New("no control peer")

// Sender delivers one encoded frame to the peer.
type Sender interface {
	Send(frame []byte) error
}

// Intervals are the per-stream send periods.
type Intervals struct {
	Ultrasonic time.Duration
	Light      time.Duration
	Line       time.Duration
}

// DefaultIntervals returns the stock send periods.
func DefaultIntervals() Intervals {
	return Intervals{
		Ultrasonic: 230 * time.Millisecond,
		Light:      170 * time.Millisecond,
		Line:       200 * time.Millisecond,
	}
}

func (iv Intervals) of(s state.Stream) time.Duration {
	switch s {
	case state.StreamUltrasonic:
		return iv.Ultrasonic
	case state.StreamLight:
		return iv.Light
	default:
		return iv.Line
	}
}

type stream struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *stream) stop() {
	if s == nil {
		return
	}
	s.cancel()
	<-s.done
}

// Scheduler runs one sender goroutine per enabled stream. A stream sends its
// first frame one interval after it is enabled, then once per interval while
// its flag in the shared state stays set. A failed read or send clears the
// flag and ends the goroutine.
type Scheduler struct {
	ctx       context.Context
	state     *state.Robot
	sensors   robot.Sensors
	intervals Intervals
	log       *slog.Logger

	mu      sync.Mutex
	streams map[state.Stream]*stream

	peerMu sync.RWMutex
	peer   Sender

	sent   [3]atomic.Uint64
	failed atomic.Uint64
}

// NewScheduler creates a scheduler. Stream goroutines are children of ctx.
func NewScheduler(ctx context.Context, st *state.Robot, sensors robot.Sensors, iv Intervals, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		ctx:       ctx,
		state:     st,
		sensors:   sensors,
		intervals: iv,
		log:       log.With("component", "telemetry"),
		streams:   make(map[state.Stream]*stream),
	}
}

// Attach sets the peer that receives frames. nil detaches.
func (s *Scheduler) Attach(peer Sender) {
	s.peerMu.Lock()
	s.peer = peer
	s.peerMu.Unlock()
}

// Send delivers frame to the attached peer.
func (s *Scheduler) Send(frame []byte) error {
	s.peerMu.RLock()
	peer := s.peer
	s.peerMu.RUnlock()
	if peer == nil {
		return ErrNoPeer
	}
	return peer.Send(frame)
}

// Enable sets the stream flag and (re)starts its sender.
func (s *Scheduler) Enable(st state.Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.streams[st].stop()
	s.state.SetEnabled(st, true)

	ctx, cancel := context.WithCancel(s.ctx)
	h := &stream{cancel: cancel, done: make(chan struct{})}
	s.streams[st] = h
	go func() {
		defer close(h.done)
		s.run(ctx, st)
	}()
}

// Disable clears the stream flag and waits for its sender to return.
func (s *Scheduler) Disable(st state.Stream) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SetEnabled(st, false)
	s.streams[st].stop()
	delete(s.streams, st)
}

// DisableAll clears every stream and sends one disabled frame for each so the
// peer can reset its display.
func (s *Scheduler) DisableAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.DisableAll()
	for st, h := range s.streams {
		h.stop()
		delete(s.streams, st)
	}
	for _, st := range state.Streams() {
		if err := s.Send(DisabledFrame(st)); err != nil && !errors.Is(err, ErrNoPeer) {
			s.log.Warn("disabled frame not sent", "stream", st.String(), "err", err)
		}
	}
}

// Stop ends every sender without sending frames.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for st, h := range s.streams {
		h.stop()
		delete(s.streams, st)
	}
}

// Sent returns the number of frames sent on st.
func (s *Scheduler) Sent(st state.Stream) uint64 {
	return s.sent[st].Load()
}

// Failures returns how many senders disabled themselves.
func (s *Scheduler) Failures() uint64 {
	return s.failed.Load()
}

// Running reports whether the sender for st is alive.
func (s *Scheduler) Running(st state.Stream) bool {
	s.mu.Lock()
	h := s.streams[st]
	s.mu.Unlock()
	if h == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (s *Scheduler) run(ctx context.Context, st state.Stream) {
	ticker := time.NewTicker(s.intervals.of(st))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// The flag is checked at send time: a toggle that lands between
		// ticks suppresses the next frame.
		if !s.state.Enabled(st) {
			return
		}

		frame, err := s.sample(st)
		if err == nil {
			err = s.Send(frame)
		}
		if err != nil {
			s.state.SetEnabled(st, false)
			s.failed.Add(1)
			s.log.Warn("stream disabled", "stream", st.String(), "err", err)
			return
		}
		s.sent[st].Add(1)
	}
}

// sample builds the frame for st. While the behavior that owns st is running
// it keeps the cached value fresh, so the cache is used; otherwise the sensor
// is read directly and the cache updated.
func (s *Scheduler) sample(st state.Stream) ([]byte, error) {
	cached := false
	if owner, ok := s.state.Mode().Stream(); ok && owner == st && s.state.BehaviorRunning() {
		cached = true
	}

	switch st {
	case state.StreamUltrasonic:
		if !cached {
			cm, err := s.sensors.ReadDistance()
			if err != nil {
				return nil, err
			}
			s.state.SetDistance(cm)
		}
		return protocol.UltrasonicFrame(s.state.Distance()), nil

	case state.StreamLight:
		if !cached {
			l, r, err := s.sensors.ReadLight()
			if err != nil {
				return nil, err
			}
			s.state.SetLight(l, r)
		}
		return protocol.LightFrame(s.state.Light()), nil

	default:
		if !cached {
			l, err := s.sensors.ReadLineSensors()
			if err != nil {
				return nil, err
			}
			s.state.SetLine(l)
		}
		return protocol.LineFrame(s.state.Line()), nil
	}
}

// DisabledFrame returns the frame announcing that st was switched off.
func DisabledFrame(st state.Stream) []byte {
	switch st {
	case state.StreamUltrasonic:
		return protocol.UltrasonicDisabledFrame
	case state.StreamLight:
		return protocol.LightDisabledFrame
	default:
		return protocol.LineDisabledFrame
	}
}
