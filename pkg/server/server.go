// Package server owns the control and video TCP listeners. It accepts one
// control client and one video client at a time, reads and dispatches
// commands, and streams camera frames.
//
// Connection lifecycle:
//
//	LISTENING -> CONNECTED -> (disconnect) -> RESET -> LISTENING
//	                                       \-> STOPPED (Stop or ctx done)
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-rover/pkg/mode"
	"github.com/teslashibe/go-rover/pkg/protocol"
	"github.com/teslashibe/go-rover/pkg/robot"
	"github.com/teslashibe/go-rover/pkg/state"
	"github.com/teslashibe/go-rover/pkg/telemetry"
)

const (
	readBufferSize      = 1024
	defaultWriteTimeout = 2 * time.Second
)

// FrameSource produces encoded JPEG frames for the video channel.
type FrameSource interface {
	NextFrame(ctx context.Context) ([]byte, error)
}

// Config holds server settings.
type Config struct {
	ControlAddr  string
	VideoAddr    string
	WriteTimeout time.Duration
	MaxPending   int // partial-frame limit, see protocol.Framer

	// Mirror, when set, receives every frame sent to the control client.
	Mirror func(frame []byte)
}

// Deps are the components the dispatcher drives.
type Deps struct {
	Arbiter   *mode.Arbiter
	Telemetry *telemetry.Scheduler
	Power     *telemetry.PowerMonitor
	Actuators robot.Actuators
	State     *state.Robot
	Frames    FrameSource
	Logger    *slog.Logger
}

// Server is the command server.
type Server struct {
	cfg  Config
	deps Deps
	log  *slog.Logger

	stats   Stats
	running atomic.Bool
	stopped atomic.Bool
	ready   chan struct{}

	mu          sync.Mutex
	controlLn   net.Listener
	videoLn     net.Listener
	controlAddr string
	videoAddr   string
	session     *Session
	video       net.Conn
	readyOnce   sync.Once
	started     bool          // Run has been entered
	exited      chan struct{} // closed when Run returns
}

// New creates a server. Call Run to start listening.
func New(cfg Config, deps Deps) *Server {
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg:         cfg,
		deps:        deps,
		log:         log.With("component", "server"),
		ready:       make(chan struct{}),
		exited:      make(chan struct{}),
		controlAddr: cfg.ControlAddr,
		videoAddr:   cfg.VideoAddr,
	}
}

// Ready is closed once both listeners are bound for the first time.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// ControlAddr returns the bound control address.
func (s *Server) ControlAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controlAddr
}

// VideoAddr returns the bound video address.
func (s *Server) VideoAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.videoAddr
}

// Stats returns the traffic counters.
func (s *Server) Stats() StatsSnapshot {
	return s.stats.Snapshot()
}

// Session returns the active control session, or nil.
func (s *Server) Session() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Send writes a frame to the active control client.
func (s *Server) Send(frame []byte) error {
	sess := s.Session()
	if sess == nil {
		return ErrNotConnected
	}
	return sess.Send(frame)
}

// Run binds both listeners and serves clients until ctx is cancelled or Stop
// is called. After a client disconnects both listeners are closed and bound
// again on the same addresses.
func (s *Server) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped.Load() || s.started {
		s.mu.Unlock()
		return ErrServerStopped
	}
	s.started = true
	s.running.Store(true)
	s.mu.Unlock()
	defer close(s.exited)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		s.running.Store(false)
		s.closeAll()
	}()

	for {
		if err := s.listen(); err != nil {
			if !s.running.Load() {
				return nil
			}
			return err
		}
		s.readyOnce.Do(func() { close(s.ready) })
		if !s.running.Load() {
			s.closeAll()
			return nil
		}

		s.serve(ctx)

		if !s.running.Load() {
			s.log.Info("server stopped")
			return nil
		}
		s.stats.resets.Add(1)
		s.log.Info("resetting listeners")
	}
}

// Stop ends Run, closes every connection and waits until Run has returned,
// so no command is dispatched after Stop. It must not be called from a
// command handler.
func (s *Server) Stop() {
	s.mu.Lock()
	s.stopped.Store(true)
	s.running.Store(false)
	started := s.started
	s.mu.Unlock()

	s.closeAll()
	if started {
		<-s.exited
	}
}

func (s *Server) listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cl, err := net.Listen("tcp", s.controlAddr)
	if err != nil {
		return fmt.Errorf("listen control %s: %w", s.controlAddr, err)
	}
	vl, err := net.Listen("tcp", s.videoAddr)
	if err != nil {
		cl.Close()
		return fmt.Errorf("listen video %s: %w", s.videoAddr, err)
	}
	s.controlLn, s.videoLn = cl, vl
	// Rebinding after a reset reuses the concrete ports.
	s.controlAddr, s.videoAddr = cl.Addr().String(), vl.Addr().String()
	s.log.Info("listening", "control", s.controlAddr, "video", s.videoAddr)
	return nil
}

// serve accepts one control client and one video client and returns when
// the control connection ends.
func (s *Server) serve(ctx context.Context) {
	sessCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.serveVideo(sessCtx)
	}()

	defer func() {
		cancel()
		s.closeAll()
		wg.Wait()
	}()

	s.mu.Lock()
	ln := s.controlLn
	s.mu.Unlock()

	conn, err := ln.Accept()
	if err != nil {
		if s.running.Load() {
			s.log.Warn("control accept failed", "err", err)
		}
		return
	}
	ln.Close()

	sess := newSession(conn, s.cfg.WriteTimeout, s.cfg.Mirror)
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	s.stats.sessions.Add(1)
	s.deps.Telemetry.Attach(sess)

	log := s.log.With("session", sess.ID.String(), "remote", sess.Remote)
	log.Info("control client connected")

	err = s.readLoop(sess, log)

	s.deps.Telemetry.Attach(nil)
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	sess.Close()

	if err != nil && s.running.Load() {
		log.Warn("control connection lost", "err", err)
	} else {
		log.Info("control client disconnected")
	}
}

// readLoop reads until the connection fails. Protocol errors never end it.
func (s *Server) readLoop(sess *Session, log *slog.Logger) error {
	framer := protocol.NewFramer(s.cfg.MaxPending)
	buf := make([]byte, readBufferSize)

	for {
		n, err := sess.conn.Read(buf)
		if n > 0 {
			frames, ferr := framer.Feed(buf[:n])
			for _, f := range frames {
				s.handle(f, log)
			}
			if ferr != nil {
				s.stats.in.Add(1)
				s.stats.dropped.Add(1)
				log.Warn("protocol error", "err", ferr)
			}
		}
		if err != nil {
			return err
		}
	}
}

// handle parses and dispatches one frame.
func (s *Server) handle(frame string, log *slog.Logger) {
	s.stats.in.Add(1)

	req, err := protocol.ParseFrame(frame)
	if err != nil {
		s.stats.dropped.Add(1)
		if errors.Is(err, protocol.ErrUnknownTag) {
			log.Debug("unknown tag ignored", "frame", frame)
		} else {
			log.Warn("protocol error", "frame", frame, "err", err)
		}
		return
	}

	s.dispatch(req, log)
	s.stats.processed.Add(1)
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.controlLn != nil {
		s.controlLn.Close()
	}
	if s.videoLn != nil {
		s.videoLn.Close()
	}
	if s.session != nil {
		s.session.Close()
	}
	if s.video != nil {
		s.video.Close()
	}
}
