package server

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session is one control connection. Send is safe for concurrent use: the
// telemetry streams, the power monitor and the dispatcher all write to it.
type Session struct {
	ID        uuid.UUID
	Remote    string
	Connected time.Time

	conn         net.Conn
	writeTimeout time.Duration
	mirror       func(frame []byte)

	mu     sync.Mutex // serializes writes
	closed atomic.Bool
}

func newSession(conn net.Conn, writeTimeout time.Duration, mirror func([]byte)) *Session {
	return &Session{
		ID:           uuid.New(),
		Remote:       conn.RemoteAddr().String(),
		Connected:    time.Now(),
		conn:         conn,
		writeTimeout: writeTimeout,
		mirror:       mirror,
	}
}

// Send writes one frame. A closed session returns ErrNotConnected.
func (s *Session) Send(frame []byte) error {
	if s.closed.Load() {
		return ErrNotConnected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	if _, err := s.conn.Write(frame); err != nil {
		return err
	}
	if s.mirror != nil {
		s.mirror(frame)
	}
	return nil
}

// Close closes the connection. Later sends fail with ErrNotConnected.
// A write blocked in Send is unblocked.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.conn.Close()
}
