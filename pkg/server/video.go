package server

import (
	"context"
	"encoding/binary"
	"time"
)

const videoRetryDelay = 100 * time.Millisecond

// serveVideo accepts one video client and streams frames to it until ctx is
// cancelled or a write fails. Each frame is a little-endian uint32 length
// followed by the JPEG bytes.
func (s *Server) serveVideo(ctx context.Context) {
	s.mu.Lock()
	ln := s.videoLn
	s.mu.Unlock()

	conn, err := ln.Accept()
	if err != nil {
		return
	}
	ln.Close()

	s.mu.Lock()
	s.video = conn
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.video = nil
		s.mu.Unlock()
		conn.Close()
	}()

	log := s.log.With("remote", conn.RemoteAddr().String())
	log.Info("video client connected")

	if s.deps.Frames == nil {
		<-ctx.Done()
		return
	}

	var header [4]byte
	for {
		frame, err := s.deps.Frames.NextFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("frame capture failed", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(videoRetryDelay):
			}
			continue
		}

		binary.LittleEndian.PutUint32(header[:], uint32(len(frame)))
		conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
		if _, err := conn.Write(header[:]); err != nil {
			log.Info("video client disconnected", "err", err)
			return
		}
		if _, err := conn.Write(frame); err != nil {
			log.Info("video client disconnected", "err", err)
			return
		}
		s.stats.video.Add(1)
	}
}
