package server

import "sync/atomic"

// Stats counts control traffic. Every frame read is either processed or
// dropped, so In == Processed + Dropped once the read loop is idle.
type Stats struct {
	in        atomic.Uint64
	processed atomic.Uint64
	dropped   atomic.Uint64
	sessions  atomic.Uint64
	resets    atomic.Uint64
	video     atomic.Uint64
}

// StatsSnapshot is a copy of the counters.
type StatsSnapshot struct {
	FramesIn        uint64 `json:"frames_in"`
	FramesProcessed uint64 `json:"frames_processed"`
	FramesDropped   uint64 `json:"frames_dropped"`
	Sessions        uint64 `json:"sessions"`
	Resets          uint64 `json:"resets"`
	VideoFrames     uint64 `json:"video_frames"`
}

// Snapshot returns the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		FramesIn:        s.in.Load(),
		FramesProcessed: s.processed.Load(),
		FramesDropped:   s.dropped.Load(),
		Sessions:        s.sessions.Load(),
		Resets:          s.resets.Load(),
		VideoFrames:     s.video.Load(),
	}
}
