package protocol

import (
	"strings"
)

// DefaultMaxPending bounds the partial-frame buffer.
const DefaultMaxPending = 4096

// Framer splits a byte stream into frames. Bytes after the last terminator
// are kept and prefixed onto the next chunk.
type Framer struct {
	pending    strings.Builder
	maxPending int
	discarding bool // inside an overlong line, waiting for its terminator
}

// NewFramer creates a framer whose partial buffer may hold at most
// maxPending bytes. Zero selects DefaultMaxPending.
func NewFramer(maxPending int) *Framer {
	if maxPending <= 0 {
		maxPending = DefaultMaxPending
	}
	return &Framer{maxPending: maxPending}
}

// Feed appends chunk and returns every complete frame, without terminators.
// Empty lines are skipped. When the unterminated remainder exceeds the limit
// it is discarded and ErrFrameTooLong is returned alongside the frames that
// did complete; the rest of that line is then dropped up to and including
// its terminator, so an overlong line is reported once.
func (f *Framer) Feed(chunk []byte) ([]string, error) {
	data := string(chunk)
	if f.discarding {
		i := strings.Index(data, Terminator)
		if i < 0 {
			return nil, nil
		}
		f.discarding = false
		data = data[i+len(Terminator):]
	}

	f.pending.WriteString(data)
	data = f.pending.String()
	f.pending.Reset()

	parts := strings.Split(data, Terminator)
	rest := parts[len(parts)-1]
	parts = parts[:len(parts)-1]

	frames := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSuffix(p, "\r")
		if p == "" {
			continue
		}
		frames = append(frames, p)
	}

	if len(rest) > f.maxPending {
		f.discarding = true
		return frames, ErrFrameTooLong
	}
	f.pending.WriteString(rest)
	return frames, nil
}

// Pending returns the buffered partial frame.
func (f *Framer) Pending() string {
	return f.pending.String()
}

// Reset drops any buffered partial frame.
func (f *Framer) Reset() {
	f.pending.Reset()
	f.discarding = false
}
