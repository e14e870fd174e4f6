// Package state holds the shared, mutable robot state.
//
// A single *Robot is created at startup and passed by reference to every
// component constructor. All access goes through its methods, which take the
// internal lock; callers never hold the lock across a blocking call.
package state

import (
	"fmt"
	"strings"
)

// Mode identifies who holds drive authority.
type Mode int

// The numeric values match the MODE#<digit> wire form and the telemetry
// channel of each behavior.
const (
	Manual Mode = iota
	LightFollow
	LineFollow
	UltrasonicAvoid
)

var modeNames = [...]string{
	Manual:          "manual",
	LightFollow:     "light",
	LineFollow:      "line",
	UltrasonicAvoid: "ultrasonic",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// Valid reports whether m is one of the four known modes.
func (m Mode) Valid() bool {
	return m >= Manual && m <= UltrasonicAvoid
}

// Autonomous reports whether a behavior task owns the actuators in m.
func (m Mode) Autonomous() bool {
	return m != Manual
}

// Stream returns the telemetry stream armed by the behavior of m.
func (m Mode) Stream() (Stream, bool) {
	switch m {
	case LightFollow:
		return StreamLight, true
	case LineFollow:
		return StreamLine, true
	case UltrasonicAvoid:
		return StreamUltrasonic, true
	}
	return 0, false
}

// ParseMode accepts a digit ("0".."3"), a mode name ("manual", "light",
// "line", "ultrasonic") or a legacy word ("one", "two", "three", "four").
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "manual", "one":
		return Manual, nil
	case "1", "light", "two":
		return LightFollow, nil
	case "2", "line", "four":
		return LineFollow, nil
	case "3", "ultrasonic", "three":
		return UltrasonicAvoid, nil
	}
	return Manual, fmt.Errorf("unknown mode %q", s)
}

// Stream identifies one of the periodic telemetry senders.
type Stream int

const (
	StreamUltrasonic Stream = iota
	StreamLight
	StreamLine
	numStreams
)

// Streams lists every telemetry stream.
func Streams() []Stream {
	return []Stream{StreamUltrasonic, StreamLight, StreamLine}
}

func (s Stream) String() string {
	switch s {
	case StreamUltrasonic:
		return "ultrasonic"
	case StreamLight:
		return "light"
	case StreamLine:
		return "line"
	}
	return fmt.Sprintf("stream(%d)", int(s))
}
