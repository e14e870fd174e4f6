package protocol

import (
	"strconv"

	"github.com/teslashibe/go-rover/pkg/robot"
)

// Telemetry channels carried in MODE#<channel>#... frames.
const (
	ChannelLight      = "1"
	ChannelLine       = "2"
	ChannelUltrasonic = "3"
)

// =============================================================================
// Helper functions for creating telemetry frames
// =============================================================================

// LightFrame creates MODE#1#<light1>#<light2>.
func LightFrame(left, right float64) []byte {
	return Encode(TagMode, ChannelLight, left, right)
}

// LineFrame creates MODE#2#<bit><bit><bit>.
func LineFrame(l robot.LineReading) []byte {
	return Encode(TagMode, ChannelLine, l.String())
}

// UltrasonicFrame creates MODE#3#<distance>.
func UltrasonicFrame(cm int) []byte {
	return Encode(TagMode, ChannelUltrasonic, cm)
}

// PowerFrame creates POWER#<voltage>.
func PowerFrame(volts float64) []byte {
	return Encode(TagPower, volts)
}

// Frames sent when a stream is switched off so the peer can reset its UI.
var (
	LightDisabledFrame      = Encode(TagMode, ChannelLight, "0", "0")
	UltrasonicDisabledFrame = Encode(TagMode, ChannelUltrasonic, "0")
	LineDisabledFrame       = Encode(TagMode, ChannelLine, "000")
)

// =============================================================================
// Helper functions for parsing telemetry frames (client side)
// =============================================================================

// Telemetry is a decoded rover → client frame.
type Telemetry struct {
	Channel  string // ChannelLight, ChannelLine, ChannelUltrasonic or "" for POWER
	Distance int
	Light    [2]float64
	Line     string
	Voltage  float64
	IsPower  bool
}

// ParseTelemetry decodes a MODE#<channel>#... or POWER#<v> frame.
func ParseTelemetry(frame string) (Telemetry, error) {
	tag, fields := Split(frame)
	var t Telemetry

	switch Tag(tag) {
	case TagPower, "CMD_POWER":
		if len(fields) < 1 {
			return t, ErrMissingField
		}
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return t, ErrBadNumber
		}
		t.IsPower = true
		t.Voltage = v
		return t, nil

	case TagMode, "CMD_MODE":
		if len(fields) < 2 {
			return t, ErrMissingField
		}
		t.Channel = fields[0]
		switch t.Channel {
		case ChannelUltrasonic:
			d, err := strconv.Atoi(fields[1])
			if err != nil {
				return t, ErrBadNumber
			}
			t.Distance = d
		case ChannelLine:
			t.Line = fields[1]
		case ChannelLight:
			if len(fields) < 3 {
				return t, ErrMissingField
			}
			for i := 0; i < 2; i++ {
				v, err := strconv.ParseFloat(fields[1+i], 64)
				if err != nil {
					return t, ErrBadNumber
				}
				t.Light[i] = v
			}
		default:
			return t, ErrUnknownTag
		}
		return t, nil
	}
	return t, ErrUnknownTag
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
