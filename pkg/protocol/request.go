package protocol

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-rover/pkg/robot"
	"github.com/teslashibe/go-rover/pkg/state"
)

// Request is a typed command. The set of implementations is closed: Parse
// returns one of the types below and dispatchers switch over them.
type Request interface {
	// Command returns the wire form of the request.
	Command() Command
	isRequest()
}

// ModeRequest switches drive authority.
type ModeRequest struct {
	Mode state.Mode
}

// MotorRequest sets the four wheel duties directly.
type MotorRequest struct {
	Motors robot.Motors
}

// MecanumRequest drives with a translation and a turn component.
type MecanumRequest struct {
	Angle1, Speed1 int
	Angle2, Speed2 int
}

// RotateRequest starts or stops a drift rotation.
type RotateRequest struct {
	Angle  int
	Speed  int
	Target int
	Enable int // zero stops any rotation
}

// ServoRequest moves a servo.
type ServoRequest struct {
	Channel int
	Angle   int
}

// LEDRequest sets one LED of the strip.
type LEDRequest struct {
	Index   int
	R, G, B uint8
}

// LEDModeRequest selects an LED animation.
type LEDModeRequest struct {
	Mode int
}

// SonicToggle enables or disables ultrasonic telemetry.
type SonicToggle struct {
	On bool
}

// BuzzerRequest switches the buzzer.
type BuzzerRequest struct {
	On bool
}

// LightToggle enables or disables light telemetry.
type LightToggle struct {
	On bool
}

// PowerQuery asks for one POWER telemetry frame.
type PowerQuery struct{}

func (ModeRequest) isRequest()    {}
func (MotorRequest) isRequest()   {}
func (MecanumRequest) isRequest() {}
func (RotateRequest) isRequest()  {}
func (ServoRequest) isRequest()   {}
func (LEDRequest) isRequest()     {}
func (LEDModeRequest) isRequest() {}
func (SonicToggle) isRequest()    {}
func (BuzzerRequest) isRequest()  {}
func (LightToggle) isRequest()    {}
func (PowerQuery) isRequest()     {}

func (r ModeRequest) Command() Command {
	return Command{Tag: TagMode, Fields: []string{itoa(int(r.Mode))}}
}

func (r MotorRequest) Command() Command {
	m := r.Motors
	return Command{Tag: TagMotor, Fields: []string{itoa(m[0]), itoa(m[1]), itoa(m[2]), itoa(m[3])}}
}

func (r MecanumRequest) Command() Command {
	return Command{Tag: TagMecanum, Fields: []string{itoa(r.Angle1), itoa(r.Speed1), itoa(r.Angle2), itoa(r.Speed2)}}
}

func (r RotateRequest) Command() Command {
	return Command{Tag: TagRotate, Fields: []string{itoa(r.Angle), itoa(r.Speed), itoa(r.Target), itoa(r.Enable)}}
}

func (r ServoRequest) Command() Command {
	return Command{Tag: TagServo, Fields: []string{itoa(r.Channel), itoa(r.Angle)}}
}

func (r LEDRequest) Command() Command {
	return Command{Tag: TagLED, Fields: []string{itoa(r.Index), itoa(int(r.R)), itoa(int(r.G)), itoa(int(r.B))}}
}

func (r LEDModeRequest) Command() Command {
	return Command{Tag: TagLEDMode, Fields: []string{itoa(r.Mode)}}
}

func (r SonicToggle) Command() Command {
	return Command{Tag: TagSonic, Fields: []string{formatField(r.On)}}
}

func (r BuzzerRequest) Command() Command {
	return Command{Tag: TagBuzzer, Fields: []string{formatField(r.On)}}
}

func (r LightToggle) Command() Command {
	return Command{Tag: TagLight, Fields: []string{formatField(r.On)}}
}

func (PowerQuery) Command() Command {
	return Command{Tag: TagPowerQuery}
}

// Parse converts a decoded command into its typed request. Malformed
// numeric fields return an error wrapping ErrBadNumber.
func Parse(c Command) (Request, error) {
	if len(c.Fields) < c.Tag.Arity() {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, c.Tag)
	}

	switch c.Tag {
	case TagMode:
		m, err := state.ParseMode(c.Fields[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadMode, err)
		}
		return ModeRequest{Mode: m}, nil

	case TagMotor:
		v, err := c.Ints(4)
		if err != nil {
			return nil, err
		}
		return MotorRequest{Motors: robot.Motors{v[0], v[1], v[2], v[3]}}, nil

	case TagMecanum:
		v, err := c.Ints(4)
		if err != nil {
			return nil, err
		}
		return MecanumRequest{Angle1: v[0], Speed1: v[1], Angle2: v[2], Speed2: v[3]}, nil

	case TagRotate:
		v, err := c.Ints(4)
		if err != nil {
			return nil, err
		}
		return RotateRequest{Angle: v[0], Speed: v[1], Target: v[2], Enable: v[3]}, nil

	case TagServo:
		v, err := c.Ints(2)
		if err != nil {
			return nil, err
		}
		return ServoRequest{Channel: v[0], Angle: v[1]}, nil

	case TagLED:
		v, err := c.Ints(4)
		if err != nil {
			return nil, err
		}
		return LEDRequest{Index: v[0], R: channel(v[1]), G: channel(v[2]), B: channel(v[3])}, nil

	case TagLEDMode:
		n, err := c.Int(0)
		if err != nil {
			return nil, err
		}
		return LEDModeRequest{Mode: n}, nil

	case TagSonic:
		return SonicToggle{On: flag(c.Fields[0]) == "1"}, nil

	case TagBuzzer:
		return BuzzerRequest{On: flag(c.Fields[0]) != "0"}, nil

	case TagLight:
		return LightToggle{On: flag(c.Fields[0]) == "1"}, nil

	case TagPowerQuery:
		return PowerQuery{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTag, c.Tag)
}

// ParseFrame decodes and parses one complete frame.
func ParseFrame(frame string) (Request, error) {
	c, err := Decode(frame)
	if err != nil {
		return nil, err
	}
	return Parse(c)
}

func flag(s string) string {
	return strings.TrimSpace(s)
}

// channel clamps a color component to [0, 255].
func channel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
