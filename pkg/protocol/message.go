// Package protocol implements the rover's line-oriented text protocol.
//
// A frame is a tag followed by zero or more fields, joined by '#' and
// terminated by '\n':
//
//	MOTOR#600#600#600#600\n
//
// The package is stateless except for Framer, which reassembles frames split
// across reads.
package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Delimiter separates the tag and fields of a frame.
	Delimiter = "#"
	// Terminator ends a frame.
	Terminator = "\n"
)

// Tag identifies the kind of a frame.
type Tag string

const (
	// Client → rover commands
	TagMode       Tag = "MODE"
	TagMotor      Tag = "MOTOR"
	TagMecanum    Tag = "MECANUM_MOTOR"
	TagRotate     Tag = "ROTATE"
	TagServo      Tag = "SERVO"
	TagLED        Tag = "LED"
	TagLEDMode    Tag = "LED_MODE"
	TagSonic      Tag = "SONIC_TOGGLE"
	TagBuzzer     Tag = "BUZZER"
	TagLight      Tag = "LIGHT_TOGGLE"
	TagPowerQuery Tag = "POWER_QUERY"

	// Rover → client telemetry. Telemetry reuses MODE with a channel digit.
	TagPower Tag = "POWER"
)

// registry maps every accepted command tag to its required field count.
var registry = map[Tag]int{
	TagMode:       1,
	TagMotor:      4,
	TagMecanum:    4,
	TagRotate:     4,
	TagServo:      2,
	TagLED:        4,
	TagLEDMode:    1,
	TagSonic:      1,
	TagBuzzer:     1,
	TagLight:      1,
	TagPowerQuery: 0,
}

// legacyTags maps the CMD_-prefixed tags sent by older phone/desktop clients.
var legacyTags = map[string]Tag{
	"CMD_MODE":       TagMode,
	"CMD_MOTOR":      TagMotor,
	"CMD_M_MOTOR":    TagMecanum,
	"CMD_CAR_ROTATE": TagRotate,
	"CMD_SERVO":      TagServo,
	"CMD_LED":        TagLED,
	"CMD_LED_MOD":    TagLEDMode,
	"CMD_SONIC":      TagSonic,
	"CMD_BUZZER":     TagBuzzer,
	"CMD_LIGHT":      TagLight,
	"CMD_POWER":      TagPowerQuery,
}

// Tags returns every command tag in the registry.
func Tags() []Tag {
	return []Tag{
		TagMode, TagMotor, TagMecanum, TagRotate, TagServo, TagLED,
		TagLEDMode, TagSonic, TagBuzzer, TagLight, TagPowerQuery,
	}
}

// Known reports whether t is a registered command tag.
func (t Tag) Known() bool {
	_, ok := registry[t]
	return ok
}

// Arity returns the number of fields a command with tag t requires.
func (t Tag) Arity() int {
	return registry[t]
}

// Command is a decoded frame: a tag plus its raw fields.
type Command struct {
	Tag    Tag
	Fields []string
}

// Split breaks a frame into its raw tag and fields without consulting the
// registry. A trailing terminator and carriage return are ignored.
func Split(frame string) (string, []string) {
	frame = strings.TrimRight(frame, "\r\n")
	parts := strings.Split(frame, Delimiter)
	tag := strings.TrimSpace(parts[0])
	fields := parts[1:]
	// Senders commonly end a frame with a stray delimiter.
	if n := len(fields); n > 0 && fields[n-1] == "" {
		fields = fields[:n-1]
	}
	return tag, fields
}

// Decode parses a complete frame into a Command. Unknown tags return
// ErrUnknownTag; the caller is expected to drop the frame and continue.
func Decode(frame string) (Command, error) {
	raw, fields := Split(frame)
	if raw == "" {
		return Command{}, ErrEmptyFrame
	}

	tag := Tag(raw)
	if alias, ok := legacyTags[raw]; ok {
		tag = alias
	}
	if !tag.Known() {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownTag, raw)
	}
	if len(fields) < tag.Arity() {
		return Command{}, fmt.Errorf("%w: %s wants %d fields, got %d", ErrMissingField, tag, tag.Arity(), len(fields))
	}

	return Command{Tag: tag, Fields: fields}, nil
}

// Int parses field i as an integer.
func (c Command) Int(i int) (int, error) {
	if i >= len(c.Fields) {
		return 0, fmt.Errorf("%w: %s field %d", ErrMissingField, c.Tag, i)
	}
	n, err := strconv.Atoi(strings.TrimSpace(c.Fields[i]))
	if err != nil {
		return 0, fmt.Errorf("%w: %s field %d %q", ErrBadNumber, c.Tag, i, c.Fields[i])
	}
	return n, nil
}

// Ints parses the first n fields as integers.
func (c Command) Ints(n int) ([]int, error) {
	out := make([]int, n)
	for i := range out {
		v, err := c.Int(i)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Bytes encodes the command as a frame.
func (c Command) Bytes() []byte {
	fields := make([]any, len(c.Fields))
	for i, f := range c.Fields {
		fields[i] = f
	}
	return Encode(c.Tag, fields...)
}

func (c Command) String() string {
	return strings.TrimSuffix(string(c.Bytes()), Terminator)
}

// Encode builds a frame from a tag and fields. Floats are written with two
// decimals, bools as 1/0, and anything else through fmt.
func Encode(tag Tag, fields ...any) []byte {
	var sb strings.Builder
	sb.WriteString(string(tag))
	for _, f := range fields {
		sb.WriteString(Delimiter)
		sb.WriteString(formatField(f))
	}
	sb.WriteString(Terminator)
	return []byte(sb.String())
}

func formatField(f any) string {
	switch v := f.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', 2, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', 2, 32)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
