package protocol

import (
	"errors"
	"reflect"
	"testing"

	"github.com/teslashibe/go-rover/pkg/robot"
	"github.com/teslashibe/go-rover/pkg/state"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    Command
		wantErr error
	}{
		{
			name:  "motor",
			frame: "MOTOR#600#600#600#600",
			want:  Command{Tag: TagMotor, Fields: []string{"600", "600", "600", "600"}},
		},
		{
			name:  "trailing terminator",
			frame: "MODE#3\r\n",
			want:  Command{Tag: TagMode, Fields: []string{"3"}},
		},
		{
			name:  "trailing delimiter",
			frame: "SERVO#0#90#",
			want:  Command{Tag: TagServo, Fields: []string{"0", "90"}},
		},
		{
			name:  "legacy alias",
			frame: "CMD_M_MOTOR#0#1500#0#0",
			want:  Command{Tag: TagMecanum, Fields: []string{"0", "1500", "0", "0"}},
		},
		{
			name:  "no fields",
			frame: "POWER_QUERY",
			want:  Command{Tag: TagPowerQuery, Fields: []string{}},
		},
		{
			name:    "empty",
			frame:   "",
			wantErr: ErrEmptyFrame,
		},
		{
			name:    "unknown tag",
			frame:   "FLY#1",
			wantErr: ErrUnknownTag,
		},
		{
			name:    "short motor",
			frame:   "MOTOR#1#2#3",
			wantErr: ErrMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.frame)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Decode(%q) error = %v, want %v", tt.frame, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode(%q) unexpected error: %v", tt.frame, err)
			}
			if got.Tag != tt.want.Tag {
				t.Errorf("Tag = %q, want %q", got.Tag, tt.want.Tag)
			}
			if len(got.Fields) != len(tt.want.Fields) {
				t.Fatalf("Fields = %v, want %v", got.Fields, tt.want.Fields)
			}
			for i := range got.Fields {
				if got.Fields[i] != tt.want.Fields[i] {
					t.Errorf("Fields[%d] = %q, want %q", i, got.Fields[i], tt.want.Fields[i])
				}
			}
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		tag    Tag
		fields []any
		want   string
	}{
		{"ints", TagMotor, []any{1, -2, 3, 0}, "MOTOR#1#-2#3#0\n"},
		{"floats", TagMode, []any{"1", 2.5, 3.129}, "MODE#1#2.50#3.13\n"},
		{"bool", TagBuzzer, []any{true}, "BUZZER#1\n"},
		{"no fields", TagPowerQuery, nil, "POWER_QUERY\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(Encode(tt.tag, tt.fields...)); got != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCommandRoundTrip(t *testing.T) {
	frames := []string{
		"MODE#3",
		"MOTOR#-4095#0#4095#12",
		"MECANUM_MOTOR#90#1500#0#0",
		"ROTATE#0#1000#0#1",
		"SERVO#1#45",
		"LED#7#255#0#128",
		"LED_MODE#2",
		"SONIC_TOGGLE#1",
		"BUZZER#0",
		"LIGHT_TOGGLE#0",
		"POWER_QUERY",
	}

	for _, f := range frames {
		c, err := Decode(f)
		if err != nil {
			t.Fatalf("Decode(%q): %v", f, err)
		}
		if got := c.String(); got != f {
			t.Errorf("round trip %q = %q", f, got)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    Request
		wantErr error
	}{
		{"mode digit", "MODE#3", ModeRequest{Mode: state.UltrasonicAvoid}, nil},
		{"mode name", "MODE#light", ModeRequest{Mode: state.LightFollow}, nil},
		{"mode legacy word", "CMD_MODE#four", ModeRequest{Mode: state.LineFollow}, nil},
		{"bad mode", "MODE#9", nil, ErrBadMode},
		{"motor", "MOTOR#100#200#-300#400", MotorRequest{Motors: robot.Motors{100, 200, -300, 400}}, nil},
		{"motor bad number", "MOTOR#100#x#0#0", nil, ErrBadNumber},
		{"mecanum", "MECANUM_MOTOR#90#1000#0#0", MecanumRequest{Angle1: 90, Speed1: 1000}, nil},
		{"rotate", "ROTATE#10#800#0#1", RotateRequest{Angle: 10, Speed: 800, Enable: 1}, nil},
		{"servo", "SERVO#0#120", ServoRequest{Channel: 0, Angle: 120}, nil},
		{"led clamps", "LED#3#300#-5#10", LEDRequest{Index: 3, R: 255, G: 0, B: 10}, nil},
		{"led mode", "LED_MODE#4", LEDModeRequest{Mode: 4}, nil},
		{"sonic on", "SONIC_TOGGLE#1", SonicToggle{On: true}, nil},
		{"sonic off", "SONIC_TOGGLE#0", SonicToggle{On: false}, nil},
		{"buzzer any nonzero", "BUZZER#2000", BuzzerRequest{On: true}, nil},
		{"buzzer off", "BUZZER#0", BuzzerRequest{On: false}, nil},
		{"light on", "LIGHT_TOGGLE#1", LightToggle{On: true}, nil},
		{"power", "POWER_QUERY", PowerQuery{}, nil},
		{"unknown", "JUMP#1", nil, ErrUnknownTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFrame(tt.frame)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseFrame(%q) error = %v, want %v", tt.frame, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFrame(%q) unexpected error: %v", tt.frame, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseFrame(%q) = %#v, want %#v", tt.frame, got, tt.want)
			}
		})
	}
}

func TestRequestCommand(t *testing.T) {
	reqs := []Request{
		ModeRequest{Mode: state.LineFollow},
		MotorRequest{Motors: robot.Motors{1, 2, 3, 4}},
		MecanumRequest{Angle1: 45, Speed1: 1000, Angle2: 0, Speed2: 200},
		RotateRequest{Angle: 0, Speed: 1200, Target: 0, Enable: 1},
		ServoRequest{Channel: 1, Angle: 60},
		LEDRequest{Index: 2, R: 1, G: 2, B: 3},
		LEDModeRequest{Mode: 1},
		SonicToggle{On: true},
		BuzzerRequest{On: false},
		LightToggle{On: true},
		PowerQuery{},
	}

	for _, r := range reqs {
		got, err := Parse(r.Command())
		if err != nil {
			t.Fatalf("Parse(%v): %v", r.Command(), err)
		}
		if !reflect.DeepEqual(got, r) {
			t.Errorf("Parse(Command()) = %#v, want %#v", got, r)
		}
	}
}

func TestTelemetryFrames(t *testing.T) {
	tests := []struct {
		name string
		got  []byte
		want string
	}{
		{"light", LightFrame(1.5, 2.25), "MODE#1#1.50#2.25\n"},
		{"line", LineFrame(robot.LineReading{0, 1, 0}), "MODE#2#010\n"},
		{"ultrasonic", UltrasonicFrame(37), "MODE#3#37\n"},
		{"power", PowerFrame(7.8), "POWER#7.80\n"},
		{"light disabled", LightDisabledFrame, "MODE#1#0#0\n"},
		{"ultrasonic disabled", UltrasonicDisabledFrame, "MODE#3#0\n"},
		{"line disabled", LineDisabledFrame, "MODE#2#000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.got) != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestParseTelemetry(t *testing.T) {
	got, err := ParseTelemetry("MODE#3#42")
	if err != nil || got.Channel != ChannelUltrasonic || got.Distance != 42 {
		t.Errorf("ultrasonic = %+v, %v", got, err)
	}

	got, err = ParseTelemetry("MODE#1#1.20#3.40")
	if err != nil || got.Light != [2]float64{1.2, 3.4} {
		t.Errorf("light = %+v, %v", got, err)
	}

	got, err = ParseTelemetry("MODE#2#110")
	if err != nil || got.Line != "110" {
		t.Errorf("line = %+v, %v", got, err)
	}

	got, err = ParseTelemetry("POWER#8.01")
	if err != nil || !got.IsPower || got.Voltage != 8.01 {
		t.Errorf("power = %+v, %v", got, err)
	}

	if _, err := ParseTelemetry("MODE#9#1"); !errors.Is(err, ErrUnknownTag) {
		t.Errorf("unknown channel error = %v", err)
	}
	if _, err := ParseTelemetry("MODE#3#far"); !errors.Is(err, ErrBadNumber) {
		t.Errorf("bad distance error = %v", err)
	}
}
