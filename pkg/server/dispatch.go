package server

import (
	"errors"
	"log/slog"

	"github.com/teslashibe/go-rover/pkg/mode"
	"github.com/teslashibe/go-rover/pkg/protocol"
	"github.com/teslashibe/go-rover/pkg/state"
)

// dispatch routes a parsed request. Drive commands outside manual mode are
// ignored; actuator faults are logged and the loop continues.
func (s *Server) dispatch(req protocol.Request, log *slog.Logger) {
	var err error

	switch r := req.(type) {
	case protocol.ModeRequest:
		err = s.deps.Arbiter.SetMode(r.Mode)

	case protocol.MotorRequest:
		err = s.deps.Arbiter.Drive(r.Motors)

	case protocol.MecanumRequest:
		err = s.deps.Arbiter.Mecanum(r.Angle1, r.Speed1, r.Angle2, r.Speed2)

	case protocol.RotateRequest:
		err = s.deps.Arbiter.Rotate(r.Angle, r.Speed, r.Target, r.Enable != 0)

	case protocol.ServoRequest:
		err = s.deps.Actuators.SetServo(r.Channel, r.Angle)

	case protocol.LEDRequest:
		err = s.deps.Actuators.SetLED(r.Index, r.R, r.G, r.B)

	case protocol.LEDModeRequest:
		err = s.deps.Actuators.SetLEDMode(r.Mode)

	case protocol.BuzzerRequest:
		err = s.deps.Actuators.SetBuzzer(r.On)

	case protocol.SonicToggle:
		s.toggle(state.StreamUltrasonic, r.On)

	case protocol.LightToggle:
		s.toggle(state.StreamLight, r.On)

	case protocol.PowerQuery:
		_, err = s.deps.Power.Query()

	default:
		log.Warn("unhandled request", "command", req.Command().String())
		return
	}

	switch {
	case err == nil:
	case errors.Is(err, mode.ErrNotManual):
		log.Debug("drive command ignored", "command", req.Command().String(), "mode", s.deps.State.Mode().String())
	default:
		log.Warn("command failed", "command", req.Command().String(), "err", err)
	}
}

func (s *Server) toggle(st state.Stream, on bool) {
	if on {
		s.deps.Telemetry.Enable(st)
		return
	}
	s.deps.Telemetry.Disable(st)
}
