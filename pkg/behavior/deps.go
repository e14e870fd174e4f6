package behavior

import (
	"log/slog"

	"github.com/teslashibe/go-rover/pkg/robot"
	"github.com/teslashibe/go-rover/pkg/state"
)

// Deps are the collaborators shared by every behavior.
type Deps struct {
	Actuators robot.Actuators
	Sensors   robot.Sensors
	State     *state.Robot
	Logger    *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// Drive applies m and records it in the shared state. On an actuator fault
// the state keeps the previous vector and Drive returns false.
func (d Deps) Drive(m robot.Motors) bool {
	m = m.Clamp()
	if err := m.Apply(d.Actuators); err != nil {
		d.logger().Warn("actuator fault", "motors", m.String(), "err", err)
		return false
	}
	d.State.SetMotors(m)
	return true
}

// Servo moves a servo, logging a fault instead of returning it.
func (d Deps) Servo(channel, angle int) {
	if err := d.Actuators.SetServo(channel, angle); err != nil {
		d.logger().Warn("actuator fault", "servo", channel, "angle", angle, "err", err)
	}
}

// ForMode returns the behavior that holds drive authority in m.
// Manual mode has none.
func ForMode(m state.Mode, d Deps, th Thresholds) (Runner, bool) {
	switch m {
	case state.UltrasonicAvoid:
		return NewAvoidance(d, th), true
	case state.LightFollow:
		return NewLightFollower(d), true
	case state.LineFollow:
		return NewLineFollower(d), true
	}
	return nil, false
}
