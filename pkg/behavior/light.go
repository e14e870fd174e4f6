package behavior

import (
	"context"
	"math"
	"time"

	"github.com/felixge/pidctrl"

	"github.com/teslashibe/go-rover/pkg/robot"
)

// Light-follow tuning.
const (
	LightDark     = 2.99 // volts; both sides below this means no source
	LightBalanced = 0.15 // volts; smaller difference drives straight
	LightCruise   = 600
	LightSteer    = 1400 // wheel differential at full PID output
	LightPeriod   = 100 * time.Millisecond
	lightGainP    = 2.0
	lightGainI    = 0.2
	lightGainD    = 0.0
)

// LightFollower steers toward the brighter of the two photoresistors.
type LightFollower struct {
	Deps
	Period time.Duration

	pid *pidctrl.PIDController
}

// NewLightFollower creates a light follower.
func NewLightFollower(d Deps) *LightFollower {
	return &LightFollower{
		Deps:   d,
		Period: LightPeriod,
		pid:    newLightPID(),
	}
}

func newLightPID() *pidctrl.PIDController {
	return pidctrl.NewPIDController(lightGainP, lightGainI, lightGainD).
		SetOutputLimits(-1, 1).
		Set(0)
}

// Run reads both light sensors each period and steers until ctx is cancelled.
func (f *LightFollower) Run(ctx context.Context) {
	log := f.logger().With("behavior", "light")
	log.Info("light follow started")
	defer log.Info("light follow stopped")

	for {
		left, right, err := f.Sensors.ReadLight()
		if err != nil {
			log.Warn("sensor fault", "sensor", "light", "err", err)
		} else {
			f.State.SetLight(left, right)
			f.Drive(f.Steer(left, right))
		}
		if !sleep(ctx, f.Period) {
			return
		}
	}
}

// Steer maps one light reading pair to a motor vector.
func (f *LightFollower) Steer(left, right float64) robot.Motors {
	if left < LightDark && right < LightDark {
		f.pid = newLightPID()
		return robot.Stop
	}
	diff := left - right
	if math.Abs(diff) < LightBalanced {
		f.pid = newLightPID()
		return robot.Motors{LightCruise, LightCruise, LightCruise, LightCruise}
	}

	// The controller drives (left - right) toward zero: a brighter left
	// side yields a negative output, slowing the left wheels. Each call is
	// one control period, whatever the wall clock says.
	out := f.pid.UpdateDuration(diff, f.Period)
	d := int(out * LightSteer)
	return robot.Motors{LightCruise + d, LightCruise + d, LightCruise - d, LightCruise - d}
}
