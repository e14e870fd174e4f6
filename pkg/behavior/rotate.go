package behavior

import (
	"context"
	"time"

	"github.com/teslashibe/go-rover/pkg/robot"
)

// Drift-rotate tuning.
const (
	RotateStep      = 30 * time.Millisecond
	RotateDecrement = 5 // degrees per step
	nominalVoltage  = 7.5
)

// Rotation drives a translation whose heading turns while the chassis spins.
type Rotation struct {
	Deps
	Angle int // starting heading in degrees
	Speed int
	Step  time.Duration
}

// NewRotation creates a rotation starting at angle.
func NewRotation(d Deps, angle, speed int) *Rotation {
	return &Rotation{Deps: d, Angle: angle, Speed: speed, Step: RotateStep}
}

// Run steps the rotation until ctx is cancelled. The shared rotating flag is
// set for the lifetime of the loop.
func (r *Rotation) Run(ctx context.Context) {
	r.State.SetRotating(true)
	defer r.State.SetRotating(false)

	angle := r.Angle
	for {
		r.Drive(robot.Spin(angle, r.Speed, r.Speed))
		angle -= RotateDecrement
		if angle <= -360 {
			angle += 360
		}

		if !sleep(ctx, time.Duration(float64(r.Step)*r.compensation())) {
			return
		}
	}
}

// compensation stretches the step on a low battery so the rotation rate stays
// roughly constant. Unknown voltage means no compensation.
func (r *Rotation) compensation() float64 {
	v := r.State.Voltage()
	if v <= 0 {
		return 1
	}
	c := nominalVoltage / v
	switch {
	case c < 0.5:
		return 0.5
	case c > 2:
		return 2
	}
	return c
}
