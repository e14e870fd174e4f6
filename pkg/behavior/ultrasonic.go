package behavior

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/teslashibe/go-rover/pkg/robot"
	"github.com/teslashibe/go-rover/pkg/state"
)

// Scan angles of the ultrasonic pan servo.
const (
	ScanLeft   = 30
	ScanMiddle = 90
	ScanRight  = 150

	DefaultSettle = 200 * time.Millisecond
)

// sweep is repeated after the initial left-to-right pass.
var sweep = []int{ScanMiddle, ScanLeft, ScanMiddle, ScanRight}

// Avoidance sweeps the ultrasonic sensor and drives away from obstacles.
type Avoidance struct {
	Deps
	Policy Policy
	Settle time.Duration

	// Coin picks the escape pivot direction. Defaults to a fair coin.
	Coin func() bool
	// Now defaults to time.Now.
	Now func() time.Time

	scan     state.Distances
	scanOK   bool
	last     robot.Motors
	detector StuckDetector
}

// NewAvoidance creates an avoidance behavior with the given thresholds.
func NewAvoidance(d Deps, th Thresholds) *Avoidance {
	return &Avoidance{
		Deps:   d,
		Policy: NewPolicy(th),
		Settle: DefaultSettle,
		Coin:   func() bool { return rand.IntN(2) == 0 },
		Now:    time.Now,
	}
}

// Run sweeps and decides until ctx is cancelled. Policy is evaluated after
// every successful reading; a failed read skips that step.
func (a *Avoidance) Run(ctx context.Context) {
	log := a.logger().With("behavior", "ultrasonic")
	log.Info("avoidance started")
	defer log.Info("avoidance stopped")

	a.scan = state.Distances{L: robot.NoReading, M: robot.NoReading, R: robot.NoReading}
	a.last = a.State.Motors()
	a.detector = StuckDetector{}

	for _, angle := range []int{ScanLeft, ScanMiddle, ScanRight} {
		if !a.sample(ctx, angle) {
			return
		}
	}
	if !a.decide(ctx) {
		return
	}

	for {
		for _, angle := range sweep {
			if !a.sample(ctx, angle) {
				return
			}
			if !a.decide(ctx) {
				return
			}
		}
	}
}

// sample points the sensor at angle and stores the reading. It returns
// false only when ctx was cancelled.
func (a *Avoidance) sample(ctx context.Context, angle int) bool {
	a.Servo(robot.ScanServo, angle)
	if !sleep(ctx, a.Settle) {
		return false
	}
	cm, err := a.Sensors.ReadDistance()
	if err != nil {
		a.logger().Warn("sensor fault", "sensor", "ultrasonic", "angle", angle, "err", err)
		a.scanOK = false
		return true
	}
	switch angle {
	case ScanLeft:
		a.scan.L = cm
	case ScanMiddle:
		a.scan.M = cm
	case ScanRight:
		a.scan.R = cm
	}
	a.scanOK = true
	a.State.SetDistance(cm)
	a.State.SetScan(a.scan)
	return true
}

// decide runs the policy on the current scan and plays the maneuver.
func (a *Avoidance) decide(ctx context.Context) bool {
	if !a.scanOK {
		return ctx.Err() == nil
	}

	var dec Decision
	dec, a.detector = a.Policy.Decide(Input{
		Readings:  a.scan,
		Last:      a.last,
		Now:       a.Now(),
		PivotLeft: a.Coin(),
	}, a.detector)

	if dec.Rule == RuleEscape {
		a.logger().Info("stuck, escaping", "l", a.scan.L, "m", a.scan.M, "r", a.scan.R)
	}

	for _, step := range dec.Steps {
		if a.Drive(step.Motors) {
			a.last = step.Motors.Clamp()
		}
		if !sleep(ctx, step.Hold) {
			return false
		}
	}
	return true
}
