package behavior

import (
	"context"
	"time"

	"github.com/teslashibe/go-rover/pkg/robot"
)

// LinePeriod is the line-follow control period.
const LinePeriod = 50 * time.Millisecond

// lineTable maps an infrared pattern (left, middle, right) to a drive vector.
// Patterns missing from the table keep the previous vector.
var lineTable = map[string]robot.Motors{
	"010": {800, 800, 800, 800},
	"100": {-1500, -1500, 2500, 2500},
	"110": {-2000, -2000, 4000, 4000},
	"001": {2500, 2500, -1500, -1500},
	"011": {4000, 4000, -2000, -2000},
	"111": robot.Stop,
}

// LineFollower tracks a dark line with three infrared sensors.
type LineFollower struct {
	Deps
	Period time.Duration

	last robot.Motors
}

// NewLineFollower creates a line follower.
func NewLineFollower(d Deps) *LineFollower {
	return &LineFollower{Deps: d, Period: LinePeriod}
}

// LineVector returns the vector for reading l, or last when l is 000 or 101.
func LineVector(l robot.LineReading, last robot.Motors) robot.Motors {
	if m, ok := lineTable[l.String()]; ok {
		return m
	}
	return last
}

// Run polls the line sensors each period until ctx is cancelled.
func (f *LineFollower) Run(ctx context.Context) {
	log := f.logger().With("behavior", "line")
	log.Info("line follow started")
	defer log.Info("line follow stopped")

	f.last = f.State.Motors()
	for {
		l, err := f.Sensors.ReadLineSensors()
		if err != nil {
			log.Warn("sensor fault", "sensor", "line", "err", err)
		} else {
			f.State.SetLine(l)
			next := LineVector(l, f.last)
			if next != f.last && f.Drive(next) {
				f.last = next
			}
		}
		if !sleep(ctx, f.Period) {
			return
		}
	}
}
