package behavior

import (
	"time"

	"github.com/teslashibe/go-rover/pkg/robot"
	"github.com/teslashibe/go-rover/pkg/state"
)

// DefaultStuckAfter is how long readings must stay frozen while driving
// straight before the robot is considered stuck.
const DefaultStuckAfter = 1500 * time.Millisecond

// StuckDetector tracks one stuck episode. The zero value is ready to use.
//
// An episode starts when the last command is robot.Straight and the same
// readings are observed again. It fires once, when the readings have been
// frozen for longer than the window, and stays latched until a reading
// changes or the command is no longer straight.
type StuckDetector struct {
	Prev   state.Distances
	Since  time.Time // zero when no episode is being timed
	Fired  bool
	primed bool
}

// Observe folds one sample into the detector and reports whether the
// episode fired on this sample. It is pure: the receiver is not modified.
func (s StuckDetector) Observe(r state.Distances, last robot.Motors, now time.Time, window time.Duration) (StuckDetector, bool) {
	if last != robot.Straight {
		return StuckDetector{Prev: r, primed: true}, false
	}
	if !s.primed || r != s.Prev {
		return StuckDetector{Prev: r, Since: now, primed: true}, false
	}
	if s.Since.IsZero() {
		s.Since = now
		return s, false
	}
	if s.Fired || now.Sub(s.Since) <= window {
		return s, false
	}
	s.Fired = true
	return s, true
}
