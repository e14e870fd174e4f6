package behavior

import (
	"testing"
	"time"

	"github.com/teslashibe/go-rover/pkg/robot"
	"github.com/teslashibe/go-rover/pkg/state"
)

func TestStuckDetector(t *testing.T) {
	t0 := time.Unix(0, 0)
	a := state.Distances{L: 50, M: 60, R: 70}
	b := state.Distances{L: 50, M: 61, R: 70}
	turn := robot.Motors{1500, 1500, -800, -800}

	type sample struct {
		at    time.Duration
		r     state.Distances
		last  robot.Motors
		fired bool
	}

	tests := []struct {
		name    string
		samples []sample
	}{
		{
			name: "fires once after window",
			samples: []sample{
				{0, a, robot.Straight, false},
				{time.Second, a, robot.Straight, false},
				{1500 * time.Millisecond, a, robot.Straight, false},
				{1501 * time.Millisecond, a, robot.Straight, true},
				{2 * time.Second, a, robot.Straight, false},
				{10 * time.Second, a, robot.Straight, false},
			},
		},
		{
			name: "reading change restarts episode",
			samples: []sample{
				{0, a, robot.Straight, false},
				{1600 * time.Millisecond, a, robot.Straight, true},
				{1700 * time.Millisecond, b, robot.Straight, false},
				{3000 * time.Millisecond, b, robot.Straight, false},
				{3300 * time.Millisecond, b, robot.Straight, true},
			},
		},
		{
			name: "change resets timer",
			samples: []sample{
				{0, a, robot.Straight, false},
				{time.Second, b, robot.Straight, false},
				{2 * time.Second, b, robot.Straight, false},
				{2600 * time.Millisecond, b, robot.Straight, true},
			},
		},
		{
			name: "turning never fires",
			samples: []sample{
				{0, a, turn, false},
				{5 * time.Second, a, turn, false},
			},
		},
		{
			name: "non-straight command clears latch",
			samples: []sample{
				{0, a, robot.Straight, false},
				{2 * time.Second, a, robot.Straight, true},
				{2100 * time.Millisecond, a, turn, false},
				{2200 * time.Millisecond, a, robot.Straight, false},
				{3800 * time.Millisecond, a, robot.Straight, true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sd StuckDetector
			for i, s := range tt.samples {
				var fired bool
				sd, fired = sd.Observe(s.r, s.last, t0.Add(s.at), DefaultStuckAfter)
				if fired != s.fired {
					t.Errorf("sample %d at %v: fired = %v, want %v", i, s.at, fired, s.fired)
				}
			}
		})
	}
}

func TestStuckDetector_ObserveDoesNotMutate(t *testing.T) {
	sd := StuckDetector{}
	sd.Observe(state.Distances{L: 1, M: 2, R: 3}, robot.Straight, time.Unix(5, 0), DefaultStuckAfter)
	if sd.primed || !sd.Since.IsZero() {
		t.Errorf("receiver modified: %+v", sd)
	}
}
