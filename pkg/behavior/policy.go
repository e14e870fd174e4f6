package behavior

import (
	"time"

	"github.com/teslashibe/go-rover/pkg/robot"
	"github.com/teslashibe/go-rover/pkg/state"
)

// Thresholds are the avoidance distances in centimeters.
type Thresholds struct {
	Near   int // rule 2: back up and pivot
	Wide   int // rules 3 and 4: hard turn
	Medium int // rules 5 and 6: soft turn
	Tight  int // sharper soft turn
}

// DefaultThresholds returns the stock tuning. With Near == Wide the hard
// turn rules never match because rule 2 catches every M below Wide first.
func DefaultThresholds() Thresholds {
	return Thresholds{Near: 30, Wide: 30, Medium: 20, Tight: 10}
}

// Rule identifies which policy branch produced a decision.
type Rule int

const (
	RuleEscape Rule = iota + 1
	RuleBackUp
	RuleHardRight
	RuleHardLeft
	RuleSoftRight
	RuleSoftLeft
	RuleStraight
)

var ruleNames = map[Rule]string{
	RuleEscape:    "escape",
	RuleBackUp:    "back_up",
	RuleHardRight: "hard_right",
	RuleHardLeft:  "hard_left",
	RuleSoftRight: "soft_right",
	RuleSoftLeft:  "soft_left",
	RuleStraight:  "straight",
}

func (r Rule) String() string {
	if n, ok := ruleNames[r]; ok {
		return n
	}
	return "unknown"
}

// Step is one motor command held for a duration.
type Step struct {
	Motors robot.Motors
	Hold   time.Duration
}

// Decision is the maneuver chosen for one sample.
type Decision struct {
	Rule  Rule
	Steps []Step
}

// Final returns the motor vector left applied after the maneuver.
func (d Decision) Final() robot.Motors {
	if len(d.Steps) == 0 {
		return robot.Stop
	}
	return d.Steps[len(d.Steps)-1].Motors
}

// Input is one policy evaluation.
type Input struct {
	Readings  state.Distances
	Last      robot.Motors // vector currently applied
	Now       time.Time
	PivotLeft bool // escape pivot direction, drawn by the caller
}

// Policy is the ultrasonic avoidance decision function.
type Policy struct {
	Thresholds Thresholds
	StuckAfter time.Duration
}

// NewPolicy returns a policy with the given thresholds and the default
// stuck window.
func NewPolicy(th Thresholds) Policy {
	return Policy{Thresholds: th, StuckAfter: DefaultStuckAfter}
}

// Decide is pure: the same input and detector always give the same
// decision and detector.
func (p Policy) Decide(in Input, sd StuckDetector) (Decision, StuckDetector) {
	sd, stuck := sd.Observe(in.Readings, in.Last, in.Now, p.StuckAfter)
	if stuck {
		return escape(in.PivotLeft), sd
	}
	return p.avoid(in.Readings), sd
}

func escape(pivotLeft bool) Decision {
	pivot := robot.Motors{1800, 1800, -1800, -1800}
	if pivotLeft {
		pivot = robot.Motors{-1800, -1800, 1800, 1800}
	}
	return Decision{
		Rule: RuleEscape,
		Steps: []Step{
			{Motors: robot.Motors{-1500, -1500, -1500, -1500}, Hold: time.Second},
			{Motors: pivot, Hold: 700 * time.Millisecond},
			{Motors: robot.Straight},
		},
	}
}

func (p Policy) avoid(d state.Distances) Decision {
	th := p.Thresholds
	L, M, R := d.L, d.M, d.R

	switch {
	case (L < th.Near && M < th.Near && R < th.Near) || M < th.Near:
		turn := robot.Motors{-1600, -1600, 1600, 1600}
		if L < R {
			turn = robot.Motors{1600, 1600, -1600, -1600}
		}
		return Decision{Rule: RuleBackUp, Steps: []Step{
			{Motors: robot.Motors{-1200, -1200, -1200, -1200}, Hold: 200 * time.Millisecond},
			{Motors: turn, Hold: 300 * time.Millisecond},
		}}

	case L < th.Wide && M < th.Wide:
		return hold(RuleHardRight, robot.Motors{2000, 2000, -2000, -2000}, 300*time.Millisecond)

	case R < th.Wide && M < th.Wide:
		return hold(RuleHardLeft, robot.Motors{-2000, -2000, 2000, 2000}, 300*time.Millisecond)

	case L < th.Medium:
		m := robot.Motors{1500, 1500, -800, -800}
		if L < th.Tight {
			m = robot.Motors{2000, 2000, -1200, -1200}
		}
		return hold(RuleSoftRight, m, 300*time.Millisecond)

	case R < th.Medium:
		m := robot.Motors{-800, -800, 1500, 1500}
		if R < th.Tight {
			m = robot.Motors{-1200, -1200, 2000, 2000}
		}
		return hold(RuleSoftLeft, m, 300*time.Millisecond)
	}

	return hold(RuleStraight, robot.Straight, 0)
}

func hold(r Rule, m robot.Motors, d time.Duration) Decision {
	return Decision{Rule: r, Steps: []Step{{Motors: m, Hold: d}}}
}
