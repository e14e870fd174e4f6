package behavior

import (
	"reflect"
	"testing"
	"time"

	"github.com/teslashibe/go-rover/pkg/robot"
	"github.com/teslashibe/go-rover/pkg/state"
)

func TestPolicy_Avoid(t *testing.T) {
	def := NewPolicy(DefaultThresholds())
	wide := NewPolicy(Thresholds{Near: 20, Wide: 40, Medium: 15, Tight: 10})

	tests := []struct {
		name    string
		policy  Policy
		L, M, R int
		rule    Rule
		final   robot.Motors
	}{
		{"open space", def, 100, 100, 100, RuleStraight, robot.Straight},
		{"M at near", def, 100, 30, 100, RuleStraight, robot.Straight},
		{"M below near", def, 100, 29, 100, RuleBackUp, robot.Motors{-1600, -1600, 1600, 1600}},
		{"all near, left closer", def, 10, 20, 25, RuleBackUp, robot.Motors{1600, 1600, -1600, -1600}},
		{"all near, right closer", def, 25, 20, 10, RuleBackUp, robot.Motors{-1600, -1600, 1600, 1600}},
		{"L at medium", def, 20, 100, 100, RuleStraight, robot.Straight},
		{"L below medium", def, 19, 100, 100, RuleSoftRight, robot.Motors{1500, 1500, -800, -800}},
		{"L at tight", def, 10, 100, 100, RuleSoftRight, robot.Motors{1500, 1500, -800, -800}},
		{"L below tight", def, 9, 100, 100, RuleSoftRight, robot.Motors{2000, 2000, -1200, -1200}},
		{"R below medium", def, 100, 100, 19, RuleSoftLeft, robot.Motors{-800, -800, 1500, 1500}},
		{"R below tight", def, 100, 100, 9, RuleSoftLeft, robot.Motors{-1200, -1200, 2000, 2000}},
		{"both sides, left first", def, 15, 100, 15, RuleSoftRight, robot.Motors{1500, 1500, -800, -800}},
		{"hard right", wide, 35, 35, 100, RuleHardRight, robot.Motors{2000, 2000, -2000, -2000}},
		{"hard left", wide, 100, 35, 35, RuleHardLeft, robot.Motors{-2000, -2000, 2000, 2000}},
		{"hard right wins tie", wide, 35, 35, 35, RuleHardRight, robot.Motors{2000, 2000, -2000, -2000}},
		{"wide boundary", wide, 40, 39, 100, RuleStraight, robot.Straight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := tt.policy.avoid(state.Distances{L: tt.L, M: tt.M, R: tt.R})
			if dec.Rule != tt.rule {
				t.Errorf("rule = %v, want %v", dec.Rule, tt.rule)
			}
			if dec.Final() != tt.final {
				t.Errorf("final = %v, want %v", dec.Final(), tt.final)
			}
		})
	}
}

func TestPolicy_BackUpSequence(t *testing.T) {
	dec := NewPolicy(DefaultThresholds()).avoid(state.Distances{L: 50, M: 5, R: 60})
	if len(dec.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(dec.Steps))
	}
	if dec.Steps[0].Motors != (robot.Motors{-1200, -1200, -1200, -1200}) || dec.Steps[0].Hold != 200*time.Millisecond {
		t.Errorf("first step = %+v", dec.Steps[0])
	}
	if dec.Steps[1].Hold != 300*time.Millisecond {
		t.Errorf("pivot hold = %v", dec.Steps[1].Hold)
	}
}

func TestPolicy_DecideIsPure(t *testing.T) {
	p := NewPolicy(DefaultThresholds())
	now := time.Unix(1000, 0)
	in := Input{Readings: state.Distances{L: 40, M: 50, R: 12}, Last: robot.Straight, Now: now}
	sd := StuckDetector{Prev: in.Readings, Since: now.Add(-time.Second), primed: true}

	d1, s1 := p.Decide(in, sd)
	d2, s2 := p.Decide(in, sd)
	if !reflect.DeepEqual(d1, d2) || !reflect.DeepEqual(s1, s2) {
		t.Errorf("Decide not deterministic: %+v/%+v vs %+v/%+v", d1, s1, d2, s2)
	}
}

func TestPolicy_Escape(t *testing.T) {
	p := NewPolicy(DefaultThresholds())
	start := time.Unix(1000, 0)
	r := state.Distances{L: 80, M: 80, R: 80}

	var sd StuckDetector
	var dec Decision
	for _, dt := range []time.Duration{0, 500 * time.Millisecond, time.Second} {
		dec, sd = p.Decide(Input{Readings: r, Last: robot.Straight, Now: start.Add(dt)}, sd)
		if dec.Rule != RuleStraight {
			t.Fatalf("at %v rule = %v, want straight", dt, dec.Rule)
		}
	}

	dec, sd = p.Decide(Input{Readings: r, Last: robot.Straight, Now: start.Add(1600 * time.Millisecond), PivotLeft: true}, sd)
	if dec.Rule != RuleEscape {
		t.Fatalf("rule = %v, want escape", dec.Rule)
	}
	want := []Step{
		{Motors: robot.Motors{-1500, -1500, -1500, -1500}, Hold: time.Second},
		{Motors: robot.Motors{-1800, -1800, 1800, 1800}, Hold: 700 * time.Millisecond},
		{Motors: robot.Straight},
	}
	if !reflect.DeepEqual(dec.Steps, want) {
		t.Errorf("steps = %+v, want %+v", dec.Steps, want)
	}

	// Latched: the same frozen readings do not trigger a second escape.
	dec, _ = p.Decide(Input{Readings: r, Last: robot.Straight, Now: start.Add(5 * time.Second)}, sd)
	if dec.Rule == RuleEscape {
		t.Error("escape fired twice in one episode")
	}

	right := escape(false)
	if right.Steps[1].Motors != (robot.Motors{1800, 1800, -1800, -1800}) {
		t.Errorf("right pivot = %v", right.Steps[1].Motors)
	}
}

func TestRule_String(t *testing.T) {
	if RuleBackUp.String() != "back_up" || Rule(99).String() != "unknown" {
		t.Error("unexpected rule names")
	}
}
