package state

import (
	"sync"
	"time"

	"github.com/teslashibe/go-rover/pkg/robot"
)

// Distances holds the last left, middle and right ultrasonic readings in cm.
type Distances struct {
	L, M, R int
}

// Robot is the shared robot state.
type Robot struct {
	mu sync.RWMutex

	mode      Mode
	behavior  bool // a behavior task is alive
	rotating  bool
	motors    robot.Motors
	scan      Distances
	distance  int // last single ultrasonic reading
	light     [2]float64
	line      robot.LineReading
	enabled   [numStreams]bool
	voltage   float64
	updatedAt time.Time
}

// New returns the initial state: manual mode, stopped, no readings.
func New() *Robot {
	return &Robot{
		mode:     Manual,
		scan:     Distances{robot.NoReading, robot.NoReading, robot.NoReading},
		distance: robot.NoReading,
	}
}

func (r *Robot) touch() {
	r.updatedAt = time.Now()
}

// Mode returns the current mode.
func (r *Robot) Mode() Mode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mode
}

// SetMode records the mode and whether a behavior task now holds authority.
// Only the mode arbiter calls this.
func (r *Robot) SetMode(m Mode, behaviorRunning bool) {
	r.mu.Lock()
	r.mode = m
	r.behavior = behaviorRunning
	r.touch()
	r.mu.Unlock()
}

// BehaviorRunning reports whether a behavior task is alive.
func (r *Robot) BehaviorRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.behavior
}

// Motors returns the last commanded motor vector.
func (r *Robot) Motors() robot.Motors {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.motors
}

// SetMotors caches the last successfully commanded motor vector.
func (r *Robot) SetMotors(m robot.Motors) {
	r.mu.Lock()
	r.motors = m
	r.touch()
	r.mu.Unlock()
}

// Rotating reports whether a rotation task is alive.
func (r *Robot) Rotating() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rotating
}

// SetRotating records the rotation flag.
func (r *Robot) SetRotating(on bool) {
	r.mu.Lock()
	r.rotating = on
	r.mu.Unlock()
}

// Scan returns the last L/M/R sweep.
func (r *Robot) Scan() Distances {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scan
}

// SetScan caches the last L/M/R sweep.
func (r *Robot) SetScan(d Distances) {
	r.mu.Lock()
	r.scan = d
	r.touch()
	r.mu.Unlock()
}

// Distance returns the last single ultrasonic reading.
func (r *Robot) Distance() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.distance
}

// SetDistance caches a single ultrasonic reading.
func (r *Robot) SetDistance(cm int) {
	r.mu.Lock()
	r.distance = cm
	r.touch()
	r.mu.Unlock()
}

// Light returns the last two light readings.
func (r *Robot) Light() (left, right float64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.light[0], r.light[1]
}

// SetLight caches the last two light readings.
func (r *Robot) SetLight(left, right float64) {
	r.mu.Lock()
	r.light = [2]float64{left, right}
	r.touch()
	r.mu.Unlock()
}

// Line returns the last line sensor triple.
func (r *Robot) Line() robot.LineReading {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.line
}

// SetLine caches the last line sensor triple.
func (r *Robot) SetLine(l robot.LineReading) {
	r.mu.Lock()
	r.line = l
	r.touch()
	r.mu.Unlock()
}

// Voltage returns the last battery reading.
func (r *Robot) Voltage() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.voltage
}

// SetVoltage caches the last battery reading.
func (r *Robot) SetVoltage(v float64) {
	r.mu.Lock()
	r.voltage = v
	r.touch()
	r.mu.Unlock()
}

// Enabled reports whether the telemetry stream s is enabled.
func (r *Robot) Enabled(s Stream) bool {
	if s < 0 || s >= numStreams {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled[s]
}

// SetEnabled sets the enable flag of telemetry stream s.
func (r *Robot) SetEnabled(s Stream, on bool) {
	if s < 0 || s >= numStreams {
		return
	}
	r.mu.Lock()
	r.enabled[s] = on
	r.mu.Unlock()
}

// DisableAll clears every telemetry enable flag.
func (r *Robot) DisableAll() {
	r.mu.Lock()
	r.enabled = [numStreams]bool{}
	r.mu.Unlock()
}

// Snapshot is a consistent copy of the state for logging and the dashboard.
type Snapshot struct {
	Mode              string    `json:"mode"`
	BehaviorRunning   bool      `json:"behavior_running"`
	Rotating          bool      `json:"rotating"`
	Motors            [4]int    `json:"motors"`
	L                 int       `json:"l_distance"`
	M                 int       `json:"m_distance"`
	R                 int       `json:"r_distance"`
	Distance          int       `json:"distance"`
	Light1            float64   `json:"light1"`
	Light2            float64   `json:"light2"`
	Line              string    `json:"line_sensors"`
	Voltage           float64   `json:"voltage"`
	UltrasonicEnabled bool      `json:"ultrasonic_enabled"`
	LightEnabled      bool      `json:"light_enabled"`
	LineEnabled       bool      `json:"line_enabled"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Snapshot returns a copy of every field under one lock.
func (r *Robot) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		Mode:              r.mode.String(),
		BehaviorRunning:   r.behavior,
		Rotating:          r.rotating,
		Motors:            r.motors,
		L:                 r.scan.L,
		M:                 r.scan.M,
		R:                 r.scan.R,
		Distance:          r.distance,
		Light1:            r.light[0],
		Light2:            r.light[1],
		Line:              r.line.String(),
		Voltage:           r.voltage,
		UltrasonicEnabled: r.enabled[StreamUltrasonic],
		LightEnabled:      r.enabled[StreamLight],
		LineEnabled:       r.enabled[StreamLine],
		UpdatedAt:         r.updatedAt,
	}
}
