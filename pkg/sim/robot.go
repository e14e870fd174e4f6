// Package sim provides an in-process robot: simulated actuators, sensors and
// camera frames. robotd uses it when no hardware is attached and tests use it
// as a recording collaborator.
package sim

import (
	"fmt"
	"sync"

	"github.com/teslashibe/go-rover/pkg/robot"
)

// Robot implements robot.Actuators and robot.Sensors.
type Robot struct {
	mu sync.Mutex

	motors  robot.Motors
	servos  map[int]int
	leds    map[int][3]uint8
	ledMode int
	buzzer  bool

	logLimit  int
	motorLog  []robot.Motors
	servoLog  [][2]int
	buzzerLog []bool

	distance int
	light    [2]float64
	line     robot.LineReading
	voltage  float64

	// DistanceAt, when set, overrides the fixed distance with a reading that
	// depends on the current scan servo angle.
	distanceAt func(angle int) int

	actuatorErr error
	sensorErr   error
}

// Compile-time interface checks
var (
	_ robot.Actuators = (*Robot)(nil)
	_ robot.Sensors   = (*Robot)(nil)
)

// DefaultLogLimit is how many commands of each kind a Robot remembers.
const DefaultLogLimit = 1024

// Option configures a Robot.
type Option func(*Robot)

// WithLogLimit keeps at most n recorded commands of each kind. Zero turns
// recording off, which is what a long-running daemon wants.
func WithLogLimit(n int) Option {
	return func(r *Robot) {
		if n < 0 {
			n = 0
		}
		r.logLimit = n
	}
}

// New returns a robot in open space on a charged battery.
func New(opts ...Option) *Robot {
	r := &Robot{
		servos:   map[int]int{robot.ScanServo: robot.ServoCenter, robot.TiltServo: robot.ServoCenter},
		leds:     make(map[int][3]uint8),
		distance: robot.NoReading,
		voltage:  8.2,
		logLimit: DefaultLogLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// record appends v, keeping only the newest limit entries. The slice is
// compacted once it reaches twice the limit.
func record[T any](log []T, v T, limit int) []T {
	if limit == 0 {
		return nil
	}
	log = append(log, v)
	if len(log) >= 2*limit {
		log = append(log[:0], log[len(log)-limit:]...)
	}
	return log
}

// tail returns a copy of the newest limit entries.
func tail[T any](log []T, limit int) []T {
	if len(log) > limit {
		log = log[len(log)-limit:]
	}
	return append([]T(nil), log...)
}

// =============================================================================
// Actuators
// =============================================================================

func (r *Robot) SetMotors(fl, bl, fr, br int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.actuatorErr != nil {
		return fmt.Errorf("%w: motors: %v", robot.ErrActuatorFault, r.actuatorErr)
	}
	r.motors = robot.Motors{fl, bl, fr, br}
	r.motorLog = record(r.motorLog, r.motors, r.logLimit)
	return nil
}

func (r *Robot) SetServo(channel, angle int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.actuatorErr != nil {
		return fmt.Errorf("%w: servo %d: %v", robot.ErrActuatorFault, channel, r.actuatorErr)
	}
	r.servos[channel] = angle
	r.servoLog = record(r.servoLog, [2]int{channel, angle}, r.logLimit)
	return nil
}

func (r *Robot) SetLED(index int, red, green, blue uint8) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.actuatorErr != nil {
		return fmt.Errorf("%w: led %d: %v", robot.ErrActuatorFault, index, r.actuatorErr)
	}
	r.leds[index] = [3]uint8{red, green, blue}
	return nil
}

func (r *Robot) SetLEDMode(mode int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ledMode = mode
	return nil
}

func (r *Robot) SetBuzzer(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buzzer = on
	r.buzzerLog = record(r.buzzerLog, on, r.logLimit)
	return nil
}

// =============================================================================
// Sensors
// =============================================================================

func (r *Robot) ReadDistance() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sensorErr != nil {
		return 0, fmt.Errorf("%w: ultrasonic: %v", robot.ErrSensorFault, r.sensorErr)
	}
	if r.distanceAt != nil {
		return r.distanceAt(r.servos[robot.ScanServo]), nil
	}
	return r.distance, nil
}

func (r *Robot) ReadLight() (float64, float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sensorErr != nil {
		return 0, 0, fmt.Errorf("%w: light: %v", robot.ErrSensorFault, r.sensorErr)
	}
	return r.light[0], r.light[1], nil
}

func (r *Robot) ReadLineSensors() (robot.LineReading, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sensorErr != nil {
		return robot.LineReading{}, fmt.Errorf("%w: line: %v", robot.ErrSensorFault, r.sensorErr)
	}
	return r.line, nil
}

func (r *Robot) ReadBatteryVoltage() (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sensorErr != nil {
		return 0, fmt.Errorf("%w: battery: %v", robot.ErrSensorFault, r.sensorErr)
	}
	return r.voltage, nil
}

// =============================================================================
// World setters
// =============================================================================

// SetDistance fixes the ultrasonic reading.
func (r *Robot) SetDistance(cm int) {
	r.mu.Lock()
	r.distance = cm
	r.distanceAt = nil
	r.mu.Unlock()
}

// SetDistanceFunc makes the ultrasonic reading depend on the scan angle.
func (r *Robot) SetDistanceFunc(f func(angle int) int) {
	r.mu.Lock()
	r.distanceAt = f
	r.mu.Unlock()
}

// SetLight fixes the photoresistor voltages.
func (r *Robot) SetLight(left, right float64) {
	r.mu.Lock()
	r.light = [2]float64{left, right}
	r.mu.Unlock()
}

// SetLine fixes the infrared pattern.
func (r *Robot) SetLine(l robot.LineReading) {
	r.mu.Lock()
	r.line = l
	r.mu.Unlock()
}

// SetVoltage fixes the battery voltage.
func (r *Robot) SetVoltage(v float64) {
	r.mu.Lock()
	r.voltage = v
	r.mu.Unlock()
}

// FailActuators makes every motor, servo and LED call fail with err.
// A nil err clears the fault.
func (r *Robot) FailActuators(err error) {
	r.mu.Lock()
	r.actuatorErr = err
	r.mu.Unlock()
}

// FailSensors makes every sensor read fail with err. A nil err clears the fault.
func (r *Robot) FailSensors(err error) {
	r.mu.Lock()
	r.sensorErr = err
	r.mu.Unlock()
}

// =============================================================================
// Inspection
// =============================================================================

// Motors returns the last applied motor vector.
func (r *Robot) Motors() robot.Motors {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.motors
}

// MotorLog returns the most recent applied motor vectors, oldest first.
func (r *Robot) MotorLog() []robot.Motors {
	r.mu.Lock()
	defer r.mu.Unlock()
	return tail(r.motorLog, r.logLimit)
}

// ServoLog returns the most recent (channel, angle) commands, oldest first.
func (r *Robot) ServoLog() [][2]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return tail(r.servoLog, r.logLimit)
}

// BuzzerLog returns the most recent buzzer commands, oldest first.
func (r *Robot) BuzzerLog() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return tail(r.buzzerLog, r.logLimit)
}

// Servo returns the current angle of channel.
func (r *Robot) Servo(channel int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.servos[channel]
}

// LED returns the color of LED index.
func (r *Robot) LED(index int) [3]uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leds[index]
}

// LEDMode returns the active LED animation.
func (r *Robot) LEDMode() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ledMode
}

// Buzzer reports whether the buzzer is on.
func (r *Robot) Buzzer() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buzzer
}

// ClearLogs forgets recorded commands.
func (r *Robot) ClearLogs() {
	r.mu.Lock()
	r.motorLog = nil
	r.servoLog = nil
	r.buzzerLog = nil
	r.mu.Unlock()
}
