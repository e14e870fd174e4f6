// Package robot defines the hardware collaborators consumed by the rover core.
//
// Like the rest of the codebase it follows the Interface Segregation
// Principle: each device gets a small interface, and the composite Actuators
// and Sensors interfaces exist for wiring. Consumers should depend only on
// the interfaces they actually use.
package robot

// MotorDriver drives the four wheel motors. Values are signed PWM duties in
// the order front-left, back-left, front-right, back-right.
type MotorDriver interface {
	SetMotors(fl, bl, fr, br int) error
}

// ServoDriver positions a hobby servo. Angle is in degrees [0, 180].
type ServoDriver interface {
	SetServo(channel, angle int) error
}

// LEDDriver controls the RGB LED strip.
type LEDDriver interface {
	SetLED(index int, r, g, b uint8) error
	SetLEDMode(mode int) error
}

// BuzzerDriver switches the buzzer.
type BuzzerDriver interface {
	SetBuzzer(on bool) error
}

// Actuators is the composite interface for everything the core can move.
type Actuators interface {
	MotorDriver
	ServoDriver
	LEDDriver
	BuzzerDriver
}

// DistanceSensor reads the ultrasonic range finder in centimeters.
type DistanceSensor interface {
	ReadDistance() (int, error)
}

// LightSensor reads the two photoresistors as voltages.
type LightSensor interface {
	ReadLight() (left, right float64, err error)
}

// LineSensor reads the three infrared line-tracking sensors.
type LineSensor interface {
	ReadLineSensors() (LineReading, error)
}

// BatterySensor reads the battery pack voltage.
type BatterySensor interface {
	ReadBatteryVoltage() (float64, error)
}

// Sensors is the composite interface for everything the core can read.
type Sensors interface {
	DistanceSensor
	LightSensor
	LineSensor
	BatterySensor
}

// LineReading holds the left, middle and right line sensor bits.
type LineReading [3]uint8

// String renders the reading as three digits, e.g. "010".
func (l LineReading) String() string {
	b := make([]byte, 3)
	for i, v := range l {
		if v != 0 {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
	}
	return string(b)
}

// Bits packs the reading as left<<2 | middle<<1 | right.
func (l LineReading) Bits() int {
	n := 0
	for _, v := range l {
		n <<= 1
		if v != 0 {
			n |= 1
		}
	}
	return n
}
