package robot

import (
	"fmt"
	"math"
)

// Servo channels and positions used by the core.
const (
	ScanServo    = 0  // pan servo carrying the ultrasonic sensor
	TiltServo    = 1  // camera tilt servo
	ServoCenter  = 90 // neutral angle in degrees
	MaxMotorDuty = 4095
)

// clamp restricts v to the range [min, max].
func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Motors is a motor command in driver order (FL, BL, FR, BR).
type Motors [4]int

// Common drive vectors.
var (
	Stop     = Motors{0, 0, 0, 0}
	Straight = Motors{600, 600, 600, 600}
)

// Clamp returns a copy with every duty restricted to the PWM range.
func (m Motors) Clamp() Motors {
	for i := range m {
		m[i] = clamp(m[i], -MaxMotorDuty, MaxMotorDuty)
	}
	return m
}

// IsZero reports whether all four duties are zero.
func (m Motors) IsZero() bool {
	return m == Stop
}

func (m Motors) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", m[0], m[1], m[2], m[3])
}

// Apply sends the command to a motor driver.
func (m Motors) Apply(d MotorDriver) error {
	return d.SetMotors(m[0], m[1], m[2], m[3])
}

// Mecanum converts a translation (angle1, speed1) and a strafe/turn component
// (angle2, speed2) into wheel duties. Angles are in degrees.
//
//	LX = -s1*sin(a1)  LY = s1*cos(a1)  RX = s2*sin(a2)
//	FR = LY-LX+RX  FL = LY+LX-RX  BL = LY-LX-RX  BR = LY+LX+RX
func Mecanum(angle1, speed1, angle2, speed2 int) Motors {
	lx := -int(float64(speed1) * math.Sin(radians(angle1)))
	ly := int(float64(speed1) * math.Cos(radians(angle1)))
	rx := int(float64(speed2) * math.Sin(radians(angle2)))

	fr := ly - lx + rx
	fl := ly + lx - rx
	bl := ly - lx - rx
	br := ly + lx + rx

	return Motors{fl, bl, fr, br}.Clamp()
}

// Spin returns the drift-rotate vector: translation toward angle at speed
// plus an in-place spin of magnitude w.
func Spin(angle, speed, w int) Motors {
	vy := int(float64(speed) * math.Cos(radians(angle)))
	vx := -int(float64(speed) * math.Sin(radians(angle)))

	fr := vy - vx + w
	fl := vy + vx - w
	bl := vy - vx - w
	br := vy + vx + w

	return Motors{fl, bl, fr, br}.Clamp()
}

func radians(deg int) float64 {
	return float64(deg) * math.Pi / 180
}
