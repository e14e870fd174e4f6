package robot

import "errors"

var (
	// ErrActuatorFault is returned when a motor, servo, LED or buzzer call fails.
	ErrActuatorFault = errors.New("actuator fault")

	// ErrSensorFault is returned when a sensor read fails.
	ErrSensorFault = errors.New("sensor fault")
)

// NoReading is the distance sentinel meaning "no recent reading". It is far
// enough to count as no obstacle for the avoidance policy.
const NoReading = 100
