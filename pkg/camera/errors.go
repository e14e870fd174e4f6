package camera

import "errors"

var (
	// ErrUnavailable is returned when the binary was built without OpenCV.
	ErrUnavailable = errors.New("camera support not built in (build with -tags gocv)")

	// ErrNoFrame is returned when the device yields an empty frame.
	ErrNoFrame = errors.New("camera returned an empty frame")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("camera closed")
)
