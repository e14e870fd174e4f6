//go:build !gocv

package camera

import (
	"context"
	"log/slog"
)

// Source is unavailable without OpenCV.
type Source struct{}

// Open always fails with ErrUnavailable.
func Open(mgr *Manager, logger *slog.Logger) (*Source, error) {
	return nil, ErrUnavailable
}

// NextFrame always fails with ErrUnavailable.
func (s *Source) NextFrame(ctx context.Context) ([]byte, error) {
	return nil, ErrUnavailable
}

// Close does nothing.
func (s *Source) Close() error {
	return nil
}
