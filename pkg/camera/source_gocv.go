//go:build gocv

package camera

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Source captures frames from a V4L2 device and encodes them as JPEG.
type Source struct {
	mgr    *Manager
	logger *slog.Logger

	mu      sync.Mutex
	capture *gocv.VideoCapture
	img     gocv.Mat
	applied Config
	last    time.Time
	closed  bool
}

// Open opens the device named by the manager's config.
func Open(mgr *Manager, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := mgr.GetConfig()

	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", cfg.Device, err)
	}

	s := &Source{
		mgr:     mgr,
		logger:  logger.With("component", "camera"),
		capture: vc,
		img:     gocv.NewMat(),
	}
	s.apply(cfg)
	s.logger.Info("camera opened", "device", cfg.Device, "width", cfg.Width, "height", cfg.Height)
	return s, nil
}

// apply pushes resolution and rate to the device. Must hold mu or be
// called before the source is shared.
func (s *Source) apply(cfg Config) {
	s.capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	s.capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	s.capture.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	s.applied = cfg
}

// NextFrame paces to the configured frame rate, grabs a frame and returns
// it JPEG-encoded.
func (s *Source) NextFrame(ctx context.Context) ([]byte, error) {
	cfg := s.mgr.GetConfig()
	period := time.Second / time.Duration(cfg.Framerate)

	s.mu.Lock()
	wait := time.Until(s.last.Add(period))
	s.mu.Unlock()
	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if cfg.Width != s.applied.Width || cfg.Height != s.applied.Height || cfg.Framerate != s.applied.Framerate {
		s.apply(cfg)
	}
	s.last = time.Now()

	if ok := s.capture.Read(&s.img); !ok || s.img.Empty() {
		return nil, ErrNoFrame
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, s.img, []int{gocv.IMWriteJpegQuality, cfg.Quality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Close releases the device.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.img.Close()
	return s.capture.Close()
}
