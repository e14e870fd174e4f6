package sim

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"time"
)

// Frames is a synthetic camera: a moving gradient encoded as JPEG.
type Frames struct {
	Width, Height int
	Quality       int
	Interval      time.Duration

	mu    sync.Mutex
	count int
	last  time.Time
}

// NewFrames creates a frame source producing w×h images at the given interval.
func NewFrames(w, h int, interval time.Duration) *Frames {
	return &Frames{Width: w, Height: h, Quality: 80, Interval: interval}
}

// NextFrame blocks until the next frame is due and returns it as JPEG.
func (f *Frames) NextFrame(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	wait := time.Until(f.last.Add(f.Interval))
	f.mu.Unlock()

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	f.mu.Lock()
	f.count++
	n := f.count
	f.last = time.Now()
	f.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x + n), G: uint8(y), B: uint8(n * 3), A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: f.Quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Count returns how many frames were produced.
func (f *Frames) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// Close is a no-op; it lets Frames stand in for a real camera.
func (f *Frames) Close() error {
	return nil
}
