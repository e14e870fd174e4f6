// Package camera captures frames for the video channel and holds the
// runtime-tunable capture settings.
package camera

import "fmt"

// Capture limits of the Pi camera module in video mode.
const (
	MaxWidth     = 1920
	MaxHeight    = 1080
	MaxFramerate = 60
)

// Config holds the capture settings.
type Config struct {
	Device    int `json:"device"`    // V4L2 index; negative selects simulated frames
	Width     int `json:"width"`     // Frame width in pixels
	Height    int `json:"height"`    // Frame height in pixels
	Framerate int `json:"framerate"` // Target FPS
	Quality   int `json:"quality"`   // JPEG quality 1-100
}

// DefaultConfig matches the resolution the phone client expects.
func DefaultConfig() Config {
	return Config{
		Device:    0,
		Width:     400,
		Height:    300,
		Framerate: 15,
		Quality:   90,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errs []string
	if c.Width < 160 || c.Width > MaxWidth {
		errs = append(errs, fmt.Sprintf("width must be between 160 and %d", MaxWidth))
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errs = append(errs, fmt.Sprintf("height must be between 120 and %d", MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errs = append(errs, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, "quality must be between 1 and 100")
	}
	return errs
}
