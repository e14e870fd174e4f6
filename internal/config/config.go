// Package config loads the go-rover daemon configuration.
//
// Values come from three layers: built-in defaults, an optional YAML file and
// ROVER_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default network and file locations.
const (
	DefaultConfigFile    = "rover.yaml"
	DefaultControlAddr   = ":5000"
	DefaultVideoAddr     = ":8000"
	DefaultDashboardAddr = ":8080"
	DefaultCSVPath       = "robot_data.csv"
)

// Config holds the daemon configuration.
type Config struct {
	ControlAddr   string `yaml:"control_addr"`
	VideoAddr     string `yaml:"video_addr"`
	DashboardAddr string `yaml:"dashboard_addr"` // empty disables the dashboard
	CSVPath       string `yaml:"csv_path"`
	LogLevel      string `yaml:"log_level"`

	LogInterval   time.Duration `yaml:"log_interval"`
	PowerInterval time.Duration `yaml:"power_interval"`

	Telemetry TelemetryConfig `yaml:"telemetry"`
	Camera    CameraConfig    `yaml:"camera"`
	Avoidance AvoidanceConfig `yaml:"avoidance"`
}

// TelemetryConfig holds the resend interval of each telemetry stream.
type TelemetryConfig struct {
	Ultrasonic time.Duration `yaml:"ultrasonic"`
	Light      time.Duration `yaml:"light"`
	Line       time.Duration `yaml:"line"`
}

// CameraConfig selects the video frame source.
type CameraConfig struct {
	Device    int    `yaml:"device"` // -1 = simulated frames
	Preset    string `yaml:"preset"` // overrides the size fields when set
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Framerate int    `yaml:"framerate"`
	Quality   int    `yaml:"quality"`
}

// AvoidanceConfig holds the obstacle avoidance thresholds in centimeters.
type AvoidanceConfig struct {
	Near   int `yaml:"near"`
	Wide   int `yaml:"wide"`
	Medium int `yaml:"medium"`
	Tight  int `yaml:"tight"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		ControlAddr:   DefaultControlAddr,
		VideoAddr:     DefaultVideoAddr,
		DashboardAddr: DefaultDashboardAddr,
		CSVPath:       DefaultCSVPath,
		LogLevel:      "info",
		LogInterval:   200 * time.Millisecond,
		PowerInterval: 3 * time.Second,
		Telemetry: TelemetryConfig{
			Ultrasonic: 230 * time.Millisecond,
			Light:      170 * time.Millisecond,
			Line:       200 * time.Millisecond,
		},
		Camera: CameraConfig{
			Device:    -1,
			Width:     400,
			Height:    300,
			Framerate: 15,
			Quality:   90,
		},
		Avoidance: AvoidanceConfig{
			Near:   30,
			Wide:   30,
			Medium: 20,
			Tight:  10,
		},
	}
}

// Load reads the configuration from path on top of the defaults and then
// applies environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides fields from ROVER_* environment variables.
func (c *Config) applyEnv() {
	c.ControlAddr = envOr("ROVER_CONTROL_ADDR", c.ControlAddr)
	c.VideoAddr = envOr("ROVER_VIDEO_ADDR", c.VideoAddr)
	c.CSVPath = envOr("ROVER_CSV_PATH", c.CSVPath)
	c.LogLevel = envOr("ROVER_LOG_LEVEL", c.LogLevel)
	// An explicitly empty value disables the dashboard.
	if v, ok := os.LookupEnv("ROVER_DASHBOARD_ADDR"); ok {
		c.DashboardAddr = v
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.ControlAddr == "" {
		return errors.New("control_addr is required")
	}
	if c.VideoAddr == "" {
		return errors.New("video_addr is required")
	}
	durations := map[string]time.Duration{
		"log_interval":         c.LogInterval,
		"power_interval":       c.PowerInterval,
		"telemetry.ultrasonic": c.Telemetry.Ultrasonic,
		"telemetry.light":      c.Telemetry.Light,
		"telemetry.line":       c.Telemetry.Line,
	}
	for name, d := range durations {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	a := c.Avoidance
	if a.Tight <= 0 || a.Medium < a.Tight || a.Near <= 0 || a.Wide <= 0 {
		return fmt.Errorf("invalid avoidance thresholds %+v", a)
	}
	return nil
}
