package camera

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetLow     = "low"
	PresetVGA     = "vga"
	Preset720p    = "720p"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetLow:     LowBandwidthConfig(),
		PresetVGA:     VGAConfig(),
		Preset720p:    HD720Config(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{PresetDefault, PresetLow, PresetVGA, Preset720p}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// LowBandwidthConfig keeps the stream usable over a weak Wi-Fi link.
func LowBandwidthConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 320
	cfg.Height = 240
	cfg.Framerate = 10
	cfg.Quality = 60
	return cfg
}

// VGAConfig returns 640x480.
func VGAConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	cfg.Quality = 85
	return cfg
}

// HD720Config returns 720p. Expect the Pi to drop frames.
func HD720Config() Config {
	cfg := DefaultConfig()
	cfg.Width = 1280
	cfg.Height = 720
	cfg.Framerate = 10
	cfg.Quality = 80
	return cfg
}
