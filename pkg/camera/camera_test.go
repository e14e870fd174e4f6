package camera

import (
	"errors"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr int
	}{
		{"default", func(*Config) {}, 0},
		{"tiny width", func(c *Config) { c.Width = 100 }, 1},
		{"huge height", func(c *Config) { c.Height = 4000 }, 1},
		{"zero framerate", func(c *Config) { c.Framerate = 0 }, 1},
		{"bad quality", func(c *Config) { c.Quality = 101 }, 1},
		{"everything wrong", func(c *Config) { *c = Config{} }, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if got := cfg.Validate(); len(got) != tt.wantErr {
				t.Errorf("Validate() = %v, want %d errors", got, tt.wantErr)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	for _, name := range PresetNames() {
		p := GetPreset(name)
		if p == nil {
			t.Fatalf("preset %q missing", name)
		}
		if errs := p.Validate(); len(errs) > 0 {
			t.Errorf("preset %q invalid: %v", name, errs)
		}
	}
	if GetPreset("fisheye") != nil {
		t.Error("unknown preset should be nil")
	}
}

func TestManager(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Device = 2
	m := NewManager(cfg)

	var applied []Config
	m.OnConfigChange = func(c Config) error {
		applied = append(applied, c)
		return nil
	}

	if err := m.ApplyPreset(PresetLow); err != nil {
		t.Fatalf("ApplyPreset: %v", err)
	}
	got := m.GetConfig()
	if got.Width != 320 || got.Device != 2 {
		t.Errorf("after preset: %+v", got)
	}

	if err := m.SetQuality(0); err == nil {
		t.Error("quality 0 should be rejected")
	}
	if m.GetConfig().Quality != 60 {
		t.Error("rejected update changed the config")
	}

	if err := m.ApplyPreset("nope"); err == nil {
		t.Error("unknown preset should fail")
	}
	if len(applied) != 1 {
		t.Errorf("callback calls = %d, want 1", len(applied))
	}

	m.OnConfigChange = func(Config) error { return errors.New("device busy") }
	if err := m.SetQuality(50); err == nil {
		t.Error("callback error should propagate")
	}
}
