package camera

import (
	"fmt"
	"sync"
)

// Manager holds the current camera configuration and handles updates.
type Manager struct {
	mu     sync.RWMutex
	config Config

	// OnConfigChange is called after a successful update, outside the lock.
	OnConfigChange func(cfg Config) error
}

// NewManager creates a manager holding cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{config: cfg}
}

// GetConfig returns the current camera configuration.
func (m *Manager) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates and stores cfg.
func (m *Manager) SetConfig(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}

	m.mu.Lock()
	m.config = cfg
	callback := m.OnConfigChange
	m.mu.Unlock()

	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}
	return nil
}

// ApplyPreset switches to a named preset, keeping the device.
func (m *Manager) ApplyPreset(name string) error {
	p := GetPreset(name)
	if p == nil {
		return fmt.Errorf("unknown preset: %s", name)
	}
	p.Device = m.GetConfig().Device
	return m.SetConfig(*p)
}

// SetQuality changes only the JPEG quality.
func (m *Manager) SetQuality(q int) error {
	cfg := m.GetConfig()
	cfg.Quality = q
	return m.SetConfig(cfg)
}
