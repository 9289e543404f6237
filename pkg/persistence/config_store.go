package persistence

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/adaptivepwm/pwm-go/pkg/config"
)

// ConfigStore manages persistence of the configuration to a single file.
type ConfigStore struct {
	mu   sync.Mutex
	path string
}

// NewConfigStore creates a store for the given file path.
func NewConfigStore(path string) *ConfigStore {
	return &ConfigStore{path: path}
}

// Path returns the backing file path.
func (s *ConfigStore) Path() string {
	return s.path
}

// Exists reports whether the backing file is present.
func (s *ConfigStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the configuration and overlays it onto the defaults.
// A missing file yields the defaults and a nil error. Any other failure
// yields the defaults and a *config.LoadError.
func (s *ConfigStore) Load() (config.Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	if err != nil {
		return config.Default(), &config.LoadError{Path: s.path, Err: err}
	}

	cfg, err := config.Decode(data, config.FormatFromPath(s.path))
	if err != nil {
		return config.Default(), &config.LoadError{Path: s.path, Err: err}
	}
	return cfg, nil
}

// Save persists the configuration verbatim, creating parent directories.
func (s *ConfigStore) Save(cfg config.Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	data, err := config.Encode(cfg, config.FormatFromPath(s.path))
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// Clear removes the configuration file.
func (s *ConfigStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
