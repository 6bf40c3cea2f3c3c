package config

import (
	"sync"
)

// Service loads and caches the configuration file
type Service struct {
	path string

	mu     sync.Mutex
	cached *Config
}

// NewService creates a configuration service for the given path. An
// empty path selects the platform default location.
func NewService(path string) *Service {
	if path == "" {
		path = DefaultPath()
	}

	return &Service{path: path}
}

// Path returns the configuration file location
func (s *Service) Path() string {
	return s.path
}

// Load returns the cached configuration, reading the file on first use
func (s *Service) Load() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return s.cached, nil
	}

	config, err := LoadConfig(s.path)
	if err != nil {
		return nil, err
	}
	s.cached = config

	return config, nil
}

// Save writes the configuration and refreshes the cache
func (s *Service) Save(config *Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := SaveConfig(config, s.path); err != nil {
		return err
	}
	s.cached = config

	return nil
}

// Bootstrap writes a default configuration if none exists and returns
// the active configuration either way
func (s *Service) Bootstrap() (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ConfigExists(s.path) {
		config, err := LoadConfig(s.path)
		if err != nil {
			return nil, err
		}
		s.cached = config

		return config, nil
	}

	config := DefaultConfig()
	if err := SaveConfig(config, s.path); err != nil {
		return nil, err
	}
	s.cached = config

	return config, nil
}

// Invalidate drops the cached configuration
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = nil
}
