/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the muninn configuration
type Config struct {
	Pool    Pool    `yaml:"pool"`
	Ingest  Ingest  `yaml:"ingest"`
	History History `yaml:"history"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

// Pool contains record pool configuration
type Pool struct {
	MaxIdle int `yaml:"max_idle"`
}

// Ingest contains ingestion pipeline configuration
type Ingest struct {
	Pattern       string `yaml:"pattern"`
	PrescanTotals bool   `yaml:"prescan_totals"`
}

// History contains session history configuration
type History struct {
	Path string `yaml:"path"`
}

// Server contains HTTP API configuration
type Server struct {
	Listen string `yaml:"listen"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Pool: Pool{
			MaxIdle: 1000,
		},
		Ingest: Ingest{
			Pattern:       "*.log",
			PrescanTotals: true,
		},
		History: History{
			Path: DefaultHistoryPath(),
		},
		Server: Server{
			Listen: ":8489",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from the specified path
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Unmarshal over the defaults so absent keys keep them.
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultPath returns the default configuration path for the current platform
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "./muninn.yaml"
	}

	return filepath.Join(configDir, "muninn", "config.yaml")
}

// DefaultHistoryPath returns the default session history location
func DefaultHistoryPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "./muninn-history"
	}

	return filepath.Join(configDir, "muninn", "history")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
