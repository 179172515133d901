package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigHelpers provides convenient access to global configuration
type ConfigHelpers struct {
	config *GlobalConfig
}

// NewConfigHelpers creates a new config helpers instance
func NewConfigHelpers(config *GlobalConfig) *ConfigHelpers {
	return &ConfigHelpers{config: config}
}

// CacheDir returns the package cache directory. It is kept as configured
// since artifact paths under it are part of the observable plan.
func (c *ConfigHelpers) CacheDir() string {
	if c.config.CacheDir == "" {
		return os.TempDir()
	}
	return filepath.Clean(c.config.CacheDir)
}

// ReportDir returns the absolute path to the report directory
func (c *ConfigHelpers) ReportDir() (string, error) {
	return filepath.Abs(c.config.ReportDir)
}

// RootDir returns the chroot used for commands, or "" for the running host.
func (c *ConfigHelpers) RootDir() (string, error) {
	if c.config.RootDir == "" || c.config.RootDir == "/" {
		return "", nil
	}
	return filepath.Abs(c.config.RootDir)
}

// LogLevel returns the configured log level
func (c *ConfigHelpers) LogLevel() string {
	return c.config.Logging.Level
}

// IsDebugMode returns true if debug logging is enabled
func (c *ConfigHelpers) IsDebugMode() bool {
	return c.config.Logging.Level == "debug"
}

// GetConfig returns the underlying global config (for advanced usage)
func (c *ConfigHelpers) GetConfig() *GlobalConfig {
	return c.config
}

// CreateCacheDir ensures the cache directory exists under root.
func (c *ConfigHelpers) CreateCacheDir(root string) error {
	return createDirIfNotExists(filepath.Join(root, c.CacheDir()))
}

// CreateReportDir ensures the report directory exists
func (c *ConfigHelpers) CreateReportDir() error {
	reportDir, err := c.ReportDir()
	if err != nil {
		return fmt.Errorf("resolving report directory: %w", err)
	}
	return createDirIfNotExists(reportDir)
}

// Helper function to create directories
func createDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
