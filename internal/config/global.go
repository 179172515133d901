package config

import (
	"fmt"
	"os"

	"github.com/open-edge-platform/rabbitmq-provisioner/internal/utils/logger"
	"gopkg.in/yaml.v3"
)

// DefaultGlobalConfigFile is looked up in the working directory when no
// --config flag is given.
const DefaultGlobalConfigFile = "rabbitmq-provisioner.yml"

// GlobalConfig holds tool settings that are independent of the attributes of
// a single provisioning run.
type GlobalConfig struct {
	// CacheDir is where downloaded package artifacts are kept between runs.
	CacheDir string `yaml:"cache_dir"`
	// ReportDir receives the per-run converge report.
	ReportDir string `yaml:"report_dir"`
	// RootDir, when set, runs every command inside a chroot at that path.
	RootDir string `yaml:"root_dir"`
	// MetricsFile, when set, receives a Prometheus textfile after each run.
	MetricsFile string        `yaml:"metrics_file"`
	Logging     LoggingConfig `yaml:"logging"`
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultGlobalConfig returns the settings used when no config file exists.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		CacheDir:  os.TempDir(),
		ReportDir: logger.ReportPath,
		Logging:   LoggingConfig{Level: "info"},
	}
}

// LoadGlobalConfig reads the tool config at path. A missing default file is
// not an error; a missing explicitly named file is.
func LoadGlobalConfig(path string) (*GlobalConfig, error) {
	cfg := DefaultGlobalConfig()
	explicit := path != ""
	if !explicit {
		path = DefaultGlobalConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = os.TempDir()
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = logger.ReportPath
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	return cfg, nil
}
