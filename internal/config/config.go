package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
	Scan    ScanConfig    `yaml:"scan" envconfig:"SCAN"`
	Signal  SignalConfig  `yaml:"signal" envconfig:"SIGNAL"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec" envconfig:"READ_TIMEOUT_SEC" default:"15"`
	WriteTimeoutSec int `yaml:"write_timeout_sec" envconfig:"WRITE_TIMEOUT_SEC" default:"30"`
	IdleTimeoutSec  int `yaml:"idle_timeout_sec" envconfig:"IDLE_TIMEOUT_SEC" default:"60"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/chipcli.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"reports"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// ScanConfig controls the day-folder scan and parse stage
type ScanConfig struct {
	// Workers bounds the number of files parsed concurrently. Parsing is
	// independent per file; aggregation still waits for all of them.
	Workers int `yaml:"workers" envconfig:"WORKERS" default:"4"`
}

// SignalConfig carries the default knobs of the signal processor
type SignalConfig struct {
	DurationTolerance float64 `yaml:"duration_tolerance" envconfig:"DURATION_TOLERANCE" default:"0.10"`
	AutoDivisor       float64 `yaml:"auto_divisor" envconfig:"AUTO_DIVISOR" default:"2.0"`
	FilterWindow      int     `yaml:"filter_window" envconfig:"FILTER_WINDOW" default:"9"`
	FilterOrder       int     `yaml:"filter_order" envconfig:"FILTER_ORDER" default:"3"`
}

// Load loads configuration from environment variables and the optional
// config.yaml next to the executable. Environment values take precedence.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("CHIP", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeConfigs merges file config under env config (env takes precedence)
func mergeConfigs(fileCfg, envCfg Config) Config {
	if envCfg.Server.Port == 0 {
		envCfg.Server.Port = fileCfg.Server.Port
	}
	if envCfg.Logging.Level == "" {
		envCfg.Logging.Level = fileCfg.Logging.Level
	}
	if envCfg.Logging.FilePath == "" {
		envCfg.Logging.FilePath = fileCfg.Logging.FilePath
	}
	if envCfg.Paths.DataDir == "" {
		envCfg.Paths.DataDir = fileCfg.Paths.DataDir
	}
	if envCfg.Paths.ReportsDir == "" {
		envCfg.Paths.ReportsDir = fileCfg.Paths.ReportsDir
	}
	if envCfg.Scan.Workers == 0 {
		envCfg.Scan.Workers = fileCfg.Scan.Workers
	}
	if envCfg.Signal.DurationTolerance == 0 {
		envCfg.Signal.DurationTolerance = fileCfg.Signal.DurationTolerance
	}
	return envCfg
}

// validate checks configuration invariants
func (c *Config) validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Scan.Workers < 0 {
		return fmt.Errorf("invalid scan worker count: %d", c.Scan.Workers)
	}
	if c.Signal.DurationTolerance < 0 || c.Signal.DurationTolerance > 1 {
		return fmt.Errorf("invalid duration tolerance: %g", c.Signal.DurationTolerance)
	}
	return nil
}

// configFilePath returns the expected location of config.yaml next to the
// executable, falling back to the working directory.
func configFilePath() string {
	exe, err := os.Executable()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(filepath.Dir(exe), "config.yaml")
}
