package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathsIn(t *testing.T) {
	base := filepath.Join("opt", "chipcli")
	p := PathsIn(base)

	assert.Equal(t, base, p.ExecutableDir)
	assert.Equal(t, filepath.Join(base, "data"), p.DataDir)
	assert.Equal(t, filepath.Join(base, "reports"), p.ReportsDir)
	assert.Equal(t, filepath.Join(base, "logs"), p.LogsDir)
	assert.Equal(t, filepath.Join(base, "reports", "history.csv"), p.HistoryCSV)
	assert.Equal(t, filepath.Join(base, "reports", "history.xlsx"), p.HistoryXLSX)
	assert.Equal(t, filepath.Join(base, "logs", "web.log"), p.GetLogPath("web.log"))
}

func TestEnsureDirectories(t *testing.T) {
	p := PathsIn(t.TempDir())
	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.DataDir, p.ReportsDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.InDelta(t, 0.10, cfg.Signal.DurationTolerance, 1e-12)
	assert.InDelta(t, 2.0, cfg.Signal.AutoDivisor, 1e-12)
	assert.Equal(t, 9, cfg.Signal.FilterWindow)
	assert.Equal(t, 3, cfg.Signal.FilterOrder)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CHIP_SERVER_PORT", "9090")
	t.Setenv("CHIP_SCAN_WORKERS", "16")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 16, cfg.Scan.Workers)
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("CHIP_SERVER_PORT", "99999")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(*Config) {}, false},
		{"negative workers", func(c *Config) { c.Scan.Workers = -1 }, true},
		{"tolerance above one", func(c *Config) { c.Signal.DurationTolerance = 1.5 }, true},
		{"port out of range", func(c *Config) { c.Server.Port = -2 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Server: ServerConfig{Port: 8080},
				Scan:   ScanConfig{Workers: 4},
				Signal: SignalConfig{DurationTolerance: 0.1},
			}
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeConfigs(t *testing.T) {
	fileCfg := Config{
		Server:  ServerConfig{Port: 9000},
		Logging: LoggingConfig{Level: "debug", FilePath: "logs/file.log"},
		Scan:    ScanConfig{Workers: 2},
	}

	t.Run("env values win", func(t *testing.T) {
		envCfg := Config{Server: ServerConfig{Port: 8080}, Logging: LoggingConfig{Level: "warn"}}
		merged := mergeConfigs(fileCfg, envCfg)
		assert.Equal(t, 8080, merged.Server.Port)
		assert.Equal(t, "warn", merged.Logging.Level)
	})

	t.Run("file fills gaps", func(t *testing.T) {
		merged := mergeConfigs(fileCfg, Config{})
		assert.Equal(t, 9000, merged.Server.Port)
		assert.Equal(t, "debug", merged.Logging.Level)
		assert.Equal(t, 2, merged.Scan.Workers)
	})
}
