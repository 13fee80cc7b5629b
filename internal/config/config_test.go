package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	// Save original environment to restore later
	originalEnv := make(map[string]string)
	envVars := []string{
		"SURYA_STATION_CODE", "SURYA_STATION_LATITUDE", "SURYA_STATION_LONGITUDE",
		"SURYA_STATION_TIMEZONE", "SURYA_STATION_PRESSURE_HPA",
		"SURYA_DATASET_GRID_FREQ", "SURYA_DATASET_RESAMPLE_FREQ", "SURYA_DATASET_TIME_LAYOUT",
		"SURYA_LOGGING_LEVEL", "SURYA_LOGGING_OUTPUT",
		"SURYA_PATHS_DATA_DIR", "SURYA_PATHS_OUTPUT_DIR",
		"SURYA_STAGES_CHARTS", "SURYA_STAGES_TENMIN_CSV",
	}

	for _, envVar := range envVars {
		originalEnv[envVar] = os.Getenv(envVar)
	}

	defer func() {
		for _, envVar := range envVars {
			if val, exists := originalEnv[envVar]; exists && val != "" {
				os.Setenv(envVar, val)
			} else {
				os.Unsetenv(envVar)
			}
		}
	}()

	tests := []struct {
		name        string
		setupEnv    func()
		setupFile   func(t *testing.T) string // returns the Load argument
		wantErr     bool
		errContains string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "default configuration with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "PLRT", cfg.Station.Code)
				assert.InDelta(t, -7.00589, cfg.Station.Latitude, 1e-9)
				assert.InDelta(t, 106.562, cfg.Station.Longitude, 1e-9)
				assert.InDelta(t, 49.0, cfg.Station.AltitudeM, 1e-9)
				assert.InDelta(t, 1013.25, cfg.Station.PressureHPa, 1e-9)
				assert.InDelta(t, 12.0, cfg.Station.TemperatureC, 1e-9)
				assert.Equal(t, "Asia/Jakarta", cfg.Station.Timezone)

				assert.Equal(t, 10*time.Minute, cfg.Dataset.GridFreq)
				assert.Equal(t, time.Hour, cfg.Dataset.ResampleFreq)
				assert.Equal(t, "02/01/2006 15:04:05", cfg.Dataset.TimeLayout)

				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "both", cfg.Logging.Output)
				assert.Equal(t, "logs/suryacli.log", cfg.Logging.FilePath)

				assert.Equal(t, "data", cfg.Paths.DataDir)
				assert.Equal(t, "output", cfg.Paths.OutputDir)
				assert.Equal(t, "logs", cfg.Paths.LogsDir)

				assert.True(t, cfg.Stages.Export)
				assert.True(t, cfg.Stages.TenMinCSV)
				assert.True(t, cfg.Stages.Charts)
				assert.False(t, cfg.Stages.Trace)
			},
		},
		{
			name: "environment overrides defaults",
			setupEnv: func() {
				os.Setenv("SURYA_STATION_CODE", "BDG1")
				os.Setenv("SURYA_STATION_LATITUDE", "-6.914")
				os.Setenv("SURYA_DATASET_GRID_FREQ", "5m")
				os.Setenv("SURYA_LOGGING_LEVEL", "debug")
				os.Setenv("SURYA_STAGES_CHARTS", "false")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "BDG1", cfg.Station.Code)
				assert.InDelta(t, -6.914, cfg.Station.Latitude, 1e-9)
				assert.Equal(t, 5*time.Minute, cfg.Dataset.GridFreq)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.False(t, cfg.Stages.Charts)

				// Everything else keeps its default
				assert.InDelta(t, 106.562, cfg.Station.Longitude, 1e-9)
				assert.Equal(t, time.Hour, cfg.Dataset.ResampleFreq)
				assert.True(t, cfg.Stages.Export)
			},
		},
		{
			name: "latitude out of range",
			setupEnv: func() {
				os.Setenv("SURYA_STATION_LATITUDE", "95")
			},
			wantErr:     true,
			errContains: "station.latitude must be at most 90",
		},
		{
			name: "longitude out of range",
			setupEnv: func() {
				os.Setenv("SURYA_STATION_LONGITUDE", "-200")
			},
			wantErr:     true,
			errContains: "station.longitude must be at least -180",
		},
		{
			name: "zero grid frequency",
			setupEnv: func() {
				os.Setenv("SURYA_DATASET_GRID_FREQ", "0s")
			},
			wantErr:     true,
			errContains: "dataset.grid_freq must be greater than 0",
		},
		{
			name: "negative resample frequency",
			setupEnv: func() {
				os.Setenv("SURYA_DATASET_RESAMPLE_FREQ", "-1h")
			},
			wantErr:     true,
			errContains: "dataset.resample_freq",
		},
		{
			name: "unknown timezone",
			setupEnv: func() {
				os.Setenv("SURYA_STATION_TIMEZONE", "Mars/Olympus")
			},
			wantErr:     true,
			errContains: "station.timezone must be a valid IANA timezone",
		},
		{
			name: "unusable time layout",
			setupEnv: func() {
				os.Setenv("SURYA_DATASET_TIME_LAYOUT", "@@@@")
			},
			wantErr:     true,
			errContains: "dataset.time_layout must be a usable time layout",
		},
		{
			name: "bad logging level",
			setupEnv: func() {
				os.Setenv("SURYA_LOGGING_LEVEL", "verbose")
			},
			wantErr:     true,
			errContains: "logging.level must be one of: debug, info, warn, error",
		},
		{
			name: "malformed duration in env",
			setupEnv: func() {
				os.Setenv("SURYA_DATASET_GRID_FREQ", "often")
			},
			wantErr:     true,
			errContains: "failed to load config from env",
		},
		{
			name: "config file overrides defaults",
			setupFile: func(t *testing.T) string {
				tempDir := t.TempDir()
				configFile := filepath.Join(tempDir, "config.yaml")
				configContent := `
station:
  latitude: -6.914
  longitude: 107.609
dataset:
  grid_freq: 30m
logging:
  level: warn
stages:
  charts: false
`
				require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))
				return configFile
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.InDelta(t, -6.914, cfg.Station.Latitude, 1e-9)
				assert.InDelta(t, 107.609, cfg.Station.Longitude, 1e-9)
				assert.Equal(t, 30*time.Minute, cfg.Dataset.GridFreq)
				assert.Equal(t, "warn", cfg.Logging.Level)
				assert.False(t, cfg.Stages.Charts)

				// Keys absent from the file keep their defaults
				assert.Equal(t, "PLRT", cfg.Station.Code)
				assert.Equal(t, time.Hour, cfg.Dataset.ResampleFreq)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.True(t, cfg.Stages.TenMinCSV)
			},
		},
		{
			name: "environment overrides config file",
			setupEnv: func() {
				os.Setenv("SURYA_DATASET_GRID_FREQ", "15m")
			},
			setupFile: func(t *testing.T) string {
				tempDir := t.TempDir()
				configFile := filepath.Join(tempDir, "config.yaml")
				configContent := `
dataset:
  grid_freq: 30m
logging:
  level: warn
`
				require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))
				return configFile
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 15*time.Minute, cfg.Dataset.GridFreq) // from env
				assert.Equal(t, "warn", cfg.Logging.Level)            // from file
			},
		},
		{
			name: "missing explicit config file",
			setupFile: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope.yaml")
			},
			wantErr:     true,
			errContains: "failed to load config from file",
		},
		{
			name: "invalid yaml in config file",
			setupFile: func(t *testing.T) string {
				tempDir := t.TempDir()
				configFile := filepath.Join(tempDir, "config.yaml")
				require.NoError(t, os.WriteFile(configFile, []byte("station: ["), 0644))
				return configFile
			},
			wantErr:     true,
			errContains: "invalid YAML",
		},
		{
			name: "config file fails validation",
			setupFile: func(t *testing.T) string {
				tempDir := t.TempDir()
				configFile := filepath.Join(tempDir, "config.yaml")
				configContent := `
station:
  latitude: 123
`
				require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))
				return configFile
			},
			wantErr:     true,
			errContains: "config validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, envVar := range envVars {
				os.Unsetenv(envVar)
			}
			if tt.setupEnv != nil {
				tt.setupEnv()
			}

			configFile := ""
			if tt.setupFile != nil {
				configFile = tt.setupFile(t)
			}

			cfg, err := Load(configFile)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

// TestLoad_ProbesWorkingDirectory verifies that config.yaml next to the
// invocation is picked up without an explicit -config flag.
func TestLoad_ProbesWorkingDirectory(t *testing.T) {
	tempDir := t.TempDir()
	configContent := `
station:
  code: PROBE
`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(configContent), 0644))

	originalDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tempDir))
	t.Cleanup(func() { os.Chdir(originalDir) })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "PROBE", cfg.Station.Code)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.NoError(t, cfg.validate(), "defaults must pass their own validation")
	assert.Equal(t, "PLRT", cfg.Station.Code)
	assert.Equal(t, 10*time.Minute, cfg.Dataset.GridFreq)
	assert.True(t, cfg.Stages.Export)
}

func TestStationConfig_Location(t *testing.T) {
	t.Run("resolves Jakarta as UTC+7", func(t *testing.T) {
		station := Default().Station
		loc, err := station.Location()
		require.NoError(t, err)

		instant := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC).In(loc)
		assert.Equal(t, 7, instant.Hour())
		_, offset := instant.Zone()
		assert.Equal(t, 7*3600, offset)
	})

	t.Run("unknown zone errors", func(t *testing.T) {
		station := StationConfig{Timezone: "Nowhere/Special"}
		_, err := station.Location()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load timezone")
	})
}

func TestIsTimeLayout(t *testing.T) {
	tests := []struct {
		layout string
		want   bool
	}{
		{"02/01/2006 15:04:05", true},
		{"2006-01-02", true},
		{"15:04", true},
		{"", false},
		{"   ", false},
		{"@@@@", false},
	}

	v := newValidator()
	type probe struct {
		Layout string `validate:"timelayout"`
	}

	for _, tt := range tests {
		err := v.Struct(probe{Layout: tt.layout})
		if tt.want {
			assert.NoError(t, err, "layout %q", tt.layout)
		} else {
			assert.Error(t, err, "layout %q", tt.layout)
		}
	}
}
