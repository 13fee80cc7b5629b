package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	// Zone data is compiled in so the station timezone resolves on hosts
	// without a system tzdata package.
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Station StationConfig `yaml:"station" envconfig:"STATION"`
	Dataset DatasetConfig `yaml:"dataset" envconfig:"DATASET"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
	Stages  StagesConfig  `yaml:"stages" envconfig:"STAGES"`
}

// StationConfig describes the measurement site. The coordinates and the
// refraction conditions feed the solar position columns; the timezone is the
// local wall clock for the calendar features and the hourly bins.
type StationConfig struct {
	Code         string  `yaml:"code" envconfig:"CODE" validate:"required"`
	Latitude     float64 `yaml:"latitude" envconfig:"LATITUDE" validate:"gte=-90,lte=90"`
	Longitude    float64 `yaml:"longitude" envconfig:"LONGITUDE" validate:"gte=-180,lte=180"`
	AltitudeM    float64 `yaml:"altitude_m" envconfig:"ALTITUDE_M"`
	PressureHPa  float64 `yaml:"pressure_hpa" envconfig:"PRESSURE_HPA" validate:"gte=0"`
	TemperatureC float64 `yaml:"temperature_c" envconfig:"TEMPERATURE_C"`
	Timezone     string  `yaml:"timezone" envconfig:"TIMEZONE" validate:"required,timezone"`
}

// DatasetConfig contains the grid and export layout configuration
type DatasetConfig struct {
	GridFreq     time.Duration `yaml:"grid_freq" envconfig:"GRID_FREQ" validate:"gt=0"`
	ResampleFreq time.Duration `yaml:"resample_freq" envconfig:"RESAMPLE_FREQ" validate:"gt=0"`
	TimeLayout   string        `yaml:"time_layout" envconfig:"TIME_LAYOUT" validate:"required,timelayout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required"`
}

// PathsConfig contains the directory layout, relative to the working
// directory unless absolute
type PathsConfig struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	LogsDir   string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// StagesConfig toggles the optional pipeline stages
type StagesConfig struct {
	Export    bool `yaml:"export" envconfig:"EXPORT"`
	TenMinCSV bool `yaml:"tenmin_csv" envconfig:"TENMIN_CSV"`
	Charts    bool `yaml:"charts" envconfig:"CHARTS"`
	Trace     bool `yaml:"trace" envconfig:"TRACE"`
}

// Load builds the configuration for a run: defaults first, then the YAML
// config file, then SURYA_* environment variables, each layer overriding the
// one before it. An empty configFile means probing the usual locations; a
// named file must be readable.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("SURYA", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays configuration from a YAML file onto cfg. Keys absent
// from the file keep their current values.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("invalid YAML in %s: %w", filePath, err)
	}

	return nil
}

// findConfigFile returns the first config file found in the usual locations,
// or empty when none exists and only defaults and env vars apply.
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Location resolves the configured station timezone.
func (s StationConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", s.Timezone, err)
	}
	return loc, nil
}

// newValidator builds the struct validator with the custom rules and yaml
// field names in error messages.
func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterValidation("timelayout", isTimeLayout)

	// Use yaml tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// isTimeLayout reports whether a value works as a reference time layout:
// formatting an instant with it must parse back.
func isTimeLayout(fl validator.FieldLevel) bool {
	layout := fl.Field().String()
	if strings.TrimSpace(layout) == "" {
		return false
	}
	ref := time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)
	parsed, err := time.Parse(layout, ref.Format(layout))
	return err == nil && !parsed.IsZero()
}

// validate validates the configuration
func (c *Config) validate() error {
	err := newValidator().Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, describeFieldError(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

// describeFieldError formats a single validation failure with the yaml path
// of the offending field
func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "timezone":
		return fmt.Sprintf("%s must be a valid IANA timezone", field)
	case "timelayout":
		return fmt.Sprintf("%s must be a usable time layout", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Station: StationConfig{
			Code:         DefaultStationCode,
			Latitude:     DefaultLatitudeDeg,
			Longitude:    DefaultLongitudeDeg,
			AltitudeM:    DefaultAltitudeM,
			PressureHPa:  DefaultPressureHPa,
			TemperatureC: DefaultTemperatureC,
			Timezone:     DefaultTimezone,
		},
		Dataset: DatasetConfig{
			GridFreq:     DefaultGridFreq,
			ResampleFreq: DefaultResampleFreq,
			TimeLayout:   DefaultTimeLayout,
		},
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   DefaultLogOutput,
			FilePath: DefaultLogFilePath,
		},
		Paths: PathsConfig{
			DataDir:   DefaultDataDir,
			OutputDir: DefaultOutputDir,
			LogsDir:   DefaultLogsDir,
		},
		Stages: StagesConfig{
			Export:    true,
			TenMinCSV: true,
			Charts:    true,
			Trace:     false,
		},
	}
}
