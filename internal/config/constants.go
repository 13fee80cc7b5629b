package config

import "time"

// Application constants for the suryacli preprocessing pipeline
const (
	// Application Info
	AppName    = "suryacli"
	AppVersion = "1.2.0"

	// Station Metadata
	// The PLTS Rawa Tengah site the observation exports come from. Pressure
	// and temperature are the annual means the refraction correction uses.
	DefaultStationCode  = "PLRT"
	DefaultLatitudeDeg  = -7.00589
	DefaultLongitudeDeg = 106.562
	DefaultAltitudeM    = 49.0
	DefaultPressureHPa  = 1013.25
	DefaultTemperatureC = 12.0
	DefaultTimezone     = "Asia/Jakarta"

	// Export Layout
	// Timestamps in the station exports are dd/mm/yyyy and carry no zone;
	// they are read as UTC.
	DefaultTimeLayout = "02/01/2006 15:04:05"

	// Grid Frequencies
	DefaultGridFreq     = 10 * time.Minute
	DefaultResampleFreq = time.Hour

	// File Paths (relative to the working directory)
	DefaultDataDir   = "data"
	DefaultOutputDir = "output"
	DefaultLogsDir   = "logs"
	ChartsSubdir     = "charts"

	// Log Settings
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultLogOutput   = "both"
	DefaultLogFilePath = "logs/suryacli.log"
)
