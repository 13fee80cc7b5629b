// Package config provides centralized configuration management for the
// preprocessing pipeline. It handles loading configuration from multiple
// sources, validation, and the resolved directory layout a run uses.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Built-in station defaults (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern SURYA_* for namespacing:
//
//	SURYA_STATION_LATITUDE=-7.00589
//	SURYA_DATASET_GRID_FREQ=10m
//	SURYA_LOGGING_LEVEL=debug
//	SURYA_PATHS_OUTPUT_DIR=/srv/surya/output
//	SURYA_STAGES_CHARTS=false
//
// # Validation
//
// All configuration is validated at load time with go-playground/validator:
// the station latitude and longitude must be real coordinates, the grid and
// resample frequencies positive, the timezone a loadable IANA name and the
// timestamp layout usable for parsing.
//
// # Path Management
//
// The Paths type resolves the configured directories against the working
// directory and creates the output tree:
//
//	paths, err := config.NewPaths(cfg.Paths)
//	if err := paths.EnsureDirectories(); err != nil { ... }
//	manifest := paths.GetArtifactPath("run_manifest.json")
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load(configFlag)
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
