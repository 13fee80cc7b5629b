package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"suryacli/internal/app"
	"suryacli/internal/config"
)

func main() {
	var (
		inPath     = flag.String("in", "", "input spreadsheet, or a directory searched for the newest export (relative paths resolve under the data directory)")
		outDir     = flag.String("out", "", "output directory for run artifacts (overrides configuration)")
		configFile = flag.String("config", "", "configuration file (default: probe config.yaml, configs/config.yaml)")
		chartsOn   = flag.Bool("charts", true, "render the chart set")
		exportOn   = flag.Bool("export", true, "write the CSV, parquet and summary artifacts")
		tenminOn   = flag.Bool("tenmin", true, "write the cleaned 10-minute CSV alongside the hourly one")
		traceOn    = flag.Bool("trace", false, "emit OpenTelemetry spans to stdout")
		version    = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Printf("%s %s\n", config.AppName, config.AppVersion)
		return
	}

	// A .env file is optional; variables already in the environment win.
	_ = godotenv.Load()

	opts := app.Options{
		ConfigFile: *configFile,
		Input:      *inPath,
		OutputDir:  *outDir,
	}
	// Stage toggles are tri-state: only flags the user set override the
	// configured values.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "charts":
			opts.Charts = chartsOn
		case "export":
			opts.Export = exportOn
		case "tenmin":
			opts.TenMinCSV = tenminOn
		case "trace":
			opts.Trace = traceOn
		}
	})

	// Create application instance
	application, err := app.NewApplication(opts)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Execute the run
	if err := application.Run(); err != nil {
		slog.Error("Run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
