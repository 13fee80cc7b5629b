// Package app provides application initialization and lifecycle management
// for a preprocessing run. It wires configuration loading, logging,
// observability and the step pipeline together, and handles shutdown.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from defaults, file and environment
//	2. Apply command line overrides and resolve paths
//	3. Initialize logging and OpenTelemetry
//	4. Resolve and validate the input spreadsheet
//	5. Assemble the step pipeline for the enabled stages
//	6. Execute the run and record its metrics
//	7. Persist the run manifest and the metrics textfile
//
// # Usage
//
// The main entry point is typically:
//
//	application, err := app.NewApplication(opts)
//	if err != nil {
//	    ...
//	}
//	if err := application.Run(); err != nil {
//	    os.Exit(1)
//	}
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM by cancelling the run context. The
// pipeline stops at the next step boundary, the manifest records the run as
// cancelled, and observability is flushed before Run returns.
//
// # Error Handling
//
// All initialization and run errors are returned to the caller. The app
// does not call os.Exit() directly, allowing the main function to control
// the exit process.
package app
