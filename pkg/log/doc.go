// Package log provides structured event logging for Strand control systems.
//
// This package defines the Logger interface and Event types for capturing
// framework-level events: attribute updates and puts, scan ticks, scheduler
// period-group state changes and errors. It is separate from operational
// logging (slog) - event capture provides a complete machine-readable trace
// of a control system run for debugging and analysis.
//
// # Basic Usage
//
// Components accept a Logger at construction; pass nil or NoopLogger to
// disable logging:
//
//	// For development: log to console via slog
//	logger := log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	logger, _ := log.NewFileLogger("/var/log/strand/run.slog")
//
//	// Both: use MultiLogger
//	logger := log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Each Event carries one type-specific payload:
//   - AttributeEvent: an attribute value update or setpoint put
//   - ScanEvent: a scan or periodic update invocation
//   - GroupEvent: a scheduler period-group state change
//   - ErrorEventData: an error at any layer
//
// # File Format
//
// Log files use CBOR encoding with integer map keys for compactness.
// Reader streams events back out of a file, optionally filtered by
// category, controller path, name or time range.
package log
