// Package log provides the structured session event log.
//
// This package defines the Logger interface and Event types for capturing
// what happens inside an authenticated session: authentication outcomes,
// parameter writes, monitoring samples, safety reports and failsafe
// transitions. It is separate from operational logging (slog) - the event
// log provides a complete machine-readable trace for later analysis.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	opts.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	opts.EventLogger, _ = log.NewFileLogger("/var/log/pwm/session.plog")
//
//	// Both: use MultiLogger
//	opts.EventLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # File Format
//
// Log files use CBOR encoding with .plog extension. The pwm-log CLI tool
// provides viewing, filtering, and export capabilities.
package log
