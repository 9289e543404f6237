// Package persistence stores the controller configuration on disk.
//
// The file format follows the file extension (see config.FormatFromPath).
// Loading never fails hard: unreadable or invalid files yield the defaults
// together with a *config.LoadError the caller can surface as a warning.
package persistence
