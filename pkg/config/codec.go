package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ErrLoadFailed marks a configuration that could not be loaded. Callers
// continue with defaults.
var ErrLoadFailed = errors.New("configuration load failed")

// LoadError reports why a configuration source was rejected.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config load error: %v", e.Err)
	}
	return fmt.Sprintf("config load error (%s): %v", e.Path, e.Err)
}

// Unwrap exposes ErrLoadFailed and the cause.
func (e *LoadError) Unwrap() []error {
	return []error{ErrLoadFailed, e.Err}
}

// Format identifies a configuration file encoding.
type Format uint8

const (
	// FormatJSON is JSON, with comments and trailing commas tolerated on read.
	FormatJSON Format = iota
	// FormatYAML is YAML.
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatFromPath picks the format from the file extension. Anything other
// than .yaml/.yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode overlays data onto the defaults and validates the result.
func Decode(data []byte, format Format) (Configuration, error) {
	return Overlay(Default(), data, format)
}

// Overlay decodes data on top of base. Fields missing from data keep their
// base value; nested objects are merged field by field.
func Overlay(base Configuration, data []byte, format Format) (Configuration, error) {
	cfg := base
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return base, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return base, fmt.Errorf("parse json: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return base, err
	}
	return cfg, nil
}

// Encode serializes the configuration in the given format.
func Encode(cfg Configuration, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}
