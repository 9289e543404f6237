// Package commands implements the pwm-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/adaptivepwm/pwm-go/pkg/log"
)

// FilterOptions specifies event selection criteria shared by all commands.
type FilterOptions struct {
	// Output is the destination file of the filter command.
	Output string

	// Session matches session IDs by prefix, so the short form printed by
	// view can be used.
	Session string

	Subject    string
	Category   string
	TimeStart  string
	TimeEnd    string
	UnsafeOnly bool
}

// selector combines a log.Filter with the session prefix match, which the
// reader does not support.
type selector struct {
	filter        log.Filter
	sessionPrefix string
}

func (s selector) matches(e log.Event) bool {
	return strings.HasPrefix(e.SessionID, s.sessionPrefix) && s.filter.Matches(e)
}

func (o FilterOptions) selector() (selector, error) {
	sel := selector{
		filter: log.Filter{
			Subject:    o.Subject,
			UnsafeOnly: o.UnsafeOnly,
		},
		sessionPrefix: o.Session,
	}

	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return sel, fmt.Errorf("invalid time-start format: %w", err)
		}
		sel.filter.TimeStart = &t
	}

	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return sel, fmt.Errorf("invalid time-end format: %w", err)
		}
		sel.filter.TimeEnd = &t
	}

	if o.Category != "" {
		c, err := ParseCategoryFlag(o.Category)
		if err != nil {
			return sel, err
		}
		sel.filter.Category = &c
	}

	return sel, nil
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	c, ok := log.ParseCategory(strings.ToUpper(s))
	if !ok {
		return 0, fmt.Errorf("invalid category: %s (must be auth, parameter, sample, safety, state, or error)", s)
	}
	return c, nil
}

// eachEvent streams every selected event of the file at path to fn.
func eachEvent(path string, opts FilterOptions, fn func(log.Event) error) error {
	sel, err := opts.selector()
	if err != nil {
		return err
	}

	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if !sel.matches(event) {
			continue
		}
		if err := fn(event); err != nil {
			return err
		}
	}
}

// RunFilter writes the selected events of path to opts.Output and returns
// how many were written.
func RunFilter(path string, opts FilterOptions) (int, error) {
	if opts.Output == "" {
		return 0, fmt.Errorf("output file required")
	}
	if _, err := opts.selector(); err != nil {
		return 0, err
	}

	logger, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	err = eachEvent(path, opts, func(e log.Event) error {
		logger.Log(e)
		count++
		return nil
	})
	return count, err
}
