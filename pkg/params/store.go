package params

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/adaptivepwm/pwm-go/pkg/config"
)

// RangesFor returns the per-parameter ranges configured by cfg.
// Only the duty cycle is range-constrained.
func RangesFor(cfg config.Configuration) map[string]config.Range {
	return map[string]config.Range{
		DutyCycle: cfg.DutyCycleBounds(),
	}
}

// Store is the mutable parameter table of one session. Every parameter has
// a value from construction on. Writes and commits replace values under a
// single lock so readers never observe a partially applied commit.
type Store struct {
	mu       sync.RWMutex
	values   Snapshot
	ranges   map[string]config.Range
	revision uint64
}

// NewStore creates a store seeded with Defaults.
func NewStore(ranges map[string]config.Range) *Store {
	s := &Store{values: Defaults()}
	s.SetRanges(ranges)
	return s
}

// SetRanges replaces the validation ranges used by Write.
func (s *Store) SetRanges(ranges map[string]config.Range) {
	cp := make(map[string]config.Range, len(ranges))
	for k, v := range ranges {
		cp[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ranges = cp
}

// Range returns the validation range for name, if one is configured.
func (s *Store) Range(name string) (config.Range, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.ranges[name]
	return r, ok
}

// Write validates and stores a caller-supplied value. Unknown names and
// out-of-range or non-finite values are rejected with a *ParameterError
// and leave the store unchanged.
func (s *Store) Write(name string, value float64) error {
	if !Known(name) {
		return &ParameterError{Kind: KindUnknownParameter, Name: name, Value: value}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &ParameterError{Kind: KindOutOfRange, Name: name, Value: value}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r, ok := s.ranges[name]; ok {
		switch {
		case value < r.Min:
			return &ParameterError{Kind: KindOutOfRange, Name: name, Value: value, Range: &r, Bound: r.Min, BoundName: "min"}
		case value > r.Max:
			return &ParameterError{Kind: KindOutOfRange, Name: name, Value: value, Range: &r, Bound: r.Max, BoundName: "max"}
		}
	}

	next := s.values.Clone()
	next[name] = value
	s.values = next
	s.revision++
	return nil
}

// Commit replaces all values with snap, bypassing range validation. It is
// the path used by the monitoring loop for telemetry samples. Snapshots
// that lack a parameter are rejected and nothing is committed; names that
// are not parameters are ignored.
func (s *Store) Commit(snap Snapshot) error {
	if missing := snap.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncompleteSnapshot, strings.Join(missing, ", "))
	}

	next := make(Snapshot, len(names))
	for _, n := range names {
		next[n] = snap[n]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = next
	s.revision++
	return nil
}

// Read returns the current value of name.
func (s *Store) Read(name string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[name]
	if !ok {
		return 0, &ParameterError{Kind: KindUnknownParameter, Name: name}
	}
	return v, nil
}

// Snapshot returns a copy of all current values.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values.Clone()
}

// Revision returns a counter incremented by every successful write or commit.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}
