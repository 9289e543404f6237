package telemetry

import (
	"context"
	"errors"
	"sync"

	"github.com/adaptivepwm/pwm-go/pkg/params"
)

// ErrExhausted is returned by a Sequence that has no samples left.
var ErrExhausted = errors.New("telemetry source exhausted")

// Source produces parameter samples. NextSample is called once per
// monitoring step and must return a complete snapshot or an error.
type Source interface {
	NextSample(ctx context.Context) (params.Snapshot, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (params.Snapshot, error)

// NextSample calls f.
func (f SourceFunc) NextSample(ctx context.Context) (params.Snapshot, error) {
	return f(ctx)
}

// Sequence replays fixed snapshots in order.
type Sequence struct {
	mu      sync.Mutex
	samples []params.Snapshot
	next    int
	repeat  bool
}

// NewSequence creates a Sequence. With repeat set it wraps around instead
// of returning ErrExhausted.
func NewSequence(repeat bool, samples ...params.Snapshot) *Sequence {
	cp := make([]params.Snapshot, len(samples))
	for i, s := range samples {
		cp[i] = s.Clone()
	}
	return &Sequence{samples: cp, repeat: repeat}
}

// NextSample returns the next snapshot.
func (s *Sequence) NextSample(ctx context.Context) (params.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.samples) == 0 {
		return nil, ErrExhausted
	}
	if s.next >= len(s.samples) {
		if !s.repeat {
			return nil, ErrExhausted
		}
		s.next = 0
	}
	snap := s.samples[s.next].Clone()
	s.next++
	return snap, nil
}

// Served returns how many samples have been handed out since the last wrap.
func (s *Sequence) Served() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
