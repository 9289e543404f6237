package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/adaptivepwm/pwm-go/pkg/config"
	"github.com/adaptivepwm/pwm-go/pkg/failsafe"
	"github.com/adaptivepwm/pwm-go/pkg/params"
	"github.com/adaptivepwm/pwm-go/pkg/safety"
	"github.com/adaptivepwm/pwm-go/pkg/telemetry"
)

// State is the monitoring loop state.
type State uint8

const (
	// StateIdle means no stepper is running.
	StateIdle State = iota

	// StateRunning means a stepper goroutine is sampling.
	StateRunning
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}

// Step is the outcome of one monitoring iteration.
type Step struct {
	// Iteration is 1-based within the current run.
	Iteration uint64

	// Time the step completed.
	Time time.Time

	// Snapshot is the committed snapshot (nil when Err is set).
	Snapshot params.Snapshot

	// Report is the safety evaluation of Snapshot.
	Report safety.Report

	// Forced is true when the failsafe replaced the sampled duty cycle.
	Forced bool

	// Err is set when the sample could not be obtained or committed.
	// Nothing was committed in that case.
	Err error
}

// Loop samples a telemetry source into a parameter store.
type Loop struct {
	store    *params.Store
	source   telemetry.Source
	interval time.Duration
	limits   config.SafetyLimits
	minDuty  float64
	failsafe *failsafe.Timer

	mu            sync.Mutex
	state         State
	cancel        context.CancelFunc
	done          chan struct{}
	last          *Step
	onStep        func(Step)
	onStateChange func(oldState, newState State)
}

// Option configures a Loop.
type Option func(*Loop)

// WithFailsafe attaches a failsafe timer.
func WithFailsafe(t *failsafe.Timer) Option {
	return func(l *Loop) { l.failsafe = t }
}

// WithInterval overrides the sampling interval from the configuration.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) { l.interval = d }
}

// New creates an idle loop over store and source. The sampling interval,
// safety limits and failsafe duty cycle come from cfg.
func New(store *params.Store, source telemetry.Source, cfg config.Configuration, opts ...Option) *Loop {
	l := &Loop{
		store:    store,
		source:   source,
		interval: cfg.SamplingInterval(),
		limits:   cfg.SafetyLimits,
		minDuty:  cfg.MinDutyCycle,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnStep sets the step observer. It runs on the stepper goroutine and must
// not call Stop or Wait.
func (l *Loop) OnStep(fn func(Step)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onStep = fn
}

// OnStateChange sets a callback for IDLE/RUNNING transitions.
func (l *Loop) OnStateChange(fn func(oldState, newState State)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onStateChange = fn
}

// State returns the current state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Running reports whether a stepper is active.
func (l *Loop) Running() bool {
	return l.State() == StateRunning
}

// Interval returns the wait between samples.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// LastStep returns the most recent step, if any.
func (l *Loop) LastStep() (Step, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil {
		return Step{}, false
	}
	return *l.last, true
}

// Start begins sampling. iterations bounds the run; 0 runs until Stop or
// until ctx is done. It returns false, and does nothing, when iterations
// is negative or the loop is already running.
func (l *Loop) Start(ctx context.Context, iterations int) bool {
	if iterations < 0 {
		return false
	}

	l.mu.Lock()

	if l.state == StateRunning {
		l.mu.Unlock()
		return false
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.state = StateRunning
	l.cancel = cancel
	l.done = done

	stateChangeFn := l.onStateChange

	l.mu.Unlock()

	if stateChangeFn != nil {
		stateChangeFn(StateIdle, StateRunning)
	}

	go l.run(runCtx, iterations, done)
	return true
}

// Stop cancels the run and waits for the stepper to return. It returns
// false if the loop was not running.
func (l *Loop) Stop() bool {
	l.mu.Lock()
	if l.state != StateRunning {
		l.mu.Unlock()
		return false
	}
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	cancel()
	<-done
	return true
}

// Wait blocks until the current run, if any, has finished.
func (l *Loop) Wait() {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (l *Loop) run(ctx context.Context, iterations int, done chan struct{}) {
	defer l.finish(done)

	for i := uint64(1); iterations == 0 || i <= uint64(iterations); i++ {
		if !l.step(ctx, i) {
			return
		}
		if iterations > 0 && i == uint64(iterations) {
			return
		}
		if !sleep(ctx, l.interval) {
			return
		}
	}
}

// step performs one iteration. It returns false when the run must end.
func (l *Loop) step(ctx context.Context, i uint64) bool {
	snap, err := l.source.NextSample(ctx)
	if ctx.Err() != nil {
		return false
	}
	if err != nil {
		l.emit(Step{Iteration: i, Time: time.Now(), Err: fmt.Errorf("sample: %w", err)})
		return !errors.Is(err, telemetry.ErrExhausted)
	}

	forced := false
	if l.failsafe != nil && l.failsafe.IsFailsafe() {
		snap = snap.Clone()
		snap[params.DutyCycle] = l.minDuty
		forced = true
	}

	if err := l.store.Commit(snap); err != nil {
		l.emit(Step{Iteration: i, Time: time.Now(), Err: fmt.Errorf("commit: %w", err)})
		return true
	}

	committed := snap.Clone()
	report := safety.Evaluate(committed, l.limits)
	if l.failsafe != nil {
		l.failsafe.Observe(report)
	}

	l.emit(Step{
		Iteration: i,
		Time:      time.Now(),
		Snapshot:  committed,
		Report:    report,
		Forced:    forced,
	})
	return true
}

func (l *Loop) emit(s Step) {
	l.mu.Lock()
	l.last = &s
	fn := l.onStep
	l.mu.Unlock()

	if fn != nil {
		fn(s)
	}
}

func (l *Loop) finish(done chan struct{}) {
	l.mu.Lock()
	l.cancel()
	l.cancel = nil
	l.state = StateIdle
	stateChangeFn := l.onStateChange
	l.mu.Unlock()

	// Violations observed while idle do not count towards the trip delay.
	if l.failsafe != nil {
		l.failsafe.Reset()
	}
	if stateChangeFn != nil {
		stateChangeFn(StateRunning, StateIdle)
	}
	close(done)
}

// sleep waits for d or until ctx is done. It reports whether the full
// interval elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
