package failsafe

import (
	"errors"
	"sync"
	"time"

	"github.com/adaptivepwm/pwm-go/pkg/config"
	"github.com/adaptivepwm/pwm-go/pkg/safety"
)

// Timer errors.
var (
	ErrInvalidDelay = errors.New("invalid failsafe trip delay")
	ErrDisabled     = errors.New("failsafe disabled")
)

// State represents the failsafe state.
type State uint8

const (
	// StateNormal indicates normal operation (not in failsafe).
	StateNormal State = iota

	// StateTimerRunning indicates violations are being reported and the
	// trip delay is counting down.
	StateTimerRunning

	// StateFailsafe indicates failsafe mode is active.
	StateFailsafe
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateNormal:
		return "NORMAL"
	case StateTimerRunning:
		return "TIMER_RUNNING"
	case StateFailsafe:
		return "FAILSAFE"
	default:
		return "UNKNOWN"
	}
}

// Timer manages the failsafe timer of one session.
type Timer struct {
	mu sync.RWMutex

	state State
	delay time.Duration

	failsafeTimer *time.Timer
	startedAt     time.Time

	// Report that started the current countdown.
	trigger safety.Report

	onStateChange   func(oldState, newState State)
	onFailsafeEnter func(trigger safety.Report)
	onFailsafeExit  func()
}

// NewTimer creates a failsafe timer that trips after delay.
func NewTimer(delay time.Duration) (*Timer, error) {
	if delay <= 0 {
		return nil, ErrInvalidDelay
	}
	return &Timer{
		state: StateNormal,
		delay: delay,
	}, nil
}

// FromConfig creates a timer from the failsafe section of a configuration.
// It returns ErrDisabled when the failsafe is switched off.
func FromConfig(cfg config.Configuration) (*Timer, error) {
	if !cfg.Failsafe.Enabled {
		return nil, ErrDisabled
	}
	return NewTimer(cfg.FailsafeDelay())
}

// State returns the current failsafe state.
func (t *Timer) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// IsFailsafe returns true if in failsafe mode.
func (t *Timer) IsFailsafe() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state == StateFailsafe
}

// IsTimerRunning returns true if the trip delay is counting down.
func (t *Timer) IsTimerRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state == StateTimerRunning
}

// Delay returns the configured trip delay.
func (t *Timer) Delay() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.delay
}

// Observe feeds a safety report into the timer. Unsafe reports start the
// countdown, safe reports stop it and leave failsafe mode.
func (t *Timer) Observe(report safety.Report) {
	if report.Safe {
		t.Stop()
		return
	}
	t.start(report)
}

// Start starts the countdown without a triggering report.
func (t *Timer) Start() {
	t.start(safety.Report{})
}

func (t *Timer) start(trigger safety.Report) {
	t.mu.Lock()

	if t.state == StateTimerRunning || t.state == StateFailsafe {
		t.mu.Unlock()
		return
	}

	oldState := t.state
	t.state = StateTimerRunning
	t.startedAt = time.Now()
	t.trigger = trigger
	t.failsafeTimer = time.AfterFunc(t.delay, t.enterFailsafe)

	stateChangeFn := t.onStateChange

	t.mu.Unlock()

	if stateChangeFn != nil {
		stateChangeFn(oldState, StateTimerRunning)
	}
}

// Stop stops the countdown and leaves failsafe mode.
func (t *Timer) Stop() {
	t.mu.Lock()

	if t.state == StateNormal {
		t.mu.Unlock()
		return
	}

	oldState := t.state
	wasFailsafe := t.state == StateFailsafe

	if t.failsafeTimer != nil {
		t.failsafeTimer.Stop()
		t.failsafeTimer = nil
	}
	t.state = StateNormal
	t.startedAt = time.Time{}

	stateChangeFn := t.onStateChange
	failsafeExitFn := t.onFailsafeExit

	t.mu.Unlock()

	if stateChangeFn != nil {
		stateChangeFn(oldState, StateNormal)
	}
	if wasFailsafe && failsafeExitFn != nil {
		failsafeExitFn()
	}
}

// Reset returns the timer to normal state without firing the exit callback.
func (t *Timer) Reset() {
	t.mu.Lock()

	oldState := t.state

	if t.failsafeTimer != nil {
		t.failsafeTimer.Stop()
		t.failsafeTimer = nil
	}
	t.state = StateNormal
	t.startedAt = time.Time{}

	stateChangeFn := t.onStateChange

	t.mu.Unlock()

	if stateChangeFn != nil && oldState != StateNormal {
		stateChangeFn(oldState, StateNormal)
	}
}

// RemainingTime returns the time remaining until failsafe triggers.
// Returns 0 if the timer is not running.
func (t *Timer) RemainingTime() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.state != StateTimerRunning {
		return 0
	}

	remaining := t.delay - time.Since(t.startedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// enterFailsafe is called when the timer expires.
func (t *Timer) enterFailsafe() {
	t.mu.Lock()

	if t.state != StateTimerRunning {
		t.mu.Unlock()
		return
	}

	t.state = StateFailsafe
	t.failsafeTimer = nil

	stateChangeFn := t.onStateChange
	failsafeEnterFn := t.onFailsafeEnter
	trigger := t.trigger

	t.mu.Unlock()

	if stateChangeFn != nil {
		stateChangeFn(StateTimerRunning, StateFailsafe)
	}
	if failsafeEnterFn != nil {
		failsafeEnterFn(trigger)
	}
}

// OnStateChange sets a callback for state changes.
func (t *Timer) OnStateChange(fn func(oldState, newState State)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onStateChange = fn
}

// OnFailsafeEnter sets a callback for entering failsafe mode. It receives
// the report that started the countdown.
func (t *Timer) OnFailsafeEnter(fn func(trigger safety.Report)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onFailsafeEnter = fn
}

// OnFailsafeExit sets a callback for exiting failsafe mode.
func (t *Timer) OnFailsafeExit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onFailsafeExit = fn
}
