package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adaptivepwm/pwm-go/pkg/cert"
	"github.com/adaptivepwm/pwm-go/pkg/config"
	"github.com/adaptivepwm/pwm-go/pkg/failsafe"
	"github.com/adaptivepwm/pwm-go/pkg/log"
	"github.com/adaptivepwm/pwm-go/pkg/monitor"
	"github.com/adaptivepwm/pwm-go/pkg/params"
	"github.com/adaptivepwm/pwm-go/pkg/safety"
	"github.com/adaptivepwm/pwm-go/pkg/telemetry"
)

// Session errors.
var (
	ErrNotAuthenticated = errors.New("session requires an authenticated identity")
	ErrNoStorage        = errors.New("no configuration storage attached")
	ErrClosed           = errors.New("session closed")
)

// Authenticator establishes an identity from credentials. *cert.Gate
// implements it.
type Authenticator interface {
	Verify(ctx context.Context, creds cert.CredentialSet) (*cert.Identity, error)
}

// ConfigSaver persists a configuration. *persistence.ConfigStore
// implements it.
type ConfigSaver interface {
	Save(cfg config.Configuration) error
}

// Options configures a Controller. The zero value is usable.
type Options struct {
	// Config is the session configuration. Nil selects config.Default().
	Config *config.Configuration

	// Source feeds the monitoring loop. Nil selects a Simulator seeded
	// from the session start time.
	Source telemetry.Source

	// Storage receives SaveConfiguration calls.
	Storage ConfigSaver

	// EventLogger receives the session event trace.
	EventLogger log.Logger

	// Logger is used for operational logging.
	Logger *slog.Logger

	// Now overrides the status clock.
	Now func() time.Time
}

// Authenticate verifies creds with gate and, on success, returns a
// Controller bound to the resulting Identity. Authentication failures are
// returned unchanged and are terminal for this attempt.
func Authenticate(ctx context.Context, gate Authenticator, creds cert.CredentialSet, opts Options) (*Controller, error) {
	events := eventLogger(opts.EventLogger)

	id, err := gate.Verify(ctx, creds)
	if err != nil {
		ev := &log.AuthEvent{Reason: err.Error()}
		var authErr *cert.AuthError
		if errors.As(err, &authErr) {
			ev.Reason = authErr.Kind.String()
			ev.Missing = authErr.Missing
		}
		events.Log(log.Event{
			Timestamp: time.Now(),
			Category:  log.CategoryAuth,
			Auth:      ev,
		})
		return nil, err
	}
	return New(id, opts)
}

// Controller is an authenticated session.
type Controller struct {
	id       string
	identity cert.Identity
	cfg      config.Configuration

	store    *params.Store
	loop     *monitor.Loop
	failsafe *failsafe.Timer
	storage  ConfigSaver

	events log.Logger
	logger *slog.Logger
	now    func() time.Time

	mu     sync.Mutex
	onStep func(monitor.Step)
	closed bool
}

// New creates a Controller for an identity produced by a successful gate
// pass. A nil identity yields ErrNotAuthenticated.
func New(identity *cert.Identity, opts Options) (*Controller, error) {
	if identity == nil {
		return nil, ErrNotAuthenticated
	}

	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	c := &Controller{
		id:       uuid.New().String(),
		identity: *identity,
		cfg:      cfg,
		store:    params.NewStore(params.RangesFor(cfg)),
		storage:  opts.Storage,
		events:   eventLogger(opts.EventLogger),
		logger:   opts.Logger,
		now:      opts.Now,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.logger = c.logger.With(slog.String("session", c.id))

	source := opts.Source
	if source == nil {
		source = telemetry.NewSimulator(uint64(time.Now().UnixNano()))
	}

	var loopOpts []monitor.Option
	if cfg.Failsafe.Enabled {
		timer, err := failsafe.FromConfig(cfg)
		if err != nil {
			return nil, err
		}
		c.failsafe = timer
		c.wireFailsafe()
		loopOpts = append(loopOpts, monitor.WithFailsafe(timer))
	}

	c.loop = monitor.New(c.store, source, cfg, loopOpts...)
	c.loop.OnStep(c.handleStep)
	c.loop.OnStateChange(func(oldState, newState monitor.State) {
		c.emit(log.Event{
			Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityMonitor,
				OldState: oldState.String(),
				NewState: newState.String(),
			},
		})
	})

	c.emit(log.Event{
		Category: log.CategoryAuth,
		Auth: &log.AuthEvent{
			Success:      true,
			Organization: identity.Organization,
		},
	})
	c.logger.Info("session established",
		slog.String("subject", identity.SubjectName),
		slog.String("organization", identity.Organization))

	return c, nil
}

func (c *Controller) wireFailsafe() {
	c.failsafe.OnStateChange(func(oldState, newState failsafe.State) {
		c.emit(log.Event{
			Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityFailsafe,
				OldState: oldState.String(),
				NewState: newState.String(),
			},
		})
	})
	c.failsafe.OnFailsafeEnter(func(trigger safety.Report) {
		c.logger.Warn("failsafe engaged, forcing minimum duty cycle",
			slog.Float64("duty_cycle", c.cfg.MinDutyCycle),
			slog.Any("violations", trigger.Violations))
	})
	c.failsafe.OnFailsafeExit(func() {
		c.logger.Info("failsafe released")
	})
}

// ID returns the session identifier.
func (c *Controller) ID() string {
	return c.id
}

// Identity returns the identity the session is bound to.
func (c *Controller) Identity() cert.Identity {
	return c.identity
}

// Configuration returns the session configuration.
func (c *Controller) Configuration() config.Configuration {
	return c.cfg
}

// Status is a point-in-time view of the session.
type Status struct {
	SessionID    string               `json:"session_id"`
	Subject      string               `json:"subject"`
	Organization string               `json:"organization,omitempty"`
	Timestamp    time.Time            `json:"timestamp"`
	Parameters   params.Snapshot      `json:"parameters"`
	Config       config.Configuration `json:"config"`
	Running      bool                 `json:"monitoring_active"`
	Failsafe     string               `json:"failsafe,omitempty"`
}

// Status returns the current parameters, configuration and loop state.
// The parameters are a consistent copy.
func (c *Controller) Status() Status {
	st := Status{
		SessionID:    c.id,
		Subject:      c.identity.SubjectName,
		Organization: c.identity.Organization,
		Timestamp:    c.now(),
		Parameters:   c.store.Snapshot(),
		Config:       c.cfg,
		Running:      c.loop.Running(),
	}
	if c.failsafe != nil {
		st.Failsafe = c.failsafe.State().String()
	}
	return st
}

// Parameter returns the current value of one parameter.
func (c *Controller) Parameter(name string) (float64, error) {
	return c.store.Read(name)
}

// SetParameter writes a caller-supplied value. Rejected writes return a
// *params.ParameterError and leave the parameters unchanged.
func (c *Controller) SetParameter(name string, value float64) error {
	if c.isClosed() {
		return ErrClosed
	}

	err := c.store.Write(name, value)

	ev := &log.ParameterEvent{Name: name, Value: value, Accepted: err == nil}
	if err != nil {
		ev.Reason = err.Error()
		c.logger.Debug("parameter rejected", slog.String("param", name), slog.Any("error", err))
	}
	c.emit(log.Event{Category: log.CategoryParameter, Parameter: ev})
	return err
}

// OnStep registers an observer for monitoring steps. It runs on the
// monitoring goroutine and must not call StopMonitoring or Wait.
func (c *Controller) OnStep(fn func(monitor.Step)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStep = fn
}

// StartMonitoring starts the monitoring loop. iterations bounds the run;
// 0 runs until StopMonitoring. It returns false if iterations is negative,
// the loop was already running or the session is closed.
func (c *Controller) StartMonitoring(ctx context.Context, iterations int) bool {
	if c.isClosed() {
		return false
	}
	started := c.loop.Start(ctx, iterations)
	if started {
		c.logger.Info("monitoring started",
			slog.Int("iterations", iterations),
			slog.Duration("interval", c.loop.Interval()))
	}
	return started
}

// StopMonitoring stops the loop and waits for it to become idle. It
// returns false if the loop was not running.
func (c *Controller) StopMonitoring() bool {
	stopped := c.loop.Stop()
	if stopped {
		c.logger.Info("monitoring stopped")
	}
	return stopped
}

// Monitoring reports whether the loop is running.
func (c *Controller) Monitoring() bool {
	return c.loop.Running()
}

// Wait blocks until the current monitoring run has finished.
func (c *Controller) Wait() {
	c.loop.Wait()
}

// FailsafeState returns the failsafe state, or false if the failsafe is
// disabled.
func (c *Controller) FailsafeState() (failsafe.State, bool) {
	if c.failsafe == nil {
		return failsafe.StateNormal, false
	}
	return c.failsafe.State(), true
}

// CheckSafety evaluates the current parameters against the configured
// limits. Violations are reported in the result, not as an error.
func (c *Controller) CheckSafety() safety.Report {
	report := safety.Evaluate(c.store.Snapshot(), c.cfg.SafetyLimits)
	c.emit(log.Event{
		Category: log.CategorySafety,
		Safety: &log.SafetyEvent{
			Safe:       report.Safe,
			Violations: report.Violations,
		},
	})
	return report
}

// SaveConfiguration persists the session configuration through the
// attached storage. Only storage errors are returned.
func (c *Controller) SaveConfiguration() error {
	if c.storage == nil {
		return ErrNoStorage
	}
	if err := c.storage.Save(c.cfg); err != nil {
		c.emit(log.Event{
			Category: log.CategoryError,
			Error:    &log.ErrorEventData{Message: err.Error(), Context: "save configuration"},
		})
		return fmt.Errorf("save configuration: %w", err)
	}
	c.emit(log.Event{
		Category:    log.CategoryState,
		StateChange: &log.StateChangeEvent{Entity: log.StateEntityConfig, NewState: "SAVED"},
	})
	return nil
}

// Close stops monitoring and ends the session. Further mutating calls
// fail with ErrClosed. Close is idempotent.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.loop.Stop()
	if c.failsafe != nil {
		c.failsafe.Reset()
	}
	c.emit(log.Event{
		Category:    log.CategoryState,
		StateChange: &log.StateChangeEvent{Entity: log.StateEntitySession, OldState: "ACTIVE", NewState: "CLOSED"},
	})
	return nil
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) handleStep(s monitor.Step) {
	if s.Err != nil {
		c.logger.Warn("monitoring step failed", slog.Uint64("iteration", s.Iteration), slog.Any("error", s.Err))
		c.emit(log.Event{
			Category: log.CategoryError,
			Error:    &log.ErrorEventData{Message: s.Err.Error(), Context: fmt.Sprintf("monitoring step %d", s.Iteration)},
		})
	} else {
		c.emit(log.Event{
			Category: log.CategorySample,
			Sample: &log.SampleEvent{
				Iteration: s.Iteration,
				Values:    s.Snapshot,
				Forced:    s.Forced,
			},
		})
		c.emit(log.Event{
			Category: log.CategorySafety,
			Safety: &log.SafetyEvent{
				Safe:       s.Report.Safe,
				Violations: s.Report.Violations,
				Iteration:  s.Iteration,
			},
		})
		if !s.Report.Safe {
			c.logger.Warn("safety violation",
				slog.Uint64("iteration", s.Iteration),
				slog.Any("violations", s.Report.Violations))
		}
	}

	c.mu.Lock()
	fn := c.onStep
	c.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (c *Controller) emit(ev log.Event) {
	ev.Timestamp = time.Now()
	ev.SessionID = c.id
	ev.Subject = c.identity.SubjectName
	c.events.Log(ev)
}

func eventLogger(l log.Logger) log.Logger {
	if l == nil {
		return log.NoopLogger{}
	}
	return l
}
