package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/adaptivepwm/pwm-go/pkg/cert"
	"github.com/adaptivepwm/pwm-go/pkg/config"
	"github.com/adaptivepwm/pwm-go/pkg/log"
	"github.com/adaptivepwm/pwm-go/pkg/persistence"
	"github.com/adaptivepwm/pwm-go/pkg/session"
	"github.com/adaptivepwm/pwm-go/pkg/telemetry"
)

// app carries the per-invocation wiring shared by all commands.
type app struct {
	opts   globalOptions
	out    io.Writer
	logger *slog.Logger
	events log.Logger
	store  *persistence.ConfigStore
	marks  markers

	// now is the clock for sessions and seeds.
	now func() time.Time

	closers []io.Closer
}

func newApp(opts globalOptions, stdout, stderr io.Writer) (*app, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.LogLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", opts.LogLevel)
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	a := &app{
		opts:   opts,
		out:    stdout,
		logger: logger,
		store:  persistence.NewConfigStore(opts.ConfigPath),
		marks:  markersFor(stdout),
		now:    time.Now,
	}

	loggers := []log.Logger{log.NewSlogAdapter(logger)}
	if opts.EventLog != "" {
		fl, err := log.NewFileLogger(opts.EventLog)
		if err != nil {
			return nil, fmt.Errorf("open event log: %w", err)
		}
		a.closers = append(a.closers, fl)
		loggers = append(loggers, fl)
	}
	a.events = log.NewMultiLogger(loggers...)

	return a, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

// loadConfig returns the configuration file overlaid on the defaults. A
// damaged file is reported and the defaults are used.
func (a *app) loadConfig() config.Configuration {
	cfg, err := a.store.Load()
	if err != nil {
		var loadErr *config.LoadError
		if errors.As(err, &loadErr) {
			fmt.Fprintf(a.out, "%sConfig load error: %v, using defaults\n", a.marks.warn, err)
		}
		return cfg
	}
	if !a.store.Exists() {
		a.logger.Info("using default configuration", "path", a.store.Path())
	}
	return cfg
}

// source builds the telemetry source named by kind. A zero seed is
// replaced by one derived from the clock.
func (a *app) source(kind string, seed uint64, cfg config.Configuration) (telemetry.Source, error) {
	if seed == 0 {
		seed = uint64(a.now().UnixNano())
	}
	switch kind {
	case "sim", "simulator":
		return telemetry.NewSimulator(seed), nil
	case "model":
		return telemetry.NewModel(telemetry.DefaultPlant, cfg, seed), nil
	default:
		return nil, usageError(fmt.Sprintf("unknown source %q (must be sim or model)", kind))
	}
}

// openSession authenticates the operator and returns a session bound to
// the verified identity. src may be nil.
func (a *app) openSession(ctx context.Context, src telemetry.Source) (*session.Controller, error) {
	cfg := a.loadConfig()
	return a.openSessionWith(ctx, cfg, src)
}

func (a *app) openSessionWith(ctx context.Context, cfg config.Configuration, src telemetry.Source) (*session.Controller, error) {
	creds := a.opts.credentials()
	a.logger.Debug("authenticating", "cert", creds.CertPath, "key", creds.KeyPath, "ca", creds.CAPath)

	sess, err := session.Authenticate(ctx, cert.NewGate(nil), creds, session.Options{
		Config:      &cfg,
		Source:      src,
		Storage:     a.store,
		EventLogger: a.events,
		Logger:      a.logger,
		Now:         a.now,
	})
	if err != nil {
		fmt.Fprintf(a.out, "%sAuthentication required to access the PWM controller\n", a.marks.lock)
		return nil, err
	}

	id := sess.Identity()
	if id.Organization != "" {
		fmt.Fprintf(a.out, "%sAuthenticated as %s (%s)\n", a.marks.ok, id.SubjectName, id.Organization)
	} else {
		fmt.Fprintf(a.out, "%sAuthenticated as %s\n", a.marks.ok, id.SubjectName)
	}
	return sess, nil
}

// markers prefix status lines. Terminals get symbols, pipes get words.
type markers struct {
	ok, fail, warn, info, lock string
}

func markersFor(w io.Writer) markers {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return markers{ok: "✓ ", fail: "✗ ", warn: "! ", info: "i ", lock: "🔒 "}
	}
	return markers{ok: "OK: ", fail: "FAILED: ", warn: "WARNING: ", info: "", lock: ""}
}
