package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adaptivepwm/pwm-go/pkg/cert"
	"github.com/adaptivepwm/pwm-go/pkg/config"
	"github.com/adaptivepwm/pwm-go/pkg/params"
	"github.com/adaptivepwm/pwm-go/pkg/session"
	"github.com/adaptivepwm/pwm-go/pkg/telemetry"
)

func newTestShell(t *testing.T, samples ...params.Snapshot) (*shell, *session.Controller, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.SamplingRate = 1
	if len(samples) == 0 {
		samples = []params.Snapshot{params.Defaults()}
	}

	sess, err := session.New(&cert.Identity{SubjectName: "operator"}, session.Options{
		Config: &cfg,
		Source: telemetry.NewSequence(true, samples...),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	var buf bytes.Buffer
	return newShell(context.Background(), sess, &buf, plain), sess, &buf
}

func TestShellSetAndStatus(t *testing.T) {
	sh, sess, buf := newTestShell(t)

	assert.False(t, sh.exec("set duty_cycle 0.6"))
	assert.Contains(t, buf.String(), "OK: Set duty_cycle = 0.6")

	v, err := sess.Parameter(params.DutyCycle)
	require.NoError(t, err)
	assert.Equal(t, 0.6, v)

	buf.Reset()
	sh.exec("set duty_cycle 0.99")
	assert.Contains(t, buf.String(), "FAILED: duty_cycle must be between 0.05 and 0.95")

	buf.Reset()
	sh.exec("status")
	assert.Contains(t, buf.String(), "duty_cycle:  0.6")

	buf.Reset()
	sh.exec("status --json")
	assert.Contains(t, buf.String(), `"monitoring_active": false`)
}

func TestShellStartPrintsUnsafeSteps(t *testing.T) {
	hot := params.Defaults()
	hot[params.Temperature] = 90
	sh, sess, buf := newTestShell(t, hot)

	sh.exec("start 2")
	sess.Wait()

	out := buf.String()
	assert.Contains(t, out, "Monitoring started")
	assert.Contains(t, out, "[   1] L:")
	assert.Contains(t, out, "High temperature: 90°C exceeds limit 85°C")
}

func TestShellWatchControlsSafeSteps(t *testing.T) {
	sh, sess, buf := newTestShell(t)

	sh.exec("start 2")
	sess.Wait()
	assert.NotContains(t, buf.String(), "[   1]")

	sh.exec("watch on")
	sh.exec("start 2")
	sess.Wait()
	assert.Contains(t, buf.String(), "[   2] L:")

	buf.Reset()
	sh.exec("watch maybe")
	assert.Contains(t, buf.String(), "Usage: watch on|off")
}

func TestShellStartStop(t *testing.T) {
	sh, sess, buf := newTestShell(t)

	sh.exec("start")
	assert.True(t, sess.Monitoring())
	sh.exec("start")
	assert.Contains(t, buf.String(), "Monitoring already running")

	sh.exec("stop")
	assert.False(t, sess.Monitoring())
	sh.exec("stop")
	assert.Contains(t, buf.String(), "Monitoring not running")

	buf.Reset()
	sh.exec("start -1")
	assert.Contains(t, buf.String(), "Invalid iteration count")
}

func TestShellMisc(t *testing.T) {
	sh, _, buf := newTestShell(t)

	sh.exec("safety")
	assert.Contains(t, buf.String(), "System is operating within safety limits")

	sh.exec("failsafe")
	assert.Contains(t, buf.String(), "Failsafe: NORMAL")

	sh.exec("config")
	assert.Contains(t, buf.String(), "sampling_rate: 1")

	sh.exec("save")
	assert.Contains(t, buf.String(), "Failed to save configuration")

	sh.exec("frob")
	assert.Contains(t, buf.String(), "Unknown command: frob")

	assert.True(t, sh.exec("quit"))
}
