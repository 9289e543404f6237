package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/adaptivepwm/pwm-go/pkg/cert"
	"github.com/adaptivepwm/pwm-go/pkg/config"
	"github.com/adaptivepwm/pwm-go/pkg/monitor"
	"github.com/adaptivepwm/pwm-go/pkg/params"
	"github.com/adaptivepwm/pwm-go/pkg/safety"
	"github.com/adaptivepwm/pwm-go/pkg/session"
)

var plain = markers{ok: "OK: ", fail: "FAILED: ", warn: "WARNING: "}

func TestFormatSnapshot(t *testing.T) {
	snap := params.Defaults()
	snap[params.Inductance] = 1.02
	snap[params.Efficiency] = 0.951

	got := formatSnapshot(snap)
	assert.Equal(t, "L:1.02mH C:0µF ESR:0mΩ Duty:50.0% Eff:95.1% Temp:25°C I:0A V:0V", got)
}

func TestWriteStep(t *testing.T) {
	snap := params.Defaults()
	snap[params.Temperature] = 90

	var buf bytes.Buffer
	writeStep(&buf, monitor.Step{
		Iteration: 12,
		Snapshot:  snap,
		Forced:    true,
		Report:    safety.Evaluate(snap, config.Default().SafetyLimits),
	}, plain)

	out := buf.String()
	assert.Contains(t, out, "[  12] L:0mH")
	assert.Contains(t, out, "(failsafe)")
	assert.Contains(t, out, "WARNING: High temperature: 90°C exceeds limit 85°C")

	buf.Reset()
	writeStep(&buf, monitor.Step{Iteration: 3, Err: errors.New("sample: sensor offline")}, plain)
	assert.Equal(t, "[   3] FAILED: sample: sensor offline\n", buf.String())
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	writeReport(&buf, safety.Report{Safe: true}, plain)
	assert.Equal(t, "OK: System is operating within safety limits\n", buf.String())

	buf.Reset()
	writeReport(&buf, safety.Report{Violations: []string{"a", "b"}}, plain)
	assert.Equal(t, "WARNING: Safety violations detected:\n  - a\n  - b\n", buf.String())
}

func TestWriteStatus(t *testing.T) {
	var buf bytes.Buffer
	writeStatus(&buf, session.Status{
		SessionID:    "abc",
		Subject:      "admin",
		Organization: "Lab",
		Timestamp:    time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC),
		Parameters:   params.Defaults(),
		Running:      true,
		Failsafe:     "NORMAL",
	})

	out := buf.String()
	assert.Contains(t, out, "Operator:  admin (Lab)")
	assert.Contains(t, out, "Timestamp: 2026-01-28T10:00:00Z")
	assert.Contains(t, out, "Running:   Yes")
	assert.Contains(t, out, "Failsafe:  NORMAL")
	assert.Contains(t, out, "temperature: 25")
}

func TestWriteCertInfo(t *testing.T) {
	var buf bytes.Buffer
	writeCertInfo(&buf, "Client", &cert.CertificateInfo{
		Subject: "CN=admin",
		Issuer:  "CN=Root",
		Serial:  "1f",
		SKI:     []byte{0xab, 0x01},
	})

	out := buf.String()
	assert.Contains(t, out, "Client:")
	assert.Contains(t, out, "Subject:    CN=admin")
	assert.Contains(t, out, "SKI:        AB:01")
}
