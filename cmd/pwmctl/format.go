package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/adaptivepwm/pwm-go/pkg/cert"
	"github.com/adaptivepwm/pwm-go/pkg/monitor"
	"github.com/adaptivepwm/pwm-go/pkg/params"
	"github.com/adaptivepwm/pwm-go/pkg/safety"
	"github.com/adaptivepwm/pwm-go/pkg/session"
)

// formatSnapshot renders a snapshot on one line with units.
func formatSnapshot(s params.Snapshot) string {
	return fmt.Sprintf("L:%gmH C:%gµF ESR:%gmΩ Duty:%.1f%% Eff:%.1f%% Temp:%g°C I:%gA V:%gV",
		s[params.Inductance],
		s[params.Capacitance],
		s[params.ESR],
		s[params.DutyCycle]*100,
		s[params.Efficiency]*100,
		s[params.Temperature],
		s[params.Current],
		s[params.Voltage],
	)
}

// writeStep prints one monitoring step.
func writeStep(w io.Writer, s monitor.Step, m markers) {
	if s.Err != nil {
		fmt.Fprintf(w, "[%4d] %s%v\n", s.Iteration, m.fail, s.Err)
		return
	}
	line := fmt.Sprintf("[%4d] %s", s.Iteration, formatSnapshot(s.Snapshot))
	if s.Forced {
		line += " (failsafe)"
	}
	fmt.Fprintln(w, line)
	for _, v := range s.Report.Violations {
		fmt.Fprintf(w, "       %s%s\n", m.warn, v)
	}
}

// writeStatus prints a session status in human-readable form.
func writeStatus(w io.Writer, st session.Status) {
	running := "No"
	if st.Running {
		running = "Yes"
	}
	fmt.Fprintf(w, "Session:   %s\n", st.SessionID)
	fmt.Fprintf(w, "Operator:  %s\n", formatOperator(st.Subject, st.Organization))
	fmt.Fprintf(w, "Timestamp: %s\n", st.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "Running:   %s\n", running)
	if st.Failsafe != "" {
		fmt.Fprintf(w, "Failsafe:  %s\n", st.Failsafe)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Parameters:")
	for _, name := range params.Names() {
		fmt.Fprintf(w, "  %-12s %g\n", name+":", st.Parameters[name])
	}
}

func formatOperator(subject, org string) string {
	if org == "" {
		return subject
	}
	return fmt.Sprintf("%s (%s)", subject, org)
}

// writeReport prints the outcome of a safety evaluation.
func writeReport(w io.Writer, r safety.Report, m markers) {
	if r.Safe {
		fmt.Fprintf(w, "%sSystem is operating within safety limits\n", m.ok)
		return
	}
	fmt.Fprintf(w, "%sSafety violations detected:\n", m.warn)
	for _, v := range r.Violations {
		fmt.Fprintf(w, "  - %s\n", v)
	}
}

// writeCertInfo prints the details of one certificate.
func writeCertInfo(w io.Writer, label string, info *cert.CertificateInfo) {
	fmt.Fprintf(w, "%s:\n", label)
	fmt.Fprintf(w, "  Subject:    %s\n", info.Subject)
	fmt.Fprintf(w, "  Issuer:     %s\n", info.Issuer)
	fmt.Fprintf(w, "  Serial:     %s\n", info.Serial)
	fmt.Fprintf(w, "  Valid:      %s to %s\n",
		info.NotBefore.UTC().Format(time.RFC3339), info.NotAfter.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "  Algorithm:  %s / %s\n", info.SignatureAlgorithm, info.PublicKeyAlgorithm)
	fmt.Fprintf(w, "  CA:         %t\n", info.IsCA)
	if len(info.SKI) > 0 {
		fmt.Fprintf(w, "  SKI:        %s\n", hexColon(info.SKI))
	}
}

func hexColon(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("%02X", c)
	}
	return strings.Join(parts, ":")
}
