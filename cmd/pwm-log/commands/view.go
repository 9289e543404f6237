package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/adaptivepwm/pwm-go/pkg/log"
	"github.com/adaptivepwm/pwm-go/pkg/params"
)

// RunView writes the selected events in human-readable form.
func RunView(path string, opts FilterOptions, output io.Writer) error {
	return eachEvent(path, opts, func(e log.Event) error {
		formatEvent(output, e)
		return nil
	})
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [sess:id] CATEGORY subject
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [sess:%s] %-9s", ts, shortenSessionID(event.SessionID), event.Category.String())
	if event.Subject != "" {
		fmt.Fprintf(w, " %s", event.Subject)
	}
	fmt.Fprintln(w)

	switch {
	case event.Auth != nil:
		formatAuthDetails(w, event.Auth)
	case event.Parameter != nil:
		formatParameterDetails(w, event.Parameter)
	case event.Sample != nil:
		formatSampleDetails(w, event.Sample)
	case event.Safety != nil:
		formatSafetyDetails(w, event.Safety)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatAuthDetails(w io.Writer, a *log.AuthEvent) {
	if a.Success {
		fmt.Fprintln(w, "  Result: SUCCESS")
		if a.Organization != "" {
			fmt.Fprintf(w, "  Organization: %s\n", a.Organization)
		}
		return
	}
	fmt.Fprintf(w, "  Result: FAILED (%s)\n", a.Reason)
	if len(a.Missing) > 0 {
		fmt.Fprintf(w, "  Missing: %s\n", strings.Join(a.Missing, ", "))
	}
}

func formatParameterDetails(w io.Writer, p *log.ParameterEvent) {
	fmt.Fprintf(w, "  %s = %g", p.Name, p.Value)
	if p.Accepted {
		fmt.Fprintln(w, " (accepted)")
		return
	}
	fmt.Fprintln(w, " (rejected)")
	if p.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", p.Reason)
	}
}

func formatSampleDetails(w io.Writer, s *log.SampleEvent) {
	fmt.Fprintf(w, "  Iteration: %d", s.Iteration)
	if s.Forced {
		fmt.Fprint(w, " (failsafe)")
	}
	fmt.Fprintln(w)

	var parts []string
	for _, n := range params.Names() {
		if v, ok := s.Values[n]; ok {
			parts = append(parts, fmt.Sprintf("%s=%g", n, v))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, "  %s\n", strings.Join(parts, " "))
	}
}

func formatSafetyDetails(w io.Writer, s *log.SafetyEvent) {
	status := "SAFE"
	if !s.Safe {
		status = "UNSAFE"
	}
	if s.Iteration != 0 {
		fmt.Fprintf(w, "  %s (iteration %d)\n", status, s.Iteration)
	} else {
		fmt.Fprintf(w, "  %s (on demand)\n", status)
	}
	for _, v := range s.Violations {
		fmt.Fprintf(w, "  - %s\n", v)
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}
