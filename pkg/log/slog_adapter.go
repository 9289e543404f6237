package log

import (
	"context"
	"log/slog"
	"strings"
)

// SlogAdapter writes session events to an slog.Logger.
// Useful for development when you want to see session events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session_id", event.SessionID),
		slog.String("category", event.Category.String()),
	}
	if event.Subject != "" {
		attrs = append(attrs, slog.String("subject", event.Subject))
	}

	switch {
	case event.Auth != nil:
		attrs = append(attrs, slog.Bool("success", event.Auth.Success))
		if event.Auth.Organization != "" {
			attrs = append(attrs, slog.String("organization", event.Auth.Organization))
		}
		if event.Auth.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Auth.Reason))
		}
		if len(event.Auth.Missing) > 0 {
			attrs = append(attrs, slog.String("missing", strings.Join(event.Auth.Missing, ",")))
		}
	case event.Parameter != nil:
		attrs = append(attrs,
			slog.String("param", event.Parameter.Name),
			slog.Float64("value", event.Parameter.Value),
			slog.Bool("accepted", event.Parameter.Accepted),
		)
		if event.Parameter.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Parameter.Reason))
		}
	case event.Sample != nil:
		attrs = append(attrs,
			slog.Uint64("iteration", event.Sample.Iteration),
			slog.Int("values", len(event.Sample.Values)),
		)
		if event.Sample.Forced {
			attrs = append(attrs, slog.Bool("forced", true))
		}
	case event.Safety != nil:
		attrs = append(attrs, slog.Bool("safe", event.Safety.Safe))
		if event.Safety.Iteration != 0 {
			attrs = append(attrs, slog.Uint64("iteration", event.Safety.Iteration))
		}
		if len(event.Safety.Violations) > 0 {
			attrs = append(attrs, slog.String("violations", strings.Join(event.Safety.Violations, "; ")))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("entity", event.StateChange.Entity.String()),
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "session", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
