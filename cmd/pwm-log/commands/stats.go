package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/adaptivepwm/pwm-go/pkg/log"
	"github.com/adaptivepwm/pwm-go/pkg/params"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	Sessions         map[string]*SessionStats
	AuthFailures     int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single session.
type SessionStats struct {
	Subject       string
	FirstSeen     time.Time
	LastSeen      time.Time
	Events        int
	Samples       int
	Unsafe        int
	Forced        int
	Rejected      int
	MaxValues     map[string]float64
	LastViolation string
}

// CollectStats reads the log file at path and aggregates it.
func CollectStats(path string) (*Stats, error) {
	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		Sessions:         make(map[string]*SessionStats),
	}

	err := eachEvent(path, FilterOptions{}, func(event log.Event) error {
		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if event.Error != nil {
			stats.Errors++
		}
		if event.Auth != nil && !event.Auth.Success {
			stats.AuthFailures++
		}
		if event.SessionID == "" {
			return nil
		}

		sess, ok := stats.Sessions[event.SessionID]
		if !ok {
			sess = &SessionStats{
				Subject:   event.Subject,
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
				MaxValues: make(map[string]float64),
			}
			stats.Sessions[event.SessionID] = sess
		}
		sess.Events++
		if event.Timestamp.After(sess.LastSeen) {
			sess.LastSeen = event.Timestamp
		}

		switch {
		case event.Sample != nil:
			sess.Samples++
			if event.Sample.Forced {
				sess.Forced++
			}
			for n, v := range event.Sample.Values {
				if cur, ok := sess.MaxValues[n]; !ok || v > cur {
					sess.MaxValues[n] = v
				}
			}
		case event.Safety != nil && !event.Safety.Safe:
			sess.Unsafe++
			if len(event.Safety.Violations) > 0 {
				sess.LastViolation = event.Safety.Violations[0]
			}
		case event.Parameter != nil && !event.Parameter.Accepted:
			sess.Rejected++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== PWM Session Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for c := log.CategoryAuth; c <= log.CategoryError; c++ {
		if count := stats.EventsByCategory[c]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", c.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) > 0 {
		type sessInfo struct {
			id    string
			stats *SessionStats
		}
		sessions := make([]sessInfo, 0, len(stats.Sessions))
		for id, ss := range stats.Sessions {
			sessions = append(sessions, sessInfo{id, ss})
		}
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, s := range sessions {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %s: %d events, duration %s\n",
				shortenSessionID(s.id), s.stats.Subject, s.stats.Events, duration)
			if s.stats.Samples > 0 {
				fmt.Fprintf(w, "           Samples: %d (unsafe: %d, failsafe: %d)\n",
					s.stats.Samples, s.stats.Unsafe, s.stats.Forced)
				for _, n := range params.Names() {
					if v, ok := s.stats.MaxValues[n]; ok {
						fmt.Fprintf(w, "           max %-12s %g\n", n+":", v)
					}
				}
			}
			if s.stats.LastViolation != "" {
				fmt.Fprintf(w, "           Last violation: %s\n", s.stats.LastViolation)
			}
			if s.stats.Rejected > 0 {
				fmt.Fprintf(w, "           Rejected writes: %d\n", s.stats.Rejected)
			}
		}
	}

	if stats.AuthFailures > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Authentication failures: %d\n", stats.AuthFailures)
	}
	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
