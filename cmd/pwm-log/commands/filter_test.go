package commands

import (
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adaptivepwm/pwm-go/pkg/log"
)

func readEvents(t *testing.T, path string) []log.Event {
	t.Helper()
	reader, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	var events []log.Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		events = append(events, event)
	}
}

func TestFilterBySessionPrefix(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, SessionID: "aaaa1111-x", Category: log.CategorySample},
		{Timestamp: ts, SessionID: "bbbb2222-y", Category: log.CategorySample},
		{Timestamp: ts, SessionID: "aaaa1111-x", Category: log.CategorySafety},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.plog")

	count, err := RunFilter(path, FilterOptions{
		Output:  outPath,
		Session: "aaaa1111",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected count 2, got %d", count)
	}

	got := readEvents(t, outPath)
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	for _, e := range got {
		if e.SessionID != "aaaa1111-x" {
			t.Errorf("expected aaaa1111-x, got %s", e.SessionID)
		}
	}
}

func TestFilterByTimeRange(t *testing.T) {
	base := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: base, SessionID: "s", Category: log.CategorySample},
		{Timestamp: base.Add(30 * time.Minute), SessionID: "s", Category: log.CategorySample},
		{Timestamp: base.Add(2 * time.Hour), SessionID: "s", Category: log.CategorySample},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.plog")

	_, err := RunFilter(path, FilterOptions{
		Output:    outPath,
		TimeStart: "2026-01-28T10:15:00Z",
		TimeEnd:   "2026-01-28T11:00:00Z",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}

	got := readEvents(t, outPath)
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if !got[0].Timestamp.Equal(base.Add(30 * time.Minute)) {
		t.Errorf("unexpected event time %v", got[0].Timestamp)
	}
}

func TestFilterUnsafeOnly(t *testing.T) {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, SessionID: "s", Category: log.CategorySafety, Safety: &log.SafetyEvent{Safe: true}},
		{Timestamp: ts, SessionID: "s", Category: log.CategorySafety, Safety: &log.SafetyEvent{
			Safe:       false,
			Violations: []string{"High current: 12A exceeds limit 10A"},
		}},
		{Timestamp: ts, SessionID: "s", Category: log.CategorySample, Sample: &log.SampleEvent{Iteration: 1}},
	}

	path := createTestLogFile(t, events)
	outPath := filepath.Join(t.TempDir(), "filtered.plog")

	count, err := RunFilter(path, FilterOptions{Output: outPath, UnsafeOnly: true})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 event, got %d", count)
	}

	got := readEvents(t, outPath)
	if got[0].Safety == nil || got[0].Safety.Safe {
		t.Errorf("expected unsafe safety event, got %+v", got[0])
	}
}

func TestFilterRequiresOutput(t *testing.T) {
	path := createTestLogFile(t, nil)
	if _, err := RunFilter(path, FilterOptions{}); err == nil {
		t.Error("expected error without output path")
	}
}

func TestFilterInvalidOptions(t *testing.T) {
	path := createTestLogFile(t, nil)
	outPath := filepath.Join(t.TempDir(), "filtered.plog")

	tests := []struct {
		name string
		opts FilterOptions
		want string
	}{
		{"bad category", FilterOptions{Output: outPath, Category: "bogus"}, "invalid category"},
		{"bad start", FilterOptions{Output: outPath, TimeStart: "yesterday"}, "time-start"},
		{"bad end", FilterOptions{Output: outPath, TimeEnd: "tomorrow"}, "time-end"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunFilter(path, tt.opts)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParseCategoryFlag(t *testing.T) {
	tests := []struct {
		input string
		want  log.Category
	}{
		{"auth", log.CategoryAuth},
		{"PARAMETER", log.CategoryParameter},
		{"Sample", log.CategorySample},
		{"safety", log.CategorySafety},
		{"state", log.CategoryState},
		{"error", log.CategoryError},
	}

	for _, tt := range tests {
		got, err := ParseCategoryFlag(tt.input)
		if err != nil {
			t.Errorf("ParseCategoryFlag(%q) error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCategoryFlag(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
