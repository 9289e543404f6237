package log

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.plog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create test log: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func readAll(t *testing.T, path string, filter Filter) []Event {
	t.Helper()
	reader, err := NewFilteredReader(path, filter)
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	var read []Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		read = append(read, event)
	}
	return read
}

func TestReaderIteratesEvents(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), SessionID: "sess-1", Category: CategoryAuth},
		{Timestamp: time.Now(), SessionID: "sess-2", Category: CategoryParameter},
		{Timestamp: time.Now(), SessionID: "sess-3", Category: CategoryState},
	}

	read := readAll(t, createTestLogFile(t, events), Filter{})

	if len(read) != 3 {
		t.Fatalf("got %d events, want 3", len(read))
	}
	if read[0].SessionID != "sess-1" {
		t.Errorf("first event SessionID = %q, want %q", read[0].SessionID, "sess-1")
	}
	if read[2].SessionID != "sess-3" {
		t.Errorf("last event SessionID = %q, want %q", read[2].SessionID, "sess-3")
	}
}

func TestReaderHandlesEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	event, err := reader.Next()
	if err != io.EOF {
		t.Errorf("expected io.EOF, got err=%v, event=%+v", err, event)
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "absent.plog")); !os.IsNotExist(err) {
		t.Errorf("NewReader error = %v, want not-exist", err)
	}
}

func TestReaderFilterBySessionID(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), SessionID: "sess-A", Category: CategoryAuth},
		{Timestamp: time.Now(), SessionID: "sess-B", Category: CategoryAuth},
		{Timestamp: time.Now(), SessionID: "sess-A", Category: CategoryState},
		{Timestamp: time.Now(), SessionID: "sess-C", Category: CategorySample},
	}

	read := readAll(t, createTestLogFile(t, events), Filter{SessionID: "sess-A"})

	if len(read) != 2 {
		t.Fatalf("got %d events, want 2", len(read))
	}
	for _, e := range read {
		if e.SessionID != "sess-A" {
			t.Errorf("event has SessionID=%q, want %q", e.SessionID, "sess-A")
		}
	}
}

func TestReaderFilterByCategory(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), SessionID: "s", Category: CategorySample},
		{Timestamp: time.Now(), SessionID: "s", Category: CategorySafety, Safety: &SafetyEvent{Safe: true}},
		{Timestamp: time.Now(), SessionID: "s", Category: CategorySample},
		{Timestamp: time.Now(), SessionID: "s", Category: CategoryState},
	}

	category := CategorySample
	read := readAll(t, createTestLogFile(t, events), Filter{Category: &category})

	if len(read) != 2 {
		t.Fatalf("got %d events, want 2", len(read))
	}
	for _, e := range read {
		if e.Category != CategorySample {
			t.Errorf("event has Category=%v, want %v", e.Category, CategorySample)
		}
	}
}

func TestReaderFilterUnsafeOnly(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), SessionID: "s", Category: CategorySafety, Safety: &SafetyEvent{Safe: true}},
		{Timestamp: time.Now(), SessionID: "s", Category: CategorySafety, Safety: &SafetyEvent{Violations: []string{"High voltage: 30V exceeds limit 24V"}}},
		{Timestamp: time.Now(), SessionID: "s", Category: CategorySample},
	}

	read := readAll(t, createTestLogFile(t, events), Filter{UnsafeOnly: true})

	if len(read) != 1 {
		t.Fatalf("got %d events, want 1", len(read))
	}
	if read[0].Safety == nil || read[0].Safety.Safe {
		t.Errorf("unexpected event %+v", read[0])
	}
}

func TestReaderFilterByTimeRange(t *testing.T) {
	baseTime := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)

	events := []Event{
		{Timestamp: baseTime.Add(-1 * time.Hour), SessionID: "sess-1", Category: CategoryState},
		{Timestamp: baseTime, SessionID: "sess-2", Category: CategoryState},
		{Timestamp: baseTime.Add(30 * time.Minute), SessionID: "sess-3", Category: CategoryState},
		{Timestamp: baseTime.Add(2 * time.Hour), SessionID: "sess-4", Category: CategoryState},
	}

	start := baseTime.Add(-5 * time.Minute)
	end := baseTime.Add(1 * time.Hour)
	read := readAll(t, createTestLogFile(t, events), Filter{TimeStart: &start, TimeEnd: &end})

	if len(read) != 2 {
		t.Fatalf("got %d events, want 2", len(read))
	}
	if read[0].SessionID != "sess-2" || read[1].SessionID != "sess-3" {
		t.Errorf("got sessions %q, %q; want sess-2, sess-3", read[0].SessionID, read[1].SessionID)
	}
}

func TestReaderCombinedFilters(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), SessionID: "sess-A", Subject: "op", Category: CategoryAuth},
		{Timestamp: time.Now(), SessionID: "sess-A", Subject: "op", Category: CategoryState},
		{Timestamp: time.Now(), SessionID: "sess-B", Subject: "op", Category: CategoryAuth},
	}

	category := CategoryAuth
	read := readAll(t, createTestLogFile(t, events), Filter{SessionID: "sess-A", Subject: "op", Category: &category})

	if len(read) != 1 {
		t.Fatalf("got %d events, want 1", len(read))
	}
}
