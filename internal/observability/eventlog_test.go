package observability

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEventLog_WriteAndRead(t *testing.T) {
	dir := t.TempDir()
	log := NewEventLog(dir)

	if err := log.LogEvent("task.created", map[string]any{"task_id": "local-001"}); err != nil {
		t.Fatalf("writing event: %v", err)
	}
	if err := log.LogEvent("task.qa_failed", map[string]any{"task_id": "local-001"}); err != nil {
		t.Fatalf("writing event: %v", err)
	}

	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != "task.created" || events[0].Level != "INFO" {
		t.Errorf("first event: %+v", events[0])
	}
	// QA failures log at WARN.
	if events[1].Level != "WARN" {
		t.Errorf("second event level: %s", events[1].Level)
	}
	if events[1].Data["task_id"] != "local-001" {
		t.Errorf("data lost: %v", events[1].Data)
	}
}

func TestEventLog_Filters(t *testing.T) {
	log := NewEventLog(t.TempDir())
	_ = log.LogEvent("task.created", nil)
	_ = log.LogEvent("task.completed", nil)
	_ = log.LogEvent("state.recovered", nil)

	byType, err := log.Read(EventFilter{Type: "task.completed"})
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if len(byType) != 1 || byType[0].Type != "task.completed" {
		t.Errorf("type filter: %+v", byType)
	}

	byLevel, err := log.Read(EventFilter{Level: "WARN"})
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if len(byLevel) != 1 || byLevel[0].Type != "state.recovered" {
		t.Errorf("level filter: %+v", byLevel)
	}
}

func TestEventLog_MissingFile(t *testing.T) {
	log := NewEventLog(t.TempDir())
	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("missing log must not error: %v", err)
	}
	if events != nil {
		t.Errorf("expected no events, got %v", events)
	}
}

func TestEventLog_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.jsonl")
	content := `{"time":"2026-03-01T09:00:00Z","level":"INFO","type":"task.created"}
not json at all
{"time":"2026-03-01T09:01:00Z","level":"INFO","type":"task.completed"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("seeding log: %v", err)
	}

	log := NewEventLog(dir)
	events, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected malformed line skipped, got %d events", len(events))
	}
}
