// Package observability records workflow events as JSON Lines in the state
// directory. The log is append-only and purely informational; no task
// operation depends on reading it back.
package observability

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// eventsFileName is the log file inside the state directory.
const eventsFileName = "events.jsonl"

// Event is one recorded workflow event.
type Event struct {
	Time  time.Time      `json:"time"`
	Level string         `json:"level"`
	Type  string         `json:"type"`
	Data  map[string]any `json:"data,omitempty"`
}

// EventFilter narrows a read of the event log.
type EventFilter struct {
	Since *time.Time
	Type  string
	Level string
}

// EventLog appends and reads workflow events. LogEvent satisfies the
// core.EventLogger interface.
type EventLog interface {
	LogEvent(eventType string, data map[string]any) error
	Read(filter EventFilter) ([]Event, error)
}

type jsonlEventLog struct {
	path string
	mu   sync.Mutex
}

// NewEventLog creates an EventLog backed by events.jsonl in the given state
// directory. The file is opened per write so a long-lived CLI process never
// holds the log open.
func NewEventLog(stateDir string) EventLog {
	return &jsonlEventLog{path: filepath.Join(stateDir, eventsFileName)}
}

// warnEvents are event types recorded at WARN rather than INFO.
var warnEvents = map[string]bool{
	"state.recovered": true,
	"task.qa_failed":  true,
	"task.qa_skipped": true,
}

func (l *jsonlEventLog) LogEvent(eventType string, data map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	level := "INFO"
	if warnEvents[eventType] {
		level = "WARN"
	}
	event := Event{
		Time:  time.Now().UTC(),
		Level: level,
		Type:  eventType,
		Data:  data,
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	line = append(line, '\n')

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Read scans the log and returns events matching the filter, oldest first.
// Malformed lines are skipped.
func (l *jsonlEventLog) Read(filter EventFilter) ([]Event, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if matchesFilter(event, filter) {
			events = append(events, event)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}
	return events, nil
}

func matchesFilter(event Event, filter EventFilter) bool {
	if filter.Since != nil && event.Time.Before(*filter.Since) {
		return false
	}
	if filter.Type != "" && event.Type != filter.Type {
		return false
	}
	if filter.Level != "" && event.Level != filter.Level {
		return false
	}
	return true
}
