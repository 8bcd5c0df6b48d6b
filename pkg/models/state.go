package models

import "time"

// HistoryEntry is one append-only record of a task status change.
type HistoryEntry struct {
	TaskID    string     `json:"taskId"`
	Status    TaskStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
	Notes     string     `json:"notes,omitempty"`
}

// StateSnapshot is the persisted aggregate held in the state store file.
//
// Tasks is a last-write-wins map keyed by task ID; each value is kept as a
// raw map so that keys written by other tools survive a rewrite (shallow
// merge, never dropped). History is append-only. Sessions are upserted by the
// (taskId, started) composite key.
type StateSnapshot struct {
	Tasks    map[string]map[string]any `json:"tasks"`
	History  []HistoryEntry            `json:"history"`
	Sessions []WorkSession             `json:"sessions"`
}

// NewStateSnapshot returns an empty, fully initialized snapshot.
func NewStateSnapshot() *StateSnapshot {
	return &StateSnapshot{
		Tasks:    make(map[string]map[string]any),
		History:  nil,
		Sessions: nil,
	}
}
