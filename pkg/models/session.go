package models

import "time"

// SessionStatus represents the lifecycle state of a work session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// WorkSession represents one continuous span of active work on a task.
// Sessions are opened by the lifecycle controller when a task starts and
// closed when it completes. Branch is empty when git integration was skipped.
//
// At most one session per task is expected to be active at a time; this is a
// usage convention, not enforced by a lock.
type WorkSession struct {
	TaskID  string        `json:"taskId"`
	Branch  string        `json:"branch,omitempty"`
	Started time.Time     `json:"started"`
	Ended   *time.Time    `json:"ended,omitempty"`
	Status  SessionStatus `json:"status"`
}

// Active reports whether the session is still open.
func (s *WorkSession) Active() bool {
	return s.Status == SessionActive
}
