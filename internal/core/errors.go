package core

import (
	"fmt"
	"strings"
)

// NotFoundError reports a task ID that does not exist in the merged task set.
type NotFoundError struct {
	TaskID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.TaskID)
}

// BlockedError reports a start attempt on a task with unresolved dependencies.
// Blocked lists the dependency IDs that are not yet completed (including IDs
// that do not resolve to any known task).
type BlockedError struct {
	TaskID  string
	Blocked []string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("task %s is blocked by: %s", e.TaskID, strings.Join(e.Blocked, ", "))
}

// QAFailedError reports quality-gate commands that exited non-zero during a
// completion attempt. Failures holds one result per failing command with its
// captured output; the task status is left unchanged.
type QAFailedError struct {
	TaskID   string
	Failures []CommandResult
}

func (e *QAFailedError) Error() string {
	cmds := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		cmds[i] = f.Command
	}
	return fmt.Sprintf("QA failed for task %s: %s", e.TaskID, strings.Join(cmds, ", "))
}

// CommandResult captures the outcome of one quality-gate command.
type CommandResult struct {
	Command string `json:"command"`
	Success bool   `json:"success"`
	Output  string `json:"output"`
}
