package core

import (
	"context"
	"fmt"

	"github.com/valter-silva-au/agentswarm/pkg/models"
)

// SessionStore is the subset of storage.SessionStoreManager that the
// lifecycle controller needs.
type SessionStore interface {
	Load() error
	ActiveSessions() []models.WorkSession
	StartSession(taskID, branch string) (models.WorkSession, error)
	EndSession(taskID string) (*models.WorkSession, error)
}

// BranchCreator creates and switches to a git work branch. Implementations
// live in the integration package; a nil BranchCreator disables branch
// management.
type BranchCreator interface {
	CreateBranch(ctx context.Context, name string) error
}

// CommandRunner executes one shell command in the workspace root and reports
// the outcome. It never returns an error for a failing command; failure is
// part of the result.
type CommandRunner interface {
	Run(ctx context.Context, command string) CommandResult
}

// StartResult describes what happened when work on a task began.
type StartResult struct {
	Task    *models.Task       `json:"task"`
	Branch  string             `json:"branch"`
	Session models.WorkSession `json:"session"`
}

// CompleteOptions tune task completion. SkipQA bypasses the QA gate; the
// skip is recorded in the task's history notes.
type CompleteOptions struct {
	SkipQA bool
	Notes  string
}

// CompleteResult describes a successful completion, including the outcome of
// every QA command that ran.
type CompleteResult struct {
	Task      *models.Task    `json:"task"`
	QAResults []CommandResult `json:"qaResults"`
	QASkipped bool            `json:"qaSkipped"`
}

// LifecycleController drives tasks through pending, in_progress, and
// completed. Completion is gated on the task's QA commands; every command
// runs even after the first failure so the operator sees the full picture.
type LifecycleController struct {
	sync     *Synchronizer
	sessions SessionStore
	branches BranchCreator
	runner   CommandRunner
	events   EventLogger
	cfg      *models.WorkspaceConfig
}

// NewLifecycleController wires the controller. branches and events may be
// nil; runner must not be.
func NewLifecycleController(cfg *models.WorkspaceConfig, sync *Synchronizer, sessions SessionStore, branches BranchCreator, runner CommandRunner, events EventLogger) *LifecycleController {
	return &LifecycleController{
		sync:     sync,
		sessions: sessions,
		branches: branches,
		runner:   runner,
		events:   events,
		cfg:      cfg,
	}
}

// Start moves a pending task to in_progress: dependency check, work branch,
// status write, session open. A task with unresolved dependencies yields a
// BlockedError and nothing is written.
func (l *LifecycleController) Start(ctx context.Context, taskID string) (*StartResult, error) {
	task, err := l.sync.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == models.StatusCompleted {
		return nil, fmt.Errorf("starting %s: task is already completed", taskID)
	}

	tasks, err := l.sync.MergedTasks()
	if err != nil {
		return nil, err
	}
	if check := CheckDependencies(taskID, tasks); !check.Resolved {
		return nil, &BlockedError{TaskID: taskID, Blocked: check.Blocked}
	}

	branch := BranchName(task.ID, task.Description, l.cfg.BranchMaxLength)
	if l.branches != nil {
		if err := l.branches.CreateBranch(ctx, branch); err != nil {
			return nil, fmt.Errorf("starting %s: %w", taskID, err)
		}
	}

	task, err = l.sync.UpdateStatus(taskID, models.StatusInProgress, "")
	if err != nil {
		return nil, err
	}

	if err := l.sessions.Load(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", taskID, err)
	}
	session, err := l.sessions.StartSession(taskID, branch)
	if err != nil {
		return nil, fmt.Errorf("starting %s: %w", taskID, err)
	}

	l.logEvent("task.started", map[string]any{"task_id": taskID, "branch": branch})
	return &StartResult{Task: task, Branch: branch, Session: session}, nil
}

// Complete runs the task's QA commands and, when all pass, marks the task
// completed and closes its work session. Any QA failure aborts completion
// with a QAFailedError carrying every result; no state is written.
func (l *LifecycleController) Complete(ctx context.Context, taskID string, opts CompleteOptions) (*CompleteResult, error) {
	task, err := l.sync.GetTask(taskID)
	if err != nil {
		return nil, err
	}
	if task.Status == models.StatusCompleted {
		return nil, fmt.Errorf("completing %s: task is already completed", taskID)
	}

	var results []CommandResult
	if opts.SkipQA {
		l.logEvent("task.qa_skipped", map[string]any{"task_id": taskID})
	} else {
		var failures []CommandResult
		for _, command := range task.QACommands {
			result := l.runner.Run(ctx, command)
			results = append(results, result)
			if !result.Success {
				failures = append(failures, result)
			}
		}
		if len(failures) > 0 {
			l.logEvent("task.qa_failed", map[string]any{"task_id": taskID, "failed": len(failures)})
			return nil, &QAFailedError{TaskID: taskID, Failures: failures}
		}
	}

	notes := opts.Notes
	if opts.SkipQA {
		if notes != "" {
			notes += "; "
		}
		notes += "QA skipped"
	}

	task, err = l.sync.UpdateStatus(taskID, models.StatusCompleted, notes)
	if err != nil {
		return nil, err
	}

	if err := l.sessions.Load(); err != nil {
		return nil, fmt.Errorf("completing %s: %w", taskID, err)
	}
	if _, err := l.sessions.EndSession(taskID); err != nil {
		return nil, fmt.Errorf("completing %s: %w", taskID, err)
	}

	l.logEvent("task.completed", map[string]any{"task_id": taskID, "qa_skipped": opts.SkipQA})
	return &CompleteResult{Task: task, QAResults: results, QASkipped: opts.SkipQA}, nil
}

// Resume returns to in-flight work: the most recently started active session
// wins. With no active session it falls back to starting the next
// schedulable task. Returns (nil, nil) when there is nothing to resume or
// start.
func (l *LifecycleController) Resume(ctx context.Context) (*StartResult, error) {
	if err := l.sessions.Load(); err != nil {
		return nil, fmt.Errorf("resuming: %w", err)
	}

	active := l.sessions.ActiveSessions()
	if len(active) > 0 {
		latest := active[0]
		for _, session := range active[1:] {
			if session.Started.After(latest.Started) {
				latest = session
			}
		}
		task, err := l.sync.GetTask(latest.TaskID)
		if err != nil {
			return nil, fmt.Errorf("resuming session for %s: %w", latest.TaskID, err)
		}
		return &StartResult{Task: task, Branch: latest.Branch, Session: latest}, nil
	}

	tasks, err := l.sync.MergedTasks()
	if err != nil {
		return nil, err
	}
	next := NextTask(tasks)
	if next == nil {
		return nil, nil
	}
	return l.Start(ctx, next.ID)
}

func (l *LifecycleController) logEvent(eventType string, data map[string]any) {
	if l.events == nil {
		return
	}
	_ = l.events.LogEvent(eventType, data)
}
