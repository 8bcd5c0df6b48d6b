package core

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/agentswarm/pkg/models"
)

// fakeSessionStore is an in-memory SessionStore for lifecycle tests.
type fakeSessionStore struct {
	sessions []models.WorkSession
}

func (f *fakeSessionStore) Load() error { return nil }

func (f *fakeSessionStore) ActiveSessions() []models.WorkSession {
	var active []models.WorkSession
	for _, s := range f.sessions {
		if s.Active() {
			active = append(active, s)
		}
	}
	return active
}

func (f *fakeSessionStore) StartSession(taskID, branch string) (models.WorkSession, error) {
	session := models.WorkSession{
		TaskID:  taskID,
		Branch:  branch,
		Started: time.Now().UTC(),
		Status:  models.SessionActive,
	}
	f.sessions = append(f.sessions, session)
	return session, nil
}

func (f *fakeSessionStore) EndSession(taskID string) (*models.WorkSession, error) {
	for i := range f.sessions {
		if f.sessions[i].TaskID == taskID && f.sessions[i].Active() {
			now := time.Now().UTC()
			f.sessions[i].Status = models.SessionCompleted
			f.sessions[i].Ended = &now
			ended := f.sessions[i]
			return &ended, nil
		}
	}
	return nil, nil
}

// fakeBranchCreator records requested branch names.
type fakeBranchCreator struct {
	created []string
	err     error
}

func (f *fakeBranchCreator) CreateBranch(_ context.Context, name string) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, name)
	return nil
}

// fakeRunner fails the commands listed in failing and passes everything else.
type fakeRunner struct {
	failing map[string]bool
	ran     []string
}

func (f *fakeRunner) Run(_ context.Context, command string) CommandResult {
	f.ran = append(f.ran, command)
	if f.failing[command] {
		return CommandResult{Command: command, Success: false, Output: "exit status 1"}
	}
	return CommandResult{Command: command, Success: true, Output: "ok"}
}

type lifecycleFixture struct {
	ctrl     *LifecycleController
	sync     *Synchronizer
	cfg      *models.WorkspaceConfig
	sessions *fakeSessionStore
	branches *fakeBranchCreator
	runner   *fakeRunner
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	sync, cfg, _, events := newTestSynchronizer(t)
	f := &lifecycleFixture{
		sync:     sync,
		cfg:      cfg,
		sessions: &fakeSessionStore{},
		branches: &fakeBranchCreator{},
		runner:   &fakeRunner{failing: map[string]bool{}},
	}
	f.ctrl = NewLifecycleController(cfg, sync, f.sessions, f.branches, f.runner, events)
	return f
}

func (f *lifecycleFixture) addTask(t *testing.T, opts CreateTaskOptions) *models.Task {
	t.Helper()
	task, err := f.sync.CreateTask(opts)
	if err != nil {
		t.Fatalf("creating task: %v", err)
	}
	if err := f.sync.AppendToDocument(task); err != nil {
		t.Fatalf("appending task: %v", err)
	}
	return task
}

func TestStart(t *testing.T) {
	f := newLifecycleFixture(t)
	task := f.addTask(t, CreateTaskOptions{Description: "Fix login bug"})

	result, err := f.ctrl.Start(context.Background(), task.ID)
	if err != nil {
		t.Fatalf("starting: %v", err)
	}

	if result.Task.Status != models.StatusInProgress {
		t.Errorf("status: %s", result.Task.Status)
	}
	wantBranch := task.ID + "-fix-login-bug"
	if result.Branch != wantBranch {
		t.Errorf("branch %s, want %s", result.Branch, wantBranch)
	}
	if len(f.branches.created) != 1 || f.branches.created[0] != wantBranch {
		t.Errorf("branch not created: %v", f.branches.created)
	}
	if len(f.sessions.ActiveSessions()) != 1 {
		t.Error("no active session")
	}
}

func TestStart_Blocked(t *testing.T) {
	f := newLifecycleFixture(t)
	dep := f.addTask(t, CreateTaskOptions{Description: "Build schema"})
	task := f.addTask(t, CreateTaskOptions{Description: "Load data", Dependencies: []string{dep.ID}})

	_, err := f.ctrl.Start(context.Background(), task.ID)
	var blocked *BlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected BlockedError, got %v", err)
	}
	if len(blocked.Blocked) != 1 || blocked.Blocked[0] != dep.ID {
		t.Errorf("blocked list: %v", blocked.Blocked)
	}

	// Nothing was written: the task is still pending and no session opened.
	current, err := f.sync.GetTask(task.ID)
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if current.Status != models.StatusPending {
		t.Errorf("blocked start must not change status, got %s", current.Status)
	}
	if len(f.branches.created) != 0 {
		t.Errorf("blocked start must not create a branch: %v", f.branches.created)
	}
	if len(f.sessions.ActiveSessions()) != 0 {
		t.Error("blocked start must not open a session")
	}
}

func TestStart_UnknownAndCompleted(t *testing.T) {
	f := newLifecycleFixture(t)

	_, err := f.ctrl.Start(context.Background(), "local-404")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	task := f.addTask(t, CreateTaskOptions{Description: "Shipped work"})
	if _, err := f.sync.UpdateStatus(task.ID, models.StatusCompleted, ""); err != nil {
		t.Fatalf("completing: %v", err)
	}
	if _, err := f.ctrl.Start(context.Background(), task.ID); err == nil {
		t.Fatal("expected error starting a completed task")
	}
}

func TestComplete_QAGate(t *testing.T) {
	f := newLifecycleFixture(t)
	task := f.addTask(t, CreateTaskOptions{
		Description: "Wire auth into the api layer",
		QACommands:  []string{"./ops qa", "./ops qa --backend"},
	})
	if _, err := f.ctrl.Start(context.Background(), task.ID); err != nil {
		t.Fatalf("starting: %v", err)
	}

	f.runner.failing["./ops qa --backend"] = true
	_, err := f.ctrl.Complete(context.Background(), task.ID, CompleteOptions{})
	var qaErr *QAFailedError
	if !errors.As(err, &qaErr) {
		t.Fatalf("expected QAFailedError, got %v", err)
	}
	if len(qaErr.Failures) != 1 || qaErr.Failures[0].Command != "./ops qa --backend" {
		t.Errorf("failures: %+v", qaErr.Failures)
	}
	// Every command ran despite the failure.
	if len(f.runner.ran) != 2 {
		t.Errorf("expected both QA commands to run, ran %v", f.runner.ran)
	}

	current, err := f.sync.GetTask(task.ID)
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if current.Status != models.StatusInProgress {
		t.Errorf("failed QA must not complete the task, got %s", current.Status)
	}
	if len(f.sessions.ActiveSessions()) != 1 {
		t.Error("failed QA must not close the session")
	}
}

func TestComplete(t *testing.T) {
	f := newLifecycleFixture(t)
	task := f.addTask(t, CreateTaskOptions{Description: "Fix login bug"})
	if _, err := f.ctrl.Start(context.Background(), task.ID); err != nil {
		t.Fatalf("starting: %v", err)
	}

	result, err := f.ctrl.Complete(context.Background(), task.ID, CompleteOptions{})
	if err != nil {
		t.Fatalf("completing: %v", err)
	}
	if result.Task.Status != models.StatusCompleted {
		t.Errorf("status: %s", result.Task.Status)
	}
	if len(result.QAResults) == 0 {
		t.Error("QA results missing")
	}
	if len(f.sessions.ActiveSessions()) != 0 {
		t.Error("session not closed")
	}

	data, err := os.ReadFile(LocalTasksPath(f.cfg))
	if err != nil {
		t.Fatalf("reading document: %v", err)
	}
	if !strings.Contains(string(data), "- [x] "+task.ID) {
		t.Errorf("checkbox not rewritten:\n%s", string(data))
	}
}

func TestComplete_SkipQA(t *testing.T) {
	f := newLifecycleFixture(t)
	task := f.addTask(t, CreateTaskOptions{Description: "Hotfix deploy script"})
	f.runner.failing["./ops qa"] = true

	result, err := f.ctrl.Complete(context.Background(), task.ID, CompleteOptions{SkipQA: true})
	if err != nil {
		t.Fatalf("completing with --skip-qa: %v", err)
	}
	if !result.QASkipped {
		t.Error("QASkipped not reported")
	}
	if len(f.runner.ran) != 0 {
		t.Errorf("QA must not run when skipped: %v", f.runner.ran)
	}
	// The skip leaves a trace in the task notes.
	notes := result.Task.Notes
	if len(notes) == 0 || !strings.Contains(notes[len(notes)-1].Content, "QA skipped") {
		t.Errorf("skip not recorded: %v", notes)
	}
}

func TestResume_MostRecentSessionWins(t *testing.T) {
	f := newLifecycleFixture(t)
	older := f.addTask(t, CreateTaskOptions{Description: "Older work"})
	newer := f.addTask(t, CreateTaskOptions{Description: "Newer work"})

	f.sessions.sessions = []models.WorkSession{
		{TaskID: older.ID, Branch: "b1", Started: time.Now().UTC().Add(-time.Hour), Status: models.SessionActive},
		{TaskID: newer.ID, Branch: "b2", Started: time.Now().UTC(), Status: models.SessionActive},
	}

	result, err := f.ctrl.Resume(context.Background())
	if err != nil {
		t.Fatalf("resuming: %v", err)
	}
	if result.Task.ID != newer.ID || result.Branch != "b2" {
		t.Errorf("expected most recent session, got %s on %s", result.Task.ID, result.Branch)
	}
	// Resuming an existing session does not create a branch.
	if len(f.branches.created) != 0 {
		t.Errorf("unexpected branch creation: %v", f.branches.created)
	}
}

func TestResume_StartsNextTask(t *testing.T) {
	f := newLifecycleFixture(t)
	low := f.addTask(t, CreateTaskOptions{Description: "Background chore"})
	_ = low
	urgentOpts := CreateTaskOptions{Description: "Urgent fix"}
	urgent := f.addTask(t, urgentOpts)
	p := 1
	urgent.Priority = &p
	if err := f.sync.PersistState(*urgent); err != nil {
		t.Fatalf("persisting priority: %v", err)
	}

	result, err := f.ctrl.Resume(context.Background())
	if err != nil {
		t.Fatalf("resuming: %v", err)
	}
	if result == nil {
		t.Fatal("expected a started task")
	}
	if result.Task.Status != models.StatusInProgress {
		t.Errorf("fallback must start the task, got %s", result.Task.Status)
	}
}

func TestResume_NothingToDo(t *testing.T) {
	f := newLifecycleFixture(t)

	result, err := f.ctrl.Resume(context.Background())
	if err != nil {
		t.Fatalf("resuming empty workspace: %v", err)
	}
	if result != nil {
		t.Fatalf("expected nil result, got %+v", result)
	}
}
