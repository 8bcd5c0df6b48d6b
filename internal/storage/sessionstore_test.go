package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/agentswarm/pkg/models"
)

func TestSessionStore_StartAndEnd(t *testing.T) {
	dir := t.TempDir()
	store := NewSessionStoreManager(dir)

	session, err := store.StartSession("local-001", "local-001-fix-login-bug")
	if err != nil {
		t.Fatalf("starting session: %v", err)
	}
	if session.Status != models.SessionActive || session.Ended != nil {
		t.Errorf("new session not active: %+v", session)
	}

	active := store.ActiveSessions()
	if len(active) != 1 || active[0].TaskID != "local-001" {
		t.Fatalf("active sessions: %+v", active)
	}

	ended, err := store.EndSession("local-001")
	if err != nil {
		t.Fatalf("ending session: %v", err)
	}
	if ended == nil || ended.Status != models.SessionCompleted || ended.Ended == nil {
		t.Errorf("ended session: %+v", ended)
	}
	if len(store.ActiveSessions()) != 0 {
		t.Error("session still active after end")
	}
}

func TestSessionStore_EndWithoutActive(t *testing.T) {
	store := NewSessionStoreManager(t.TempDir())

	ended, err := store.EndSession("local-001")
	if err != nil {
		t.Fatalf("ending with no session must not error: %v", err)
	}
	if ended != nil {
		t.Errorf("expected nil, got %+v", ended)
	}
}

func TestSessionStore_UpsertCompositeKey(t *testing.T) {
	store := NewSessionStoreManager(t.TempDir())

	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	first := models.WorkSession{TaskID: "local-001", Branch: "b1", Started: started, Status: models.SessionActive}
	if err := store.Upsert(first); err != nil {
		t.Fatalf("upserting: %v", err)
	}

	// Same (taskId, started) replaces in place.
	first.Branch = "b1-renamed"
	if err := store.Upsert(first); err != nil {
		t.Fatalf("re-upserting: %v", err)
	}
	if sessions := store.Sessions(); len(sessions) != 1 || sessions[0].Branch != "b1-renamed" {
		t.Fatalf("replace by composite key failed: %+v", sessions)
	}

	// Same task, different start time appends.
	second := models.WorkSession{TaskID: "local-001", Branch: "b2", Started: started.Add(time.Hour), Status: models.SessionActive}
	if err := store.Upsert(second); err != nil {
		t.Fatalf("upserting second: %v", err)
	}
	if sessions := store.Sessions(); len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
}

func TestSessionStore_ReloadAndCorruption(t *testing.T) {
	dir := t.TempDir()
	store := NewSessionStoreManager(dir)
	if _, err := store.StartSession("local-001", "b1"); err != nil {
		t.Fatalf("starting: %v", err)
	}

	reloaded := NewSessionStoreManager(dir)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if len(reloaded.Sessions()) != 1 {
		t.Fatalf("sessions lost on reload: %+v", reloaded.Sessions())
	}

	if err := os.WriteFile(filepath.Join(dir, "work-sessions.json"), []byte("oops"), 0o600); err != nil {
		t.Fatalf("corrupting: %v", err)
	}
	corrupt := NewSessionStoreManager(dir)
	if err := corrupt.Load(); err != nil {
		t.Fatalf("corrupt log must not error: %v", err)
	}
	if len(corrupt.Sessions()) != 0 {
		t.Error("expected empty log after corruption")
	}
}

func TestSessionStore_SaveWritesListNotNull(t *testing.T) {
	dir := t.TempDir()
	store := NewSessionStoreManager(dir)
	if err := store.Save(); err != nil {
		t.Fatalf("saving empty store: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "work-sessions.json"))
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if strings.TrimSpace(string(data)) == "null" {
		t.Error("empty log must serialize as a list")
	}
}
