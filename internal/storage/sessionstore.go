package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/agentswarm/pkg/models"
)

// sessionsFileName is the session log file inside the state directory.
const sessionsFileName = "work-sessions.json"

// SessionStoreManager manages the work-session log. Sessions are upserted by
// the (taskId, started) composite key; the file is a flat JSON list.
type SessionStoreManager interface {
	// Load reads the session log. Missing or corrupted files yield an
	// empty log.
	Load() error
	Sessions() []models.WorkSession
	// ActiveSessions returns every session still marked active.
	ActiveSessions() []models.WorkSession
	// StartSession opens a new active session for the task and saves.
	StartSession(taskID, branch string) (models.WorkSession, error)
	// EndSession closes the active session for the task, setting the end
	// timestamp, and saves. Returns nil without error when no session for
	// the task is active.
	EndSession(taskID string) (*models.WorkSession, error)
	// Upsert inserts or replaces a session by (taskId, started) and saves.
	Upsert(session models.WorkSession) error
	Init() error
	Save() error
}

type fileSessionStore struct {
	stateDir string
	sessions []models.WorkSession
}

// NewSessionStoreManager creates a SessionStoreManager backed by
// work-sessions.json in the given state directory.
func NewSessionStoreManager(stateDir string) SessionStoreManager {
	return &fileSessionStore{stateDir: stateDir}
}

func (s *fileSessionStore) filePath() string {
	return filepath.Join(s.stateDir, sessionsFileName)
}

func (s *fileSessionStore) Load() error {
	s.sessions = nil

	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("loading sessions: %w", err)
	}

	var sessions []models.WorkSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		// Same recovery posture as the state snapshot: an unreadable log
		// must not block task operations.
		return nil
	}
	s.sessions = sessions
	return nil
}

func (s *fileSessionStore) Sessions() []models.WorkSession {
	return s.sessions
}

func (s *fileSessionStore) ActiveSessions() []models.WorkSession {
	var active []models.WorkSession
	for _, session := range s.sessions {
		if session.Active() {
			active = append(active, session)
		}
	}
	return active
}

func (s *fileSessionStore) StartSession(taskID, branch string) (models.WorkSession, error) {
	session := models.WorkSession{
		TaskID:  taskID,
		Branch:  branch,
		Started: time.Now().UTC(),
		Status:  models.SessionActive,
	}
	if err := s.Upsert(session); err != nil {
		return models.WorkSession{}, err
	}
	return session, nil
}

func (s *fileSessionStore) EndSession(taskID string) (*models.WorkSession, error) {
	for i := range s.sessions {
		if s.sessions[i].TaskID != taskID || !s.sessions[i].Active() {
			continue
		}
		now := time.Now().UTC()
		s.sessions[i].Status = models.SessionCompleted
		s.sessions[i].Ended = &now
		if err := s.Save(); err != nil {
			return nil, err
		}
		ended := s.sessions[i]
		return &ended, nil
	}
	return nil, nil
}

func (s *fileSessionStore) Upsert(session models.WorkSession) error {
	replaced := false
	for i := range s.sessions {
		if s.sessions[i].TaskID == session.TaskID && s.sessions[i].Started.Equal(session.Started) {
			s.sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		s.sessions = append(s.sessions, session)
	}
	return s.Save()
}

func (s *fileSessionStore) Init() error {
	if err := os.MkdirAll(s.stateDir, 0o755); err != nil {
		return fmt.Errorf("initializing sessions: %w", err)
	}
	if _, err := os.Stat(s.filePath()); os.IsNotExist(err) {
		return s.Save()
	}
	return nil
}

func (s *fileSessionStore) Save() error {
	if err := os.MkdirAll(s.stateDir, 0o755); err != nil {
		return fmt.Errorf("saving sessions: creating directory: %w", err)
	}

	unlock, err := lockFile(s.filePath() + ".lock")
	if err != nil {
		return fmt.Errorf("saving sessions: %w", err)
	}
	defer func() { _ = unlock() }()

	sessions := s.sessions
	if sessions == nil {
		sessions = []models.WorkSession{}
	}
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("saving sessions: marshalling: %w", err)
	}
	if err := os.WriteFile(s.filePath(), append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("saving sessions: writing file: %w", err)
	}
	return nil
}
