package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/agentswarm/pkg/models"
)

// stateFileName is the snapshot file inside the state directory.
const stateFileName = "active-work.json"

// StateStoreManager is the persisted key-value mapping from task ID to the
// latest known task record, plus the append-only history log. Once a task has
// been synchronized at least once, this store is the source of truth for its
// current status.
type StateStoreManager interface {
	// Load reads the snapshot from disk. A missing or corrupted state file
	// falls back to an empty snapshot and is never an error; corruption is
	// reported through Recovered.
	Load() error
	// Recovered reports whether the last Load discarded a corrupted file.
	Recovered() bool
	// UpsertTask writes the task's latest snapshot into the tasks map,
	// shallow-merging over any existing entry so unknown keys written by
	// other tools survive, appends one history entry, and saves.
	UpsertTask(task models.Task, notes string) error
	// GetTask decodes the stored record for the given ID.
	GetTask(taskID string) (*models.Task, bool)
	// RawTask returns the stored record as a raw map, including any keys
	// this system does not model.
	RawTask(taskID string) (map[string]any, bool)
	History() []models.HistoryEntry
	Snapshot() *models.StateSnapshot
	// Init seeds the state directory with an empty snapshot and README.
	Init() error
	Save() error
}

type fileStateStore struct {
	stateDir  string
	snapshot  *models.StateSnapshot
	recovered bool
}

// NewStateStoreManager creates a StateStoreManager backed by
// active-work.json in the given state directory.
func NewStateStoreManager(stateDir string) StateStoreManager {
	return &fileStateStore{
		stateDir: stateDir,
		snapshot: models.NewStateSnapshot(),
	}
}

func (s *fileStateStore) filePath() string {
	return filepath.Join(s.stateDir, stateFileName)
}

func (s *fileStateStore) Load() error {
	s.recovered = false
	s.snapshot = models.NewStateSnapshot()

	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("loading state: %w", err)
	}

	var snap models.StateSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// Losing bookkeeping beats blocking every task operation.
		s.recovered = true
		return nil
	}
	if snap.Tasks == nil {
		snap.Tasks = make(map[string]map[string]any)
	}
	s.snapshot = &snap
	return nil
}

func (s *fileStateStore) Recovered() bool {
	return s.recovered
}

func (s *fileStateStore) UpsertTask(task models.Task, notes string) error {
	if task.ID == "" {
		return fmt.Errorf("upserting task: ID must not be empty")
	}

	record, err := taskToRaw(task)
	if err != nil {
		return fmt.Errorf("upserting task %s: %w", task.ID, err)
	}
	record["lastModified"] = time.Now().UTC().Format(time.RFC3339)

	existing, ok := s.snapshot.Tasks[task.ID]
	if !ok {
		existing = make(map[string]any, len(record))
	}
	for k, v := range record {
		existing[k] = v
	}
	s.snapshot.Tasks[task.ID] = existing

	s.snapshot.History = append(s.snapshot.History, models.HistoryEntry{
		TaskID:    task.ID,
		Status:    task.Status,
		Timestamp: time.Now().UTC(),
		Notes:     notes,
	})

	return s.Save()
}

func (s *fileStateStore) GetTask(taskID string) (*models.Task, bool) {
	raw, ok := s.snapshot.Tasks[taskID]
	if !ok {
		return nil, false
	}
	task, err := taskFromRaw(raw)
	if err != nil {
		return nil, false
	}
	return task, true
}

func (s *fileStateStore) RawTask(taskID string) (map[string]any, bool) {
	raw, ok := s.snapshot.Tasks[taskID]
	return raw, ok
}

func (s *fileStateStore) History() []models.HistoryEntry {
	return s.snapshot.History
}

func (s *fileStateStore) Snapshot() *models.StateSnapshot {
	return s.snapshot
}

// stateReadme documents the state directory for humans browsing the repo.
const stateReadme = `# Local Development State

This directory tracks local-first development state for this project.

## Files
- ` + "`active-work.json`" + ` - Current task states and change history
- ` + "`work-sessions.json`" + ` - Work session log

Managed automatically by agentswarm.
`

func (s *fileStateStore) Init() error {
	if err := os.MkdirAll(s.stateDir, 0o755); err != nil {
		return fmt.Errorf("initializing state dir: %w", err)
	}

	readmePath := filepath.Join(s.stateDir, "README.md")
	if _, err := os.Stat(readmePath); os.IsNotExist(err) {
		if err := os.WriteFile(readmePath, []byte(stateReadme), 0o644); err != nil {
			return fmt.Errorf("writing state README: %w", err)
		}
	}

	if _, err := os.Stat(s.filePath()); os.IsNotExist(err) {
		if err := s.Save(); err != nil {
			return err
		}
	}
	return nil
}

func (s *fileStateStore) Save() error {
	if err := os.MkdirAll(s.stateDir, 0o755); err != nil {
		return fmt.Errorf("saving state: creating directory: %w", err)
	}

	unlock, err := lockFile(s.filePath() + ".lock")
	if err != nil {
		return fmt.Errorf("saving state: %w", err)
	}
	defer func() { _ = unlock() }()

	data, err := json.MarshalIndent(s.snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("saving state: marshalling: %w", err)
	}
	if err := os.WriteFile(s.filePath(), append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("saving state: writing file: %w", err)
	}
	return nil
}

// taskToRaw converts a task record to its raw map form via its JSON encoding.
func taskToRaw(task models.Task) (map[string]any, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// taskFromRaw decodes a raw stored map back into a task record. Unknown keys
// are ignored here but remain in the stored map.
func taskFromRaw(raw map[string]any) (*models.Task, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var task models.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, err
	}
	return &task, nil
}
