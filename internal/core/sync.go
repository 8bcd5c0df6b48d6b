package core

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/valter-silva-au/agentswarm/pkg/models"
)

// StateStore is the subset of storage.StateStoreManager that the
// synchronizer needs. Defining it here keeps core independent of the storage
// package.
type StateStore interface {
	Load() error
	Recovered() bool
	UpsertTask(task models.Task, notes string) error
	GetTask(taskID string) (*models.Task, bool)
}

// EventLogger records structured events. Implementations must be safe to
// call with a nil receiver check upstream; a nil EventLogger disables events.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// CreateTaskOptions are the caller-supplied fields for a new task. Absent
// fields fall back to the inference defaults.
type CreateTaskOptions struct {
	Description  string
	Agent        string
	Type         models.TaskType
	Scope        []string
	QACommands   []string
	Dependencies []string
	SpecRefs     []string
	GitHubSync   bool
}

// Synchronizer reconciles the parsed documents with the state store. It is
// the only component that writes to the checklist documents or the state
// files; for a given task the document write always precedes the state write.
// There is no two-phase commit: a crash between the two writes leaves them
// inconsistent until Reconcile is run.
type Synchronizer struct {
	cfg    *models.WorkspaceConfig
	parser *DocumentParser
	state  StateStore
	events EventLogger
}

// NewSynchronizer creates a Synchronizer over the given workspace, parser,
// and state store. events may be nil.
func NewSynchronizer(cfg *models.WorkspaceConfig, parser *DocumentParser, state StateStore, events EventLogger) *Synchronizer {
	return &Synchronizer{cfg: cfg, parser: parser, state: state, events: events}
}

// LoadAll parses all known documents and returns the concatenated,
// not-yet-deduplicated task list plus document metadata. Callers that need
// the authoritative current status of synchronized tasks should use
// MergedTasks.
func (s *Synchronizer) LoadAll() (*models.ParseResult, error) {
	return s.parser.ParseAll()
}

// MergedTasks returns the merged view of the task set: one record per ID
// (first document occurrence wins), with the state store overlaid for every
// task synchronized at least once. The state store is authoritative for
// status, timestamps, notes, and the structured metadata the documents do
// not carry (dependencies, type, scope, QA commands); the document remains
// authoritative for existence and declared line metadata.
func (s *Synchronizer) MergedTasks() ([]models.Task, error) {
	parsed, err := s.parser.ParseAll()
	if err != nil {
		return nil, err
	}
	if err := s.loadState(); err != nil {
		return nil, err
	}

	var merged []models.Task
	seen := make(map[string]bool, len(parsed.Tasks))
	for _, docTask := range parsed.Tasks {
		if seen[docTask.ID] {
			continue
		}
		seen[docTask.ID] = true

		stored, ok := s.state.GetTask(docTask.ID)
		if !ok {
			merged = append(merged, docTask)
			continue
		}

		task := *stored
		task.Description = docTask.Description
		task.Agent = docTask.Agent
		task.Section = docTask.Section
		task.Source = docTask.Source
		task.Line = docTask.Line
		task.Parallel = docTask.Parallel
		if docTask.Priority != nil {
			task.Priority = docTask.Priority
		}
		merged = append(merged, task)
	}
	return merged, nil
}

// GetTask returns one task from the merged view.
func (s *Synchronizer) GetTask(taskID string) (*models.Task, error) {
	tasks, err := s.MergedTasks()
	if err != nil {
		return nil, err
	}
	if t := findTask(taskID, tasks); t != nil {
		return t, nil
	}
	return nil, &NotFoundError{TaskID: taskID}
}

// CreateTask allocates the next local ID and builds a complete record,
// applying the inference defaults for every field the options leave empty.
// The record is returned unsynchronized; AppendToDocument persists it.
func (s *Synchronizer) CreateTask(opts CreateTaskOptions) (*models.Task, error) {
	description := strings.TrimSpace(opts.Description)
	if description == "" {
		return nil, fmt.Errorf("creating task: description must not be empty")
	}

	parsed, err := s.parser.ParseAll()
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	agent := opts.Agent
	if agent == "" {
		agent = s.cfg.DefaultAgent
	}
	taskType := opts.Type
	if taskType == "" {
		taskType = InferType(description)
	}
	scope := opts.Scope
	if len(scope) == 0 {
		scope = InferScope(description)
	}
	qaCommands := opts.QACommands
	if len(qaCommands) == 0 {
		qaCommands = GenerateQACommands(s.cfg.DefaultQACommand, taskType, scope)
	}

	now := time.Now().UTC()
	task := &models.Task{
		ID:           NextLocalID(parsed.Tasks),
		Description:  description,
		Status:       models.StatusPending,
		Agent:        strings.TrimPrefix(agent, "@"),
		Type:         taskType,
		Scope:        scope,
		QACommands:   qaCommands,
		Dependencies: opts.Dependencies,
		SpecRefs:     opts.SpecRefs,
		GitHub:       models.GitHubSync{Enabled: opts.GitHubSync},
		Created:      now,
		Updated:      now,
	}
	return task, nil
}

// AppendToDocument inserts a checklist line plus its metadata block into the
// appropriate document (root for sequence IDs, auxiliary for local IDs),
// creating the document and section when missing, then persists the record
// to the state store.
func (s *Synchronizer) AppendToDocument(task *models.Task) error {
	isLocal := task.IsLocal()
	target := TasksPath(s.cfg)
	if isLocal {
		target = LocalTasksPath(s.cfg)
	}

	if !fileExists(target) {
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("appending task %s: creating document directory: %w", task.ID, err)
		}
		header := s.documentHeader(isLocal)
		if err := os.WriteFile(target, []byte(header), 0o644); err != nil {
			return fmt.Errorf("appending task %s: creating document: %w", task.ID, err)
		}
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("appending task %s: %w", task.ID, err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")

	insertAt := locateInsertionIndex(&lines, task, isLocal)
	entry := taskToMarkdown(task, s.cfg.DefaultQACommand)
	lines = append(lines[:insertAt], append(entry, lines[insertAt:]...)...)

	if err := os.WriteFile(target, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("appending task %s: writing document: %w", task.ID, err)
	}

	if err := s.PersistState(*task); err != nil {
		return err
	}
	s.logEvent("task.created", map[string]any{"task_id": task.ID, "type": string(task.Type)})
	return nil
}

// UpdateStatus loads the merged task set, mutates the task's status and
// timestamps, rewrites the matching document line, and writes the updated
// record plus a history entry into the state store. The document write comes
// first; on return both representations agree on status and updated time.
func (s *Synchronizer) UpdateStatus(taskID string, status models.TaskStatus, notes string) (*models.Task, error) {
	task, err := s.GetTask(taskID)
	if err != nil {
		return nil, err
	}

	task.Status = status
	task.Updated = time.Now().UTC()
	if notes != "" {
		task.Notes = append(task.Notes, models.TaskNote{Timestamp: task.Updated, Content: notes})
	}

	if err := s.rewriteTaskLine(task); err != nil {
		return nil, fmt.Errorf("updating status of %s: %w", taskID, err)
	}
	if err := s.PersistState(*task); err != nil {
		return nil, err
	}
	s.logEvent("task.status_changed", map[string]any{"task_id": taskID, "status": string(status)})
	return task, nil
}

// PersistState upserts the task's latest snapshot and appends one history
// entry. Missing or corrupted state files fall back to an empty snapshot; a
// parse failure of the state file never propagates to the caller.
func (s *Synchronizer) PersistState(task models.Task) error {
	if err := s.loadState(); err != nil {
		return err
	}
	if err := s.state.UpsertTask(task, lastNote(task)); err != nil {
		return fmt.Errorf("persisting task %s: %w", task.ID, err)
	}
	return nil
}

// Reconcile re-derives agreement between the documents and the state store.
// For every synchronized task whose document checkbox disagrees with the
// stored status, the document is rewritten to the stored value (the state
// store is authoritative for status after first sync). Returns the IDs of
// tasks whose document line was fixed.
func (s *Synchronizer) Reconcile() ([]string, error) {
	parsed, err := s.parser.ParseAll()
	if err != nil {
		return nil, err
	}
	if err := s.loadState(); err != nil {
		return nil, err
	}

	var fixed []string
	for _, docTask := range parsed.Tasks {
		stored, ok := s.state.GetTask(docTask.ID)
		if !ok {
			continue
		}
		docDone := docTask.Status == models.StatusCompleted
		storedDone := stored.Status == models.StatusCompleted
		if docDone == storedDone {
			continue
		}
		repaired := docTask
		repaired.Status = stored.Status
		repaired.GitHub = stored.GitHub
		if err := s.rewriteTaskLine(&repaired); err != nil {
			return fixed, fmt.Errorf("reconciling %s: %w", docTask.ID, err)
		}
		fixed = append(fixed, docTask.ID)
	}
	return fixed, nil
}

// loadState loads the state store, logging a warning event when a corrupted
// file was discarded.
func (s *Synchronizer) loadState() error {
	if err := s.state.Load(); err != nil {
		return err
	}
	if s.state.Recovered() {
		s.logEvent("state.recovered", map[string]any{"detail": "corrupted state file replaced with empty snapshot"})
	}
	return nil
}

func (s *Synchronizer) logEvent(eventType string, data map[string]any) {
	if s.events == nil {
		return
	}
	_ = s.events.LogEvent(eventType, data)
}

// rewriteTaskLine updates the checkbox of the first document line containing
// the task ID as a whole word, and refreshes any GitHub issue reference in
// the metadata block. Writes the whole document back.
func (s *Synchronizer) rewriteTaskLine(task *models.Task) error {
	source := task.Source
	if source == "" || !fileExists(source) {
		source = TasksPath(s.cfg)
		if task.IsLocal() && fileExists(LocalTasksPath(s.cfg)) {
			source = LocalTasksPath(s.cfg)
		}
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("reading %s: %w", source, err)
	}
	lines := strings.Split(string(data), "\n")

	idWord := regexp.MustCompile(`\b` + regexp.QuoteMeta(task.ID) + `\b`)
	checkbox := "- [ ]"
	if task.Status == models.StatusCompleted {
		checkbox = "- [x]"
	}

	rewritten := false
	for i, line := range lines {
		if !rewritten && idWord.MatchString(line) && checkboxPrefix.MatchString(line) {
			lines[i] = checkboxPrefix.ReplaceAllString(line, checkbox)
			rewritten = true
		}
		if strings.Contains(line, "**GitHub**") && task.GitHub.IssueNumber != nil {
			lines[i] = issueRef.ReplaceAllString(line, fmt.Sprintf("issue #%d", *task.GitHub.IssueNumber))
		}
	}
	if !rewritten {
		return fmt.Errorf("no checklist line for %s in %s", task.ID, source)
	}

	return os.WriteFile(source, []byte(strings.Join(lines, "\n")), 0o644)
}

var (
	checkboxPrefix = regexp.MustCompile(`^- \[[ x]\]`)
	issueRef       = regexp.MustCompile(`issue [^\s]+`)
)

// documentHeader generates the header for a brand-new checklist document.
func (s *Synchronizer) documentHeader(isLocal bool) string {
	if isLocal {
		return "# Local-First CLI Tasks\n\n" +
			"## Project: Local-First Development Workflow\n" +
			"## Managed by agentswarm\n\n" +
			"### Post-Deployment Tasks\n"
	}
	project := filepath.Base(s.cfg.Root)
	return fmt.Sprintf("# Local-First Development Tasks - %s\n\n", project) +
		"## Post-Deployment Workflow\n" +
		"Tasks generated via Specification-Driven Development and managed locally.\n"
}

// locateInsertionIndex finds the line index right after the best matching
// section's content block, appending a new section at document end when none
// of the known headers exist. May grow lines.
func locateInsertionIndex(lines *[]string, task *models.Task, isLocal bool) int {
	headers := []string{
		"### Post-Deployment Tasks",
		"### Local Development (Post-Deployment)",
		"## @" + task.Agent,
	}
	for _, header := range headers {
		for i, line := range *lines {
			if strings.TrimSpace(line) != header {
				continue
			}
			target := i + 1
			for target < len(*lines) && strings.TrimSpace((*lines)[target]) != "" {
				target++
			}
			return target
		}
	}

	header := "## @" + task.Agent
	if isLocal {
		header = headers[0]
	}
	*lines = append(*lines, "", header, "")
	return len(*lines)
}

// taskToMarkdown renders the checklist line plus the indented metadata block.
// The metadata block is human-facing output only; it is never re-parsed.
func taskToMarkdown(task *models.Task, defaultQA string) []string {
	checkbox := "[ ]"
	if task.Status == models.StatusCompleted {
		checkbox = "[x]"
	}

	description := task.Description
	if task.Parallel {
		description = "[P] " + description
	}
	if task.Priority != nil {
		description = fmt.Sprintf("%s (PRIORITY %d)", description, *task.Priority)
	}

	scope := strings.Join(task.Scope, ", ")
	if scope == "" {
		scope = "General"
	}
	qa := strings.Join(task.QACommands, ", ")
	if qa == "" {
		qa = defaultQA
	}

	entry := []string{
		fmt.Sprintf("- %s %s @%s %s", checkbox, task.ID, task.Agent, description),
		fmt.Sprintf("  - **Type**: %s", task.Type),
		fmt.Sprintf("  - **Scope**: %s", scope),
		fmt.Sprintf("  - **QA**: `%s` required before completion", qa),
	}
	if len(task.Dependencies) > 0 {
		entry = append(entry, fmt.Sprintf("  - **Dependencies**: %s", strings.Join(task.Dependencies, ", ")))
	}
	if len(task.SpecRefs) > 0 {
		entry = append(entry, fmt.Sprintf("  - **Spec**: References %s", strings.Join(task.SpecRefs, ", ")))
	}
	if task.GitHub.Enabled {
		ref := "TBD"
		if task.GitHub.IssueNumber != nil {
			ref = fmt.Sprintf("#%d", *task.GitHub.IssueNumber)
		}
		entry = append(entry, fmt.Sprintf("  - **GitHub**: Will sync to issue %s", ref))
	}
	return append(entry, "")
}

func lastNote(task models.Task) string {
	if len(task.Notes) == 0 {
		return ""
	}
	return task.Notes[len(task.Notes)-1].Content
}
