package models

import "time"

// TaskStatus represents the current lifecycle state of a task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// TaskType classifies the kind of work a task involves. Values are inferred
// from the description when not supplied explicitly, so the set is open-ended;
// the constants below cover the known categories.
type TaskType string

const (
	TaskTypeBug           TaskType = "bug"
	TaskTypeFeature       TaskType = "feature"
	TaskTypeRefactor      TaskType = "refactor"
	TaskTypeUpdate        TaskType = "update"
	TaskTypeSecurity      TaskType = "security"
	TaskTypeOptimization  TaskType = "optimization"
	TaskTypeTesting       TaskType = "testing"
	TaskTypeDocumentation TaskType = "documentation"
)

// GitHubSync carries GitHub issue/PR linkage metadata for a task.
type GitHubSync struct {
	Enabled     bool `json:"enabled"`
	IssueNumber *int `json:"issueNumber"`
	PRNumber    *int `json:"prNumber"`
}

// TaskNote is a timestamped free-text annotation attached on status updates.
type TaskNote struct {
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
}

// Task is the canonical in-memory representation of one unit of work, parsed
// from a checklist document or created through the synchronizer.
//
// IDs come in two families: sequence IDs (one uppercase letter plus digits,
// e.g. T001) assigned by an external numbering scheme, and local IDs
// (local-NNN) allocated by this system.
type Task struct {
	ID           string     `json:"id"`
	Description  string     `json:"description"`
	Status       TaskStatus `json:"status"`
	Agent        string     `json:"agent"`
	Type         TaskType   `json:"type"`
	Scope        []string   `json:"scope"`
	QACommands   []string   `json:"qaCommands"`
	Dependencies []string   `json:"dependencies"`
	Priority     *int       `json:"priority"`
	Parallel     bool       `json:"parallel"`
	Section      string     `json:"section,omitempty"`
	SpecRefs     []string   `json:"specRequirements,omitempty"`
	GitHub       GitHubSync `json:"githubSync"`
	Source       string     `json:"source,omitempty"`
	Line         int        `json:"line,omitempty"`
	Created      time.Time  `json:"created"`
	Updated      time.Time  `json:"updated"`
	Notes        []TaskNote `json:"notes,omitempty"`
}

// LocalIDPrefix is the prefix of the locally allocated task ID family.
const LocalIDPrefix = "local-"

// IsLocal reports whether the task ID belongs to the local-NNN family.
func (t *Task) IsLocal() bool {
	return len(t.ID) > len(LocalIDPrefix) && t.ID[:len(LocalIDPrefix)] == LocalIDPrefix
}

// DocumentMetadata describes top-level facts about the parsed task documents.
type DocumentMetadata struct {
	Title      string `json:"title,omitempty"`
	Structure  string `json:"structure"`
	HasSpecs   bool   `json:"hasSpecs"`
	HasSpecify bool   `json:"hasSpecify"`
}

// Document structure values.
const (
	StructureMonolithic = "monolithic"
	StructureSpecFolder = "spec-folder"
)

// ParseResult bundles the tasks and metadata produced by parsing all known
// task documents. The task list is concatenated across documents and is NOT
// deduplicated; the state store is authoritative for tasks synchronized at
// least once.
type ParseResult struct {
	Metadata DocumentMetadata `json:"metadata"`
	Tasks    []Task           `json:"tasks"`
}
