package models

// WorkspaceConfig carries all paths and defaults for one project workspace.
// Every component receives these values explicitly instead of resolving an
// ambient working directory at call time. Loaded from .swarmrc (YAML) with
// defaults applied for missing keys.
type WorkspaceConfig struct {
	// Root is the absolute path of the project workspace.
	Root string `yaml:"-"`

	// TasksFile is the root checklist document, relative to Root.
	TasksFile string `yaml:"tasks_file"`
	// LocalTasksFile is the auxiliary checklist for local-NNN tasks,
	// relative to Root.
	LocalTasksFile string `yaml:"local_tasks_file"`
	// SpecsDir is the specification folder whose presence marks the
	// spec-folder document structure.
	SpecsDir string `yaml:"specs_dir"`
	// SpecifyDir is the spec-kit memory folder, advisory metadata only.
	SpecifyDir string `yaml:"specify_dir"`
	// StateDir holds active-work.json and work-sessions.json.
	StateDir string `yaml:"state_dir"`

	DefaultAgent     string `yaml:"default_agent"`
	DefaultQACommand string `yaml:"default_qa_command"`
	BaseBranch       string `yaml:"base_branch"`
	BranchMaxLength  int    `yaml:"branch_max_length"`
}
