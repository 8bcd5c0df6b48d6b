// Package core contains the business logic for agentswarm: document parsing,
// metadata inference, dependency scheduling, document/state synchronization,
// and the task lifecycle controller.
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/agentswarm/pkg/models"
)

// ConfigurationManager loads and validates the workspace configuration from
// a .swarmrc file at the workspace root.
type ConfigurationManager interface {
	LoadConfig() (*models.WorkspaceConfig, error)
	WriteDefaultConfig() error
	ValidateConfig(cfg *models.WorkspaceConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for reading
// the YAML configuration file.
type viperConfigManager struct {
	root string
}

// NewConfigurationManager creates a ConfigurationManager that reads .swarmrc
// from the given workspace root.
func NewConfigurationManager(root string) ConfigurationManager {
	return &viperConfigManager{root: root}
}

// DefaultWorkspaceConfig returns a WorkspaceConfig populated with defaults
// for the given workspace root.
func DefaultWorkspaceConfig(root string) *models.WorkspaceConfig {
	return &models.WorkspaceConfig{
		Root:             root,
		TasksFile:        "tasks.md",
		LocalTasksFile:   filepath.Join("specs", "local-first", "tasks.md"),
		SpecsDir:         "specs",
		SpecifyDir:       ".specify",
		StateDir:         ".local-state",
		DefaultAgent:     "claude",
		DefaultQACommand: "./ops qa",
		BaseBranch:       "main",
		BranchMaxLength:  50,
	}
}

// LoadConfig reads .swarmrc from the workspace root. A missing file yields
// the defaults; a malformed file is an error.
func (cm *viperConfigManager) LoadConfig() (*models.WorkspaceConfig, error) {
	cfg := DefaultWorkspaceConfig(cm.root)

	v := viper.New()
	v.SetConfigName(".swarmrc")
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.root)

	v.SetDefault("tasks_file", cfg.TasksFile)
	v.SetDefault("local_tasks_file", cfg.LocalTasksFile)
	v.SetDefault("specs_dir", cfg.SpecsDir)
	v.SetDefault("specify_dir", cfg.SpecifyDir)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("default_agent", cfg.DefaultAgent)
	v.SetDefault("default_qa_command", cfg.DefaultQACommand)
	v.SetDefault("base_branch", cfg.BaseBranch)
	v.SetDefault("branch_max_length", cfg.BranchMaxLength)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .swarmrc: %w", err)
	}

	cfg.TasksFile = v.GetString("tasks_file")
	cfg.LocalTasksFile = v.GetString("local_tasks_file")
	cfg.SpecsDir = v.GetString("specs_dir")
	cfg.SpecifyDir = v.GetString("specify_dir")
	cfg.StateDir = v.GetString("state_dir")
	cfg.DefaultAgent = v.GetString("default_agent")
	cfg.DefaultQACommand = v.GetString("default_qa_command")
	cfg.BaseBranch = v.GetString("base_branch")
	if v.IsSet("branch_max_length") {
		cfg.BranchMaxLength = v.GetInt("branch_max_length")
	}

	if err := cm.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteDefaultConfig writes a .swarmrc with default values to the workspace
// root. Existing files are left untouched.
func (cm *viperConfigManager) WriteDefaultConfig() error {
	path := filepath.Join(cm.root, ".swarmrc")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := yaml.Marshal(DefaultWorkspaceConfig(cm.root))
	if err != nil {
		return fmt.Errorf("marshalling default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing .swarmrc: %w", err)
	}
	return nil
}

// ValidateConfig checks a WorkspaceConfig for invalid field values and
// returns a message identifying every problem found.
func (cm *viperConfigManager) ValidateConfig(cfg *models.WorkspaceConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if cfg.TasksFile == "" {
		errs = append(errs, "tasks_file must not be empty")
	}
	if cfg.LocalTasksFile == "" {
		errs = append(errs, "local_tasks_file must not be empty")
	}
	if cfg.StateDir == "" {
		errs = append(errs, "state_dir must not be empty")
	}
	if cfg.DefaultAgent == "" {
		errs = append(errs, "default_agent must not be empty")
	}
	if cfg.BranchMaxLength < 10 || cfg.BranchMaxLength > 200 {
		errs = append(errs, fmt.Sprintf("branch_max_length %d is invalid, must be between 10 and 200", cfg.BranchMaxLength))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// TasksPath returns the absolute path of the root checklist document.
func TasksPath(cfg *models.WorkspaceConfig) string {
	return filepath.Join(cfg.Root, cfg.TasksFile)
}

// LocalTasksPath returns the absolute path of the auxiliary checklist.
func LocalTasksPath(cfg *models.WorkspaceConfig) string {
	return filepath.Join(cfg.Root, cfg.LocalTasksFile)
}

// StateDirPath returns the absolute path of the state directory.
func StateDirPath(cfg *models.WorkspaceConfig) string {
	return filepath.Join(cfg.Root, cfg.StateDir)
}

// SpecsDirPath returns the absolute path of the specs folder.
func SpecsDirPath(cfg *models.WorkspaceConfig) string {
	return filepath.Join(cfg.Root, cfg.SpecsDir)
}

// SpecifyDirPath returns the absolute path of the spec-kit memory folder.
func SpecifyDirPath(cfg *models.WorkspaceConfig) string {
	return filepath.Join(cfg.Root, cfg.SpecifyDir)
}
