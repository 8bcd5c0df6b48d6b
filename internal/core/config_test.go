package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig_Defaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := NewConfigurationManager(root).LoadConfig()
	if err != nil {
		t.Fatalf("loading without .swarmrc: %v", err)
	}

	if cfg.Root != root {
		t.Errorf("root: %s", cfg.Root)
	}
	if cfg.TasksFile != "tasks.md" {
		t.Errorf("tasks file: %s", cfg.TasksFile)
	}
	if cfg.DefaultQACommand != "./ops qa" {
		t.Errorf("qa command: %s", cfg.DefaultQACommand)
	}
	if cfg.BranchMaxLength != 50 {
		t.Errorf("branch max length: %d", cfg.BranchMaxLength)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	root := t.TempDir()
	content := "default_agent: copilot\ndefault_qa_command: make verify\nbranch_max_length: 30\n"
	if err := os.WriteFile(filepath.Join(root, ".swarmrc"), []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := NewConfigurationManager(root).LoadConfig()
	if err != nil {
		t.Fatalf("loading: %v", err)
	}
	if cfg.DefaultAgent != "copilot" {
		t.Errorf("agent override lost: %s", cfg.DefaultAgent)
	}
	if cfg.DefaultQACommand != "make verify" {
		t.Errorf("qa override lost: %s", cfg.DefaultQACommand)
	}
	if cfg.BranchMaxLength != 30 {
		t.Errorf("branch length override lost: %d", cfg.BranchMaxLength)
	}
	// Untouched fields keep their defaults.
	if cfg.TasksFile != "tasks.md" {
		t.Errorf("default lost: %s", cfg.TasksFile)
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".swarmrc"), []byte(":\tnot yaml {{"), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	if _, err := NewConfigurationManager(root).LoadConfig(); err == nil {
		t.Fatal("malformed config must error")
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	root := t.TempDir()
	mgr := NewConfigurationManager(root)

	if err := mgr.WriteDefaultConfig(); err != nil {
		t.Fatalf("writing default config: %v", err)
	}

	cfg, err := mgr.LoadConfig()
	if err != nil {
		t.Fatalf("reloading written config: %v", err)
	}
	if cfg.DefaultAgent != "claude" {
		t.Errorf("unexpected default agent: %s", cfg.DefaultAgent)
	}

	// Existing files are left untouched.
	custom := "default_agent: copilot\n"
	if err := os.WriteFile(filepath.Join(root, ".swarmrc"), []byte(custom), 0o644); err != nil {
		t.Fatalf("overwriting: %v", err)
	}
	if err := mgr.WriteDefaultConfig(); err != nil {
		t.Fatalf("second write: %v", err)
	}
	data, _ := os.ReadFile(filepath.Join(root, ".swarmrc"))
	if string(data) != custom {
		t.Error("WriteDefaultConfig clobbered an existing file")
	}
}

func TestValidateConfig(t *testing.T) {
	mgr := NewConfigurationManager(t.TempDir())

	cfg := DefaultWorkspaceConfig(".")
	if err := mgr.ValidateConfig(cfg); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	bad := DefaultWorkspaceConfig(".")
	bad.TasksFile = ""
	bad.BranchMaxLength = 5
	err := mgr.ValidateConfig(bad)
	if err == nil {
		t.Fatal("expected validation error")
	}
	// Every problem is reported, not just the first.
	msg := err.Error()
	for _, want := range []string{"tasks_file", "branch_max_length"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error missing %q: %s", want, msg)
		}
	}
}
