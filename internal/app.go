// Package internal provides the App struct that wires all components of
// agentswarm together and initializes the CLI layer.
package internal

import (
	"os"
	"path/filepath"

	"github.com/valter-silva-au/agentswarm/internal/cli"
	"github.com/valter-silva-au/agentswarm/internal/core"
	"github.com/valter-silva-au/agentswarm/internal/integration"
	"github.com/valter-silva-au/agentswarm/internal/observability"
	"github.com/valter-silva-au/agentswarm/internal/storage"
	"github.com/valter-silva-au/agentswarm/pkg/models"
)

// App holds all service dependencies for agentswarm.
type App struct {
	Workspace *models.WorkspaceConfig

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Storage layer
	StateStore   storage.StateStoreManager
	SessionStore storage.SessionStoreManager

	// Core services
	Parser    *core.DocumentParser
	Sync      *core.Synchronizer
	Lifecycle *core.LifecycleController

	// Integration services
	Branches integration.GitBranchManager
	Runner   *integration.ShellCommandRunner

	// Observability
	EventLog observability.EventLog
}

// NewApp creates and wires all components. root is the workspace directory
// containing the checklist documents and the state directory.
func NewApp(root string) (*App, error) {
	app := &App{}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(root)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		return nil, err
	}
	app.Workspace = cfg

	// --- Storage layer ---
	stateDir := core.StateDirPath(cfg)
	app.StateStore = storage.NewStateStoreManager(stateDir)
	app.SessionStore = storage.NewSessionStoreManager(stateDir)

	// --- Observability ---
	app.EventLog = observability.NewEventLog(stateDir)

	// --- Core services ---
	app.Parser = core.NewDocumentParser(cfg)
	app.Sync = core.NewSynchronizer(cfg, app.Parser, app.StateStore, app.EventLog)

	// --- Integration services ---
	app.Branches = integration.NewGitBranchManager(cfg.Root, cfg.BaseBranch)
	app.Runner = integration.NewShellCommandRunner(cfg.Root)

	app.Lifecycle = core.NewLifecycleController(
		cfg, app.Sync, app.SessionStore, app.Branches, app.Runner, app.EventLog)

	// --- Wire CLI package-level variables ---
	cli.Workspace = cfg
	cli.ConfigMgr = app.ConfigMgr
	cli.Sync = app.Sync
	cli.Lifecycle = app.Lifecycle
	cli.StateStore = app.StateStore
	cli.SessionStore = app.SessionStore
	cli.EventLog = app.EventLog

	return app, nil
}

// ResolveWorkspace determines the workspace root directory. It checks the
// SWARM_HOME env var, then walks up from the current directory looking for a
// .swarmrc or an existing state directory, falling back to the cwd.
func ResolveWorkspace() string {
	if home := os.Getenv("SWARM_HOME"); home != "" {
		return home
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}

	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, ".swarmrc")); err == nil {
			return dir
		}
		if _, err := os.Stat(filepath.Join(dir, ".local-state")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}
