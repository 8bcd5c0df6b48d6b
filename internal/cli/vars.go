package cli

import (
	"github.com/valter-silva-au/agentswarm/internal/core"
	"github.com/valter-silva-au/agentswarm/internal/observability"
	"github.com/valter-silva-au/agentswarm/internal/storage"
	"github.com/valter-silva-au/agentswarm/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	Workspace    *models.WorkspaceConfig
	ConfigMgr    core.ConfigurationManager
	Sync         *core.Synchronizer
	Lifecycle    *core.LifecycleController
	StateStore   storage.StateStoreManager
	SessionStore storage.SessionStoreManager
	EventLog     observability.EventLog
)
