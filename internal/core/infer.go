package core

import (
	"strings"

	"github.com/valter-silva-au/agentswarm/pkg/models"
)

// Metadata inference is a best-effort keyword heuristic over free text. It is
// kept separate from parsing and persistence so the tables below are the
// single place that defines the heuristic, and so it can be swapped out.

// typeKeywords maps description keywords to task types. Entries are checked
// in order; the first keyword contained in the lowercased description wins.
var typeKeywords = []struct {
	keyword  string
	taskType models.TaskType
}{
	{"bug", models.TaskTypeBug},
	{"fix", models.TaskTypeBug},
	{"error", models.TaskTypeBug},
	{"refactor", models.TaskTypeRefactor},
	{"cleanup", models.TaskTypeRefactor},
	{"optimize", models.TaskTypeOptimization},
	{"performance", models.TaskTypeOptimization},
	{"security", models.TaskTypeSecurity},
	{"vulnerability", models.TaskTypeSecurity},
	{"test", models.TaskTypeTesting},
	{"doc", models.TaskTypeDocumentation},
	{"readme", models.TaskTypeDocumentation},
	{"add", models.TaskTypeFeature},
	{"implement", models.TaskTypeFeature},
}

// scopeKeywords maps description keywords to path-prefix scopes.
var scopeKeywords = []struct {
	keyword string
	scope   string
}{
	{"auth", "auth/"},
	{"backend", "backend/"},
	{"api", "backend/"},
	{"frontend", "frontend/"},
	{"ui", "frontend/"},
	{"readme", "docs/"},
	{"doc", "docs/"},
}

// DefaultScope is the catch-all scope applied when no keyword matches.
// Task scope is never empty.
var DefaultScope = []string{"src/"}

// InferredMetadata is the result of running the keyword heuristics over a
// task description.
type InferredMetadata struct {
	Type       models.TaskType
	Scope      []string
	QACommands []string
}

// InferType classifies a description using the type keyword table, returning
// TaskTypeUpdate when nothing matches.
func InferType(description string) models.TaskType {
	lower := strings.ToLower(description)
	for _, entry := range typeKeywords {
		if strings.Contains(lower, entry.keyword) {
			return entry.taskType
		}
	}
	return models.TaskTypeUpdate
}

// InferScope derives path-prefix scopes from a description using the scope
// keyword table. Falls back to DefaultScope when nothing matches.
func InferScope(description string) []string {
	lower := strings.ToLower(description)
	var scopes []string
	seen := make(map[string]bool)
	for _, entry := range scopeKeywords {
		if strings.Contains(lower, entry.keyword) && !seen[entry.scope] {
			scopes = append(scopes, entry.scope)
			seen[entry.scope] = true
		}
	}
	if len(scopes) == 0 {
		return append([]string(nil), DefaultScope...)
	}
	return scopes
}

// GenerateQACommands derives the quality gate for a task from its type and
// scope. The base command always runs; security work adds the security check,
// backend and frontend scopes add the corresponding suite.
func GenerateQACommands(baseCommand string, taskType models.TaskType, scope []string) []string {
	commands := []string{baseCommand}

	scopeSet := make(map[string]bool, len(scope))
	for _, s := range scope {
		scopeSet[strings.ToLower(s)] = true
	}

	hasScope := func(keywords ...string) bool {
		for s := range scopeSet {
			for _, kw := range keywords {
				if strings.Contains(s, kw) {
					return true
				}
			}
		}
		return false
	}

	if taskType == models.TaskTypeSecurity || hasScope("auth") {
		commands = append(commands, baseCommand+" --security")
	}
	if hasScope("backend", "api") {
		commands = append(commands, baseCommand+" --backend")
	}
	if hasScope("frontend", "ui") {
		commands = append(commands, baseCommand+" --frontend")
	}
	return commands
}

// InferMetadata runs all heuristics over a description: type from the type
// table, scope from the scope table, and the derived quality gate.
func InferMetadata(description, baseQACommand string) InferredMetadata {
	taskType := InferType(description)
	scope := InferScope(description)
	return InferredMetadata{
		Type:       taskType,
		Scope:      scope,
		QACommands: GenerateQACommands(baseQACommand, taskType, scope),
	}
}
