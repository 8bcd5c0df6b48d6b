package core

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/valter-silva-au/agentswarm/pkg/models"
)

// GitHubIssue is the export payload for creating or updating a GitHub issue
// from a task record. The export is write-only: nothing reads GitHub state
// back into the workspace.
type GitHubIssue struct {
	Title     string   `json:"title"`
	Body      string   `json:"body"`
	Labels    []string `json:"labels"`
	Assignees []string `json:"assignees"`
	Milestone string   `json:"milestone,omitempty"`
}

// issueBodyTemplate renders the issue body from a task record.
const issueBodyTemplate = `## Task

{{.Description}}

**Local ID**: {{.ID}}
**Type**: {{.Type}}
**Status**: {{.Status}}
{{- if .Scope}}
**Scope**: {{join .Scope ", "}}
{{- end}}

## Quality Gate
{{- range .QACommands}}
- ` + "`{{.}}`" + `
{{- end}}
{{- if .Dependencies}}

## Dependencies
{{- range .Dependencies}}
- {{.}}
{{- end}}
{{- end}}
{{- if .SpecRefs}}

## Specification
References {{join .SpecRefs ", "}}.
{{- end}}

---
Managed by agentswarm.
`

var issueTmpl = template.Must(template.New("issue").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(issueBodyTemplate))

// ExportForGitHub builds the issue payload for a task. The task's stored
// GitHub settings decide whether the export is allowed.
func ExportForGitHub(task *models.Task) (*GitHubIssue, error) {
	if !task.GitHub.Enabled {
		return nil, fmt.Errorf("exporting %s: GitHub sync is not enabled for this task", task.ID)
	}

	var body bytes.Buffer
	if err := issueTmpl.Execute(&body, task); err != nil {
		return nil, fmt.Errorf("exporting %s: rendering issue body: %w", task.ID, err)
	}

	labels := []string{"local-first", string(task.Type)}
	if task.Status == models.StatusInProgress {
		labels = append(labels, "in-progress")
	}

	var assignees []string
	if task.Agent != "" {
		assignees = append(assignees, task.Agent)
	}

	return &GitHubIssue{
		Title:     fmt.Sprintf("[%s] %s", task.Type, task.Description),
		Body:      body.String(),
		Labels:    labels,
		Assignees: assignees,
	}, nil
}
