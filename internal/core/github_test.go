package core

import (
	"strings"
	"testing"

	"github.com/valter-silva-au/agentswarm/pkg/models"
)

func TestExportForGitHub(t *testing.T) {
	issueNum := 42
	task := &models.Task{
		ID:           "local-003",
		Description:  "Patch security vulnerability",
		Status:       models.StatusInProgress,
		Agent:        "alice",
		Type:         models.TaskTypeSecurity,
		Scope:        []string{"auth/"},
		QACommands:   []string{"./ops qa", "./ops qa --security"},
		Dependencies: []string{"local-001"},
		SpecRefs:     []string{"FR-012"},
		GitHub:       models.GitHubSync{Enabled: true, IssueNumber: &issueNum},
	}

	issue, err := ExportForGitHub(task)
	if err != nil {
		t.Fatalf("exporting: %v", err)
	}

	if issue.Title != "[security] Patch security vulnerability" {
		t.Errorf("title: %q", issue.Title)
	}
	for _, want := range []string{"local-003", "./ops qa --security", "local-001", "FR-012"} {
		if !strings.Contains(issue.Body, want) {
			t.Errorf("body missing %q:\n%s", want, issue.Body)
		}
	}

	wantLabels := map[string]bool{"local-first": true, "security": true, "in-progress": true}
	if len(issue.Labels) != len(wantLabels) {
		t.Fatalf("labels: %v", issue.Labels)
	}
	for _, label := range issue.Labels {
		if !wantLabels[label] {
			t.Errorf("unexpected label %q", label)
		}
	}
	if len(issue.Assignees) != 1 || issue.Assignees[0] != "alice" {
		t.Errorf("assignees: %v", issue.Assignees)
	}
}

func TestExportForGitHub_Disabled(t *testing.T) {
	task := &models.Task{ID: "local-001", Description: "No sync", Type: models.TaskTypeUpdate}
	if _, err := ExportForGitHub(task); err == nil {
		t.Fatal("expected error when GitHub sync is disabled")
	}
}
