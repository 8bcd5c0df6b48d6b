// Package integration wraps the external tools agentswarm shells out to:
// git for work-branch management and the system shell for QA commands.
package integration

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// GitBranchManager creates task work branches off the configured base branch
// using the git CLI.
type GitBranchManager interface {
	// CreateBranch switches to the base branch, pulls latest, and creates
	// the named branch from it. If the branch already exists it is checked
	// out instead.
	CreateBranch(ctx context.Context, name string) error
	// CurrentBranch returns the checked-out branch name.
	CurrentBranch(ctx context.Context) (string, error)
}

type gitBranchManager struct {
	repoDir    string
	baseBranch string
}

// NewGitBranchManager creates a GitBranchManager operating on the repository
// at repoDir with the given base branch.
func NewGitBranchManager(repoDir, baseBranch string) GitBranchManager {
	return &gitBranchManager{repoDir: repoDir, baseBranch: baseBranch}
}

func (m *gitBranchManager) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = m.repoDir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), strings.TrimSpace(string(output)), err)
	}
	return strings.TrimSpace(string(output)), nil
}

func (m *gitBranchManager) CreateBranch(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("branch name must not be empty")
	}

	if _, err := m.git(ctx, "checkout", m.baseBranch); err != nil {
		return fmt.Errorf("creating branch %s: %w", name, err)
	}
	// Best-effort: a pull failure (offline, no upstream) should not block
	// starting work.
	_, _ = m.git(ctx, "pull")

	if _, err := m.git(ctx, "checkout", "-b", name); err != nil {
		// The branch may exist from an earlier attempt.
		if _, coErr := m.git(ctx, "checkout", name); coErr != nil {
			return fmt.Errorf("creating branch %s: %w", name, err)
		}
	}
	return nil
}

func (m *gitBranchManager) CurrentBranch(ctx context.Context) (string, error) {
	branch, err := m.git(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("reading current branch: %w", err)
	}
	return branch, nil
}
