package integration

import (
	"context"
	"os/exec"
	"runtime"
	"strings"

	"github.com/valter-silva-au/agentswarm/internal/core"
)

// ShellCommandRunner runs quality-gate commands through the system shell so
// configured commands can use flags, pipes, and relative paths like
// "./ops qa --security".
type ShellCommandRunner struct {
	workDir string
}

// NewShellCommandRunner creates a runner that executes commands in workDir.
func NewShellCommandRunner(workDir string) *ShellCommandRunner {
	return &ShellCommandRunner{workDir: workDir}
}

// Run executes one command and captures its combined output. A non-zero exit
// is reported through the result, never as an error.
func (r *ShellCommandRunner) Run(ctx context.Context, command string) core.CommandResult {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, "cmd", "/c", command)
	} else {
		cmd = exec.CommandContext(ctx, "sh", "-c", command)
	}
	cmd.Dir = r.workDir

	output, err := cmd.CombinedOutput()
	return core.CommandResult{
		Command: command,
		Success: err == nil,
		Output:  strings.TrimSpace(string(output)),
	}
}
