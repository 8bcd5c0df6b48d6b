// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the agentswarm task workflow as tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/agentswarm/internal/core"
	"github.com/valter-silva-au/agentswarm/pkg/models"
)

// Server wraps the synchronizer and exposes the task workflow as MCP tools.
// Tools are read-mostly; the only mutating tool is update_task_status, which
// goes through the same document-then-state write path as the CLI.
type Server struct {
	server *gomcp.Server
	sync   *core.Synchronizer
}

// NewServer creates the MCP server over the given synchronizer.
func NewServer(sync *core.Synchronizer, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{sync: sync}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "agentswarm", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves MCP over stdio, blocking until the client disconnects or the
// context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type getTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task identifier (e.g. T001 or local-003)"`
}

type taskOutput struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Status       string   `json:"status"`
	Agent        string   `json:"agent"`
	Type         string   `json:"type"`
	Scope        []string `json:"scope,omitempty"`
	QACommands   []string `json:"qa_commands,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
	Priority     *int     `json:"priority,omitempty"`
	Parallel     bool     `json:"parallel,omitempty"`
	Section      string   `json:"section,omitempty"`
	Created      string   `json:"created,omitempty"`
	Updated      string   `json:"updated,omitempty"`
}

type listTasksInput struct {
	Status string `json:"status,omitempty" jsonschema:"filter tasks by status (pending, in_progress, completed)"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type nextTaskInput struct{}

type nextTaskOutput struct {
	Task    *taskOutput `json:"task,omitempty"`
	Message string      `json:"message,omitempty"`
}

type updateTaskStatusInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task identifier (e.g. T001 or local-003)"`
	Status string `json:"status" jsonschema:"required,the new status (pending, in_progress, completed)"`
	Notes  string `json:"notes,omitempty" jsonschema:"optional note recorded in the task history"`
}

type updateTaskStatusOutput struct {
	Message string `json:"message"`
}

type checkDependenciesInput struct {
	TaskID string `json:"task_id" jsonschema:"required,the task identifier to check"`
}

type checkDependenciesOutput struct {
	Resolved bool     `json:"resolved"`
	Blocked  []string `json:"blocked,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get task details by ID. Returns the merged record with current status, type, scope, QA commands, and dependencies.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List all tasks from the checklist documents with an optional status filter.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "next_task",
		Description: "Select the next schedulable task: pending, dependencies completed, lowest priority number first.",
	}, s.handleNextTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_task_status",
		Description: "Update a task's lifecycle status. Valid statuses: pending, in_progress, completed. Rewrites the checklist line and records history.",
	}, s.handleUpdateTaskStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "check_dependencies",
		Description: "Check whether a task's dependencies are all completed. Returns the blocking IDs when not.",
	}, s.handleCheckDependencies)
}

// --- Tool handlers ---

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}

	task, err := s.sync.GetTask(input.TaskID)
	if err != nil {
		return errorResult(fmt.Sprintf("getting task %s: %s", input.TaskID, err)), taskOutput{}, nil
	}
	return nil, taskToOutput(task), nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	tasks, err := s.sync.MergedTasks()
	if err != nil {
		return errorResult(fmt.Sprintf("listing tasks: %s", err)), listTasksOutput{}, nil
	}

	var out listTasksOutput
	for i := range tasks {
		if input.Status != "" && string(tasks[i].Status) != input.Status {
			continue
		}
		out.Tasks = append(out.Tasks, taskToOutput(&tasks[i]))
	}
	out.Count = len(out.Tasks)
	return nil, out, nil
}

func (s *Server) handleNextTask(_ context.Context, _ *gomcp.CallToolRequest, _ nextTaskInput) (*gomcp.CallToolResult, nextTaskOutput, error) {
	tasks, err := s.sync.MergedTasks()
	if err != nil {
		return errorResult(fmt.Sprintf("selecting next task: %s", err)), nextTaskOutput{}, nil
	}

	next := core.NextTask(tasks)
	if next == nil {
		return nil, nextTaskOutput{Message: "no schedulable task"}, nil
	}
	out := taskToOutput(next)
	return nil, nextTaskOutput{Task: &out}, nil
}

func (s *Server) handleUpdateTaskStatus(_ context.Context, _ *gomcp.CallToolRequest, input updateTaskStatusInput) (*gomcp.CallToolResult, updateTaskStatusOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), updateTaskStatusOutput{}, nil
	}
	validStatuses := map[string]bool{
		"pending": true, "in_progress": true, "completed": true,
	}
	if !validStatuses[input.Status] {
		return errorResult(fmt.Sprintf("invalid status %q: must be one of pending, in_progress, completed", input.Status)), updateTaskStatusOutput{}, nil
	}

	if _, err := s.sync.UpdateStatus(input.TaskID, models.TaskStatus(input.Status), input.Notes); err != nil {
		return errorResult(fmt.Sprintf("updating task %s: %s", input.TaskID, err)), updateTaskStatusOutput{}, nil
	}
	return nil, updateTaskStatusOutput{
		Message: fmt.Sprintf("task %s status updated to %s", input.TaskID, input.Status),
	}, nil
}

func (s *Server) handleCheckDependencies(_ context.Context, _ *gomcp.CallToolRequest, input checkDependenciesInput) (*gomcp.CallToolResult, checkDependenciesOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), checkDependenciesOutput{}, nil
	}

	tasks, err := s.sync.MergedTasks()
	if err != nil {
		return errorResult(fmt.Sprintf("checking dependencies of %s: %s", input.TaskID, err)), checkDependenciesOutput{}, nil
	}
	check := core.CheckDependencies(input.TaskID, tasks)
	return nil, checkDependenciesOutput{Resolved: check.Resolved, Blocked: check.Blocked}, nil
}

// --- Helpers ---

func taskToOutput(t *models.Task) taskOutput {
	out := taskOutput{
		ID:           t.ID,
		Description:  t.Description,
		Status:       string(t.Status),
		Agent:        t.Agent,
		Type:         string(t.Type),
		Scope:        t.Scope,
		QACommands:   t.QACommands,
		Dependencies: t.Dependencies,
		Priority:     t.Priority,
		Parallel:     t.Parallel,
		Section:      t.Section,
	}
	if !t.Created.IsZero() {
		out.Created = t.Created.Format(time.RFC3339)
	}
	if !t.Updated.IsZero() {
		out.Updated = t.Updated.Format(time.RFC3339)
	}
	return out
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
