package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/agentswarm/internal/core"
	"github.com/valter-silva-au/agentswarm/pkg/models"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks (create, start, complete, list, status, resume)",
	Long: `Unified task management commands.

Create tasks in the checklist documents, start work on them with dependency
checks and a dedicated branch, and complete them behind the QA gate.`,
}

var (
	taskCreateAgent  string
	taskCreateType   string
	taskCreateScope  []string
	taskCreateQA     []string
	taskCreateDeps   []string
	taskCreateSpec   []string
	taskCreateGitHub bool
)

var taskCreateCmd = &cobra.Command{
	Use:   "create <description>",
	Short: "Create a new local task",
	Long: `Create a new task with an allocated local ID and append it to the
checklist document. Type, scope, and QA commands are inferred from the
description when not given explicitly.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Sync == nil {
			return fmt.Errorf("synchronizer not initialized")
		}

		task, err := Sync.CreateTask(core.CreateTaskOptions{
			Description:  strings.Join(args, " "),
			Agent:        taskCreateAgent,
			Type:         models.TaskType(taskCreateType),
			Scope:        taskCreateScope,
			QACommands:   taskCreateQA,
			Dependencies: taskCreateDeps,
			SpecRefs:     taskCreateSpec,
			GitHubSync:   taskCreateGitHub,
		})
		if err != nil {
			return err
		}
		if err := Sync.AppendToDocument(task); err != nil {
			return err
		}

		fmt.Printf("Created task %s\n", task.ID)
		fmt.Printf("  Type:  %s\n", task.Type)
		fmt.Printf("  Scope: %s\n", strings.Join(task.Scope, ", "))
		fmt.Printf("  QA:    %s\n", strings.Join(task.QACommands, ", "))
		if len(task.Dependencies) > 0 {
			fmt.Printf("  Deps:  %s\n", strings.Join(task.Dependencies, ", "))
		}
		return nil
	},
}

var (
	taskListStatus string
	taskListAgent  string
	taskListType   string
	taskListLocal  bool
	taskListJSON   bool
)

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Sync == nil {
			return fmt.Errorf("synchronizer not initialized")
		}

		tasks, err := Sync.MergedTasks()
		if err != nil {
			return err
		}

		var filtered []models.Task
		for _, t := range tasks {
			if taskListStatus != "" && string(t.Status) != taskListStatus {
				continue
			}
			if taskListAgent != "" && t.Agent != strings.TrimPrefix(taskListAgent, "@") {
				continue
			}
			if taskListType != "" && string(t.Type) != taskListType {
				continue
			}
			if taskListLocal && !t.IsLocal() {
				continue
			}
			filtered = append(filtered, t)
		}

		if taskListJSON {
			data, err := json.MarshalIndent(filtered, "", "  ")
			if err != nil {
				return fmt.Errorf("marshalling task list: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Println(headerStyle.Render("Tasks"))
		fmt.Printf("  %-12s %-12s %-12s %-10s %s\n", "ID", "STATUS", "TYPE", "AGENT", "DESCRIPTION")
		for _, t := range filtered {
			line := fmt.Sprintf("  %-12s %-12s %-12s %-10s %s", t.ID, t.Status, t.Type, t.Agent, t.Description)
			fmt.Println(styleForStatus(t.Status).Render(line))
		}
		if len(filtered) == 0 {
			fmt.Println(dimStyle.Render("  No tasks found."))
		}
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show full details for one task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Sync == nil {
			return fmt.Errorf("synchronizer not initialized")
		}

		task, err := Sync.GetTask(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s  %s\n", task.ID, styleForStatus(task.Status).Render(string(task.Status)))
		fmt.Printf("  Description: %s\n", task.Description)
		fmt.Printf("  Agent:       @%s\n", task.Agent)
		fmt.Printf("  Type:        %s\n", task.Type)
		fmt.Printf("  Scope:       %s\n", strings.Join(task.Scope, ", "))
		fmt.Printf("  QA:          %s\n", strings.Join(task.QACommands, ", "))
		if len(task.Dependencies) > 0 {
			fmt.Printf("  Deps:        %s\n", strings.Join(task.Dependencies, ", "))
		}
		if task.Priority != nil {
			fmt.Printf("  Priority:    %d\n", *task.Priority)
		}
		if task.Parallel {
			fmt.Println("  Parallel:    yes")
		}
		if task.Section != "" {
			fmt.Printf("  Section:     %s\n", task.Section)
		}
		if task.Source != "" {
			fmt.Printf("  Source:      %s:%d\n", task.Source, task.Line)
		}
		for _, note := range task.Notes {
			fmt.Printf("  Note (%s): %s\n", note.Timestamp.Format("2006-01-02 15:04"), note.Content)
		}
		return nil
	},
}

var taskStartCmd = &cobra.Command{
	Use:   "start [task-id]",
	Short: "Start work on a task",
	Long: `Start work on a task: check its dependencies, create a work branch
off the base branch, mark it in_progress, and open a work session.

Without a task ID an interactive picker lists the startable tasks.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Lifecycle == nil {
			return fmt.Errorf("lifecycle controller not initialized")
		}

		taskID := ""
		if len(args) == 1 {
			taskID = args[0]
		} else {
			picked, err := pickStartableTask()
			if err != nil {
				return err
			}
			taskID = picked
		}

		result, err := Lifecycle.Start(cmd.Context(), taskID)
		if err != nil {
			var blocked *core.BlockedError
			if errors.As(err, &blocked) {
				fmt.Println(blockedStyle.Render(fmt.Sprintf("Task %s is blocked by: %s",
					blocked.TaskID, strings.Join(blocked.Blocked, ", "))))
				fmt.Println(dimStyle.Render("Complete the blocking tasks first."))
				return err
			}
			return err
		}

		fmt.Printf("Started task %s\n", result.Task.ID)
		fmt.Printf("  Branch:  %s\n", result.Branch)
		fmt.Printf("  Session: started %s\n", result.Session.Started.Format("2006-01-02 15:04 UTC"))
		return nil
	},
}

var (
	taskCompleteSkipQA bool
	taskCompleteNotes  string
)

var taskCompleteCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Complete a task after its QA commands pass",
	Long: `Run the task's QA commands and mark it completed when all pass.
Any failing command aborts completion and the task stays in_progress.

Use --skip-qa to bypass the gate; the skip is recorded in the history.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Lifecycle == nil {
			return fmt.Errorf("lifecycle controller not initialized")
		}

		result, err := Lifecycle.Complete(cmd.Context(), args[0], core.CompleteOptions{
			SkipQA: taskCompleteSkipQA,
			Notes:  taskCompleteNotes,
		})
		if err != nil {
			var qaErr *core.QAFailedError
			if errors.As(err, &qaErr) {
				fmt.Println(blockedStyle.Render(fmt.Sprintf("QA failed for task %s:", qaErr.TaskID)))
				for _, f := range qaErr.Failures {
					fmt.Printf("  %s\n", f.Command)
					if f.Output != "" {
						fmt.Println(dimStyle.Render(indent(f.Output, "    ")))
					}
				}
				return err
			}
			return err
		}

		fmt.Printf("Completed task %s\n", result.Task.ID)
		if result.QASkipped {
			fmt.Println(dimStyle.Render("  QA skipped"))
		} else {
			for _, r := range result.QAResults {
				fmt.Printf("  QA passed: %s\n", r.Command)
			}
		}
		return nil
	},
}

var taskResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume the most recent active work session",
	Long: `Resume in-flight work. The most recently started active session wins;
with no active session the next schedulable task is started instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Lifecycle == nil {
			return fmt.Errorf("lifecycle controller not initialized")
		}

		result, err := Lifecycle.Resume(cmd.Context())
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Println(dimStyle.Render("Nothing to resume and no schedulable task."))
			return nil
		}

		fmt.Printf("Resumed task %s\n", result.Task.ID)
		fmt.Printf("  Branch: %s\n", result.Branch)
		fmt.Printf("  Status: %s\n", result.Task.Status)
		return nil
	},
}

var taskNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the next schedulable task",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Sync == nil {
			return fmt.Errorf("synchronizer not initialized")
		}

		tasks, err := Sync.MergedTasks()
		if err != nil {
			return err
		}
		next := core.NextTask(tasks)
		if next == nil {
			fmt.Println(dimStyle.Render("No schedulable task."))
			return nil
		}

		fmt.Printf("Next: %s %s\n", next.ID, next.Description)
		if next.Priority != nil {
			fmt.Printf("  Priority: %d\n", *next.Priority)
		}
		fmt.Printf("  Type:     %s\n", next.Type)
		fmt.Printf("  Agent:    @%s\n", next.Agent)
		return nil
	},
}

var taskStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display tasks grouped by status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Sync == nil {
			return fmt.Errorf("synchronizer not initialized")
		}

		tasks, err := Sync.MergedTasks()
		if err != nil {
			return err
		}

		groups := map[models.TaskStatus][]models.Task{}
		for _, t := range tasks {
			groups[t.Status] = append(groups[t.Status], t)
		}

		order := []models.TaskStatus{models.StatusInProgress, models.StatusPending, models.StatusCompleted}
		for _, status := range order {
			group := groups[status]
			if len(group) == 0 {
				continue
			}
			fmt.Println(headerStyle.Render(fmt.Sprintf("%s (%d)", status, len(group))))
			for _, t := range group {
				line := fmt.Sprintf("  %-12s %s", t.ID, t.Description)
				fmt.Println(styleForStatus(status).Render(line))
			}
			fmt.Println()
		}

		if len(tasks) == 0 {
			fmt.Println(dimStyle.Render("No tasks found."))
		}
		return nil
	},
}

var taskExportCmd = &cobra.Command{
	Use:   "export <task-id>",
	Short: "Print the GitHub issue payload for a task",
	Long: `Render the GitHub issue payload (title, body, labels, assignees) for a
task as JSON. The export is one-directional; nothing is read back from
GitHub.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Sync == nil {
			return fmt.Errorf("synchronizer not initialized")
		}

		task, err := Sync.GetTask(args[0])
		if err != nil {
			return err
		}
		issue, err := core.ExportForGitHub(task)
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(issue, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling issue payload: %w", err)
		}
		fmt.Println(string(data))
		return nil
	},
}

// indent prefixes every line of s.
func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}

func init() {
	taskCreateCmd.Flags().StringVar(&taskCreateAgent, "agent", "", "agent assignment (default from config)")
	taskCreateCmd.Flags().StringVar(&taskCreateType, "type", "", "task type (inferred from description when empty)")
	taskCreateCmd.Flags().StringSliceVar(&taskCreateScope, "scope", nil, "scope paths (inferred when empty)")
	taskCreateCmd.Flags().StringSliceVar(&taskCreateQA, "qa", nil, "QA commands (generated when empty)")
	taskCreateCmd.Flags().StringSliceVar(&taskCreateDeps, "deps", nil, "dependency task IDs")
	taskCreateCmd.Flags().StringSliceVar(&taskCreateSpec, "spec", nil, "specification references")
	taskCreateCmd.Flags().BoolVar(&taskCreateGitHub, "github", false, "enable GitHub issue sync for this task")

	taskListCmd.Flags().StringVar(&taskListStatus, "status", "", "filter by status (pending, in_progress, completed)")
	taskListCmd.Flags().StringVar(&taskListAgent, "agent", "", "filter by assigned agent")
	taskListCmd.Flags().StringVar(&taskListType, "type", "", "filter by task type")
	taskListCmd.Flags().BoolVar(&taskListLocal, "local", false, "show only local-NNN tasks")
	taskListCmd.Flags().BoolVar(&taskListJSON, "json", false, "emit the task list as JSON")

	taskCompleteCmd.Flags().BoolVar(&taskCompleteSkipQA, "skip-qa", false, "bypass the QA gate (recorded in history)")
	taskCompleteCmd.Flags().StringVar(&taskCompleteNotes, "notes", "", "note recorded with the completion")

	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskStartCmd)
	taskCmd.AddCommand(taskCompleteCmd)
	taskCmd.AddCommand(taskResumeCmd)
	taskCmd.AddCommand(taskNextCmd)
	taskCmd.AddCommand(taskStatusCmd)
	taskCmd.AddCommand(taskExportCmd)
	rootCmd.AddCommand(taskCmd)
}
