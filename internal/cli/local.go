package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/agentswarm/internal/core"
	"github.com/valter-silva-au/agentswarm/internal/observability"
)

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Manage the local workspace (init, validate, status, graph, reconcile)",
	Long: `Workspace-level commands: initialize the state directory and config,
validate the task documents, inspect the dependency graph, and repair
document/state drift.`,
}

var localInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the workspace state directory and default config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ConfigMgr == nil || StateStore == nil || SessionStore == nil {
			return fmt.Errorf("workspace services not initialized")
		}

		if err := ConfigMgr.WriteDefaultConfig(); err != nil {
			return err
		}
		if err := StateStore.Init(); err != nil {
			return err
		}
		if err := SessionStore.Init(); err != nil {
			return err
		}

		fmt.Println("Initialized workspace:")
		fmt.Printf("  Config: %s\n", ".swarmrc")
		fmt.Printf("  State:  %s\n", Workspace.StateDir)
		return nil
	},
}

var localValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate task documents and dependency references",
	Long: `Parse all task documents and report integrity issues: dependency IDs
that resolve to no task, duplicate IDs, and dependency cycles. Issues are
reported, never auto-fixed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Sync == nil {
			return fmt.Errorf("synchronizer not initialized")
		}

		parsed, err := Sync.LoadAll()
		if err != nil {
			return err
		}

		var issues []string
		seen := map[string]bool{}
		for _, t := range parsed.Tasks {
			if seen[t.ID] {
				issues = append(issues, fmt.Sprintf("duplicate task ID %s", t.ID))
			}
			seen[t.ID] = true
		}
		issues = append(issues, core.ValidateReferences(parsed.Tasks)...)
		for _, cycle := range core.DetectCycles(parsed.Tasks) {
			issues = append(issues, fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")))
		}

		fmt.Printf("Parsed %d task(s)\n", len(parsed.Tasks))
		if len(issues) == 0 {
			fmt.Println(statusCompleted.Render("No issues found."))
			return nil
		}
		fmt.Println(blockedStyle.Render(fmt.Sprintf("%d issue(s):", len(issues))))
		for _, issue := range issues {
			fmt.Printf("  - %s\n", issue)
		}
		return fmt.Errorf("validation found %d issue(s)", len(issues))
	},
}

var localStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show workspace summary: task counts, sessions, recent history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Sync == nil || StateStore == nil || SessionStore == nil {
			return fmt.Errorf("workspace services not initialized")
		}

		tasks, err := Sync.MergedTasks()
		if err != nil {
			return err
		}

		counts := map[string]int{}
		for _, t := range tasks {
			counts[string(t.Status)]++
		}

		fmt.Println(headerStyle.Render("Workspace"))
		fmt.Printf("  Tasks:       %d total", len(tasks))
		for _, status := range []string{"pending", "in_progress", "completed"} {
			if counts[status] > 0 {
				fmt.Printf(", %d %s", counts[status], status)
			}
		}
		fmt.Println()

		if err := SessionStore.Load(); err != nil {
			return err
		}
		active := SessionStore.ActiveSessions()
		fmt.Printf("  Sessions:    %d active\n", len(active))
		for _, s := range active {
			fmt.Printf("    %s on %s since %s\n", s.TaskID, s.Branch, s.Started.Format("2006-01-02 15:04 UTC"))
		}

		if err := StateStore.Load(); err != nil {
			return err
		}
		if StateStore.Recovered() {
			fmt.Println(blockedStyle.Render("  State file was corrupted and has been reset."))
		}
		history := StateStore.History()
		if n := len(history); n > 0 {
			fmt.Println("\n" + headerStyle.Render("Recent history"))
			start := n - 5
			if start < 0 {
				start = 0
			}
			for _, entry := range history[start:] {
				fmt.Printf("  %s  %-12s %s\n",
					entry.Timestamp.Format("2006-01-02 15:04"), entry.TaskID, entry.Status)
			}
		}
		return nil
	},
}

var localGraphJSON bool

var localGraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Show the task dependency graph",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Sync == nil {
			return fmt.Errorf("synchronizer not initialized")
		}

		tasks, err := Sync.MergedTasks()
		if err != nil {
			return err
		}
		graph := core.BuildGraph(tasks)

		if localGraphJSON {
			data, err := json.MarshalIndent(graph, "", "  ")
			if err != nil {
				return fmt.Errorf("marshalling graph: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		dependents := map[string][]string{}
		for _, edge := range graph.Edges {
			dependents[edge.From] = append(dependents[edge.From], edge.To)
		}
		for _, t := range graph.Nodes {
			line := fmt.Sprintf("%-12s %s", t.ID, t.Description)
			fmt.Println(styleForStatus(t.Status).Render(line))
			for _, dep := range t.Dependencies {
				fmt.Printf("  needs %s\n", dep)
			}
			for _, to := range dependents[t.ID] {
				fmt.Println(dimStyle.Render(fmt.Sprintf("  unblocks %s", to)))
			}
		}
		return nil
	},
}

var localReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair checkbox drift between documents and state",
	Long: `Rewrite document checkboxes that disagree with the stored status. The
state store is authoritative for every task synchronized at least once.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Sync == nil {
			return fmt.Errorf("synchronizer not initialized")
		}

		fixed, err := Sync.Reconcile()
		if err != nil {
			return err
		}
		if len(fixed) == 0 {
			fmt.Println("Documents and state agree.")
			return nil
		}
		fmt.Printf("Repaired %d task(s): %s\n", len(fixed), strings.Join(fixed, ", "))
		return nil
	},
}

var (
	localEventsType  string
	localEventsLevel string
)

var localEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show the workflow event log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized")
		}

		events, err := EventLog.Read(observability.EventFilter{
			Type:  localEventsType,
			Level: localEventsLevel,
		})
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println(dimStyle.Render("No events recorded."))
			return nil
		}
		for _, e := range events {
			line := fmt.Sprintf("%s  %-5s %s", e.Time.Format("2006-01-02 15:04:05"), e.Level, e.Type)
			if id, ok := e.Data["task_id"]; ok {
				line += fmt.Sprintf("  %v", id)
			}
			if e.Level == "WARN" {
				fmt.Println(blockedStyle.Render(line))
			} else {
				fmt.Println(line)
			}
		}
		return nil
	},
}

func init() {
	localGraphCmd.Flags().BoolVar(&localGraphJSON, "json", false, "emit the graph as JSON")
	localEventsCmd.Flags().StringVar(&localEventsType, "type", "", "filter by event type")
	localEventsCmd.Flags().StringVar(&localEventsLevel, "level", "", "filter by level (INFO, WARN)")

	localCmd.AddCommand(localInitCmd)
	localCmd.AddCommand(localValidateCmd)
	localCmd.AddCommand(localStatusCmd)
	localCmd.AddCommand(localGraphCmd)
	localCmd.AddCommand(localReconcileCmd)
	localCmd.AddCommand(localEventsCmd)
	rootCmd.AddCommand(localCmd)
}
