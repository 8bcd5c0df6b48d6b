package core

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"github.com/valter-silva-au/agentswarm/pkg/models"
)

func mkTask(id string, status models.TaskStatus, deps ...string) models.Task {
	return models.Task{ID: id, Status: status, Dependencies: deps}
}

func intPtr(v int) *int { return &v }

func TestCheckDependencies(t *testing.T) {
	tasks := []models.Task{
		mkTask("T001", models.StatusCompleted),
		mkTask("T002", models.StatusPending),
		mkTask("T003", models.StatusPending, "T001"),
		mkTask("T004", models.StatusPending, "T001", "T002"),
		mkTask("T005", models.StatusPending, "T999"),
	}

	if check := CheckDependencies("T003", tasks); !check.Resolved {
		t.Errorf("T003 should be resolved, blocked by %v", check.Blocked)
	}
	if check := CheckDependencies("T004", tasks); check.Resolved || !reflect.DeepEqual(check.Blocked, []string{"T002"}) {
		t.Errorf("T004 should be blocked by T002, got %+v", check)
	}
	// Unknown dependency IDs block conservatively.
	if check := CheckDependencies("T005", tasks); check.Resolved {
		t.Error("T005 should be blocked by its unknown dependency")
	}
	// A task that does not exist has nothing to block it.
	if check := CheckDependencies("T999", tasks); !check.Resolved {
		t.Error("unknown task should resolve trivially")
	}
}

func TestNextTask_PriorityOrdering(t *testing.T) {
	t3 := mkTask("T003", models.StatusPending)
	t3.Priority = intPtr(3)
	t1 := mkTask("T001", models.StatusPending)
	t1.Priority = intPtr(1)

	tasks := []models.Task{
		mkTask("T010", models.StatusCompleted),
		t3,
		mkTask("T005", models.StatusPending),
		t1,
	}

	next := NextTask(tasks)
	if next == nil || next.ID != "T001" {
		t.Fatalf("expected T001 (lowest priority number), got %+v", next)
	}
}

func TestNextTask_NoPriorityKeepsEncounterOrder(t *testing.T) {
	tasks := []models.Task{
		mkTask("T007", models.StatusPending),
		mkTask("T002", models.StatusPending),
	}

	next := NextTask(tasks)
	if next == nil || next.ID != "T007" {
		t.Fatalf("expected first encountered task T007, got %+v", next)
	}
}

func TestNextTask_SkipsBlockedAndNonPending(t *testing.T) {
	tasks := []models.Task{
		mkTask("T001", models.StatusInProgress),
		mkTask("T002", models.StatusPending, "T001"),
		mkTask("T003", models.StatusPending),
	}

	next := NextTask(tasks)
	if next == nil || next.ID != "T003" {
		t.Fatalf("expected T003, got %+v", next)
	}

	if next := NextTask(tasks[:2]); next != nil {
		t.Errorf("expected no schedulable task, got %s", next.ID)
	}
}

func TestValidateReferences(t *testing.T) {
	tasks := []models.Task{
		mkTask("T001", models.StatusPending),
		mkTask("T002", models.StatusPending, "T001", "T404"),
	}

	issues := ValidateReferences(tasks)
	if len(issues) != 1 || !strings.Contains(issues[0], "T404") {
		t.Fatalf("expected one issue naming T404, got %v", issues)
	}
}

func TestDetectCycles(t *testing.T) {
	acyclic := []models.Task{
		mkTask("A1", models.StatusPending),
		mkTask("B1", models.StatusPending, "A1"),
	}
	if cycles := DetectCycles(acyclic); len(cycles) != 0 {
		t.Fatalf("expected no cycles, got %v", cycles)
	}

	cyclic := []models.Task{
		mkTask("A1", models.StatusPending, "B1"),
		mkTask("B1", models.StatusPending, "C1"),
		mkTask("C1", models.StatusPending, "A1"),
	}
	cycles := DetectCycles(cyclic)
	if len(cycles) != 1 {
		t.Fatalf("expected one cycle, got %v", cycles)
	}
	if first, last := cycles[0][0], cycles[0][len(cycles[0])-1]; first != last {
		t.Errorf("cycle path must close the loop: %v", cycles[0])
	}

	selfRef := []models.Task{mkTask("A1", models.StatusPending, "A1")}
	if cycles := DetectCycles(selfRef); len(cycles) != 1 {
		t.Fatalf("expected self-cycle, got %v", cycles)
	}
}

func TestBuildGraph(t *testing.T) {
	tasks := []models.Task{
		mkTask("T001", models.StatusCompleted),
		mkTask("T002", models.StatusPending, "T001"),
	}

	graph := BuildGraph(tasks)
	if len(graph.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(graph.Nodes))
	}
	want := []GraphEdge{{From: "T001", To: "T002"}}
	if !reflect.DeepEqual(graph.Edges, want) {
		t.Errorf("edges: got %v, want %v", graph.Edges, want)
	}
}

// NextTask must always return a pending task whose dependencies are all
// completed, and never one with a higher priority number than another
// schedulable prioritized task.
func TestNextTaskProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(rt, "taskCount")
		statuses := []models.TaskStatus{models.StatusPending, models.StatusInProgress, models.StatusCompleted}

		tasks := make([]models.Task, 0, n)
		for i := 0; i < n; i++ {
			task := mkTask(fmt.Sprintf("T%03d", i), rapid.SampledFrom(statuses).Draw(rt, fmt.Sprintf("status_%d", i)))
			// Dependencies only point at earlier tasks, so sets stay acyclic.
			for j := 0; j < i; j++ {
				if rapid.IntRange(0, 4).Draw(rt, fmt.Sprintf("dep_%d_%d", i, j)) == 0 {
					task.Dependencies = append(task.Dependencies, fmt.Sprintf("T%03d", j))
				}
			}
			if rapid.Bool().Draw(rt, fmt.Sprintf("hasPriority_%d", i)) {
				task.Priority = intPtr(rapid.IntRange(1, 5).Draw(rt, fmt.Sprintf("priority_%d", i)))
			}
			tasks = append(tasks, task)
		}

		next := NextTask(tasks)
		if next == nil {
			for _, task := range tasks {
				if task.Status == models.StatusPending && CheckDependencies(task.ID, tasks).Resolved {
					rt.Fatalf("NextTask returned nil but %s is schedulable", task.ID)
				}
			}
			return
		}

		if next.Status != models.StatusPending {
			rt.Fatalf("selected task %s is not pending", next.ID)
		}
		if !CheckDependencies(next.ID, tasks).Resolved {
			rt.Fatalf("selected task %s has unresolved dependencies", next.ID)
		}
		for _, task := range tasks {
			if task.Status != models.StatusPending || !CheckDependencies(task.ID, tasks).Resolved {
				continue
			}
			if task.Priority != nil && (next.Priority == nil || *task.Priority < *next.Priority) {
				rt.Fatalf("selected %s over better-prioritized %s", next.ID, task.ID)
			}
		}
	})
}
