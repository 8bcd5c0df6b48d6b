package core

import (
	"fmt"
	"sort"

	"github.com/valter-silva-au/agentswarm/pkg/models"
)

// The scheduling engine is pure: it operates on an in-memory task set and
// performs no I/O. Dependency state is recomputed from scratch on every call;
// task sets are human-authored checklists, so the O(n*d) walk is cheap and
// avoids stale-cache bugs.

// DependencyCheck is the result of resolving one task's dependencies.
type DependencyCheck struct {
	Resolved bool     `json:"resolved"`
	Blocked  []string `json:"blocked"`
}

// GraphEdge is one dependency edge, pointing from the prerequisite task to
// the task that depends on it.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DependencyGraph is the full dependency structure of a task set.
type DependencyGraph struct {
	Nodes []models.Task `json:"nodes"`
	Edges []GraphEdge   `json:"edges"`
}

// CheckDependencies reports whether every dependency of the given task
// resolves to a completed record. A dependency ID with no matching record is
// conservatively treated as blocking; referential-integrity reporting for
// such IDs is the job of ValidateReferences.
func CheckDependencies(taskID string, tasks []models.Task) DependencyCheck {
	task := findTask(taskID, tasks)
	if task == nil || len(task.Dependencies) == 0 {
		return DependencyCheck{Resolved: true}
	}

	byID := indexTasks(tasks)
	var blocked []string
	for _, dep := range task.Dependencies {
		if t, ok := byID[dep]; !ok || t.Status != models.StatusCompleted {
			blocked = append(blocked, dep)
		}
	}
	return DependencyCheck{Resolved: len(blocked) == 0, Blocked: blocked}
}

// NextTask selects the best schedulable task: pending, all dependencies
// completed. Candidates carrying a numeric priority sort ascending by that
// value and precede every candidate without one; candidates without priority
// keep their encounter order. Returns nil when nothing is schedulable.
func NextTask(tasks []models.Task) *models.Task {
	var candidates []models.Task
	for _, t := range tasks {
		if t.Status != models.StatusPending {
			continue
		}
		if !CheckDependencies(t.ID, tasks).Resolved {
			continue
		}
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		pi, pj := candidates[i].Priority, candidates[j].Priority
		switch {
		case pi != nil && pj != nil:
			return *pi < *pj
		case pi != nil:
			return true
		default:
			return false
		}
	})

	next := candidates[0]
	return &next
}

// ValidateReferences detects dependency IDs that do not resolve to any task
// in the set. These are integrity issues to report, never parse errors, and
// are never auto-fixed.
func ValidateReferences(tasks []models.Task) []string {
	byID := indexTasks(tasks)
	var issues []string
	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			if _, ok := byID[dep]; !ok {
				issues = append(issues, fmt.Sprintf("task %s depends on unknown task %s", t.ID, dep))
			}
		}
	}
	return issues
}

// DetectCycles runs a depth-first walk over the dependency edges and returns
// one representative path per cycle found, e.g. ["A", "B", "A"]. Unknown
// dependency IDs are not followed.
func DetectCycles(tasks []models.Task) [][]string {
	byID := indexTasks(tasks)

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(tasks))
	var cycles [][]string

	var walk func(id string, path []string)
	walk = func(id string, path []string) {
		state[id] = visiting
		path = append(path, id)

		task := byID[id]
		for _, dep := range task.Dependencies {
			if _, ok := byID[dep]; !ok {
				continue
			}
			switch state[dep] {
			case visiting:
				// Close the loop for reporting.
				start := 0
				for i, p := range path {
					if p == dep {
						start = i
						break
					}
				}
				cycle := append(append([]string(nil), path[start:]...), dep)
				cycles = append(cycles, cycle)
			case unvisited:
				walk(dep, path)
			}
		}
		state[id] = done
	}

	for _, t := range tasks {
		if state[t.ID] == unvisited {
			walk(t.ID, nil)
		}
	}
	return cycles
}

// BuildGraph assembles the dependency graph for display and export.
func BuildGraph(tasks []models.Task) DependencyGraph {
	graph := DependencyGraph{Nodes: tasks}
	for _, t := range tasks {
		for _, dep := range t.Dependencies {
			graph.Edges = append(graph.Edges, GraphEdge{From: dep, To: t.ID})
		}
	}
	return graph
}

func findTask(taskID string, tasks []models.Task) *models.Task {
	for i := range tasks {
		if tasks[i].ID == taskID {
			return &tasks[i]
		}
	}
	return nil
}

func indexTasks(tasks []models.Task) map[string]*models.Task {
	byID := make(map[string]*models.Task, len(tasks))
	for i := range tasks {
		// First occurrence wins for duplicate IDs.
		if _, ok := byID[tasks[i].ID]; !ok {
			byID[tasks[i].ID] = &tasks[i]
		}
	}
	return byID
}
