package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/valter-silva-au/agentswarm/internal/core"
	"github.com/valter-silva-au/agentswarm/pkg/models"
)

// pickerItem is one row in the interactive task picker.
type pickerItem struct {
	task    models.Task
	blocked []string
}

type pickerModel struct {
	items    []pickerItem
	cursor   int
	selected string
	quit     bool
}

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("62")).
				Padding(0, 1)

	pickerCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
)

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "q", "esc", "ctrl+c":
		m.quit = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "enter":
		item := m.items[m.cursor]
		if len(item.blocked) == 0 {
			m.selected = item.task.ID
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render(" Start a task "))
	b.WriteString("\n\n")

	for i, item := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = pickerCursorStyle.Render("> ")
		}

		line := fmt.Sprintf("%-12s %s", item.task.ID, item.task.Description)
		if item.task.Priority != nil {
			line += fmt.Sprintf("  (priority %d)", *item.task.Priority)
		}
		if len(item.blocked) > 0 {
			line = dimStyle.Render(line) + blockedStyle.Render(
				fmt.Sprintf("  blocked by %s", strings.Join(item.blocked, ", ")))
		}
		b.WriteString(cursor + line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("enter: start | j/k: move | q: cancel"))
	b.WriteString("\n")
	return b.String()
}

// pickStartableTask shows the interactive picker over pending tasks and
// returns the selected ID. Blocked tasks are listed but not selectable.
func pickStartableTask() (string, error) {
	if Sync == nil {
		return "", fmt.Errorf("synchronizer not initialized")
	}

	tasks, err := Sync.MergedTasks()
	if err != nil {
		return "", err
	}

	var items []pickerItem
	for _, t := range tasks {
		if t.Status != models.StatusPending {
			continue
		}
		check := core.CheckDependencies(t.ID, tasks)
		items = append(items, pickerItem{task: t, blocked: check.Blocked})
	}
	if len(items) == 0 {
		return "", fmt.Errorf("no pending tasks (use 'agentswarm task create' to add one)")
	}

	p := tea.NewProgram(pickerModel{items: items})
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("running task picker: %w", err)
	}

	m := final.(pickerModel)
	if m.quit || m.selected == "" {
		return "", fmt.Errorf("cancelled")
	}
	return m.selected, nil
}
