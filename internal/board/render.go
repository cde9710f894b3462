// Package board renders a project's tasks as kanban columns for the terminal.
package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"agileflow/internal/models"
)

const minColumnWidth = 18

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	overLimitColumnStyle = columnStyle.
				BorderForeground(lipgloss.Color("196"))

	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("252"))

	overLimitStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	assigneeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	placeholderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)
)

// OverLimitMarker is appended to the ONGOING header when the WIP limit is exceeded.
const OverLimitMarker = "over WIP limit"

// Render draws one column per status in board order. width is the total
// terminal width; columns never get narrower than minColumnWidth.
func Render(project models.Project, tasks []models.Task, width int) string {
	columns := Columns(tasks)

	colWidth := width/len(columns) - 2
	if colWidth < minColumnWidth {
		colWidth = minColumnWidth
	}

	rendered := make([]string, 0, len(columns))
	for _, col := range columns {
		rendered = append(rendered, renderColumn(project, col, colWidth))
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(project.Color)).
		Render(project.Name)
	if project.Description != "" {
		header += " " + assigneeStyle.Render(project.Description)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, rendered...),
	)
}

// Column groups the tasks sharing a status.
type Column struct {
	Status models.Status
	Tasks  []models.Task
}

// Columns buckets tasks by status in board order. Tasks carrying an
// unknown status are left out.
func Columns(tasks []models.Task) []Column {
	statuses := models.ValidStatuses()
	columns := make([]Column, len(statuses))
	index := make(map[models.Status]int, len(statuses))
	for i, s := range statuses {
		columns[i] = Column{Status: s}
		index[s] = i
	}
	for _, t := range tasks {
		if i, ok := index[t.Status]; ok {
			columns[i].Tasks = append(columns[i].Tasks, t)
		}
	}
	return columns
}

func renderColumn(project models.Project, col Column, width int) string {
	style := columnStyle
	title := fmt.Sprintf("%s (%d)", col.Status.Title(), len(col.Tasks))
	var lines []string

	if col.Status == models.StatusOngoing && project.WIPLimit > 0 {
		title = fmt.Sprintf("%s (%d/%d)", col.Status.Title(), len(col.Tasks), project.WIPLimit)
		if len(col.Tasks) > project.WIPLimit {
			style = overLimitColumnStyle
			lines = append(lines, columnHeaderStyle.Render(title), overLimitStyle.Render(OverLimitMarker))
		}
	}
	if lines == nil {
		lines = append(lines, columnHeaderStyle.Render(title))
	}
	lines = append(lines, strings.Repeat("─", width-2))

	if len(col.Tasks) == 0 {
		lines = append(lines, placeholderStyle.Render("empty"))
	}
	for _, t := range col.Tasks {
		line := fmt.Sprintf("#%d %s", t.ID, t.Title)
		if t.Assignee != nil {
			line += " " + assigneeStyle.Render("@"+t.Assignee.Username)
		}
		lines = append(lines, line)
	}

	return style.Width(width).Render(strings.Join(lines, "\n"))
}
