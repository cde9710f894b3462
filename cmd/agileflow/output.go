package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"agileflow/internal/models"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func taskRows(list []models.Task) [][]string {
	rows := make([][]string, 0, len(list))
	for _, t := range list {
		project, assignee := "-", "-"
		if t.Project != nil {
			project = t.Project.Name
		} else if t.ProjectID != nil {
			project = "#" + strconv.FormatInt(*t.ProjectID, 10)
		}
		if t.Assignee != nil {
			assignee = t.Assignee.Username
		} else if t.AssigneeID != nil {
			assignee = "#" + strconv.FormatInt(*t.AssigneeID, 10)
		}
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
		}
		rows = append(rows, []string{
			strconv.FormatInt(t.ID, 10),
			t.Title,
			string(t.Status),
			project,
			assignee,
			due,
		})
	}
	return rows
}

var taskHeaders = []string{"ID", "TITLE", "STATUS", "PROJECT", "ASSIGNEE", "DUE"}

func describeTask(w io.Writer, t *models.Task) {
	fmt.Fprintf(w, "id:          %d\n", t.ID)
	fmt.Fprintf(w, "title:       %s\n", t.Title)
	fmt.Fprintf(w, "status:      %s (%s)\n", t.Status, t.Status.Title())
	if t.Description != nil {
		fmt.Fprintf(w, "description: %s\n", *t.Description)
	}
	if t.DueDate != nil {
		fmt.Fprintf(w, "due:         %s\n", t.DueDate.Format("2006-01-02"))
	}
	if t.Project != nil {
		fmt.Fprintf(w, "project:     %s (#%d)\n", t.Project.Name, t.Project.ID)
	}
	if t.Assignee != nil {
		fmt.Fprintf(w, "assignee:    %s (#%d)\n", t.Assignee.Username, t.Assignee.ID)
	}
}
