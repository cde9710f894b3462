package board

import (
	"strings"
	"testing"

	"agileflow/internal/models"
)

func sampleProject() models.Project {
	return models.Project{ID: 1, Name: "Website", Color: "#2563eb", WIPLimit: 1}
}

func TestRenderShowsEveryColumn(t *testing.T) {
	view := Render(sampleProject(), nil, 120)

	if !strings.Contains(view, "Website") {
		t.Errorf("expected project name in header")
	}
	for _, title := range []string{"Tasks (0)", "Ready (0)", "On Going (0/1)", "On Hold (0)", "Done (0)"} {
		if !strings.Contains(view, title) {
			t.Errorf("expected column %q in view:\n%s", title, view)
		}
	}
	if strings.Contains(view, OverLimitMarker) {
		t.Errorf("did not expect the WIP marker on an empty board")
	}
}

func TestRenderColumnOrder(t *testing.T) {
	view := Render(sampleProject(), nil, 120)
	first := strings.Split(view, "\n")
	var headerLine string
	for _, line := range first {
		if strings.Contains(line, "Tasks (") {
			headerLine = line
			break
		}
	}
	prev := -1
	for _, title := range []string{"Tasks", "Ready", "On Going", "On Hold", "Done"} {
		idx := strings.Index(headerLine, title)
		if idx <= prev {
			t.Fatalf("column %q out of order in %q", title, headerLine)
		}
		prev = idx
	}
}

func TestRenderMarksWIPOverflow(t *testing.T) {
	alice := &models.User{ID: 1, Username: "alice"}
	tasks := []models.Task{
		{ID: 1, Title: "api", Status: models.StatusOngoing, Assignee: alice},
		{ID: 2, Title: "ui", Status: models.StatusOngoing},
		{ID: 3, Title: "docs", Status: models.StatusDone},
	}
	view := Render(sampleProject(), tasks, 120)

	if !strings.Contains(view, OverLimitMarker) {
		t.Errorf("expected WIP marker when ongoing exceeds the limit:\n%s", view)
	}
	if !strings.Contains(view, "On Going (2/1)") {
		t.Errorf("expected ongoing count against limit")
	}
	if !strings.Contains(view, "#1 api") || !strings.Contains(view, "@alice") {
		t.Errorf("expected task line with assignee")
	}
}

func TestColumnsDropsUnknownStatus(t *testing.T) {
	cols := Columns([]models.Task{
		{ID: 1, Status: models.StatusReady},
		{ID: 2, Status: "blocked"},
	})
	if len(cols) != 5 {
		t.Fatalf("expected 5 columns, got %d", len(cols))
	}
	total := 0
	for _, c := range cols {
		total += len(c.Tasks)
	}
	if total != 1 || len(cols[1].Tasks) != 1 {
		t.Fatalf("unexpected bucketing %+v", cols)
	}
}
