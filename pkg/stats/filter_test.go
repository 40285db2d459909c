package stats

import (
	"testing"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestParseFilter(t *testing.T) {
	for in, want := range map[string]Filter{"": FilterAll, "Active": FilterActive, " overdue ": FilterOverdue} {
		got, err := ParseFilter(in)
		if err != nil || got != want {
			t.Errorf("ParseFilter(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFilter("someday"); err == nil {
		t.Error("Expected an error for an unknown filter")
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		query  string
		filter Filter
		want   []string
	}{
		{"", FilterAll, []string{"1", "2", "3", "4"}},
		{"", FilterActive, []string{"2", "3"}},
		{"", FilterCompleted, []string{"1", "4"}},
		{"", FilterOverdue, []string{"3"}},
		{"parser", FilterAll, []string{"2"}},
		{"RE", FilterActive, []string{"2", "3"}},
		{"nothing", FilterAll, []string{}},
	}
	for _, tt := range tests {
		got := ids(Apply(fixture(), tt.query, tt.filter, now))
		if !equal(got, tt.want) {
			t.Errorf("Apply(%q, %s) = %v, want %v", tt.query, tt.filter, got, tt.want)
		}
	}
}

func TestColumns(t *testing.T) {
	cols := ColumnsByStatus(fixture())
	if len(cols) != 3 {
		t.Fatalf("Expected 3 columns, got %d", len(cols))
	}
	if !equal(ids(cols[2].Tasks), []string{"1", "4"}) || !equal(ids(cols[0].Tasks), []string{"3"}) {
		t.Errorf("Unexpected status columns: %+v", cols)
	}
	cols = ColumnsByPriority(fixture())
	if cols[0].Key != "high" || !equal(ids(cols[2].Tasks), []string{"3", "4"}) {
		t.Errorf("Unexpected priority columns: %+v", cols)
	}
	if cols := ColumnsByStatus(nil); cols[1].Tasks == nil {
		t.Error("Expected empty columns to hold an empty slice")
	}
}

func TestAgenda(t *testing.T) {
	tasks := []model.Task{
		{ID: "late", ScheduledAt: at(0, 3)},
		{ID: "early", ScheduledAt: at(0, 1)},
		{ID: "tomorrow", ScheduledAt: at(1, 0)},
		{ID: "loose"},
	}
	got := ids(Agenda(tasks, now, now.Add(24*time.Hour)))
	if !equal(got, []string{"early", "late"}) {
		t.Errorf("Agenda() = %v", got)
	}
}

func TestDayView(t *testing.T) {
	tasks := []model.Task{
		{ID: "block", ScheduledAt: at(0, -5), DueDate: at(0, 1)},
		{ID: "due", DueDate: at(0, 2)},
		{ID: "due-elsewhere", DueDate: at(0, 3), ScheduledAt: at(-2, 0)},
		{ID: "yesterday", DueDate: at(-1, 0)},
	}
	scheduled, due := DayView(tasks, now)
	if !equal(ids(scheduled), []string{"block"}) {
		t.Errorf("scheduled = %v", ids(scheduled))
	}
	if !equal(ids(due), []string{"due", "due-elsewhere"}) {
		t.Errorf("due = %v", ids(due))
	}
}
