package stats

import (
	"testing"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

var now = time.Date(2026, 10, 15, 15, 0, 0, 0, time.UTC)

func at(days, hours int) *time.Time {
	t := now.AddDate(0, 0, days).Add(time.Duration(hours) * time.Hour)
	return &t
}

func fixture() []model.Task {
	return []model.Task{
		{ID: "1", Title: "Write report", Status: model.StatusCompleted, Priority: model.PriorityHigh,
			UpdatedAt: now.Add(-time.Hour), DueDate: at(2, 0), Project: "work", Tags: []string{"writing"},
			TrackedSeconds: 3600, PostponedCount: 1},
		{ID: "2", Title: "Review PR", Description: "Look at the Parser change", Status: model.StatusInProgress,
			Priority: model.PriorityMedium, UpdatedAt: now, Project: "work", Tags: []string{"code", "writing"},
			TrackedSeconds: 600, ActiveTimer: &model.ActiveTimer{StartedAt: now.Add(-5 * time.Minute), LogID: "l2"},
			TimeLogs: []model.TimeLog{{ID: "l2", Start: now.Add(-5 * time.Minute)}}},
		{ID: "3", Title: "Pay rent", Status: model.StatusTodo, Priority: model.PriorityLow,
			UpdatedAt: now.AddDate(0, 0, -3), DueDate: at(-1, 0), PostponedCount: 2},
		{ID: "4", Title: "Plan trip", Status: model.StatusCompleted, Priority: model.PriorityLow,
			UpdatedAt: now.AddDate(0, 0, -1), Project: "home", TrackedSeconds: 1200,
			ScheduledAt: at(1, 0), DurationMinutes: 60, PomodoroSessions: 2, PomodoroSeconds: 3000},
	}
}

func TestSummarize(t *testing.T) {
	got := Summarize(fixture(), now)
	want := Summary{Total: 4, Todo: 1, InProgress: 1, Completed: 2, Overdue: 1}
	if got != want {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
}

func TestAnalyze(t *testing.T) {
	a := Analyze(fixture(), now)
	if a.CompletionRate != 50 {
		t.Errorf("CompletionRate = %d, want 50", a.CompletionRate)
	}
	if a.ActiveTimers != 1 || a.Scheduled != 1 {
		t.Errorf("ActiveTimers=%d Scheduled=%d", a.ActiveTimers, a.Scheduled)
	}
	if want := int64(3600 + 600 + 300 + 1200); a.TrackedSeconds != want {
		t.Errorf("TrackedSeconds = %d, want %d", a.TrackedSeconds, want)
	}
	if a.PostponedTotal != 3 || a.PomodoroSessions != 2 || a.PomodoroSeconds != 3000 {
		t.Errorf("Unexpected accounting totals: %+v", a)
	}
	// Task 1 was due two days and one hour after its last update.
	if a.AverageLeadDays == nil {
		t.Fatal("Expected an average lead time")
	}
	if want := 49.0 / 24; *a.AverageLeadDays != want {
		t.Errorf("AverageLeadDays = %v, want %v", *a.AverageLeadDays, want)
	}
	if a.CompletedToday != 1 || a.Streak != 2 {
		t.Errorf("CompletedToday=%d Streak=%d, want 1 and 2", a.CompletedToday, a.Streak)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	a := Analyze(nil, now)
	if a.CompletionRate != 0 || a.AverageLeadDays != nil || a.Streak != 0 {
		t.Errorf("Analyze(nil) = %+v", a)
	}
}

func TestCompletionRateRounds(t *testing.T) {
	tasks := []model.Task{
		{Status: model.StatusCompleted},
		{Status: model.StatusCompleted},
		{Status: model.StatusTodo},
	}
	if got := Analyze(tasks, now).CompletionRate; got != 67 {
		t.Errorf("CompletionRate = %d, want 67", got)
	}
}

func TestByStatusAndPriority(t *testing.T) {
	status := ByStatus(fixture())
	if status[model.StatusTodo] != 1 || status[model.StatusInProgress] != 1 || status[model.StatusCompleted] != 2 {
		t.Errorf("ByStatus() = %v", status)
	}
	prio := ByPriority(nil)
	if len(prio) != 3 || prio[model.PriorityHigh] != 0 {
		t.Errorf("ByPriority(nil) = %v", prio)
	}
}

func TestTimeByProject(t *testing.T) {
	got := TimeByProject(fixture(), now, 5)
	want := []Bucket{{"work", 4500}, {"home", 1200}}
	if len(got) != len(want) {
		t.Fatalf("TimeByProject() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TimeByProject()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTimeByTagLimit(t *testing.T) {
	got := TimeByTag(fixture(), now, 1)
	if len(got) != 1 || got[0] != (Bucket{"writing", 4500}) {
		t.Errorf("TimeByTag() = %v", got)
	}
	all := TimeByTag(fixture(), now, 0)
	if len(all) != 2 || all[1] != (Bucket{"code", 900}) {
		t.Errorf("TimeByTag() without limit = %v", all)
	}
}

func TestFocusByDay(t *testing.T) {
	tasks := []model.Task{
		{ID: "a", TimeLogs: []model.TimeLog{
			{ID: "x", Start: now.AddDate(0, 0, -1), DurationSeconds: 1500},
			{ID: "y", Start: now.Add(-time.Hour), DurationSeconds: 600},
			{ID: "z", Start: now.AddDate(0, 0, -30), DurationSeconds: 9999},
		}},
		{ID: "b", ActiveTimer: &model.ActiveTimer{StartedAt: now.Add(-2 * time.Minute), LogID: "open"},
			TimeLogs: []model.TimeLog{{ID: "open", Start: now.Add(-2 * time.Minute)}}},
	}
	series := FocusByDay(tasks, now, 7)
	if len(series) != 7 {
		t.Fatalf("Expected 7 days, got %d", len(series))
	}
	if !series[6].Date.Equal(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected the series to end today, got %v", series[6].Date)
	}
	if series[6].Value != 720 || series[5].Value != 1500 {
		t.Errorf("Unexpected focus: today=%d yesterday=%d", series[6].Value, series[5].Value)
	}
	for _, d := range series[:5] {
		if d.Value != 0 {
			t.Errorf("Expected no focus on %v, got %d", d.Date, d.Value)
		}
	}
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name   string
		values []int64
		want   int
	}{
		{"empty", nil, 0},
		{"nothing today", []int64{1, 1, 0}, 0},
		{"broken", []int64{1, 0, 2, 1}, 2},
		{"full", []int64{1, 1, 1}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := make([]Day, len(tt.values))
			for i, v := range tt.values {
				series[i].Value = v
			}
			if got := Streak(series); got != tt.want {
				t.Errorf("Streak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCompletedByDayUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	local := time.Date(2026, 10, 16, 1, 0, 0, 0, loc) // 15:00 UTC on the 15th
	tasks := []model.Task{{Status: model.StatusCompleted, UpdatedAt: now}}
	series := CompletedByDay(tasks, local, 2)
	if series[1].Value != 1 {
		t.Errorf("Expected the completion on the local day, got %+v", series)
	}
}
