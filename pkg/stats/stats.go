// Package stats derives dashboard figures from a task snapshot. Every
// function is pure: it takes the tasks and the current time and never
// mutates either.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

type Summary struct {
	Total      int
	Todo       int
	InProgress int
	Completed  int
	Overdue    int
}

func Summarize(tasks []model.Task, now time.Time) Summary {
	s := Summary{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case model.StatusTodo:
			s.Todo++
		case model.StatusInProgress:
			s.InProgress++
		case model.StatusCompleted:
			s.Completed++
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
	}
	return s
}

type Analytics struct {
	CompletionRate   int // percent, rounded
	ActiveTimers     int
	Scheduled        int
	TrackedSeconds   int64
	PostponedTotal   int
	PomodoroSessions int
	PomodoroSeconds  int64
	AverageLeadDays  *float64 // nil when no completed task has a due date
	CompletedToday   int
	Streak           int
}

// Analyze computes the headline figures of the analytics view.
func Analyze(tasks []model.Task, now time.Time) Analytics {
	a := Analytics{}
	completed := 0
	var leadTotal time.Duration
	leadCount := 0
	for _, t := range tasks {
		if t.Status == model.StatusCompleted {
			completed++
			if t.DueDate != nil {
				leadTotal += t.DueDate.Sub(t.UpdatedAt)
				leadCount++
			}
		}
		if t.ActiveTimer != nil {
			a.ActiveTimers++
		}
		if t.IsScheduled() {
			a.Scheduled++
		}
		a.TrackedSeconds += t.TrackedSecondsAt(now)
		a.PostponedTotal += t.PostponedCount
		a.PomodoroSessions += t.PomodoroSessions
		a.PomodoroSeconds += t.PomodoroSeconds
	}
	if len(tasks) > 0 {
		a.CompletionRate = int(math.Round(float64(completed) / float64(len(tasks)) * 100))
	}
	if leadCount > 0 {
		lead := leadTotal.Hours() / 24 / float64(leadCount)
		a.AverageLeadDays = &lead
	}
	a.CompletedToday = CompletedToday(tasks, now)
	a.Streak = Streak(CompletedByDay(tasks, now, 7))
	return a
}

func ByStatus(tasks []model.Task) map[model.Status]int {
	out := map[model.Status]int{
		model.StatusTodo:       0,
		model.StatusInProgress: 0,
		model.StatusCompleted:  0,
	}
	for _, t := range tasks {
		out[t.Status]++
	}
	return out
}

func ByPriority(tasks []model.Task) map[model.Priority]int {
	out := map[model.Priority]int{
		model.PriorityLow:    0,
		model.PriorityMedium: 0,
		model.PriorityHigh:   0,
	}
	for _, t := range tasks {
		out[t.Priority]++
	}
	return out
}

// Bucket is a named amount of tracked time.
type Bucket struct {
	Name    string
	Seconds int64
}

// TimeByProject sums tracked time per project, largest first. Tasks without
// a project are left out. limit <= 0 keeps every project.
func TimeByProject(tasks []model.Task, now time.Time, limit int) []Bucket {
	sums := make(map[string]int64)
	for _, t := range tasks {
		if t.Project == "" {
			continue
		}
		sums[t.Project] += t.TrackedSecondsAt(now)
	}
	return rank(sums, limit)
}

// TimeByTag credits the full tracked time of a task to each of its tags.
func TimeByTag(tasks []model.Task, now time.Time, limit int) []Bucket {
	sums := make(map[string]int64)
	for _, t := range tasks {
		for _, tag := range t.Tags {
			sums[tag] += t.TrackedSecondsAt(now)
		}
	}
	return rank(sums, limit)
}

func rank(sums map[string]int64, limit int) []Bucket {
	out := make([]Bucket, 0, len(sums))
	for name, secs := range sums {
		out = append(out, Bucket{Name: name, Seconds: secs})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seconds != out[j].Seconds {
			return out[i].Seconds > out[j].Seconds
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Day is one calendar day in the location of now.
type Day struct {
	Date  time.Time // midnight
	Value int64
}

// days returns the last n midnights ending today, oldest first.
func days(now time.Time, n int) []Day {
	if n <= 0 {
		return nil
	}
	today := midnight(now)
	out := make([]Day, n)
	for i := range out {
		out[i].Date = today.AddDate(0, 0, i-(n-1))
	}
	return out
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dayIndex(series []Day, t time.Time, loc *time.Location) int {
	day := midnight(t.In(loc))
	for i := range series {
		if series[i].Date.Equal(day) {
			return i
		}
	}
	return -1
}

// FocusByDay sums tracked seconds per day over the last n days, attributing
// each time log to the day it started. The open log counts its elapsed time.
func FocusByDay(tasks []model.Task, now time.Time, n int) []Day {
	series := days(now, n)
	for _, t := range tasks {
		open := t.OpenLog()
		for i, l := range t.TimeLogs {
			idx := dayIndex(series, l.Start, now.Location())
			if idx < 0 {
				continue
			}
			secs := l.DurationSeconds
			if i == open {
				secs += model.ElapsedSeconds(t.ActiveTimer.StartedAt, now)
			}
			series[idx].Value += secs
		}
	}
	return series
}

// CompletedByDay counts completed tasks per day of their last update over
// the last n days.
func CompletedByDay(tasks []model.Task, now time.Time, n int) []Day {
	series := days(now, n)
	for _, t := range tasks {
		if t.Status != model.StatusCompleted {
			continue
		}
		if idx := dayIndex(series, t.UpdatedAt, now.Location()); idx >= 0 {
			series[idx].Value++
		}
	}
	return series
}

// Streak counts the consecutive days with at least one completion, ending
// with the last day of series.
func Streak(series []Day) int {
	streak := 0
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].Value == 0 {
			break
		}
		streak++
	}
	return streak
}

func CompletedToday(tasks []model.Task, now time.Time) int {
	return int(CompletedByDay(tasks, now, 1)[0].Value)
}
