package stats

import (
	"sort"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

// Agenda returns the tasks whose scheduled block starts in [from, to),
// earliest first.
func Agenda(tasks []model.Task, from, to time.Time) []model.Task {
	out := []model.Task{}
	for _, t := range tasks {
		if !t.IsScheduled() {
			continue
		}
		if at := *t.ScheduledAt; !at.Before(from) && at.Before(to) {
			out = append(out, t)
		}
	}
	sortByStart(out)
	return out
}

// DueBetween returns the tasks due in [from, to) that are not already on
// the agenda for that range.
func DueBetween(tasks []model.Task, from, to time.Time) []model.Task {
	out := []model.Task{}
	for _, t := range tasks {
		if t.DueDate == nil || t.DueDate.Before(from) || !t.DueDate.Before(to) {
			continue
		}
		if t.IsScheduled() && !t.ScheduledAt.Before(from) && t.ScheduledAt.Before(to) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func sortByStart(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].ScheduledAt.Before(*tasks[j].ScheduledAt)
	})
}

// DayView returns the agenda and the loose due tasks of the day containing t.
func DayView(tasks []model.Task, t time.Time) (scheduled, due []model.Task) {
	from := midnight(t)
	to := from.AddDate(0, 0, 1)
	return Agenda(tasks, from, to), DueBetween(tasks, from, to)
}
