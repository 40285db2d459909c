package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
	FilterOverdue   Filter = "overdue"
)

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterActive, FilterCompleted, FilterOverdue:
		return f, nil
	}
	return "", fmt.Errorf("unknown filter %q (want all, active, completed or overdue)", s)
}

func (f Filter) Match(t model.Task, now time.Time) bool {
	switch f {
	case FilterActive:
		return t.Status != model.StatusCompleted
	case FilterCompleted:
		return t.Status == model.StatusCompleted
	case FilterOverdue:
		return t.IsOverdue(now)
	}
	return true
}

// Apply keeps the tasks matching filter whose title or description contains
// query, ignoring case. Order is preserved.
func Apply(tasks []model.Task, query string, filter Filter, now time.Time) []model.Task {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []model.Task{}
	for _, t := range tasks {
		if q != "" && !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			continue
		}
		if filter.Match(t, now) {
			out = append(out, t)
		}
	}
	return out
}
