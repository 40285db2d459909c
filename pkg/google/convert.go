package google

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/util"
	"google.golang.org/api/calendar/v3"
)

// PropertyKey is the private extended property linking an event to its task.
const PropertyKey = "taskboard_id"

// BlockToEvent renders the scheduled block of task as a calendar event.
func BlockToEvent(task model.Task, colorID string, now time.Time) (*calendar.Event, error) {
	if !task.IsScheduled() {
		return nil, fmt.Errorf("task %s has no scheduled block", task.ID)
	}
	start := *task.ScheduledAt
	end := task.BlockEnd()

	summary := task.Title
	if prefix := summaryPrefix(task, end, now); prefix != "" {
		summary = prefix + " " + task.Title
	}

	return &calendar.Event{
		Summary:     summary,
		ColorId:     colorID,
		Start:       &calendar.EventDateTime{DateTime: start.UTC().Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.UTC().Format(time.RFC3339)},
		Description: describe(task, now),
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{PropertyKey: task.ID},
		},
	}, nil
}

func summaryPrefix(task model.Task, end, now time.Time) string {
	switch {
	case task.Status == model.StatusCompleted:
		return "✓"
	case task.ActiveTimer != nil:
		return "‣"
	case task.IsOverdue(now) || end.Before(now):
		return "!"
	}
	return ""
}

func describe(task model.Task, now time.Time) string {
	var b strings.Builder

	if len(task.Tags) > 0 {
		for _, tag := range task.Tags {
			fmt.Fprintf(&b, "#%s ", tag)
		}
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "Status: %s\n", task.Status)
	fmt.Fprintf(&b, "Priority: %s\n", task.Priority)
	if task.Project != "" {
		fmt.Fprintf(&b, "Project: %s\n", task.Project)
	}
	if task.DueDate != nil {
		fmt.Fprintf(&b, "Due: %s\n", task.DueDate.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "ID: %s\n", task.ID)

	b.WriteString("\nAccounting:\n")
	if task.EstimatedHours != nil && *task.EstimatedHours > 0 {
		fmt.Fprintf(&b, "• estimated: %s\n", time.Duration(*task.EstimatedHours*float64(time.Hour)).Round(time.Minute))
	}
	if len(task.TimeLogs) > 0 && task.ScheduledAt != nil {
		diff := task.TimeLogs[0].Start.Sub(*task.ScheduledAt)
		if diff > time.Minute {
			fmt.Fprintf(&b, "• started late by: %s\n", diff.Round(time.Minute))
		} else if diff < -time.Minute {
			fmt.Fprintf(&b, "• started early by: %s\n", (-diff).Round(time.Minute))
		}
	}
	if tracked := task.TrackedSecondsAt(now); tracked > 0 {
		fmt.Fprintf(&b, "• tracked: %s\n", util.FormatSeconds(tracked))
	}
	if task.PomodoroSessions > 0 {
		fmt.Fprintf(&b, "• pomodoros: %d\n", task.PomodoroSessions)
	}
	if task.PostponedCount > 0 {
		fmt.Fprintf(&b, "• postponed: %d\n", task.PostponedCount)
	}

	if len(task.Subtasks) > 0 {
		fmt.Fprintf(&b, "\nSubtasks (%d/%d):\n", task.CompletedSubtasks(), len(task.Subtasks))
		for _, st := range task.Subtasks {
			mark := "☐"
			if st.Completed {
				mark = "☑"
			}
			fmt.Fprintf(&b, "%s %s\n", mark, st.Title)
		}
	}

	if task.Description != "" {
		b.WriteString("\nNotes:\n")
		b.WriteString(task.Description)
		b.WriteString("\n")
	}
	return b.String()
}

// EventNeedsUpdate returns a patch holding the fields of target that differ
// from existing, or nil when the event is current.
func EventNeedsUpdate(existing, target *calendar.Event) (*calendar.Event, error) {
	patch := &calendar.Event{}
	needsUpdate := false

	if existing.Summary != target.Summary {
		patch.Summary = target.Summary
		needsUpdate = true
	}
	if existing.Description != target.Description {
		patch.Description = target.Description
		needsUpdate = true
	}
	if existing.ColorId != target.ColorId {
		patch.ColorId = target.ColorId
		needsUpdate = true
	}

	sameStart, err := sameInstant(existing.Start, target.Start)
	if err != nil {
		return nil, err
	}
	sameEnd, err := sameInstant(existing.End, target.End)
	if err != nil {
		return nil, err
	}
	if !sameStart || !sameEnd {
		patch.Start = target.Start
		patch.End = target.End
		needsUpdate = true
	}

	if needsUpdate {
		return patch, nil
	}
	return nil, nil
}

func sameInstant(a, b *calendar.EventDateTime) (bool, error) {
	if a == nil || b == nil {
		return a == b, nil
	}
	tb, err := time.Parse(time.RFC3339, b.DateTime)
	if err != nil {
		return false, err
	}
	// An all-day or hand-edited event is simply rewritten.
	ta, err := time.Parse(time.RFC3339, a.DateTime)
	if err != nil {
		return false, nil
	}
	return ta.Equal(tb), nil
}
