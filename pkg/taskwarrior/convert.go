package taskwarrior

import (
	"log"
	"strings"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/util"
)

// Batch is a set of converted tasks. UUIDs[i] is the Taskwarrior uuid of
// Inputs[i]; their Dependencies still hold Taskwarrior uuids until Relink.
type Batch struct {
	Inputs []model.TaskInput
	UUIDs  []string
}

// Convert maps Taskwarrior tasks to task inputs. Deleted tasks and recurrence
// templates are skipped.
func Convert(tasks []Task) Batch {
	var b Batch
	for _, t := range tasks {
		if t.Status == DELETED || t.Status == RECURRING {
			continue
		}
		if strings.TrimSpace(t.Description) == "" {
			log.Printf("Warning: skipping task %s without description", t.UUID)
			continue
		}
		b.Inputs = append(b.Inputs, toInput(t))
		b.UUIDs = append(b.UUIDs, t.UUID)
	}
	return b
}

func toInput(t Task) model.TaskInput {
	in := model.TaskInput{
		Title:        t.Description,
		Status:       status(t),
		Priority:     priority(t.Priority),
		Tags:         append([]string{}, t.Tags...),
		Project:      t.Project,
		Dependencies: append([]string{}, t.Depends...),
	}
	if t.Due.set() {
		due := t.Due.Time
		in.DueDate = &due
	}

	est, err := util.ParseDuration(t.Est)
	if err != nil {
		log.Printf("Warning: ignoring estimate of task %s: %v", t.UUID, err)
		est = 0
	}
	if est > 0 {
		hours := est.Hours()
		in.EstimatedHours = &hours
	}

	if t.Scheduled.set() {
		at := t.Scheduled.Time
		in.ScheduledAt = &at
		in.DurationMinutes = model.DefaultBlockMinutes
		if est > 30*time.Minute {
			in.DurationMinutes = 60
		}
	}

	if len(t.Annotations) > 0 {
		var notes strings.Builder
		for _, ann := range t.Annotations {
			notes.WriteString("‣ ")
			notes.WriteString(ann.Description)
			notes.WriteString("\n")
		}
		in.Description = strings.TrimRight(notes.String(), "\n")
	}
	return in
}

func status(t Task) model.Status {
	switch t.Status {
	case COMPLETED:
		return model.StatusCompleted
	default:
		if t.Start.set() {
			return model.StatusInProgress
		}
		return model.StatusTodo
	}
}

func priority(p string) model.Priority {
	switch strings.ToUpper(p) {
	case "H":
		return model.PriorityHigh
	case "M":
		return model.PriorityMedium
	case "L":
		return model.PriorityLow
	}
	return ""
}

// Relink maps the Taskwarrior uuids in dependencies to the ids the store
// assigned. created must be the result of importing b.Inputs, in order.
// Dependencies on tasks outside the batch are dropped. The result only holds
// tasks that declared dependencies.
func (b Batch) Relink(created []model.Task) map[string][]string {
	ids := make(map[string]string, len(b.UUIDs))
	for i, uuid := range b.UUIDs {
		if i < len(created) {
			ids[uuid] = created[i].ID
		}
	}
	out := make(map[string][]string)
	for i, in := range b.Inputs {
		if i >= len(created) || len(in.Dependencies) == 0 {
			continue
		}
		deps := []string{}
		for _, uuid := range in.Dependencies {
			if id, ok := ids[uuid]; ok && id != created[i].ID {
				deps = append(deps, id)
			}
		}
		out[created[i].ID] = deps
	}
	return out
}

// WithTag keeps the tasks carrying tag.
func (b Batch) WithTag(tag string) Batch {
	var out Batch
	for i, in := range b.Inputs {
		for _, t := range in.Tags {
			if t == tag {
				out.Inputs = append(out.Inputs, in)
				out.UUIDs = append(out.UUIDs, b.UUIDs[i])
				break
			}
		}
	}
	return out
}
