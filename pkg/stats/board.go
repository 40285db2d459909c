package stats

import "github.com/harrisonrobin/taskboard/pkg/model"

// Column is one lane of the kanban board.
type Column struct {
	Key   string
	Title string
	Tasks []model.Task
}

func ColumnsByStatus(tasks []model.Task) []Column {
	cols := []Column{
		{Key: string(model.StatusTodo), Title: "To do"},
		{Key: string(model.StatusInProgress), Title: "In progress"},
		{Key: string(model.StatusCompleted), Title: "Done"},
	}
	return fill(cols, tasks, func(t model.Task) string { return string(t.Status) })
}

func ColumnsByPriority(tasks []model.Task) []Column {
	cols := []Column{
		{Key: string(model.PriorityHigh), Title: "High"},
		{Key: string(model.PriorityMedium), Title: "Medium"},
		{Key: string(model.PriorityLow), Title: "Low"},
	}
	return fill(cols, tasks, func(t model.Task) string { return string(t.Priority) })
}

func fill(cols []Column, tasks []model.Task, key func(model.Task) string) []Column {
	pos := make(map[string]int, len(cols))
	for i := range cols {
		pos[cols[i].Key] = i
		cols[i].Tasks = []model.Task{}
	}
	for _, t := range tasks {
		if i, ok := pos[key(t)]; ok {
			cols[i].Tasks = append(cols[i].Tasks, t)
		}
	}
	return cols
}
