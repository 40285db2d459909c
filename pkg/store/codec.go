package store

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/taskboard/pkg/model"
)

// Wire records. Keys match what the web client has always written.
type record struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description,omitempty"`
	Status           string          `json:"status"`
	Priority         string          `json:"priority"`
	DueDate          *string         `json:"dueDate,omitempty"`
	CreatedAt        string          `json:"createdAt"`
	UpdatedAt        string          `json:"updatedAt"`
	UserID           string          `json:"userId,omitempty"`
	Tags             []string        `json:"tags"`
	Project          string          `json:"project,omitempty"`
	TrackedSeconds   int64           `json:"trackedSeconds"`
	TimeLogs         []logRecord     `json:"timeLogs"`
	ActiveTimer      *timerRecord    `json:"activeTimer,omitempty"`
	ScheduledAt      *string         `json:"scheduledAt,omitempty"`
	DurationMinutes  int             `json:"durationMinutes,omitempty"`
	PomodoroSessions int             `json:"pomodoroSessions"`
	PomodoroSeconds  int64           `json:"pomodoroSeconds"`
	PostponedCount   int             `json:"postponedCount"`
	Subtasks         []subtaskRecord `json:"subtasks"`
	Dependencies     []string        `json:"dependencies"`
	DifficultyPoints *int            `json:"difficultyPoints,omitempty"`
	EstimatedHours   *float64        `json:"estimatedHours,omitempty"`
}

type logRecord struct {
	ID              string  `json:"id"`
	Start           string  `json:"start"`
	End             *string `json:"end,omitempty"`
	DurationSeconds int64   `json:"durationSeconds"`
}

type timerRecord struct {
	StartedAt string `json:"startedAt"`
	LogID     string `json:"logId"`
}

type subtaskRecord struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Encode serializes tasks as a JSON array with ISO-8601 timestamps.
func Encode(tasks []model.Task) ([]byte, error) {
	records := make([]record, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, toRecord(t))
	}
	return json.Marshal(records)
}

func toRecord(t model.Task) record {
	r := record{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		Status:           string(t.Status),
		Priority:         string(t.Priority),
		DueDate:          formatOptional(t.DueDate),
		CreatedAt:        formatTime(t.CreatedAt),
		UpdatedAt:        formatTime(t.UpdatedAt),
		UserID:           t.UserID,
		Tags:             append([]string{}, t.Tags...),
		Project:          t.Project,
		TrackedSeconds:   t.TrackedSeconds,
		TimeLogs:         make([]logRecord, 0, len(t.TimeLogs)),
		ScheduledAt:      formatOptional(t.ScheduledAt),
		DurationMinutes:  t.DurationMinutes,
		PomodoroSessions: t.PomodoroSessions,
		PomodoroSeconds:  t.PomodoroSeconds,
		PostponedCount:   t.PostponedCount,
		Subtasks:         make([]subtaskRecord, 0, len(t.Subtasks)),
		Dependencies:     append([]string{}, t.Dependencies...),
		DifficultyPoints: t.DifficultyPoints,
		EstimatedHours:   t.EstimatedHours,
	}
	for _, l := range t.TimeLogs {
		r.TimeLogs = append(r.TimeLogs, logRecord{
			ID:              l.ID,
			Start:           formatTime(l.Start),
			End:             formatOptional(l.End),
			DurationSeconds: l.DurationSeconds,
		})
	}
	if t.ActiveTimer != nil {
		r.ActiveTimer = &timerRecord{
			StartedAt: formatTime(t.ActiveTimer.StartedAt),
			LogID:     t.ActiveTimer.LogID,
		}
	}
	for _, st := range t.Subtasks {
		r.Subtasks = append(r.Subtasks, subtaskRecord(st))
	}
	return r
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// Decode rehydrates a persisted task list. It never fails: anything it cannot
// make sense of is replaced by a safe default so a schema drift never locks a
// user out of their tasks.
func Decode(data []byte) []model.Task {
	return decode(data, uuid.NewString)
}

type fields map[string]json.RawMessage

func decode(data []byte, newID func() string) []model.Task {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return []model.Task{}
	}
	tasks := make([]model.Task, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, item := range raw {
		var f fields
		if err := json.Unmarshal(item, &f); err != nil || f == nil {
			continue
		}
		t := decodeTask(f, newID)
		if seen[t.ID] {
			t.ID = newID()
		}
		seen[t.ID] = true
		tasks = append(tasks, t)
	}
	return tasks
}

func decodeTask(f fields, newID func() string) model.Task {
	t := model.Task{
		ID:               f.str("id"),
		Title:            f.str("title"),
		Description:      f.str("description"),
		Status:           model.Status(f.str("status")),
		Priority:         model.Priority(f.str("priority")),
		DueDate:          f.timestamp("dueDate"),
		UserID:           f.str("userId"),
		Tags:             f.list("tags"),
		Project:          f.str("project"),
		TrackedSeconds:   f.counter("trackedSeconds"),
		ScheduledAt:      f.timestamp("scheduledAt"),
		DurationMinutes:  int(f.counter("durationMinutes")),
		PomodoroSessions: int(f.counter("pomodoroSessions")),
		PomodoroSeconds:  f.counter("pomodoroSeconds"),
		PostponedCount:   int(f.counter("postponedCount")),
		Dependencies:     f.list("dependencies"),
		EstimatedHours:   f.float("estimatedHours"),
	}
	if t.ID == "" {
		t.ID = newID()
	}
	if !t.Status.Valid() {
		t.Status = model.StatusTodo
	}
	if !t.Priority.Valid() {
		t.Priority = model.PriorityMedium
	}
	if v := f.float("difficultyPoints"); v != nil {
		p := int(*v)
		t.DifficultyPoints = &p
	}

	created, updated := f.timestamp("createdAt"), f.timestamp("updatedAt")
	switch {
	case created != nil && updated != nil:
		t.CreatedAt, t.UpdatedAt = *created, *updated
	case created != nil:
		t.CreatedAt, t.UpdatedAt = *created, *created
	case updated != nil:
		t.CreatedAt, t.UpdatedAt = *updated, *updated
	}

	t.Subtasks = decodeSubtasks(f["subtasks"], newID)
	t.TimeLogs = decodeLogs(f["timeLogs"], newID)
	t.ActiveTimer = decodeTimer(f["activeTimer"])
	repairTimer(&t, newID)
	return t
}

func decodeSubtasks(raw json.RawMessage, newID func() string) []model.Subtask {
	out := []model.Subtask{}
	var items []fields
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		st := model.Subtask{ID: item.str("id"), Title: item.str("title"), Completed: item.bool("completed")}
		if st.ID == "" || seen[st.ID] {
			st.ID = newID()
		}
		seen[st.ID] = true
		out = append(out, st)
	}
	return out
}

func decodeLogs(raw json.RawMessage, newID func() string) []model.TimeLog {
	out := []model.TimeLog{}
	var items []fields
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		start := item.timestamp("start")
		if start == nil {
			continue
		}
		l := model.TimeLog{
			ID:              item.str("id"),
			Start:           *start,
			End:             item.timestamp("end"),
			DurationSeconds: item.counter("durationSeconds"),
		}
		if l.ID == "" {
			l.ID = newID()
		}
		out = append(out, l)
	}
	return out
}

func decodeTimer(raw json.RawMessage) *model.ActiveTimer {
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil || f == nil {
		return nil
	}
	startedAt := f.timestamp("startedAt")
	if startedAt == nil {
		return nil
	}
	return &model.ActiveTimer{StartedAt: *startedAt, LogID: f.str("logId")}
}

// repairTimer restores the pairing between the active timer and the single open log.
func repairTimer(t *model.Task, newID func() string) {
	if t.ActiveTimer != nil {
		if t.ActiveTimer.LogID == "" {
			t.ActiveTimer.LogID = newID()
		}
		if i := t.OpenLog(); i < 0 {
			t.TimeLogs = append(t.TimeLogs, model.TimeLog{ID: t.ActiveTimer.LogID, Start: t.ActiveTimer.StartedAt})
		} else if t.TimeLogs[i].End != nil {
			// The interval was already closed and accounted; the timer is stale.
			t.ActiveTimer = nil
		}
	}
	for i := range t.TimeLogs {
		l := &t.TimeLogs[i]
		if l.End != nil || (t.ActiveTimer != nil && l.ID == t.ActiveTimer.LogID) {
			continue
		}
		end := l.Start.Add(time.Duration(l.DurationSeconds) * time.Second)
		l.End = &end
	}
}

func (f fields) str(key string) string {
	var s string
	if err := json.Unmarshal(f[key], &s); err != nil {
		return ""
	}
	return s
}

func (f fields) bool(key string) bool {
	var b bool
	if err := json.Unmarshal(f[key], &b); err != nil {
		return false
	}
	return b
}

func (f fields) float(key string) *float64 {
	raw, ok := f[key]
	if !ok || string(raw) == "null" {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return nil
		}
		if v, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return nil
		}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// counter reads a non-negative whole number, defaulting to 0.
func (f fields) counter(key string) int64 {
	var n json.Number
	if err := json.Unmarshal(f[key], &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return max(i, 0)
		}
	}
	// Legacy documents hold fractions or numeric strings.
	v := f.float(key)
	if v == nil || *v < 0 {
		return 0
	}
	return int64(*v)
}

func (f fields) list(key string) []string {
	out := []string{}
	var items []json.RawMessage
	if err := json.Unmarshal(f[key], &items); err != nil {
		return out
	}
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// timestamp accepts ISO-8601 strings and epoch milliseconds.
func (f fields) timestamp(key string) *time.Time {
	raw, ok := f[key]
	if !ok {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var ms float64
		if json.Unmarshal(raw, &ms) != nil {
			return nil
		}
		t := time.UnixMilli(int64(ms)).UTC()
		return &t
	}
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
