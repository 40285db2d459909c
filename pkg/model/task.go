package model

import "time"

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// DefaultBlockMinutes is used for a scheduled block that carries no duration.
const DefaultBlockMinutes = 30

type Subtask struct {
	ID        string
	Title     string
	Completed bool
}

// TimeLog is one tracked interval. End is nil while the interval is open.
type TimeLog struct {
	ID              string
	Start           time.Time
	End             *time.Time
	DurationSeconds int64
}

// ActiveTimer points at the open TimeLog of a running timer.
type ActiveTimer struct {
	StartedAt time.Time
	LogID     string
}

// Task represents a task owned by one identity.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      string
	Tags        []string
	Project     string
	// Scheduling
	ScheduledAt     *time.Time
	DurationMinutes int
	// Accounting
	TrackedSeconds   int64
	TimeLogs         []TimeLog
	ActiveTimer      *ActiveTimer
	PomodoroSessions int
	PomodoroSeconds  int64
	PostponedCount   int
	// Planning
	Subtasks         []Subtask
	Dependencies     []string
	DifficultyPoints *int
	EstimatedHours   *float64
}

// TaskInput is what a caller supplies to create a task. Zero values mean "use the default".
type TaskInput struct {
	Title            string
	Description      string
	Status           Status
	Priority         Priority
	DueDate          *time.Time
	UserID           string
	Tags             []string
	Project          string
	ScheduledAt      *time.Time
	DurationMinutes  int
	Subtasks         []Subtask
	Dependencies     []string
	DifficultyPoints *int
	EstimatedHours   *float64
}

// TaskPatch carries a partial update. Nil fields are left untouched.
type TaskPatch struct {
	Title            *string
	Description      *string
	Status           *Status
	Priority         *Priority
	DueDate          *time.Time
	ClearDueDate     bool
	Tags             *[]string
	Project          *string
	Subtasks         *[]Subtask
	Dependencies     *[]string
	DifficultyPoints *int
	EstimatedHours   *float64
}

// Identity is what the identity provider tells us about the current user.
type Identity struct {
	SignedIn bool
	UserID   string
}

// Anonymous is the identity used when nobody is signed in.
var Anonymous = Identity{}

// TrackedSecondsAt returns the tracked time including the running timer, if any.
func (t Task) TrackedSecondsAt(now time.Time) int64 {
	if t.ActiveTimer == nil {
		return t.TrackedSeconds
	}
	return t.TrackedSeconds + ElapsedSeconds(t.ActiveTimer.StartedAt, now)
}

// ElapsedSeconds is the whole number of seconds from start to now, never negative.
func ElapsedSeconds(start, now time.Time) int64 {
	elapsed := int64(now.Sub(start) / time.Second)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.Status != StatusCompleted && t.DueDate.Before(now)
}

func (t Task) IsScheduled() bool {
	return t.ScheduledAt != nil
}

// BlockEnd returns the end of the scheduled block, or the zero time when unscheduled.
func (t Task) BlockEnd() time.Time {
	if t.ScheduledAt == nil {
		return time.Time{}
	}
	minutes := t.DurationMinutes
	if minutes <= 0 {
		minutes = DefaultBlockMinutes
	}
	return t.ScheduledAt.Add(time.Duration(minutes) * time.Minute)
}

func (t Task) CompletedSubtasks() int {
	n := 0
	for _, st := range t.Subtasks {
		if st.Completed {
			n++
		}
	}
	return n
}

// OpenLog returns the index of the log referenced by the active timer, or -1.
func (t Task) OpenLog() int {
	if t.ActiveTimer == nil {
		return -1
	}
	for i, l := range t.TimeLogs {
		if l.ID == t.ActiveTimer.LogID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so snapshots never share backing arrays with the store.
func (t Task) Clone() Task {
	c := t
	c.DueDate = cloneTime(t.DueDate)
	c.ScheduledAt = cloneTime(t.ScheduledAt)
	c.Tags = append(make([]string, 0, len(t.Tags)), t.Tags...)
	c.Subtasks = append(make([]Subtask, 0, len(t.Subtasks)), t.Subtasks...)
	c.Dependencies = append(make([]string, 0, len(t.Dependencies)), t.Dependencies...)
	c.TimeLogs = make([]TimeLog, len(t.TimeLogs))
	for i, l := range t.TimeLogs {
		l.End = cloneTime(l.End)
		c.TimeLogs[i] = l
	}
	if t.ActiveTimer != nil {
		at := *t.ActiveTimer
		c.ActiveTimer = &at
	}
	if t.DifficultyPoints != nil {
		v := *t.DifficultyPoints
		c.DifficultyPoints = &v
	}
	if t.EstimatedHours != nil {
		v := *t.EstimatedHours
		c.EstimatedHours = &v
	}
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// NextStatus advances a status along todo -> in-progress -> completed -> todo.
func NextStatus(s Status) Status {
	switch s {
	case StatusTodo:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return StatusTodo
	}
}

// ResolveDependencies returns the dependency tasks of t in declared order.
// Ids that no longer match a task are skipped.
func ResolveDependencies(t Task, all []Task) []Task {
	if len(t.Dependencies) == 0 {
		return nil
	}
	byID := make(map[string]Task, len(all))
	for _, other := range all {
		byID[other.ID] = other
	}
	var deps []Task
	for _, id := range t.Dependencies {
		if dep, ok := byID[id]; ok && id != t.ID {
			deps = append(deps, dep)
		}
	}
	return deps
}

// IsBlocked reports whether any resolvable dependency of t is not completed yet.
func IsBlocked(t Task, all []Task) bool {
	for _, dep := range ResolveDependencies(t, all) {
		if dep.Status != StatusCompleted {
			return true
		}
	}
	return false
}
