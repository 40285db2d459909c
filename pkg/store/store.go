// Package store holds the authoritative task list for the current identity.
//
// Every operation is a total function over the in-memory list: an unknown id
// is reported through the boolean result and never as an error. After each
// mutation the list is mirrored to the key-value slot of the current identity
// on a best-effort basis.
package store

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/taskboard/pkg/kv"
	"github.com/harrisonrobin/taskboard/pkg/model"
)

const defaultWriteTimeout = 5 * time.Second

type Store struct {
	mu        sync.Mutex
	kv        kv.Store
	identity  model.Identity
	key       string
	tasks     []model.Task
	now       func() time.Time
	newID     func() string
	timeout   time.Duration
	listeners map[int]func([]model.Task)
	nextSub   int
}

type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithWriteTimeout bounds each mirrored write to the key-value store.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// New returns an empty store bound to the anonymous bucket. Call SwitchIdentity
// to load the tasks of an identity.
func New(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:        backend,
		identity:  model.Anonymous,
		key:       BucketKey(model.Anonymous),
		tasks:     []model.Task{},
		now:       time.Now,
		newID:     uuid.NewString,
		timeout:   defaultWriteTimeout,
		listeners: make(map[int]func([]model.Task)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a store and loads the bucket of id.
func Open(ctx context.Context, backend kv.Store, id model.Identity, opts ...Option) (*Store, error) {
	s := New(backend, opts...)
	if err := s.SwitchIdentity(ctx, id); err != nil {
		return nil, err
	}
	return s, nil
}

// SwitchIdentity reads the bucket of id and makes it the current one. The
// tasks of the previous identity are dropped, not carried over. On a read
// failure the store keeps its current identity and tasks.
func (s *Store) SwitchIdentity(ctx context.Context, id model.Identity) error {
	key := BucketKey(id)
	data, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", key, err)
	}
	tasks := []model.Task{}
	if ok {
		tasks = decode(data, s.newID)
	}

	s.mu.Lock()
	s.identity = id
	s.key = key
	s.tasks = tasks
	snapshot := s.snapshotLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snapshot)
	return nil
}

// Reload re-reads the current bucket, picking up writes made by other
// processes sharing the backend.
func (s *Store) Reload(ctx context.Context) error {
	return s.SwitchIdentity(ctx, s.Identity())
}

func (s *Store) Identity() model.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Tasks returns a snapshot of the task list. Mutating it never affects the store.
func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Get(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return model.Task{}, false
}

// Find resolves an exact id or a unique id prefix.
func (s *Store) Find(prefix string) (model.Task, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return model.Task{}, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	match := -1
	for i, t := range s.tasks {
		if t.ID == prefix {
			return t.Clone(), nil
		}
		if strings.HasPrefix(t.ID, prefix) {
			if match >= 0 {
				return model.Task{}, fmt.Errorf("%w: %s", ErrAmbiguous, prefix)
			}
			match = i
		}
	}
	if match < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, prefix)
	}
	return s.tasks[match].Clone(), nil
}

// Subscribe registers fn to receive a snapshot after every change. The
// returned function unregisters it.
func (s *Store) Subscribe(fn func([]model.Task)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Add creates a task from in and puts it at the top of the list. Title
// validation is the caller's job.
func (s *Store) Add(in model.TaskInput) model.Task {
	var created model.Task
	s.mutate(func(now time.Time) bool {
		created = s.build(in, now)
		s.tasks = append([]model.Task{created}, s.tasks...)
		return true
	})
	return created.Clone()
}

// Import adds several tasks at once, keeping their relative order at the top.
func (s *Store) Import(inputs []model.TaskInput) []model.Task {
	if len(inputs) == 0 {
		return nil
	}
	created := make([]model.Task, 0, len(inputs))
	s.mutate(func(now time.Time) bool {
		for _, in := range inputs {
			created = append(created, s.build(in, now))
		}
		s.tasks = append(append([]model.Task{}, created...), s.tasks...)
		return true
	})
	out := make([]model.Task, len(created))
	for i, t := range created {
		out[i] = t.Clone()
	}
	return out
}

func (s *Store) build(in model.TaskInput, now time.Time) model.Task {
	t := model.Task{
		ID:               s.newID(),
		Title:            in.Title,
		Description:      in.Description,
		Status:           in.Status,
		Priority:         in.Priority,
		DueDate:          cloneTime(in.DueDate),
		CreatedAt:        now,
		UpdatedAt:        now,
		UserID:           in.UserID,
		Tags:             append([]string{}, in.Tags...),
		Project:          in.Project,
		ScheduledAt:      cloneTime(in.ScheduledAt),
		DurationMinutes:  in.DurationMinutes,
		TimeLogs:         []model.TimeLog{},
		Subtasks:         s.subtasks(in.Subtasks),
		Dependencies:     append([]string{}, in.Dependencies...),
		DifficultyPoints: in.DifficultyPoints,
		EstimatedHours:   in.EstimatedHours,
	}
	if t.Status == "" {
		t.Status = model.StatusTodo
	}
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if t.UserID == "" && s.identity.SignedIn {
		t.UserID = s.identity.UserID
	}
	return t
}

// subtasks copies in, issuing ids to subtasks that have none or a duplicate.
func (s *Store) subtasks(in []model.Subtask) []model.Subtask {
	out := make([]model.Subtask, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, st := range in {
		if st.ID == "" || seen[st.ID] {
			st.ID = s.newID()
		}
		seen[st.ID] = true
		out = append(out, st)
	}
	return out
}

// Update merges patch into the task with the given id. Moving an existing due
// date later counts as a postponement.
func (s *Store) Update(id string, patch model.TaskPatch) (model.Task, bool) {
	var updated model.Task
	found := s.mutate(func(now time.Time) bool {
		i := s.indexLocked(id)
		if i < 0 {
			return false
		}
		t := &s.tasks[i]
		if patch.Title != nil {
			t.Title = *patch.Title
		}
		if patch.Description != nil {
			t.Description = *patch.Description
		}
		if patch.Status != nil {
			t.Status = *patch.Status
		}
		if patch.Priority != nil {
			t.Priority = *patch.Priority
		}
		if patch.DueDate != nil {
			if t.DueDate != nil && patch.DueDate.After(*t.DueDate) {
				t.PostponedCount++
			}
			t.DueDate = cloneTime(patch.DueDate)
		} else if patch.ClearDueDate {
			t.DueDate = nil
		}
		if patch.Tags != nil {
			t.Tags = append([]string{}, (*patch.Tags)...)
		}
		if patch.Project != nil {
			t.Project = *patch.Project
		}
		if patch.Subtasks != nil {
			t.Subtasks = s.subtasks(*patch.Subtasks)
		}
		if patch.Dependencies != nil {
			t.Dependencies = append([]string{}, (*patch.Dependencies)...)
		}
		if patch.DifficultyPoints != nil {
			v := *patch.DifficultyPoints
			t.DifficultyPoints = &v
		}
		if patch.EstimatedHours != nil {
			v := *patch.EstimatedHours
			t.EstimatedHours = &v
		}
		t.UpdatedAt = now
		updated = t.Clone()
		return true
	})
	return updated, found
}

// Remove deletes the task. Removing an unknown id is a no-op.
func (s *Store) Remove(id string) bool {
	return s.mutate(func(time.Time) bool {
		i := s.indexLocked(id)
		if i < 0 {
			return false
		}
		s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
		return true
	})
}

// ClearCompleted removes every completed task and reports how many were removed.
func (s *Store) ClearCompleted() int {
	removed := 0
	s.mutate(func(time.Time) bool {
		kept := make([]model.Task, 0, len(s.tasks))
		for _, t := range s.tasks {
			if t.Status == model.StatusCompleted {
				removed++
				continue
			}
			kept = append(kept, t)
		}
		s.tasks = kept
		return removed > 0
	})
	return removed
}

func (s *Store) ToggleStatus(id string) bool {
	return s.mutateTask(id, func(t *model.Task, _ time.Time) bool {
		t.Status = model.NextStatus(t.Status)
		return true
	})
}

// ToggleSubtask flips the completion flag of one subtask. The parent status is
// left alone.
func (s *Store) ToggleSubtask(id, subtaskID string) bool {
	found := false
	s.mutateTask(id, func(t *model.Task, _ time.Time) bool {
		for i := range t.Subtasks {
			if t.Subtasks[i].ID == subtaskID {
				t.Subtasks[i].Completed = !t.Subtasks[i].Completed
				found = true
				return true
			}
		}
		return false
	})
	return found
}

// StartTimer makes id the only task accruing time. Every other running timer
// is paused at the same instant before the new one opens. Starting a timer
// that already runs is a no-op.
func (s *Store) StartTimer(id string) bool {
	found := false
	s.mutate(func(now time.Time) bool {
		i := s.indexLocked(id)
		if i < 0 {
			return false
		}
		found = true
		if s.tasks[i].ActiveTimer != nil {
			return false
		}
		for j := range s.tasks {
			if j != i {
				pause(&s.tasks[j], now)
			}
		}
		t := &s.tasks[i]
		logID := s.newID()
		t.TimeLogs = append(t.TimeLogs, model.TimeLog{ID: logID, Start: now})
		t.ActiveTimer = &model.ActiveTimer{StartedAt: now, LogID: logID}
		t.UpdatedAt = now
		return true
	})
	return found
}

// PauseTimer closes the running interval of id, if any.
func (s *Store) PauseTimer(id string) bool {
	return s.mutateTask(id, pause)
}

// pause closes the open log of t at now and folds the elapsed time into
// TrackedSeconds. It reports whether t had a running timer.
func pause(t *model.Task, now time.Time) bool {
	if t.ActiveTimer == nil {
		return false
	}
	elapsed := model.ElapsedSeconds(t.ActiveTimer.StartedAt, now)
	if i := t.OpenLog(); i >= 0 {
		end := now
		t.TimeLogs[i].End = &end
		t.TimeLogs[i].DurationSeconds += elapsed
	}
	t.TrackedSeconds += elapsed
	t.ActiveTimer = nil
	t.UpdatedAt = now
	return true
}

// CompletePomodoro records a finished focus session of the given length. It
// does not touch the timer or the time logs.
func (s *Store) CompletePomodoro(id string, durationSeconds int64) bool {
	return s.mutateTask(id, func(t *model.Task, _ time.Time) bool {
		t.PomodoroSessions++
		t.PomodoroSeconds += durationSeconds
		t.TrackedSeconds += durationSeconds
		return true
	})
}

// ScheduleBlock places the task on the calendar. The 30/60 minute rule is
// checked by callers with model.ValidateBlockDuration.
func (s *Store) ScheduleBlock(id string, at time.Time, durationMinutes int) bool {
	return s.mutateTask(id, func(t *model.Task, _ time.Time) bool {
		t.ScheduledAt = &at
		t.DurationMinutes = durationMinutes
		return true
	})
}

func (s *Store) UnscheduleBlock(id string) bool {
	return s.mutateTask(id, func(t *model.Task, _ time.Time) bool {
		t.ScheduledAt = nil
		t.DurationMinutes = 0
		return true
	})
}

// mutateTask runs fn on the task with the given id, refreshing UpdatedAt when
// fn reports a change. It returns whether the task exists.
func (s *Store) mutateTask(id string, fn func(t *model.Task, now time.Time) bool) bool {
	found := false
	s.mutate(func(now time.Time) bool {
		i := s.indexLocked(id)
		if i < 0 {
			return false
		}
		found = true
		if !fn(&s.tasks[i], now) {
			return false
		}
		s.tasks[i].UpdatedAt = now
		return true
	})
	return found
}

// mutate runs fn under the lock. When fn reports a change the list is
// persisted and listeners get a fresh snapshot.
func (s *Store) mutate(fn func(now time.Time) bool) bool {
	s.mu.Lock()
	changed := fn(s.now())
	if !changed {
		s.mu.Unlock()
		return false
	}
	s.persistLocked()
	snapshot := s.snapshotLocked()
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, snapshot)
	return true
}

func (s *Store) persistLocked() {
	data, err := Encode(s.tasks)
	if err != nil {
		log.Printf("Warning: could not encode tasks for %s: %v", s.key, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		log.Printf("Warning: could not persist tasks to %s: %v", s.key, err)
	}
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []model.Task {
	out := make([]model.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (s *Store) listenersLocked() []func([]model.Task) {
	out := make([]func([]model.Task), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func([]model.Task), snapshot []model.Task) {
	for _, fn := range listeners {
		fn(snapshot)
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
