package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/kv"
	"github.com/harrisonrobin/taskboard/pkg/model"
)

var start = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newStore(t *testing.T) (*Store, *fakeClock, *kv.Memory) {
	t.Helper()
	clock := &fakeClock{now: start}
	backend := kv.NewMemory()
	s := New(backend, WithClock(clock.Now), WithIDGenerator(sequentialIDs()))
	return s, clock, backend
}

// failingKV rejects every read and write.
type failingKV struct{}

func (failingKV) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("unreachable")
}
func (failingKV) Set(context.Context, string, []byte) error { return errors.New("disk full") }
func (failingKV) Delete(context.Context, string) error      { return errors.New("disk full") }
func (failingKV) Close() error                              { return nil }

func TestAddDefaults(t *testing.T) {
	s, _, _ := newStore(t)

	task := s.Add(model.TaskInput{Title: "Write spec"})
	if task.ID == "" {
		t.Fatal("Expected a generated id")
	}
	if task.Status != model.StatusTodo || task.Priority != model.PriorityMedium {
		t.Errorf("Expected todo/medium defaults, got %s/%s", task.Status, task.Priority)
	}
	if !task.CreatedAt.Equal(start) || !task.UpdatedAt.Equal(start) {
		t.Errorf("Expected createdAt=updatedAt=now, got %v %v", task.CreatedAt, task.UpdatedAt)
	}
	if task.Tags == nil || task.Subtasks == nil || task.Dependencies == nil || task.TimeLogs == nil {
		t.Errorf("Expected empty, non-nil lists: %+v", task)
	}
	if task.TrackedSeconds != 0 || task.PomodoroSessions != 0 || task.PostponedCount != 0 || task.ActiveTimer != nil {
		t.Errorf("Expected zeroed counters: %+v", task)
	}
}

func TestAddPrependsAndKeepsInput(t *testing.T) {
	s, _, _ := newStore(t)
	s.Add(model.TaskInput{Title: "first"})
	second := s.Add(model.TaskInput{
		Title:    "second",
		Status:   model.StatusInProgress,
		Priority: model.PriorityHigh,
		Tags:     []string{"a", "a"},
		Subtasks: []model.Subtask{{Title: "x"}, {ID: "dup", Title: "y"}, {ID: "dup", Title: "z"}},
	})

	tasks := s.Tasks()
	if len(tasks) != 2 || tasks[0].ID != second.ID {
		t.Fatalf("Expected the newest task first, got %+v", tasks)
	}
	if second.Status != model.StatusInProgress || second.Priority != model.PriorityHigh {
		t.Errorf("Expected explicit status/priority to be kept, got %s/%s", second.Status, second.Priority)
	}
	if len(second.Tags) != 2 {
		t.Errorf("Expected duplicate tags to be kept, got %v", second.Tags)
	}
	ids := map[string]bool{}
	for _, st := range second.Subtasks {
		if st.ID == "" || ids[st.ID] {
			t.Fatalf("Expected unique subtask ids, got %+v", second.Subtasks)
		}
		ids[st.ID] = true
	}
}

func TestAddStampsSignedInUser(t *testing.T) {
	backend := kv.NewMemory()
	s, err := Open(context.Background(), backend, model.Identity{SignedIn: true, UserID: "u1"})
	if err != nil {
		t.Fatalf("Open() err=%v", err)
	}
	if task := s.Add(model.TaskInput{Title: "x"}); task.UserID != "u1" {
		t.Errorf("Expected userId u1, got %q", task.UserID)
	}
}

func TestUpdatePostponedCount(t *testing.T) {
	s, clock, _ := newStore(t)
	due := start.Add(24 * time.Hour)
	task := s.Add(model.TaskInput{Title: "t", DueDate: &due})

	later := due.Add(time.Hour)
	clock.Advance(time.Minute)
	updated, ok := s.Update(task.ID, model.TaskPatch{DueDate: &later})
	if !ok {
		t.Fatal("Update() ok=false, want true")
	}
	if updated.PostponedCount != 1 {
		t.Errorf("Expected postponedCount 1 after a later due date, got %d", updated.PostponedCount)
	}
	if !updated.UpdatedAt.Equal(clock.now) {
		t.Errorf("Expected updatedAt to be refreshed")
	}

	same := later
	s.Update(task.ID, model.TaskPatch{DueDate: &same})
	earlier := due.Add(-time.Hour)
	updated, _ = s.Update(task.ID, model.TaskPatch{DueDate: &earlier})
	if updated.PostponedCount != 1 {
		t.Errorf("Expected equal/earlier due dates to leave postponedCount at 1, got %d", updated.PostponedCount)
	}

	// Setting a first due date is not a postponement.
	other := s.Add(model.TaskInput{Title: "no due"})
	updated, _ = s.Update(other.ID, model.TaskPatch{DueDate: &later})
	if updated.PostponedCount != 0 {
		t.Errorf("Expected no postponement when there was no previous due date, got %d", updated.PostponedCount)
	}

	updated, _ = s.Update(other.ID, model.TaskPatch{ClearDueDate: true})
	if updated.DueDate != nil {
		t.Errorf("Expected due date to be cleared")
	}
}

func TestUpdateMergesOnlySetFields(t *testing.T) {
	s, _, _ := newStore(t)
	task := s.Add(model.TaskInput{Title: "t", Description: "keep", Project: "p"})

	title := "renamed"
	tags := []string{"x"}
	updated, _ := s.Update(task.ID, model.TaskPatch{Title: &title, Tags: &tags})
	if updated.Title != "renamed" || updated.Description != "keep" || updated.Project != "p" {
		t.Errorf("Unexpected merge result: %+v", updated)
	}
	tags[0] = "mutated"
	if got, _ := s.Get(task.ID); got.Tags[0] != "x" {
		t.Errorf("Store kept a reference to the patch slice")
	}
}

func TestUpdateUnknownID(t *testing.T) {
	s, _, backend := newStore(t)
	title := "x"
	if _, ok := s.Update("missing", model.TaskPatch{Title: &title}); ok {
		t.Fatal("Update(missing) ok=true, want false")
	}
	if _, ok, _ := backend.Get(context.Background(), anonymousKey); ok {
		t.Error("Expected no write for a no-op update")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	s, _, _ := newStore(t)
	a := s.Add(model.TaskInput{Title: "a"})
	b := s.Add(model.TaskInput{Title: "b"})

	if !s.Remove(a.ID) {
		t.Fatal("Remove(a) = false, want true")
	}
	if s.Remove(a.ID) {
		t.Fatal("second Remove(a) = true, want false")
	}
	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].ID != b.ID {
		t.Fatalf("Expected only b to remain, got %+v", tasks)
	}
}

func TestClearCompletedKeepsOrder(t *testing.T) {
	s, _, _ := newStore(t)
	var ids []string
	for i, status := range []model.Status{model.StatusTodo, model.StatusCompleted, model.StatusInProgress, model.StatusCompleted, model.StatusTodo} {
		task := s.Add(model.TaskInput{Title: fmt.Sprintf("t%d", i), Status: status})
		ids = append(ids, task.ID)
	}
	// The list is newest first: t4 t3 t2 t1 t0.
	if n := s.ClearCompleted(); n != 2 {
		t.Fatalf("ClearCompleted()=%d, want 2", n)
	}
	tasks := s.Tasks()
	want := []string{ids[4], ids[2], ids[0]}
	if len(tasks) != len(want) {
		t.Fatalf("Expected %d tasks, got %d", len(want), len(tasks))
	}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, tasks[i].ID, id)
		}
	}
	if n := s.ClearCompleted(); n != 0 {
		t.Errorf("second ClearCompleted()=%d, want 0", n)
	}
}

func TestToggleStatusCycles(t *testing.T) {
	s, clock, _ := newStore(t)
	task := s.Add(model.TaskInput{Title: "t"})
	for _, want := range []model.Status{model.StatusInProgress, model.StatusCompleted, model.StatusTodo} {
		clock.Advance(time.Second)
		if !s.ToggleStatus(task.ID) {
			t.Fatal("ToggleStatus() = false")
		}
		got, _ := s.Get(task.ID)
		if got.Status != want {
			t.Fatalf("status=%s, want %s", got.Status, want)
		}
		if !got.UpdatedAt.Equal(clock.now) {
			t.Errorf("Expected updatedAt to follow the toggle")
		}
	}
	if s.ToggleStatus("missing") {
		t.Error("ToggleStatus(missing) = true, want false")
	}
}

func TestToggleSubtaskLeavesStatus(t *testing.T) {
	s, _, _ := newStore(t)
	task := s.Add(model.TaskInput{Title: "t", Subtasks: []model.Subtask{{ID: "s1", Title: "only"}}})
	if !s.ToggleSubtask(task.ID, "s1") {
		t.Fatal("ToggleSubtask() = false")
	}
	got, _ := s.Get(task.ID)
	if !got.Subtasks[0].Completed || got.Status != model.StatusTodo {
		t.Fatalf("Expected subtask completed and status untouched, got %+v", got)
	}
	if s.ToggleSubtask(task.ID, "nope") {
		t.Error("ToggleSubtask(unknown subtask) = true, want false")
	}
}

func TestStartWaitPause(t *testing.T) {
	s, clock, _ := newStore(t)
	task := s.Add(model.TaskInput{Title: "Write spec"})

	if !s.StartTimer(task.ID) {
		t.Fatal("StartTimer() = false")
	}
	clock.Advance(5 * time.Second)
	if !s.PauseTimer(task.ID) {
		t.Fatal("PauseTimer() = false")
	}

	got, _ := s.Get(task.ID)
	if got.TrackedSeconds != 5 {
		t.Errorf("trackedSeconds=%d, want 5", got.TrackedSeconds)
	}
	if len(got.TimeLogs) != 1 {
		t.Fatalf("Expected exactly one time log, got %d", len(got.TimeLogs))
	}
	l := got.TimeLogs[0]
	if l.DurationSeconds != 5 || l.End == nil || !l.End.Equal(clock.now) {
		t.Errorf("Unexpected closed log: %+v", l)
	}
	if got.ActiveTimer != nil {
		t.Errorf("Expected the active timer to be cleared")
	}
}

func TestTrackedSecondsAccumulate(t *testing.T) {
	s, clock, _ := newStore(t)
	task := s.Add(model.TaskInput{Title: "t"})
	s.CompletePomodoro(task.ID, 60)

	for _, n := range []int{3, 7, 11} {
		before, _ := s.Get(task.ID)
		s.StartTimer(task.ID)
		clock.Advance(time.Duration(n)*time.Second + 400*time.Millisecond)
		running, _ := s.Get(task.ID)
		if got := running.TrackedSecondsAt(clock.now); got != before.TrackedSeconds+int64(n) {
			t.Errorf("derived tracked=%d, want %d", got, before.TrackedSeconds+int64(n))
		}
		s.PauseTimer(task.ID)
		after, _ := s.Get(task.ID)
		if after.TrackedSeconds != before.TrackedSeconds+int64(n) {
			t.Errorf("after %ds: tracked=%d, want %d", n, after.TrackedSeconds, before.TrackedSeconds+int64(n))
		}
	}

	got, _ := s.Get(task.ID)
	var logged int64
	for _, l := range got.TimeLogs {
		logged += l.DurationSeconds
	}
	if got.TrackedSeconds != logged+got.PomodoroSeconds {
		t.Errorf("tracked=%d, want closed logs %d + pomodoro %d", got.TrackedSeconds, logged, got.PomodoroSeconds)
	}
}

func TestStartTimerSwitchesFocus(t *testing.T) {
	s, clock, _ := newStore(t)
	t1 := s.Add(model.TaskInput{Title: "T1"})
	t2 := s.Add(model.TaskInput{Title: "T2"})

	s.StartTimer(t1.ID)
	clock.Advance(42 * time.Second)
	s.StartTimer(t2.ID)

	a, _ := s.Get(t1.ID)
	b, _ := s.Get(t2.ID)
	if a.ActiveTimer != nil {
		t.Fatal("Expected T1's timer to be stopped")
	}
	if len(a.TimeLogs) != 1 || a.TimeLogs[0].End == nil || a.TimeLogs[0].DurationSeconds != 42 {
		t.Fatalf("Expected T1's log closed at 42s, got %+v", a.TimeLogs)
	}
	if a.TrackedSeconds != 42 {
		t.Errorf("T1 tracked=%d, want 42", a.TrackedSeconds)
	}
	if b.ActiveTimer == nil || !b.ActiveTimer.StartedAt.Equal(clock.now) {
		t.Fatalf("Expected T2's timer to be running from now, got %+v", b.ActiveTimer)
	}
	if b.TimeLogs[0].ID != b.ActiveTimer.LogID || b.TimeLogs[0].End != nil {
		t.Errorf("Expected T2's open log to match its timer")
	}

	running := 0
	for _, task := range s.Tasks() {
		if task.ActiveTimer != nil {
			running++
		}
	}
	if running != 1 {
		t.Errorf("Expected exactly one running timer, got %d", running)
	}
}

func TestStartTimerAlreadyRunningIsNoop(t *testing.T) {
	s, clock, _ := newStore(t)
	task := s.Add(model.TaskInput{Title: "t"})
	s.StartTimer(task.ID)
	first, _ := s.Get(task.ID)

	clock.Advance(10 * time.Second)
	if !s.StartTimer(task.ID) {
		t.Fatal("StartTimer() on a running task = false, want true (found)")
	}
	again, _ := s.Get(task.ID)
	if len(again.TimeLogs) != 1 || !again.ActiveTimer.StartedAt.Equal(first.ActiveTimer.StartedAt) {
		t.Errorf("Expected the running timer to be left alone, got %+v", again)
	}
}

func TestStartTimerUnknownIDLeavesOthersRunning(t *testing.T) {
	s, _, _ := newStore(t)
	task := s.Add(model.TaskInput{Title: "t"})
	s.StartTimer(task.ID)
	if s.StartTimer("missing") {
		t.Fatal("StartTimer(missing) = true")
	}
	if got, _ := s.Get(task.ID); got.ActiveTimer == nil {
		t.Error("Expected the running timer to survive a start on an unknown id")
	}
}

func TestPauseWithoutTimerIsNoop(t *testing.T) {
	s, clock, _ := newStore(t)
	task := s.Add(model.TaskInput{Title: "t"})
	clock.Advance(time.Minute)
	if !s.PauseTimer(task.ID) {
		t.Fatal("PauseTimer() = false, want true (found)")
	}
	got, _ := s.Get(task.ID)
	if !got.UpdatedAt.Equal(start) {
		t.Errorf("Expected no mutation for a pause without timer")
	}
}

func TestCompletePomodoro(t *testing.T) {
	s, clock, _ := newStore(t)
	task := s.Add(model.TaskInput{Title: "T1"})
	s.StartTimer(task.ID)
	clock.Advance(3 * time.Second)

	if !s.CompletePomodoro(task.ID, 1500) {
		t.Fatal("CompletePomodoro() = false")
	}
	got, _ := s.Get(task.ID)
	if got.PomodoroSessions != 1 || got.PomodoroSeconds != 1500 || got.TrackedSeconds != 1500 {
		t.Errorf("Unexpected pomodoro accounting: sessions=%d seconds=%d tracked=%d",
			got.PomodoroSessions, got.PomodoroSeconds, got.TrackedSeconds)
	}
	if got.ActiveTimer == nil || len(got.TimeLogs) != 1 {
		t.Errorf("Expected the running timer to be untouched")
	}
}

func TestScheduleAndUnscheduleBlock(t *testing.T) {
	s, _, _ := newStore(t)
	task := s.Add(model.TaskInput{Title: "t"})
	at := start.Add(2 * time.Hour)

	if !s.ScheduleBlock(task.ID, at, 60) {
		t.Fatal("ScheduleBlock() = false")
	}
	got, _ := s.Get(task.ID)
	if got.ScheduledAt == nil || !got.ScheduledAt.Equal(at) || got.DurationMinutes != 60 {
		t.Fatalf("Unexpected block: %v %d", got.ScheduledAt, got.DurationMinutes)
	}
	if !s.UnscheduleBlock(task.ID) {
		t.Fatal("UnscheduleBlock() = false")
	}
	got, _ = s.Get(task.ID)
	if got.ScheduledAt != nil || got.DurationMinutes != 0 {
		t.Fatalf("Expected the block to be cleared, got %v %d", got.ScheduledAt, got.DurationMinutes)
	}
	if s.ScheduleBlock("missing", at, 30) {
		t.Error("ScheduleBlock(missing) = true")
	}
}

func TestMutationsArePersisted(t *testing.T) {
	s, clock, backend := newStore(t)
	task := s.Add(model.TaskInput{Title: "persist me"})
	s.StartTimer(task.ID)
	clock.Advance(8 * time.Second)
	s.PauseTimer(task.ID)

	data, ok, err := backend.Get(context.Background(), anonymousKey)
	if err != nil || !ok {
		t.Fatalf("Expected the anonymous bucket to be written: ok=%v err=%v", ok, err)
	}
	loaded := Decode(data)
	if len(loaded) != 1 || loaded[0].TrackedSeconds != 8 || loaded[0].Title != "persist me" {
		t.Fatalf("Unexpected persisted state: %+v", loaded)
	}
}

func TestPersistenceFailureIsSilent(t *testing.T) {
	s := New(failingKV{})
	task := s.Add(model.TaskInput{Title: "still here"})
	if _, ok := s.Get(task.ID); !ok {
		t.Fatal("Expected the mutation to apply despite the failed write")
	}
}

func TestSwitchIdentityUsesSeparateBuckets(t *testing.T) {
	ctx := context.Background()
	s, _, backend := newStore(t)
	s.Add(model.TaskInput{Title: "anonymous task"})

	alice := model.Identity{SignedIn: true, UserID: "alice"}
	if err := s.SwitchIdentity(ctx, alice); err != nil {
		t.Fatalf("SwitchIdentity() err=%v", err)
	}
	if len(s.Tasks()) != 0 {
		t.Fatalf("Expected alice to start with an empty list, got %+v", s.Tasks())
	}
	s.Add(model.TaskInput{Title: "alice task"})

	if err := s.SwitchIdentity(ctx, model.Anonymous); err != nil {
		t.Fatalf("SwitchIdentity() err=%v", err)
	}
	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "anonymous task" {
		t.Fatalf("Expected the anonymous bucket back, got %+v", tasks)
	}
	if _, ok, _ := backend.Get(ctx, "taskboard:tasks:user:alice"); !ok {
		t.Error("Expected alice's bucket to be written under the user key")
	}
}

func TestSwitchIdentityReadFailureKeepsState(t *testing.T) {
	s := New(failingKV{})
	s.Add(model.TaskInput{Title: "kept"})
	err := s.SwitchIdentity(context.Background(), model.Identity{SignedIn: true, UserID: "bob"})
	if err == nil {
		t.Fatal("SwitchIdentity() err=nil, want error")
	}
	if s.Identity() != model.Anonymous || len(s.Tasks()) != 1 {
		t.Fatal("Expected the previous identity and tasks to be kept")
	}
}

func TestSubscribe(t *testing.T) {
	s, _, _ := newStore(t)
	var calls int
	var last []model.Task
	cancel := s.Subscribe(func(tasks []model.Task) {
		calls++
		last = tasks
	})

	task := s.Add(model.TaskInput{Title: "t"})
	s.ToggleStatus(task.ID)
	s.Remove("missing")
	if calls != 2 {
		t.Fatalf("Expected 2 notifications, got %d", calls)
	}
	if len(last) != 1 || last[0].Status != model.StatusInProgress {
		t.Fatalf("Unexpected snapshot: %+v", last)
	}

	cancel()
	s.ToggleStatus(task.ID)
	if calls != 2 {
		t.Errorf("Expected no notification after cancel, got %d", calls)
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	s, _, _ := newStore(t)
	task := s.Add(model.TaskInput{Title: "t", Tags: []string{"a"}})
	snap := s.Tasks()
	snap[0].Tags[0] = "changed"
	snap[0].Title = "changed"
	if got, _ := s.Get(task.ID); got.Title != "t" || got.Tags[0] != "a" {
		t.Fatalf("Snapshot mutation leaked into the store: %+v", got)
	}
}

func TestFind(t *testing.T) {
	s := New(kv.NewMemory(), WithIDGenerator(func() func() string {
		ids := []string{"abc123", "abd456", "xyz789"}
		i := 0
		return func() string { i++; return ids[i-1] }
	}()))
	s.Add(model.TaskInput{Title: "1"})
	s.Add(model.TaskInput{Title: "2"})
	s.Add(model.TaskInput{Title: "3"})

	if task, err := s.Find("abd"); err != nil || task.Title != "2" {
		t.Errorf("Find(abd)=%+v,%v", task, err)
	}
	if _, err := s.Find("ab"); !errors.Is(err, ErrAmbiguous) {
		t.Errorf("Find(ab) err=%v, want %v", err, ErrAmbiguous)
	}
	if _, err := s.Find("q"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Find(q) err=%v, want %v", err, ErrNotFound)
	}
}

func TestImportKeepsOrder(t *testing.T) {
	s, _, _ := newStore(t)
	s.Add(model.TaskInput{Title: "existing"})
	s.Import([]model.TaskInput{{Title: "a"}, {Title: "b"}})
	tasks := s.Tasks()
	if len(tasks) != 3 || tasks[0].Title != "a" || tasks[1].Title != "b" || tasks[2].Title != "existing" {
		t.Fatalf("Unexpected order after import: %+v", tasks)
	}
}

func TestReloadPicksUpOtherWriters(t *testing.T) {
	backend := kv.NewMemory()
	ctx := context.Background()
	watcher, err := Open(ctx, backend, model.Anonymous)
	if err != nil {
		t.Fatal(err)
	}
	writer, err := Open(ctx, backend, model.Anonymous)
	if err != nil {
		t.Fatal(err)
	}
	task := writer.Add(model.TaskInput{Title: "elsewhere"})
	writer.StartTimer(task.ID)

	if len(watcher.Tasks()) != 0 {
		t.Fatal("Expected the watcher to hold its own snapshot until reloaded")
	}
	if err := watcher.Reload(ctx); err != nil {
		t.Fatalf("Reload() err=%v", err)
	}
	got, ok := watcher.Get(task.ID)
	if !ok || got.ActiveTimer == nil {
		t.Errorf("Reload() = %+v, %v, want the running timer", got, ok)
	}
}

func TestMutationsRefreshUpdatedAt(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Store, id string)
	}{
		{"StartTimer", func(s *Store, id string) { s.StartTimer(id) }},
		{"PauseTimer", func(s *Store, id string) { s.PauseTimer(id) }},
		{"CompletePomodoro", func(s *Store, id string) { s.CompletePomodoro(id, 1500) }},
		{"ScheduleBlock", func(s *Store, id string) { s.ScheduleBlock(id, start.Add(24*time.Hour), 30) }},
		{"UnscheduleBlock", func(s *Store, id string) { s.UnscheduleBlock(id) }},
		{"ToggleSubtask", func(s *Store, id string) { s.ToggleSubtask(id, "sub") }},
		{"ToggleStatus", func(s *Store, id string) { s.ToggleStatus(id) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, clock, _ := newStore(t)
			at := start
			task := s.Add(model.TaskInput{
				Title:           "focus",
				Subtasks:        []model.Subtask{{ID: "sub", Title: "step"}},
				ScheduledAt:     &at,
				DurationMinutes: 60,
			})
			if tt.name == "PauseTimer" {
				s.StartTimer(task.ID)
			}
			clock.Advance(time.Hour)
			tt.mutate(s, task.ID)

			got, _ := s.Get(task.ID)
			if !got.UpdatedAt.Equal(clock.now) {
				t.Errorf("UpdatedAt=%v, want %v", got.UpdatedAt, clock.now)
			}
		})
	}
}
