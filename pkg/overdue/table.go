package overdue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/kv"
)

const keyPrefix = "taskboard:overdue:"

// Entry is a scheduled block that has not ended yet.
type Entry struct {
	TaskID  string    `json:"task_id"`
	EventID string    `json:"event_id"`
	Summary string    `json:"summary"`
	End     time.Time `json:"end"`
}

// Table tracks open blocks so a block whose end passes without the task
// being completed is reported exactly once.
type Table struct {
	Entries map[string]Entry `json:"entries"`
	store   kv.Store
	key     string
	dirty   bool
}

func NewTable(ctx context.Context, store kv.Store, scope string) (*Table, error) {
	t := &Table{
		Entries: make(map[string]Entry),
		store:   store,
		key:     keyPrefix + scope,
	}
	if err := t.Load(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) Load(ctx context.Context) error {
	data, ok, err := t.store.Get(ctx, t.key)
	if err != nil {
		return fmt.Errorf("failed to read overdue table: %w", err)
	}
	if !ok {
		return nil
	}
	var loaded Table
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to decode overdue table: %w", err)
	}
	if loaded.Entries != nil {
		t.Entries = loaded.Entries
	}
	t.dirty = false
	return nil
}

func (t *Table) Save(ctx context.Context) error {
	if !t.dirty {
		return nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if err := t.store.Set(ctx, t.key, data); err != nil {
		return fmt.Errorf("failed to save overdue table: %w", err)
	}
	t.dirty = false
	return nil
}

// Update records a block that is still ahead of now. A zero end removes the
// task from the table.
func (t *Table) Update(taskID, eventID, summary string, end time.Time) {
	if end.IsZero() {
		t.Remove(taskID)
		return
	}
	old, exists := t.Entries[taskID]
	if !exists || !old.End.Equal(end) || old.EventID != eventID || old.Summary != summary {
		t.Entries[taskID] = Entry{TaskID: taskID, EventID: eventID, Summary: summary, End: end}
		t.dirty = true
	}
}

func (t *Table) Remove(taskID string) {
	if _, exists := t.Entries[taskID]; exists {
		delete(t.Entries, taskID)
		t.dirty = true
	}
}

// Sweep removes and returns the entries whose block ended before now,
// earliest first.
func (t *Table) Sweep(now time.Time) []Entry {
	var swept []Entry
	for id, entry := range t.Entries {
		if entry.End.Before(now) {
			swept = append(swept, entry)
			delete(t.Entries, id)
			t.dirty = true
		}
	}
	sort.Slice(swept, func(i, j int) bool {
		if swept[i].End.Equal(swept[j].End) {
			return swept[i].TaskID < swept[j].TaskID
		}
		return swept[i].End.Before(swept[j].End)
	})
	return swept
}
