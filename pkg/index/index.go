package index

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/harrisonrobin/taskboard/pkg/kv"
)

const keyPrefix = "taskboard:events:"

// EventIndex maps task ids to the ids of their calendar events.
type EventIndex struct {
	Mappings map[string]string `json:"mappings"`
	store    kv.Store
	key      string
	mu       sync.RWMutex
	dirty    bool
}

// NewEventIndex loads the index kept for scope (see store.Scope).
func NewEventIndex(ctx context.Context, store kv.Store, scope string) (*EventIndex, error) {
	idx := &EventIndex{
		Mappings: make(map[string]string),
		store:    store,
		key:      keyPrefix + scope,
	}
	if err := idx.Load(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *EventIndex) Load(ctx context.Context) error {
	data, ok, err := idx.store.Get(ctx, idx.key)
	if err != nil {
		return fmt.Errorf("failed to read event index: %w", err)
	}
	if !ok {
		return nil
	}
	mappings := make(map[string]string)
	if err := json.Unmarshal(data, &mappings); err != nil {
		return fmt.Errorf("failed to decode event index: %w", err)
	}
	idx.mu.Lock()
	idx.Mappings = mappings
	idx.dirty = false
	idx.mu.Unlock()
	return nil
}

func (idx *EventIndex) Save(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if !idx.dirty {
		return nil
	}
	data, err := json.Marshal(idx.Mappings)
	if err != nil {
		return err
	}
	if err := idx.store.Set(ctx, idx.key, data); err != nil {
		return fmt.Errorf("failed to save event index: %w", err)
	}
	idx.dirty = false
	return nil
}

func (idx *EventIndex) Get(taskID string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.Mappings[taskID]
}

func (idx *EventIndex) Set(taskID, eventID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.Mappings[taskID] != eventID {
		idx.Mappings[taskID] = eventID
		idx.dirty = true
	}
}

func (idx *EventIndex) Remove(taskID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.Mappings[taskID]; exists {
		delete(idx.Mappings, taskID)
		idx.dirty = true
	}
}

// TaskIDs lists every indexed task id in sorted order.
func (idx *EventIndex) TaskIDs() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]string, 0, len(idx.Mappings))
	for id := range idx.Mappings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
