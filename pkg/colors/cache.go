package colors

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/kv"
)

const (
	keyPrefix = "taskboard:colors:"

	// NoProject is Graphite, used for tasks outside any project.
	NoProject = "8"
	// Google Calendar event colors 1 (Lavender) to 11 (Tomato).
	paletteSize = 11
)

type ProjectState struct {
	ColorID      string    `json:"color_id"`
	LastModified time.Time `json:"last_modified"`
}

// ColorCache assigns calendar colors to projects. When all colors are taken
// the least recently used project gives up its color.
type ColorCache struct {
	Projects map[string]*ProjectState `json:"projects"`
	store    kv.Store
	key      string
	now      func() time.Time
	dirty    bool
}

func NewColorCache(ctx context.Context, store kv.Store, scope string) (*ColorCache, error) {
	c := &ColorCache{
		Projects: make(map[string]*ProjectState),
		store:    store,
		key:      keyPrefix + scope,
		now:      time.Now,
	}
	if err := c.Load(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ColorCache) Load(ctx context.Context) error {
	data, ok, err := c.store.Get(ctx, c.key)
	if err != nil {
		return fmt.Errorf("failed to read color cache: %w", err)
	}
	if !ok {
		return nil
	}
	projects := make(map[string]*ProjectState)
	if err := json.Unmarshal(data, &projects); err != nil {
		return fmt.Errorf("failed to decode color cache: %w", err)
	}
	c.Projects = projects
	c.dirty = false
	return nil
}

func (c *ColorCache) Save(ctx context.Context) error {
	if !c.dirty {
		return nil
	}
	data, err := json.Marshal(c.Projects)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, c.key, data); err != nil {
		return fmt.Errorf("failed to save color cache: %w", err)
	}
	c.dirty = false
	return nil
}

// GetColorID returns the color of project, assigning one on first use.
func (c *ColorCache) GetColorID(project string) string {
	if project == "" {
		return NoProject
	}

	if state, exists := c.Projects[project]; exists {
		state.LastModified = c.now()
		c.dirty = true
		return state.ColorID
	}
	return c.assignColor(project)
}

func (c *ColorCache) assignColor(project string) string {
	used := make(map[string]bool)
	for _, s := range c.Projects {
		used[s.ColorID] = true
	}

	for i := 1; i <= paletteSize; i++ {
		id := strconv.Itoa(i)
		if !used[id] {
			c.Projects[project] = &ProjectState{ColorID: id, LastModified: c.now()}
			c.dirty = true
			return id
		}
	}

	// Palette is full: recycle the color of the least recently used project.
	var oldestProject string
	var oldestTime time.Time
	for p, s := range c.Projects {
		if oldestProject == "" || s.LastModified.Before(oldestTime) ||
			(s.LastModified.Equal(oldestTime) && p < oldestProject) {
			oldestTime = s.LastModified
			oldestProject = p
		}
	}

	recycled := c.Projects[oldestProject].ColorID
	delete(c.Projects, oldestProject)
	c.Projects[project] = &ProjectState{ColorID: recycled, LastModified: c.now()}
	c.dirty = true
	return recycled
}
