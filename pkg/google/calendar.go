package google

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/colors"
	"github.com/harrisonrobin/taskboard/pkg/index"
	"github.com/harrisonrobin/taskboard/pkg/model"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
)

// CalendarClient is a Google Calendar API client.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string
	index      *index.EventIndex
	colors     *colors.ColorCache
}

// NewCalendarClient creates a new Google Calendar client.
func NewCalendarClient(srv *calendar.Service, calendarID string, idx *index.EventIndex, cache *colors.ColorCache) *CalendarClient {
	return &CalendarClient{srv: srv, calendarID: calendarID, index: idx, colors: cache}
}

// SyncBlock creates the event for the scheduled block of task or patches the
// existing one.
func (c *CalendarClient) SyncBlock(ctx context.Context, task model.Task, now time.Time) (*calendar.Event, error) {
	colorID := colors.NoProject
	if c.colors != nil {
		colorID = c.colors.GetColorID(task.Project)
	}
	event, err := BlockToEvent(task, colorID, now)
	if err != nil {
		return nil, err
	}

	existing, err := c.findEvent(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("error searching for event: %w", err)
	}

	if existing != nil {
		patch, err := EventNeedsUpdate(existing, event)
		if err != nil {
			log.Printf("could not compare task with its calendar event: %v", err)
			return nil, err
		}
		if patch == nil {
			c.remember(task.ID, existing.Id)
			return existing, nil
		}
		updated, err := c.PatchEvent(ctx, existing.Id, patch)
		if err != nil {
			return nil, err
		}
		c.remember(task.ID, updated.Id)
		return updated, nil
	}

	created, err := c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	c.remember(task.ID, created.Id)
	return created, nil
}

// DeleteBlock removes the event of taskID, if there is one.
func (c *CalendarClient) DeleteBlock(ctx context.Context, taskID string) error {
	existing, err := c.findEvent(ctx, taskID)
	if err != nil {
		return err
	}
	if existing != nil {
		if err := c.DeleteEvent(ctx, existing.Id); err != nil && !isGone(err) {
			return err
		}
	}
	if c.index != nil {
		c.index.Remove(taskID)
	}
	return nil
}

// findEvent tries the local index first and falls back to a property search.
func (c *CalendarClient) findEvent(ctx context.Context, taskID string) (*calendar.Event, error) {
	if c.index != nil {
		if eventID := c.index.Get(taskID); eventID != "" {
			ev, err := c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
			if err == nil && ev.Status != "cancelled" {
				return ev, nil
			}
			c.index.Remove(taskID)
		}
	}
	return c.GetEventByTaskID(ctx, taskID)
}

func (c *CalendarClient) remember(taskID, eventID string) {
	if c.index != nil {
		c.index.Set(taskID, eventID)
	}
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *calendar.Event) (*calendar.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

// DeleteEvent deletes an event from the calendar.
func (c *CalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	return c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
}

// ListEvents fetches every page of events starting after timeMin.
func (c *CalendarClient) ListEvents(ctx context.Context, timeMin time.Time) ([]*calendar.Event, error) {
	var items []*calendar.Event
	err := c.srv.Events.List(c.calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		SingleEvents(true).
		Pages(ctx, func(page *calendar.Events) error {
			items = append(items, page.Items...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
	}
	return items, nil
}

// GetEventByTaskID searches for the event carrying taskID in its private
// extended properties.
func (c *CalendarClient) GetEventByTaskID(ctx context.Context, taskID string) (*calendar.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", PropertyKey, taskID)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}

func isGone(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone)
}
