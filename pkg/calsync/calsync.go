// Package calsync mirrors scheduled blocks to a calendar.
package calsync

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/colors"
	"github.com/harrisonrobin/taskboard/pkg/google"
	"github.com/harrisonrobin/taskboard/pkg/index"
	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/overdue"
	"google.golang.org/api/calendar/v3"
)

// Calendar is the part of google.CalendarClient the syncer needs. It keeps
// the event index current as events are created and deleted.
type Calendar interface {
	SyncBlock(ctx context.Context, task model.Task, now time.Time) (*calendar.Event, error)
	DeleteBlock(ctx context.Context, taskID string) error
}

// EventLister is implemented by calendars that can enumerate their events.
// Run uses it to find events of tasks the index lost track of.
type EventLister interface {
	ListEvents(ctx context.Context, timeMin time.Time) ([]*calendar.Event, error)
}

// strayWindow bounds how far back Run looks for stray events.
const strayWindow = 30 * 24 * time.Hour

type Syncer struct {
	cal    Calendar
	index  *index.EventIndex
	colors *colors.ColorCache
	table  *overdue.Table
}

// New returns a syncer. colors and table may be nil.
func New(cal Calendar, idx *index.EventIndex, cache *colors.ColorCache, table *overdue.Table) *Syncer {
	return &Syncer{cal: cal, index: idx, colors: cache, table: table}
}

type Report struct {
	Synced  int
	Deleted int
	// Overdue lists blocks that ended since the last run without the task
	// being completed.
	Overdue []overdue.Entry
	Failed  map[string]error
}

func (r *Report) fail(taskID string, err error) {
	if r.Failed == nil {
		r.Failed = make(map[string]error)
	}
	r.Failed[taskID] = err
	log.Printf("Warning: calendar sync of task %s failed: %v", taskID, err)
}

// Run brings the calendar in line with tasks: scheduled blocks are created or
// patched, events of unscheduled or removed tasks are deleted. Failures on a
// single task are collected in the report. The returned error only covers
// saving the local index and tables.
func (s *Syncer) Run(ctx context.Context, tasks []model.Task, now time.Time) (Report, error) {
	var report Report
	live := make(map[string]bool, len(tasks))
	scheduled := make(map[string]bool)

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		live[task.ID] = true

		if !task.IsScheduled() {
			if s.index.Get(task.ID) != "" {
				s.delete(ctx, task.ID, &report)
			}
			s.forget(task.ID)
			continue
		}

		scheduled[task.ID] = true
		event, err := s.cal.SyncBlock(ctx, task, now)
		if err != nil {
			report.fail(task.ID, err)
			continue
		}
		report.Synced++
		s.track(task, event.Id, now)
	}

	for _, taskID := range s.index.TaskIDs() {
		if !live[taskID] {
			s.delete(ctx, taskID, &report)
			s.forget(taskID)
		}
	}

	if lister, ok := s.cal.(EventLister); ok {
		s.deleteStrays(ctx, lister, scheduled, now, &report)
	}

	if s.table != nil {
		for taskID := range s.table.Entries {
			if !live[taskID] {
				s.table.Remove(taskID)
			}
		}
		report.Overdue = s.table.Sweep(now)
	}

	return report, s.save(ctx)
}

// deleteStrays removes events tagged with a task id that has no scheduled
// block anymore.
func (s *Syncer) deleteStrays(ctx context.Context, lister EventLister, keep map[string]bool, now time.Time, report *Report) {
	events, err := lister.ListEvents(ctx, now.Add(-strayWindow))
	if err != nil {
		log.Printf("Warning: could not list calendar events: %v", err)
		return
	}
	for _, ev := range events {
		if ev.ExtendedProperties == nil {
			continue
		}
		taskID := ev.ExtendedProperties.Private[google.PropertyKey]
		if taskID == "" || keep[taskID] {
			continue
		}
		s.delete(ctx, taskID, report)
	}
}

func (s *Syncer) delete(ctx context.Context, taskID string, report *Report) {
	if err := s.cal.DeleteBlock(ctx, taskID); err != nil {
		report.fail(taskID, err)
		return
	}
	report.Deleted++
}

// track keeps open blocks in the overdue table. A block that already ended
// stays in the table so the next sweep reports it.
func (s *Syncer) track(task model.Task, eventID string, now time.Time) {
	if s.table == nil {
		return
	}
	if task.Status == model.StatusCompleted {
		s.table.Remove(task.ID)
		return
	}
	if end := task.BlockEnd(); end.After(now) {
		s.table.Update(task.ID, eventID, task.Title, end)
	}
}

func (s *Syncer) forget(taskID string) {
	if s.table != nil {
		s.table.Remove(taskID)
	}
}

func (s *Syncer) save(ctx context.Context) error {
	if err := s.index.Save(ctx); err != nil {
		return err
	}
	if s.colors != nil {
		if err := s.colors.Save(ctx); err != nil {
			return err
		}
	}
	if s.table != nil {
		if err := s.table.Save(ctx); err != nil {
			return fmt.Errorf("overdue table: %w", err)
		}
	}
	return nil
}
