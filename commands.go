package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/stats"
	"github.com/harrisonrobin/taskboard/pkg/store"
	"github.com/harrisonrobin/taskboard/pkg/util"
	"github.com/mattn/go-isatty"
)

// listFlag collects a flag that may be given several times.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func newFlagSet(name string, a *app) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s\n", commands[name].usage)
		fs.PrintDefaults()
	}
	return fs
}

// visited returns the names of the flags given on the command line.
func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

var whenLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseWhen reads a local date or date-time. "today" and "tomorrow" are
// midnight, a bare HH:MM is today at that time.
func parseWhen(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	switch strings.ToLower(s) {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "now":
		return now, nil
	}
	if clock, err := time.ParseInLocation("15:04", s, now.Location()); err == nil {
		return today.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute), nil
	}
	for _, layout := range whenLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot read %q as a date (use YYYY-MM-DD, YYYY-MM-DD HH:MM, HH:MM, today or tomorrow)", s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// taskFlags are shared by add and edit.
type taskFlags struct {
	title, desc, status, priority, due string
	tags, project, at, depends         string
	duration, points                   int
	estimate                           float64
	subtasks                           listFlag
	noDue                              bool
}

func (tf *taskFlags) register(fs *flag.FlagSet, edit bool) {
	if edit {
		fs.StringVar(&tf.title, "title", "", "New title")
		fs.BoolVar(&tf.noDue, "no-due", false, "Remove the due date")
	}
	fs.StringVar(&tf.desc, "d", "", "Description")
	fs.StringVar(&tf.status, "status", "", "todo, in-progress or completed")
	fs.StringVar(&tf.priority, "p", "", "Priority: low, medium or high")
	fs.StringVar(&tf.due, "due", "", "Due date")
	fs.StringVar(&tf.tags, "tags", "", "Comma separated tags")
	fs.StringVar(&tf.project, "project", "", "Project name")
	fs.StringVar(&tf.depends, "depends", "", "Comma separated ids of tasks this one waits on")
	fs.IntVar(&tf.points, "points", 0, "Difficulty points")
	fs.Float64Var(&tf.estimate, "estimate", 0, "Estimated hours")
	fs.Var(&tf.subtasks, "subtask", "Subtask title (repeatable)")
	if !edit {
		fs.StringVar(&tf.at, "at", "", "Schedule a block at this time")
		fs.IntVar(&tf.duration, "duration", model.DefaultBlockMinutes, "Block length in minutes (30 or 60)")
	}
}

func (a *app) resolveIDs(list string) ([]string, error) {
	var ids []string
	for _, prefix := range splitList(list) {
		t, err := a.store.Find(prefix)
		if err != nil {
			return nil, err
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}

func cmdAdd(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("add", a)
	var tf taskFlags
	tf.register(fs, false)
	if err := fs.Parse(args); err != nil {
		return err
	}
	set := visited(fs)
	now := a.now()

	in := model.TaskInput{
		Title:       strings.Join(fs.Args(), " "),
		Description: tf.desc,
		Tags:        splitList(tf.tags),
		Project:     tf.project,
	}
	if tf.status != "" {
		s, err := model.ParseStatus(tf.status)
		if err != nil {
			return err
		}
		in.Status = s
	}
	if tf.priority != "" {
		p, err := model.ParsePriority(tf.priority)
		if err != nil {
			return err
		}
		in.Priority = p
	}
	if tf.due != "" {
		due, err := parseWhen(tf.due, now)
		if err != nil {
			return err
		}
		in.DueDate = &due
	}
	if tf.at != "" {
		at, err := parseWhen(tf.at, now)
		if err != nil {
			return err
		}
		in.ScheduledAt = &at
		in.DurationMinutes = tf.duration
	}
	for _, title := range tf.subtasks {
		in.Subtasks = append(in.Subtasks, model.Subtask{Title: title})
	}
	deps, err := a.resolveIDs(tf.depends)
	if err != nil {
		return err
	}
	in.Dependencies = deps
	if set["points"] {
		in.DifficultyPoints = &tf.points
	}
	if set["estimate"] {
		in.EstimatedHours = &tf.estimate
	}
	if err := model.ValidateInput(in); err != nil {
		return err
	}

	t := a.store.Add(in)
	fmt.Fprintf(a.out, "Added %s %s\n", short(t.ID), t.Title)
	return nil
}

func cmdEdit(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("edit", a)
	var tf taskFlags
	tf.register(fs, true)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return flag.ErrHelp
	}
	t, err := a.store.Find(fs.Arg(0))
	if err != nil {
		return err
	}
	set := visited(fs)

	var patch model.TaskPatch
	if set["title"] {
		if strings.TrimSpace(tf.title) == "" {
			return model.ErrTitleRequired
		}
		patch.Title = &tf.title
	}
	if set["d"] {
		patch.Description = &tf.desc
	}
	if set["status"] {
		s, err := model.ParseStatus(tf.status)
		if err != nil {
			return err
		}
		patch.Status = &s
	}
	if set["p"] {
		p, err := model.ParsePriority(tf.priority)
		if err != nil {
			return err
		}
		patch.Priority = &p
	}
	if set["due"] {
		due, err := parseWhen(tf.due, a.now())
		if err != nil {
			return err
		}
		patch.DueDate = &due
	}
	patch.ClearDueDate = tf.noDue
	if set["tags"] {
		tags := splitList(tf.tags)
		patch.Tags = &tags
	}
	if set["project"] {
		patch.Project = &tf.project
	}
	if set["depends"] {
		deps, err := a.resolveIDs(tf.depends)
		if err != nil {
			return err
		}
		patch.Dependencies = &deps
	}
	if set["subtask"] {
		subtasks := append([]model.Subtask{}, t.Subtasks...)
		for _, title := range tf.subtasks {
			subtasks = append(subtasks, model.Subtask{Title: title})
		}
		patch.Subtasks = &subtasks
	}
	if set["points"] {
		patch.DifficultyPoints = &tf.points
	}
	if set["estimate"] {
		patch.EstimatedHours = &tf.estimate
	}

	updated, _ := a.store.Update(t.ID, patch)
	if updated.PostponedCount > t.PostponedCount {
		fmt.Fprintf(a.out, "Postponed %s (%d times so far)\n", short(t.ID), updated.PostponedCount)
		return nil
	}
	fmt.Fprintf(a.out, "Updated %s %s\n", short(t.ID), updated.Title)
	return nil
}

func cmdList(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("list", a)
	filterName := fs.String("filter", "all", "all, active, completed or overdue")
	query := fs.String("q", "", "Only tasks whose title or description contains this")
	if err := fs.Parse(args); err != nil {
		return err
	}
	filter, err := stats.ParseFilter(*filterName)
	if err != nil {
		return err
	}
	now := a.now()
	all := a.store.Tasks()
	tasks := stats.Apply(all, *query, filter, now)
	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks.")
		return nil
	}
	for _, t := range tasks {
		printLine(a.out, t, all, now)
	}
	return nil
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func statusMark(s model.Status) string {
	switch s {
	case model.StatusInProgress:
		return "[~]"
	case model.StatusCompleted:
		return "[x]"
	}
	return "[ ]"
}

func printLine(w io.Writer, t model.Task, all []model.Task, now time.Time) {
	var extras []string
	if t.DueDate != nil {
		due := "due " + humanize.RelTime(*t.DueDate, now, "ago", "from now")
		if t.IsOverdue(now) {
			due = "OVERDUE " + due
		}
		extras = append(extras, due)
	}
	if t.IsScheduled() {
		extras = append(extras, fmt.Sprintf("block %s (%dm)", t.ScheduledAt.Local().Format("Mon 15:04"), t.DurationMinutes))
	}
	if t.Project != "" {
		extras = append(extras, "@"+t.Project)
	}
	for _, tag := range t.Tags {
		extras = append(extras, "#"+tag)
	}
	if len(t.Subtasks) > 0 {
		extras = append(extras, fmt.Sprintf("%d/%d", t.CompletedSubtasks(), len(t.Subtasks)))
	}
	if model.IsBlocked(t, all) {
		extras = append(extras, "blocked")
	}
	if secs := t.TrackedSecondsAt(now); secs > 0 || t.ActiveTimer != nil {
		tracked := util.FormatSeconds(secs)
		if t.ActiveTimer != nil {
			tracked = "‣ " + util.FormatClock(secs)
		}
		extras = append(extras, tracked)
	}
	line := fmt.Sprintf("%-8s %s %-6s %s", short(t.ID), statusMark(t.Status), t.Priority, t.Title)
	if len(extras) > 0 {
		line += "  (" + strings.Join(extras, ", ") + ")"
	}
	fmt.Fprintln(w, line)
}

func cmdShow(_ context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", commands["show"].usage)
	}
	t, err := a.store.Find(args[0])
	if err != nil {
		return err
	}
	now := a.now()
	w := a.out
	fmt.Fprintf(w, "%s\n%s\n", t.Title, strings.Repeat("=", len([]rune(t.Title))))
	fmt.Fprintf(w, "ID:        %s\n", t.ID)
	fmt.Fprintf(w, "Status:    %s\n", t.Status)
	fmt.Fprintf(w, "Priority:  %s\n", t.Priority)
	if t.Project != "" {
		fmt.Fprintf(w, "Project:   %s\n", t.Project)
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(w, "Tags:      %s\n", strings.Join(t.Tags, ", "))
	}
	if t.DueDate != nil {
		fmt.Fprintf(w, "Due:       %s (%s)\n", t.DueDate.Local().Format("2006-01-02 15:04"), humanize.RelTime(*t.DueDate, now, "ago", "from now"))
	}
	if t.IsScheduled() {
		fmt.Fprintf(w, "Block:     %s - %s\n", t.ScheduledAt.Local().Format("2006-01-02 15:04"), t.BlockEnd().Local().Format("15:04"))
	}
	if t.EstimatedHours != nil {
		fmt.Fprintf(w, "Estimate:  %.1fh\n", *t.EstimatedHours)
	}
	if t.DifficultyPoints != nil {
		fmt.Fprintf(w, "Points:    %d\n", *t.DifficultyPoints)
	}
	fmt.Fprintf(w, "Tracked:   %s", util.FormatSeconds(t.TrackedSecondsAt(now)))
	if t.ActiveTimer != nil {
		fmt.Fprintf(w, " (running since %s)", t.ActiveTimer.StartedAt.Local().Format("15:04"))
	}
	fmt.Fprintln(w)
	if t.PomodoroSessions > 0 {
		fmt.Fprintf(w, "Pomodoros: %d (%s)\n", t.PomodoroSessions, util.FormatSeconds(t.PomodoroSeconds))
	}
	if t.PostponedCount > 0 {
		fmt.Fprintf(w, "Postponed: %d\n", t.PostponedCount)
	}
	fmt.Fprintf(w, "Created:   %s, updated %s\n", humanize.RelTime(t.CreatedAt, now, "ago", "from now"), humanize.RelTime(t.UpdatedAt, now, "ago", "from now"))

	if deps := model.ResolveDependencies(t, a.store.Tasks()); len(deps) > 0 {
		fmt.Fprintln(w, "\nWaiting on:")
		for _, d := range deps {
			fmt.Fprintf(w, "  %s %s %s\n", short(d.ID), statusMark(d.Status), d.Title)
		}
	}
	if len(t.Subtasks) > 0 {
		fmt.Fprintf(w, "\nSubtasks (%d/%d):\n", t.CompletedSubtasks(), len(t.Subtasks))
		for _, st := range t.Subtasks {
			mark := "[ ]"
			if st.Completed {
				mark = "[x]"
			}
			fmt.Fprintf(w, "  %s %s %s\n", short(st.ID), mark, st.Title)
		}
	}
	if t.Description != "" {
		fmt.Fprintf(w, "\n%s\n", t.Description)
	}
	if len(t.TimeLogs) > 0 {
		fmt.Fprintln(w, "\nTime log:")
		for _, l := range t.TimeLogs {
			end := "running"
			if l.End != nil {
				end = l.End.Local().Format("15:04")
			}
			fmt.Fprintf(w, "  %s - %s  %s\n", l.Start.Local().Format("2006-01-02 15:04"), end, util.FormatSeconds(l.DurationSeconds))
		}
	}
	return nil
}

func cmdRemove(_ context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: %s", commands["rm"].usage)
	}
	for _, arg := range args {
		t, err := a.store.Find(arg)
		if err != nil {
			return err
		}
		a.store.Remove(t.ID)
		fmt.Fprintf(a.out, "Removed %s %s\n", short(t.ID), t.Title)
	}
	return nil
}

func cmdClear(_ context.Context, a *app, _ []string) error {
	n := a.store.ClearCompleted()
	fmt.Fprintf(a.out, "Removed %d completed %s\n", n, plural(n, "task"))
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func cmdToggle(_ context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", commands["toggle"].usage)
	}
	t, err := a.store.Find(args[0])
	if err != nil {
		return err
	}
	a.store.ToggleStatus(t.ID)
	t, _ = a.store.Get(t.ID)
	fmt.Fprintf(a.out, "%s %s is now %s\n", short(t.ID), t.Title, t.Status)
	return nil
}

func cmdSubtask(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("subtask", a)
	add := fs.String("add", "", "Append a subtask with this title instead of toggling")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return flag.ErrHelp
	}
	t, err := a.store.Find(fs.Arg(0))
	if err != nil {
		return err
	}

	if *add != "" {
		subtasks := append(t.Subtasks, model.Subtask{Title: *add})
		a.store.Update(t.ID, model.TaskPatch{Subtasks: &subtasks})
		fmt.Fprintf(a.out, "Added subtask to %s\n", short(t.ID))
		return nil
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return flag.ErrHelp
	}
	st, err := findSubtask(t, fs.Arg(1))
	if err != nil {
		return err
	}
	a.store.ToggleSubtask(t.ID, st.ID)
	state := "done"
	if st.Completed {
		state = "open"
	}
	fmt.Fprintf(a.out, "%s is %s\n", st.Title, state)
	return nil
}

// findSubtask resolves an exact subtask id or a unique prefix of one, the way
// store.Find does for tasks.
func findSubtask(t model.Task, prefix string) (model.Subtask, error) {
	prefix = strings.TrimSpace(prefix)
	for _, st := range t.Subtasks {
		if st.ID == prefix && prefix != "" {
			return st, nil
		}
	}
	match := -1
	for i, st := range t.Subtasks {
		if prefix == "" || !strings.HasPrefix(st.ID, prefix) {
			continue
		}
		if match >= 0 {
			return model.Subtask{}, fmt.Errorf("%w: subtask %s of task %s", store.ErrAmbiguous, prefix, short(t.ID))
		}
		match = i
	}
	if match < 0 {
		return model.Subtask{}, fmt.Errorf("task %s has no subtask %s", short(t.ID), prefix)
	}
	return t.Subtasks[match], nil
}

func cmdStart(_ context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", commands["start"].usage)
	}
	t, err := a.store.Find(args[0])
	if err != nil {
		return err
	}
	if t.ActiveTimer != nil {
		fmt.Fprintf(a.out, "Timer already running on %s\n", t.Title)
		return nil
	}
	var paused []string
	for _, other := range a.store.Tasks() {
		if other.ActiveTimer != nil {
			paused = append(paused, other.Title)
		}
	}
	a.store.StartTimer(t.ID)
	for _, title := range paused {
		fmt.Fprintf(a.out, "Paused %s\n", title)
	}
	fmt.Fprintf(a.out, "Started timer on %s\n", t.Title)
	return nil
}

func cmdPause(_ context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", commands["pause"].usage)
	}
	t, err := a.store.Find(args[0])
	if err != nil {
		return err
	}
	if t.ActiveTimer == nil {
		fmt.Fprintf(a.out, "No timer running on %s\n", t.Title)
		return nil
	}
	a.store.PauseTimer(t.ID)
	t, _ = a.store.Get(t.ID)
	fmt.Fprintf(a.out, "Paused %s at %s\n", t.Title, util.FormatSeconds(t.TrackedSeconds))
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// cmdPomodoro counts a focus session down and records it once it runs out.
// Interrupting the countdown records nothing.
func cmdPomodoro(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("pomodoro", a)
	minutes := fs.Int("minutes", a.cfg.PomodoroMinutes, "Session length")
	record := fs.Bool("record", false, "Record a finished session without counting down")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return flag.ErrHelp
	}
	if *minutes <= 0 {
		return errors.New("minutes must be positive")
	}
	t, err := a.store.Find(fs.Arg(0))
	if err != nil {
		return err
	}
	length := time.Duration(*minutes) * time.Minute

	if !*record {
		fmt.Fprintf(a.out, "Focus on %s for %d minutes\n", t.Title, *minutes)
		if err := countdown(ctx, a.out, length); err != nil {
			fmt.Fprintln(a.out, "\nSession abandoned")
			return nil
		}
	}
	a.store.CompletePomodoro(t.ID, int64(length/time.Second))
	t, _ = a.store.Get(t.ID)
	fmt.Fprintf(a.out, "\nPomodoro done: %d sessions on %s\n", t.PomodoroSessions, t.Title)
	return nil
}

func countdown(ctx context.Context, w io.Writer, length time.Duration) error {
	deadline := time.Now().Add(length)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	live := isTerminal(w)
	for {
		left := time.Until(deadline)
		if left <= 0 {
			return nil
		}
		if live {
			fmt.Fprintf(w, "\r%s ", util.FormatClock(int64(left.Round(time.Second)/time.Second)))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func cmdSchedule(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("schedule", a)
	duration := fs.Int("duration", model.DefaultBlockMinutes, "Block length in minutes (30 or 60)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return flag.ErrHelp
	}
	if err := model.ValidateBlockDuration(*duration); err != nil {
		return err
	}
	t, err := a.store.Find(fs.Arg(0))
	if err != nil {
		return err
	}
	at, err := parseWhen(strings.Join(fs.Args()[1:], " "), a.now())
	if err != nil {
		return err
	}
	a.store.ScheduleBlock(t.ID, at, *duration)
	fmt.Fprintf(a.out, "Scheduled %s on %s for %d minutes\n", t.Title, at.Format("Mon Jan 2 15:04"), *duration)
	return nil
}

func cmdUnschedule(_ context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s", commands["unschedule"].usage)
	}
	t, err := a.store.Find(args[0])
	if err != nil {
		return err
	}
	a.store.UnscheduleBlock(t.ID)
	fmt.Fprintf(a.out, "Unscheduled %s\n", t.Title)
	return nil
}

// cmdWatch redraws the running timers every second until interrupted. When
// the output is not a terminal it prints one snapshot.
func cmdWatch(ctx context.Context, a *app, _ []string) error {
	live := isTerminal(a.out)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		if err := a.store.Reload(ctx); err != nil {
			log.Printf("Warning: failed to reload tasks: %v", err)
		}
		now := a.now()
		var parts []string
		for _, t := range a.store.Tasks() {
			if t.ActiveTimer != nil {
				parts = append(parts, fmt.Sprintf("%s ‣ %s", t.Title, util.FormatClock(t.TrackedSecondsAt(now))))
			}
		}
		line := "No timer running"
		if len(parts) > 0 {
			line = strings.Join(parts, " | ")
		}
		if !live {
			fmt.Fprintln(a.out, line)
			return nil
		}
		fmt.Fprintf(a.out, "\r\033[K%s", line)
		select {
		case <-ctx.Done():
			fmt.Fprintln(a.out)
			return nil
		case <-ticker.C:
		}
	}
}

func cmdStats(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("stats", a)
	days := fs.Int("days", 7, "Days of focus and habit history")
	if err := fs.Parse(args); err != nil {
		return err
	}
	now := a.now()
	tasks := a.store.Tasks()
	w := a.out

	sum := stats.Summarize(tasks, now)
	an := stats.Analyze(tasks, now)
	fmt.Fprintf(w, "Tasks: %d total, %d to do, %d in progress, %d completed, %d overdue\n",
		sum.Total, sum.Todo, sum.InProgress, sum.Completed, sum.Overdue)
	fmt.Fprintf(w, "Completion rate: %d%%\n", an.CompletionRate)
	fmt.Fprintf(w, "Tracked: %s  Active timers: %d  Scheduled blocks: %d\n",
		util.FormatSeconds(an.TrackedSeconds), an.ActiveTimers, an.Scheduled)
	fmt.Fprintf(w, "Pomodoros: %d (%s)  Postponements: %d\n",
		an.PomodoroSessions, util.FormatSeconds(an.PomodoroSeconds), an.PostponedTotal)
	if an.AverageLeadDays != nil {
		fmt.Fprintf(w, "Average lead time: %.1f days\n", *an.AverageLeadDays)
	} else {
		fmt.Fprintln(w, "Average lead time: n/a")
	}
	fmt.Fprintf(w, "Completed today: %d  Streak: %d %s\n", an.CompletedToday, an.Streak, plural(an.Streak, "day"))

	prio := stats.ByPriority(tasks)
	fmt.Fprintf(w, "\nBy priority: high %d, medium %d, low %d\n",
		prio[model.PriorityHigh], prio[model.PriorityMedium], prio[model.PriorityLow])

	printBuckets(w, "Time by project", stats.TimeByProject(tasks, now, 5))
	printBuckets(w, "Time by tag", stats.TimeByTag(tasks, now, 6))

	fmt.Fprintln(w, "\nFocus:")
	for _, d := range stats.FocusByDay(tasks, now, *days) {
		mins := (d.Value + 30) / 60
		fmt.Fprintf(w, "  %s %4dm %s\n", d.Date.Format("Mon 01-02"), mins, bar(mins, 5))
	}
	fmt.Fprintln(w, "\nCompleted:")
	for _, d := range stats.CompletedByDay(tasks, now, *days) {
		fmt.Fprintf(w, "  %s %4d %s\n", d.Date.Format("Mon 01-02"), d.Value, bar(d.Value, 1))
	}
	return nil
}

func printBuckets(w io.Writer, title string, buckets []stats.Bucket) {
	if len(buckets) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, b := range buckets {
		fmt.Fprintf(w, "  %-16s %s\n", b.Name, util.FormatSeconds(b.Seconds))
	}
}

// bar draws one block per unit, capped so a line stays readable.
func bar(v, unit int64) string {
	n := v / unit
	if n > 40 {
		n = 40
	}
	return strings.Repeat("█", int(n))
}

func cmdBoard(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("board", a)
	by := fs.String("by", "status", "Group by status or priority")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tasks := a.store.Tasks()
	var cols []stats.Column
	switch *by {
	case "status":
		cols = stats.ColumnsByStatus(tasks)
	case "priority":
		cols = stats.ColumnsByPriority(tasks)
	default:
		return fmt.Errorf("cannot group by %q", *by)
	}
	now := a.now()
	for i, col := range cols {
		if i > 0 {
			fmt.Fprintln(a.out)
		}
		fmt.Fprintf(a.out, "%s (%d)\n", col.Title, len(col.Tasks))
		for _, t := range col.Tasks {
			printLine(a.out, t, tasks, now)
		}
	}
	return nil
}

func cmdAgenda(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("agenda", a)
	days := fs.Int("days", 1, "Number of days to show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	now := a.now()
	day := now
	if fs.NArg() > 0 {
		var err error
		if day, err = parseWhen(strings.Join(fs.Args(), " "), now); err != nil {
			return err
		}
	}
	tasks := a.store.Tasks()
	for i := 0; i < max(*days, 1); i++ {
		d := day.AddDate(0, 0, i)
		scheduled, due := stats.DayView(tasks, d)
		fmt.Fprintf(a.out, "%s\n", d.Format("Monday, January 2"))
		if len(scheduled) == 0 && len(due) == 0 {
			fmt.Fprintln(a.out, "  nothing planned")
		}
		for _, t := range scheduled {
			fmt.Fprintf(a.out, "  %s-%s %s %s\n", t.ScheduledAt.Local().Format("15:04"), t.BlockEnd().Local().Format("15:04"), statusMark(t.Status), t.Title)
		}
		for _, t := range due {
			fmt.Fprintf(a.out, "  due %s %s %s\n", t.DueDate.Local().Format("15:04"), statusMark(t.Status), t.Title)
		}
	}
	return nil
}
