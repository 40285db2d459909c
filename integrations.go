package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/harrisonrobin/taskboard/pkg/auth"
	"github.com/harrisonrobin/taskboard/pkg/calsync"
	"github.com/harrisonrobin/taskboard/pkg/colors"
	"github.com/harrisonrobin/taskboard/pkg/config"
	"github.com/harrisonrobin/taskboard/pkg/google"
	"github.com/harrisonrobin/taskboard/pkg/index"
	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/orgmode"
	"github.com/harrisonrobin/taskboard/pkg/overdue"
	"github.com/harrisonrobin/taskboard/pkg/report"
	"github.com/harrisonrobin/taskboard/pkg/store"
	"github.com/harrisonrobin/taskboard/pkg/taskwarrior"
)

func cmdExport(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("export", a)
	format := fs.String("format", "json", "One of "+strings.Join(report.Formats, ", "))
	output := fs.String("o", "", "Write to this file instead of stdout")
	title := fs.String("title", "Tasks", "Title of the PDF report")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := report.NewExporter(*title).Export(a.store.Tasks(), a.now(), *format)
	if err != nil {
		return err
	}
	if *output == "" {
		_, err := a.out.Write(data)
		return err
	}
	if err := os.WriteFile(*output, data, 0600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Fprintf(a.out, "Wrote %s (%s)\n", *output, humanize.Bytes(uint64(len(data))))
	return nil
}

// cmdImport reads Taskwarrior exports or org files. Without files it reads
// Taskwarrior JSON from a piped stdin, or runs `task export` itself.
func cmdImport(_ context.Context, a *app, args []string) error {
	fs := newFlagSet("import", a)
	from := fs.String("from", "taskwarrior", "taskwarrior or org")
	tag := fs.String("tag", "", "Only import tasks carrying this tag")
	filter := fs.String("filter", "status:pending", "Taskwarrior filter used when running task export")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var created []model.Task
	switch *from {
	case "taskwarrior", "tw":
		tasks, err := readTaskwarrior(fs.Args(), *filter)
		if err != nil {
			return err
		}
		batch := taskwarrior.Convert(tasks)
		if *tag != "" {
			batch = batch.WithTag(*tag)
		}
		created = a.store.Import(batch.Inputs)
		for id, deps := range batch.Relink(created) {
			a.store.Update(id, model.TaskPatch{Dependencies: &deps})
		}
	case "org":
		if fs.NArg() == 0 {
			return errors.New("import -from org needs at least one file")
		}
		inputs, err := orgmode.ParseFiles(fs.Args())
		if err != nil {
			return err
		}
		if *tag != "" {
			inputs = orgmode.FilterTasks(inputs, *tag)
		}
		created = a.store.Import(inputs)
	default:
		return fmt.Errorf("cannot import from %q", *from)
	}

	fmt.Fprintf(a.out, "Imported %d %s\n", len(created), plural(len(created), "task"))
	return nil
}

func readTaskwarrior(files []string, filter string) ([]taskwarrior.Task, error) {
	client := taskwarrior.NewClient()
	if len(files) == 0 {
		if !isTerminal(os.Stdin) {
			return client.ParseTasks(os.Stdin)
		}
		return client.GetTasks(strings.Fields(filter))
	}
	var all []taskwarrior.Task
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		tasks, err := client.ParseTasks(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		all = append(all, tasks...)
	}
	return all, nil
}

// cmdSync mirrors scheduled blocks to Google Calendar. With -detach the work
// is handed to a background copy of the binary and the command returns at once.
func cmdSync(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("sync", a)
	detach := fs.Bool("detach", false, "Run the sync in the background")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *detach {
		return spawnSync(a.calendarName())
	}

	scope := store.Scope(a.store.Identity())
	idx, err := index.NewEventIndex(ctx, a.backend, scope)
	if err != nil {
		return fmt.Errorf("failed to initialize event index: %w", err)
	}
	cache, err := colors.NewColorCache(ctx, a.backend, scope)
	if err != nil {
		log.Printf("Warning: failed to load project colors, starting fresh: %v", err)
		cache = nil
	}
	table, err := overdue.NewTable(ctx, a.backend, scope)
	if err != nil {
		log.Printf("Warning: failed to initialize overdue sweep table: %v", err)
		table = nil
	}

	client, err := google.NewClient(ctx, a.calendarName(), idx, cache)
	if err != nil {
		return fmt.Errorf("error creating Google Calendar client: %w", err)
	}

	rep, err := calsync.New(client, idx, cache, table).Run(ctx, a.store.Tasks(), a.now())
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Synced %d %s to %q, removed %d %s\n",
		rep.Synced, plural(rep.Synced, "block"), a.calendarName(), rep.Deleted, plural(rep.Deleted, "event"))
	for _, e := range rep.Overdue {
		fmt.Fprintf(a.out, "Missed block: %s (ended %s)\n", e.Summary, humanize.RelTime(e.End, a.now(), "ago", "from now"))
	}
	if len(rep.Failed) > 0 {
		ids := make([]string, 0, len(rep.Failed))
		for id := range rep.Failed {
			ids = append(ids, short(id))
		}
		sort.Strings(ids)
		return fmt.Errorf("%d %s failed to sync: %s", len(ids), plural(len(ids), "block"), strings.Join(ids, ", "))
	}
	return nil
}

func spawnSync(calendarName string) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not find self: %w", err)
	}
	cmd := exec.Command(self, "-calendar", calendarName, "sync")
	cmd.Stdout = nil // Silence in background
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("could not start background process: %w", err)
	}
	return cmd.Process.Release()
}

// cmdAuth signs in and switches the store to the bucket of the account.
func cmdAuth(ctx context.Context, a *app, _ []string) error {
	id, email, err := auth.Login(ctx)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	if err := a.store.SwitchIdentity(ctx, id); err != nil {
		return fmt.Errorf("could not load tasks of %s: %w", email, err)
	}
	n := len(a.store.Tasks())
	fmt.Fprintf(a.out, "Signed in as %s, %d %s\n", email, n, plural(n, "task"))
	return nil
}

func cmdLogout(_ context.Context, a *app, _ []string) error {
	if err := auth.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out. Tasks are now kept in the anonymous list.")
	return nil
}

func cmdSetCalendar(_ context.Context, a *app, args []string) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return fmt.Errorf("usage: %s", commands["set-calendar"].usage)
	}
	cfg, err := config.LoadFile()
	if err != nil {
		return err
	}
	cfg.Calendar = args[0]
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}
	fmt.Fprintf(a.out, "Default calendar set to: %s\n", args[0])
	return nil
}
