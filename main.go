package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/harrisonrobin/taskboard/pkg/auth"
	"github.com/harrisonrobin/taskboard/pkg/config"
	"github.com/harrisonrobin/taskboard/pkg/kv"
	"github.com/harrisonrobin/taskboard/pkg/store"
)

// app is what every command runs against.
type app struct {
	cfg      *config.Config
	backend  kv.Store
	store    *store.Store
	out      io.Writer
	now      func() time.Time
	calendar string // -calendar override
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
	// noStore commands run before the task store is opened.
	noStore bool
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"add":          {usage: "add [flags] <title>", run: cmdAdd},
		"list":         {usage: "list [-filter all|active|completed|overdue] [-q text]", run: cmdList},
		"show":         {usage: "show <id>", run: cmdShow},
		"edit":         {usage: "edit [flags] <id>", run: cmdEdit},
		"rm":           {usage: "rm <id>...", run: cmdRemove},
		"clear":        {usage: "clear (removes completed tasks)", run: cmdClear},
		"toggle":       {usage: "toggle <id>", run: cmdToggle},
		"subtask":      {usage: "subtask <id> <subtask-id>", run: cmdSubtask},
		"start":        {usage: "start <id>", run: cmdStart},
		"pause":        {usage: "pause <id>", run: cmdPause},
		"pomodoro":     {usage: "pomodoro [-minutes n] [-record] <id>", run: cmdPomodoro},
		"schedule":     {usage: "schedule [-duration 30|60] <id> <when>", run: cmdSchedule},
		"unschedule":   {usage: "unschedule <id>", run: cmdUnschedule},
		"watch":        {usage: "watch (live view of running timers)", run: cmdWatch},
		"stats":        {usage: "stats [-days n]", run: cmdStats},
		"board":        {usage: "board [-by status|priority]", run: cmdBoard},
		"agenda":       {usage: "agenda [-days n] [when]", run: cmdAgenda},
		"export":       {usage: "export [-format json|csv|pdf] [-o file]", run: cmdExport},
		"import":       {usage: "import [-from taskwarrior|org] [-tag t] [file...]", run: cmdImport},
		"sync":         {usage: "sync [-detach]", run: cmdSync},
		"auth":         {usage: "auth (sign in with Google)", run: cmdAuth},
		"logout":       {usage: "logout", run: cmdLogout, noStore: true},
		"set-calendar": {usage: "set-calendar <name>", run: cmdSetCalendar, noStore: true},
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [-calendar name] <command> [args]\n\nCommands:\n", os.Args[0])
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %s\n", commands[name].usage)
	}
	fmt.Fprintln(out, "\nGlobal flags:")
	flag.PrintDefaults()
}

func main() {
	calendarName := flag.String("calendar", "", "Google Calendar name to sync with (overrides config)")
	flag.Usage = usage
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flag.Args(), *calendarName, os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, args []string, calendarName string, out io.Writer) error {
	if len(args) == 0 {
		flag.Usage()
		return flag.ErrHelp
	}
	cmd, ok := commands[args[0]]
	if !ok {
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	a := &app{out: out, now: time.Now, calendar: calendarName}
	if cmd.noStore {
		return cmd.run(ctx, a, args[1:])
	}
	if err := a.open(ctx); err != nil {
		return err
	}
	defer a.close()
	return cmd.run(ctx, a, args[1:])
}

// open loads the config and the task bucket of the signed-in identity.
func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}
	dir, err := config.GetDir()
	if err != nil {
		return fmt.Errorf("could not find path to configuration directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	backend, err := kv.Open(cfg.Storage, cfg.DSN)
	if err != nil {
		return fmt.Errorf("could not open %s storage: %w", cfg.Storage, err)
	}
	s, err := store.Open(ctx, backend, auth.Current(), store.WithClock(a.now))
	if err != nil {
		backend.Close()
		return fmt.Errorf("could not load tasks: %w", err)
	}
	a.cfg, a.backend, a.store = cfg, backend, s
	return nil
}

func (a *app) close() {
	if err := a.backend.Close(); err != nil {
		log.Printf("Warning: failed to close storage: %v", err)
	}
}

func (a *app) calendarName() string {
	if a.calendar != "" {
		return a.calendar
	}
	return a.cfg.Calendar
}
