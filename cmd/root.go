// Package cmd implements the CLI command structure for todolist.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todolist-go/internal/config"
	"github.com/nibzard/todolist-go/internal/hooks"
	"github.com/nibzard/todolist-go/internal/logging"
	"github.com/nibzard/todolist-go/internal/persist"
	"github.com/nibzard/todolist-go/internal/session"
	"github.com/nibzard/todolist-go/internal/storage"
	"github.com/nibzard/todolist-go/internal/todo"
	"github.com/nibzard/todolist-go/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Run executes the todolist CLI.
func Run(ctx context.Context, args []string) error {
	a := &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		isTTY:  ui.IsTTY(os.Stdout),
	}
	return a.run(ctx, args)
}

// app carries the output streams so commands can be exercised in tests.
type app struct {
	stdout io.Writer
	stderr io.Writer
	isTTY  bool

	cws    *config.ConfigWithSources
	cfg    *config.Config
	logger *log.Logger
}

func (a *app) run(ctx context.Context, args []string) error {
	// Create a flag set for global options
	fs := flag.NewFlagSet("todolist", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		printUsage(fs, a.stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("loading config: %w", err)
	}
	a.cws = cws
	a.cfg = cws.Config
	a.logger = logging.NewFromConfig(a.stderr, a.cfg.LogLevel, a.cfg.LogFormat, a.cfg.LogTimestamps, a.cfg.LogCaller)

	if *help {
		printUsage(fs, a.stdout)
		return nil
	}
	if *showVersion {
		return a.versionCommand()
	}

	// Without a subcommand, open the TUI on a terminal and list otherwise.
	subcommand := "ls"
	if a.isTTY {
		subcommand = "tui"
	}
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "add":
		return a.addCommand(ctx, remainingArgs)
	case "toggle", "done":
		return a.toggleCommand(ctx, remainingArgs)
	case "rm", "delete":
		return a.removeCommand(ctx, remainingArgs)
	case "ls", "list":
		return a.lsCommand(ctx, remainingArgs)
	case "stats":
		return a.statsCommand(ctx, remainingArgs)
	case "tui":
		return a.tuiCommand(ctx, remainingArgs)
	case "doctor":
		return a.doctorCommand(ctx, remainingArgs)
	case "init":
		return a.initCommand(remainingArgs)
	case "version":
		return a.versionCommand()
	case "help":
		printUsage(fs, a.stdout)
		return nil
	default:
		fmt.Fprintf(a.stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, a.stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// openSession opens the configured slot and loads the stored list into a
// session whose hook saves after every action. The returned close func
// releases the slot.
func (a *app) openSession(ctx context.Context) (*session.Session, func(), error) {
	slot, err := storage.Open(ctx, a.cfg.StorageOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s storage: %w", a.cfg.StorageDriver, err)
	}
	closeSlot := func() {
		if err := slot.Close(); err != nil {
			a.logger.Warn("failed to close storage", "driver", slot.Driver(), "error", err)
		}
	}

	adapter := persist.New(slot, a.cfg.StorageKey, a.logger)
	sess := session.New(adapter.Load(ctx),
		session.WithHook(session.Chain(adapter.Hook(), a.commandHook(adapter.Key()))),
		session.WithFilter(a.cfg.Filter()),
	)
	return sess, closeSlot, nil
}

// commandHook runs the configured hook command after a successful save.
// Failures are logged and never fail the action.
func (a *app) commandHook(key string) session.Hook {
	if a.cfg.HookCommand == "" {
		return nil
	}
	return func(ctx context.Context, list todo.List) error {
		payload, err := todo.Encode(list)
		if err != nil {
			return err
		}
		stats := todo.ComputeStats(list)
		result, err := hooks.Invoke(ctx, hooks.Options{
			Command: a.cfg.HookCommand,
			Payload: payload,
			Env:     hooks.Env(key, stats.Total, stats.Completed),
		})
		if result.Ran {
			a.logger.Debug("hook ran", "command", result.Command, "exit", result.ExitCode, "duration", result.Duration)
		}
		if err != nil {
			a.logger.Warn("hook failed", "err", err, "output", result.Output)
		}
		return nil
	}
}

// addCommand submits a new task built from the remaining arguments. They are
// taken verbatim, so text may start with a dash; a leading "--" is dropped.
func (a *app) addCommand(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "--" {
		args = args[1:]
	}

	sess, closeSlot, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer closeSlot()

	res, err := sess.Submit(ctx, strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}
	if !res.Changed {
		fmt.Fprintln(a.stdout, "Nothing to add: task text is empty")
		return nil
	}
	fmt.Fprintf(a.stdout, "Added %d: %s\n", res.Task.ID, res.Task.Text)
	return nil
}

// toggleCommand flips completion of the task with the given id.
func (a *app) toggleCommand(ctx context.Context, args []string) error {
	id, err := parseID("toggle", args)
	if err != nil {
		return err
	}

	sess, closeSlot, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer closeSlot()

	res, err := sess.Toggle(ctx, id)
	if err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}
	switch {
	case !res.Changed:
		fmt.Fprintf(a.stdout, "no task with id %d\n", id)
	case res.Task.Completed:
		fmt.Fprintf(a.stdout, "Completed %d: %s\n", res.Task.ID, res.Task.Text)
	default:
		fmt.Fprintf(a.stdout, "Reopened %d: %s\n", res.Task.ID, res.Task.Text)
	}
	return nil
}

// removeCommand deletes the task with the given id.
func (a *app) removeCommand(ctx context.Context, args []string) error {
	id, err := parseID("rm", args)
	if err != nil {
		return err
	}

	sess, closeSlot, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer closeSlot()

	res, err := sess.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}
	if !res.Changed {
		fmt.Fprintf(a.stdout, "no task with id %d\n", id)
		return nil
	}
	fmt.Fprintf(a.stdout, "Deleted %d: %s\n", res.Task.ID, res.Task.Text)
	return nil
}

// lsCommand prints the tasks selected by the filter.
func (a *app) lsCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("todolist ls", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	filter := fs.String("filter", a.cfg.DefaultFilter, "Filter (all, active, completed)")
	asJSON := fs.Bool("json", false, "Print the tasks as a JSON array")
	verbose := fs.Bool("v", false, "Show when each task was added")

	if err := fs.Parse(args); err != nil {
		return err
	}

	remaining := fs.Args()
	if len(remaining) > 1 {
		return fmt.Errorf("unexpected arguments: %v", remaining[1:])
	}
	// Allow the filter as a positional argument: todolist ls active
	if len(remaining) == 1 {
		*filter = remaining[0]
	}
	mode, err := todo.ParseFilterMode(*filter)
	if err != nil {
		return err
	}

	sess, closeSlot, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer closeSlot()
	sess.SetFilter(mode)

	if *asJSON {
		data, err := todo.Encode(sess.Visible())
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, string(data))
		return nil
	}

	printTaskList(a.stdout, sess.Visible(), sess.Filter(), *verbose)
	if summary := sess.Stats().Summary(); summary != "" {
		fmt.Fprintln(a.stdout)
		fmt.Fprintln(a.stdout, summary)
	}
	return nil
}

// statsPayload is the JSON shape printed by stats -json.
type statsPayload struct {
	todo.Stats
	Percent int `json:"percent"`
}

// statsCommand prints task counts for the whole list.
func (a *app) statsCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("todolist stats", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	asJSON := fs.Bool("json", false, "Print the counts as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(fs.Args()) > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	sess, closeSlot, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer closeSlot()

	stats := sess.Stats()
	if *asJSON {
		enc := json.NewEncoder(a.stdout)
		return enc.Encode(statsPayload{Stats: stats, Percent: stats.Percent()})
	}

	fmt.Fprintf(a.stdout, "Total:     %d\n", stats.Total)
	fmt.Fprintf(a.stdout, "Active:    %d\n", stats.Active)
	fmt.Fprintf(a.stdout, "Completed: %d\n", stats.Completed)
	if summary := stats.Summary(); summary != "" {
		fmt.Fprintln(a.stdout, summary)
	}
	return nil
}

// tuiCommand launches the TUI. Logs go to a file while it owns the terminal.
func (a *app) tuiCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("todolist tui", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !a.isTTY {
		return fmt.Errorf("tui requires a TTY")
	}

	logFile, err := logging.OpenFile(a.cfg.TUILogFile())
	if err != nil {
		return err
	}
	defer logFile.Close()
	a.logger = logging.NewFromConfig(logFile, a.cfg.LogLevel, a.cfg.LogFormat, true, a.cfg.LogCaller)

	sess, closeSlot, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer closeSlot()

	return ui.RunTUI(ctx, sess, ui.WithSource(slotLabel(a.cfg)))
}

// doctorCommand reports the effective config and whether stored data decodes.
func (a *app) doctorCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("todolist doctor", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	verbose := fs.Bool("v", false, "Verbose output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	w := a.stdout
	fmt.Fprintln(w, "todolist doctor")
	fmt.Fprintln(w, "===============")
	fmt.Fprintln(w)

	allOK := true

	fmt.Fprintln(w, "Config files:")
	if len(a.cws.Files) == 0 {
		fmt.Fprintln(w, "  (none, using defaults)")
	}
	for _, f := range a.cws.Files {
		fmt.Fprintf(w, "  %s\n", f)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Config:")
	for _, field := range config.Fields() {
		fmt.Fprintf(w, "  %-15s %-40s (%s)\n", field, configValue(a.cfg, field), a.cws.Sources[field])
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Storage: %s\n", slotLabel(a.cfg))
	slot, err := storage.Open(ctx, a.cfg.StorageOptions())
	if err != nil {
		fmt.Fprintf(w, "  ❌ Open error: %v\n", err)
		allOK = false
	} else {
		defer slot.Close()
		fmt.Fprintln(w, "  ✅ Opened")
		adapter := persist.New(slot, a.cfg.StorageKey, logging.Discard())
		list, err := adapter.Inspect(ctx)
		switch {
		case errors.Is(err, storage.ErrNotFound), errors.Is(err, persist.ErrEmpty):
			fmt.Fprintln(w, "  ⚠️  No tasks stored yet (created on first change)")
		case err != nil:
			fmt.Fprintf(w, "  ❌ Stored data is invalid and will be ignored: %v\n", err)
			allOK = false
		default:
			fmt.Fprintf(w, "  ✅ Valid, tasks stored: %d\n", len(list))
			if *verbose {
				printTaskList(w, list, todo.FilterAll, true)
			}
		}
	}
	fmt.Fprintln(w)

	if allOK {
		fmt.Fprintln(w, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(w, "⚠️  Some checks failed.")
	return fmt.Errorf("doctor checks failed")
}

// initCommand writes an example project config file.
func (a *app) initCommand(args []string) error {
	fs := flag.NewFlagSet("todolist init", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	user := fs.Bool("user", false, "Write the user config file instead of ./todolist.toml")

	if err := fs.Parse(args); err != nil {
		return err
	}

	path := "todolist.toml"
	if *user {
		path = config.UserConfigPath()
		if path == "" {
			return fmt.Errorf("cannot determine home directory")
		}
	}

	if _, err := os.Stat(path); err == nil && !*force {
		fmt.Fprintf(a.stdout, "%s already exists (use -force to overwrite)\n", path)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.ExampleConfig()), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(a.stdout, "Wrote %s\n", path)
	return nil
}

func (a *app) versionCommand() error {
	fmt.Fprintf(a.stdout, "todolist version %s\n", Version)
	return nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "todolist - A single-user task list")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  todolist [options] [command] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui               Interactive terminal UI (default on a terminal)")
	fmt.Fprintln(w, "  ls [filter]       List tasks (default when not on a terminal)")
	fmt.Fprintln(w, "  add <text...>     Add a task")
	fmt.Fprintln(w, "  done <id>         Toggle a task between active and completed (alias: toggle)")
	fmt.Fprintln(w, "  rm <id>           Delete a task (alias: delete)")
	fmt.Fprintln(w, "  stats             Show task counts")
	fmt.Fprintln(w, "  doctor            Show config sources and check stored data")
	fmt.Fprintln(w, "  init              Write an example todolist.toml")
	fmt.Fprintln(w, "  version           Show version information")
	fmt.Fprintln(w, "  help              Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options:")
	fmt.Fprintln(w, "  -filter string")
	fmt.Fprintln(w, "        Filter (all, active, completed)")
	fmt.Fprintln(w, "  -json")
	fmt.Fprintln(w, "        Print the tasks as a JSON array")
	fmt.Fprintln(w, "  -v")
	fmt.Fprintln(w, "        Show when each task was added")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Stats Options:")
	fmt.Fprintln(w, "  -json")
	fmt.Fprintln(w, "        Print the counts as JSON")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Init Options:")
	fmt.Fprintln(w, "  -force")
	fmt.Fprintln(w, "        Overwrite an existing config file")
	fmt.Fprintln(w, "  -user")
	fmt.Fprintln(w, "        Write ~/.todolist/todolist.toml instead")
}

// parseID reads the single task id argument of toggle and rm.
func parseID(command string, args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: todolist %s <id>", command)
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", args[0])
	}
	return id, nil
}

// printTaskList prints one task per line. With added set, each line ends with
// the local time the task was created.
func printTaskList(w io.Writer, tasks todo.List, mode todo.FilterMode, added bool) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, mode.EmptyMessage())
		return
	}
	for _, t := range tasks {
		line := fmt.Sprintf("%s %d  %s", ui.Checkbox(t.Completed), t.ID, t.Text)
		if created := t.Created(); added && !created.IsZero() {
			line += "  (added " + created.Local().Format(addedLayout) + ")"
		}
		fmt.Fprintln(w, line)
	}
}

const addedLayout = "2006-01-02 15:04"

// slotLabel describes where the task list lives.
func slotLabel(cfg *config.Config) string {
	switch storage.Driver(cfg.StorageDriver) {
	case storage.DriverSQLite:
		return fmt.Sprintf("sqlite %s [%s]", cfg.SQLitePath, cfg.StorageKey)
	case storage.DriverMemory:
		return fmt.Sprintf("memory [%s]", cfg.StorageKey)
	default:
		return "file " + filepath.Join(cfg.DataDir, cfg.StorageKey+".json")
	}
}

// configValue renders a config field for doctor output.
func configValue(cfg *config.Config, field string) string {
	switch field {
	case "storage_driver":
		return cfg.StorageDriver
	case "data_dir":
		return cfg.DataDir
	case "storage_key":
		return cfg.StorageKey
	case "sqlite_path":
		return cfg.SQLitePath
	case "default_filter":
		return cfg.DefaultFilter
	case "hook_command":
		return cfg.HookCommand
	case "log_level":
		return cfg.LogLevel
	case "log_format":
		return cfg.LogFormat
	case "log_timestamps":
		return strconv.FormatBool(cfg.LogTimestamps)
	case "log_caller":
		return strconv.FormatBool(cfg.LogCaller)
	case "log_file":
		return cfg.TUILogFile()
	default:
		return ""
	}
}
