// Package cmd provides tests for CLI command handlers.
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	"github.com/nibzard/todolist-go/internal/config"
	"github.com/nibzard/todolist-go/internal/todo"
)

// setup isolates the CLI from the user's config and data and returns the
// data directory used by the file driver.
func setup(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, name := range []string{
		"STORAGE", "STORAGE_DRIVER", "STORAGE_KEY", "SQLITE_PATH", "FILTER", "HOOK",
		"LOG_LEVEL", "LOG_FORMAT", "LOG_TIMESTAMPS", "LOG_CALLER", "LOG_FILE",
	} {
		t.Setenv(config.EnvPrefix+name, "")
	}
	dataDir := filepath.Join(t.TempDir(), "data")
	t.Setenv("TODOLIST_DATA_DIR", dataDir)
	t.Chdir(t.TempDir())
	return dataDir
}

// runCLI runs one CLI invocation with captured output.
func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := &app{stdout: &out, stderr: &errOut}
	err = a.run(context.Background(), args)
	return out.String(), errOut.String(), err
}

// mustRun fails the test when the invocation returns an error.
func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("todolist %s: %v\nstderr: %s", strings.Join(args, " "), err, errOut)
	}
	return out
}

// listJSON returns the tasks printed by ls -json.
func listJSON(t *testing.T, args ...string) todo.List {
	t.Helper()
	out := mustRun(t, append(args, "ls", "-json")...)
	list, err := todo.Decode([]byte(strings.TrimSpace(out)))
	if err != nil {
		t.Fatalf("decode ls -json output %q: %v", out, err)
	}
	return list
}

func TestRun(t *testing.T) {
	setup(t)

	t.Run("shows help with -h flag", func(t *testing.T) {
		out := mustRun(t, "-h")
		if !strings.Contains(out, "Commands:") {
			t.Errorf("help output missing commands:\n%s", out)
		}
	})

	t.Run("shows help with help command", func(t *testing.T) {
		out := mustRun(t, "help")
		if !strings.Contains(out, "-storage") {
			t.Errorf("help output missing global flags:\n%s", out)
		}
	})

	t.Run("shows version", func(t *testing.T) {
		for _, arg := range []string{"-v", "--version", "version"} {
			out := mustRun(t, arg)
			if out != "todolist version "+Version+"\n" {
				t.Errorf("%s: got %q", arg, out)
			}
		}
	})

	t.Run("unknown command returns error", func(t *testing.T) {
		_, _, err := runCLI(t, "unknown-command")
		if err == nil || !strings.Contains(err.Error(), "unknown command") {
			t.Errorf("expected 'unknown command' error, got %v", err)
		}
	})

	t.Run("bad config returns error", func(t *testing.T) {
		_, _, err := runCLI(t, "-storage", "redis", "ls")
		if err == nil || !strings.Contains(err.Error(), "loading config") {
			t.Errorf("expected config error, got %v", err)
		}
	})

	t.Run("defaults to ls without a terminal", func(t *testing.T) {
		out := mustRun(t)
		if !strings.Contains(out, "Nothing to do. Add a task to get started!") {
			t.Errorf("got %q", out)
		}
	})

	t.Run("tui requires a terminal", func(t *testing.T) {
		_, _, err := runCLI(t, "tui")
		if err == nil || !strings.Contains(err.Error(), "TTY") {
			t.Errorf("expected TTY error, got %v", err)
		}
	})
}

func TestScenario(t *testing.T) {
	dataDir := setup(t)

	out := mustRun(t, "add", "Buy", "milk")
	if !strings.Contains(out, "Buy milk") {
		t.Errorf("add output: %q", out)
	}
	list := listJSON(t)
	if len(list) != 1 || list[0].Text != "Buy milk" || list[0].Completed {
		t.Fatalf("after add: %v", list)
	}
	milk := strconv.FormatInt(list[0].ID, 10)

	out = mustRun(t, "done", milk)
	if !strings.HasPrefix(out, "Completed "+milk) {
		t.Errorf("done output: %q", out)
	}
	mustRun(t, "add", "Walk dog")

	out = mustRun(t, "ls")
	for _, want := range []string{"[x] " + milk + "  Buy milk", "[ ] ", "Walk dog", "1 of 2 done (50%)"} {
		if !strings.Contains(out, want) {
			t.Errorf("ls output missing %q:\n%s", want, out)
		}
	}

	active := listJSON(t, "-filter", "active")
	if len(active) != 1 || active[0].Text != "Walk dog" {
		t.Errorf("active filter: %v", active)
	}
	out = mustRun(t, "ls", "completed")
	if !strings.Contains(out, "Buy milk") || strings.Contains(out, "Walk dog") {
		t.Errorf("ls completed:\n%s", out)
	}

	mustRun(t, "rm", milk)
	list = listJSON(t)
	if len(list) != 1 || list[0].Text != "Walk dog" || list[0].Completed {
		t.Fatalf("after rm: %v", list)
	}

	var stats struct {
		Total, Active, Completed, Percent int
	}
	if err := json.Unmarshal([]byte(mustRun(t, "stats", "-json")), &stats); err != nil {
		t.Fatalf("stats -json: %v", err)
	}
	if stats.Total != 1 || stats.Active != 1 || stats.Completed != 0 || stats.Percent != 0 {
		t.Errorf("stats: %+v", stats)
	}

	// The file slot holds exactly the wire format.
	data, err := os.ReadFile(filepath.Join(dataDir, "todos.json"))
	if err != nil {
		t.Fatalf("read slot: %v", err)
	}
	stored, err := todo.Decode(data)
	if err != nil {
		t.Fatalf("decode slot: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != list[0].ID {
		t.Errorf("slot: %v", stored)
	}
}

func TestNoOps(t *testing.T) {
	setup(t)
	mustRun(t, "add", "Buy milk")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"empty add", []string{"add", "   "}, "Nothing to add"},
		{"add without args", []string{"add"}, "Nothing to add"},
		{"toggle unknown", []string{"toggle", "42"}, "no task with id 42"},
		{"rm unknown", []string{"delete", "42"}, "no task with id 42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustRun(t, tt.args...)
			if !strings.Contains(out, tt.want) {
				t.Errorf("got %q, want %q", out, tt.want)
			}
			if list := listJSON(t); len(list) != 1 || list[0].Text != "Buy milk" {
				t.Errorf("list changed: %v", list)
			}
		})
	}
}

func TestAddTakesTextVerbatim(t *testing.T) {
	setup(t)
	mustRun(t, "add", "-urgent", "fix", "the", "roof")
	mustRun(t, "add", "--", "-x", "marks", "the", "spot")

	list := listJSON(t)
	if len(list) != 2 {
		t.Fatalf("list: %v", list)
	}
	if list[0].Text != "-urgent fix the roof" {
		t.Errorf("first task: got %q", list[0].Text)
	}
	if list[1].Text != "-x marks the spot" {
		t.Errorf("second task: got %q", list[1].Text)
	}
}

func TestEmptyListHasNoSummary(t *testing.T) {
	setup(t)
	out := mustRun(t, "ls")
	if !strings.Contains(out, "Nothing to do") || strings.Contains(out, " done") {
		t.Errorf("ls on empty list:\n%s", out)
	}
	out = mustRun(t, "stats")
	if !strings.Contains(out, "Total:     0") || strings.Contains(out, " done") {
		t.Errorf("stats on empty list:\n%s", out)
	}

	mustRun(t, "add", "Buy milk")
	out = mustRun(t, "ls")
	if !strings.Contains(out, "0 of 1 done") || strings.Contains(out, "%") {
		t.Errorf("ls with nothing completed:\n%s", out)
	}
}

func TestListVerboseShowsCreated(t *testing.T) {
	setup(t)
	mustRun(t, "add", "Buy milk")
	list := listJSON(t)
	want := list[0].Created().Local().Format("2006-01-02 15:04")

	out := mustRun(t, "ls", "-v")
	if !strings.Contains(out, "Buy milk  (added "+want+")") {
		t.Errorf("ls -v output missing added time %q:\n%s", want, out)
	}
	if out := mustRun(t, "ls"); strings.Contains(out, "added") {
		t.Errorf("ls without -v should not show added time:\n%s", out)
	}
}

func TestInvalidArguments(t *testing.T) {
	setup(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"toggle without id", []string{"toggle"}, "usage: todolist toggle <id>"},
		{"toggle bad id", []string{"done", "abc"}, `invalid task id "abc"`},
		{"rm negative id", []string{"rm", "-1"}, "invalid task id"},
		{"ls bad filter", []string{"ls", "-filter", "someday"}, "unknown filter"},
		{"ls extra args", []string{"ls", "active", "extra"}, "unexpected arguments"},
		{"stats extra args", []string{"stats", "now"}, "unexpected arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestMalformedSlotStartsEmpty(t *testing.T) {
	dataDir := setup(t)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "todos.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, errOut, err := runCLI(t, "ls")
	if err != nil {
		t.Fatalf("ls: %v", err)
	}
	if !strings.Contains(out, "Nothing to do") {
		t.Errorf("ls output: %q", out)
	}
	if !strings.Contains(errOut, "failed to load tasks") {
		t.Errorf("expected a warning on stderr, got %q", errOut)
	}

	_, _, err = runCLI(t, "doctor")
	if err == nil {
		t.Error("doctor should fail on malformed data")
	}

	// The next mutation replaces the bad value.
	mustRun(t, "add", "fresh start")
	if list := listJSON(t); len(list) != 1 {
		t.Errorf("after add: %v", list)
	}
}

func TestSaveFailureReturnsError(t *testing.T) {
	dataDir := setup(t)
	// A directory where the slot file should be makes every write fail.
	if err := os.MkdirAll(filepath.Join(dataDir, "todos.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, errOut, err := runCLI(t, "add", "Buy milk")
	if err == nil || !strings.Contains(err.Error(), "saving tasks") {
		t.Fatalf("expected save error, got %v", err)
	}
	if !strings.Contains(errOut, "failed to save tasks") {
		t.Errorf("expected the failure to be logged, got %q", errOut)
	}
}

func TestDrivers(t *testing.T) {
	for _, driver := range []string{"sqlite", "memory"} {
		t.Run(driver, func(t *testing.T) {
			setup(t)
			mustRun(t, "-storage", driver, "add", "Buy milk")
			list := listJSON(t, "-storage", driver)
			switch driver {
			case "memory":
				if len(list) != 0 {
					t.Errorf("memory slot should not outlive the process: %v", list)
				}
			default:
				if len(list) != 1 || list[0].Text != "Buy milk" {
					t.Errorf("list: %v", list)
				}
			}
		})
	}
}

func TestStorageKeyFromEnv(t *testing.T) {
	dataDir := setup(t)
	t.Setenv("TODOLIST_STORAGE_KEY", "work")
	mustRun(t, "add", "Ship it")
	if _, err := os.Stat(filepath.Join(dataDir, "work.json")); err != nil {
		t.Errorf("expected work.json: %v", err)
	}
}

func TestHookCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	setup(t)
	dir := t.TempDir()
	seen := filepath.Join(dir, "seen.json")
	script := filepath.Join(dir, "hook.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\ncat > \"$1\"\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	mustRun(t, "-hook", script+" "+seen, "add", "Buy milk")
	data, err := os.ReadFile(seen)
	if err != nil {
		t.Fatalf("hook did not run: %v", err)
	}
	list, err := todo.Decode(data)
	if err != nil || len(list) != 1 || list[0].Text != "Buy milk" {
		t.Errorf("hook payload %s: %v", data, err)
	}

	// A failing hook is logged and does not fail the action.
	t.Setenv("TODOLIST_HOOK", "/nonexistent/hook")
	_, errOut, err := runCLI(t, "add", "Walk dog")
	if err != nil {
		t.Fatalf("add with failing hook: %v", err)
	}
	if !strings.Contains(errOut, "hook failed") {
		t.Errorf("expected hook failure in log, got %q", errOut)
	}
	if list := listJSON(t); len(list) != 2 {
		t.Errorf("list: %v", list)
	}
}

func TestStatsText(t *testing.T) {
	setup(t)
	mustRun(t, "add", "a")
	mustRun(t, "add", "b")
	mustRun(t, "add", "c")
	list := listJSON(t)
	mustRun(t, "done", strconv.FormatInt(list[0].ID, 10))

	out := mustRun(t, "stats")
	for _, want := range []string{"Total:     3", "Active:    2", "Completed: 1", "1 of 3 done (33%)"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestDoctorCommand(t *testing.T) {
	setup(t)

	out := mustRun(t, "doctor")
	for _, want := range []string{"No tasks stored yet", "storage_driver", "(environment)", "(default)", "All checks passed"} {
		if !strings.Contains(out, want) {
			t.Errorf("doctor output missing %q:\n%s", want, out)
		}
	}

	mustRun(t, "add", "Buy milk")
	out = mustRun(t, "doctor", "-v")
	if !strings.Contains(out, "Valid, tasks stored: 1") || !strings.Contains(out, "Buy milk  (added ") {
		t.Errorf("doctor -v output:\n%s", out)
	}
}

func TestInitCommand(t *testing.T) {
	setup(t)

	out := mustRun(t, "init")
	if !strings.Contains(out, "Wrote todolist.toml") {
		t.Errorf("init output: %q", out)
	}
	data, err := os.ReadFile("todolist.toml")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != config.ExampleConfig() {
		t.Error("config file does not match example config")
	}

	if err := os.WriteFile("todolist.toml", []byte(`storage_driver = "memory"`), 0o644); err != nil {
		t.Fatal(err)
	}
	out = mustRun(t, "init")
	if !strings.Contains(out, "already exists") {
		t.Errorf("second init: %q", out)
	}
	if data, _ := os.ReadFile("todolist.toml"); string(data) != `storage_driver = "memory"` {
		t.Error("init overwrote the file without -force")
	}

	// The project file is picked up by the next invocation.
	out = mustRun(t, "doctor")
	if !strings.Contains(out, "(project file)") {
		t.Errorf("doctor should report the project file source:\n%s", out)
	}

	mustRun(t, "init", "-force")
	if data, _ := os.ReadFile("todolist.toml"); string(data) != config.ExampleConfig() {
		t.Error("init -force did not overwrite")
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{"1700000000000", 1700000000000, false},
		{"#12", 12, false},
		{"0", 0, true},
		{"x", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseID("rm", []string{tt.arg})
			if (err != nil) != tt.wantErr {
				t.Fatalf("error: got %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
