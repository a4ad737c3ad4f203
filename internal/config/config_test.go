package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/todolist-go/internal/storage"
	"github.com/nibzard/todolist-go/internal/todo"
)

// isolate points HOME at an empty temp dir, clears TODOLIST_* variables and
// changes into an empty project directory. It returns both directories.
func isolate(t *testing.T) (home, project string) {
	t.Helper()
	home = t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("APPDATA", filepath.Join(home, "AppData"))
	for _, b := range envBindings() {
		t.Setenv(EnvPrefix+b.name, "")
	}
	project = t.TempDir()
	t.Chdir(project)
	return home, project
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("todolist", flag.ContinueOnError)
	fs.SetOutput(&strings.Builder{})
	return fs
}

func load(fs *flag.FlagSet, args []string) (*Config, error) {
	cws, err := LoadWithSources(fs, args)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

func TestDefaults(t *testing.T) {
	home, _ := isolate(t)

	cws, err := LoadWithSources(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	cfg := cws.Config

	wantDir := filepath.Join(home, ".todolist")
	if cfg.DataDir != wantDir {
		t.Errorf("DataDir: got %q, want %q", cfg.DataDir, wantDir)
	}
	if cfg.StorageDriver != "file" {
		t.Errorf("StorageDriver: got %q, want file", cfg.StorageDriver)
	}
	if cfg.StorageKey != "todos" {
		t.Errorf("StorageKey: got %q, want todos", cfg.StorageKey)
	}
	if want := filepath.Join(wantDir, "todolist.db"); cfg.SQLitePath != want {
		t.Errorf("SQLitePath: got %q, want %q", cfg.SQLitePath, want)
	}
	if cfg.Filter() != todo.FilterAll {
		t.Errorf("Filter: got %q, want all", cfg.Filter())
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("logging: got %q/%q, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
	if want := filepath.Join(wantDir, "todolist.log"); cfg.TUILogFile() != want {
		t.Errorf("TUILogFile: got %q, want %q", cfg.TUILogFile(), want)
	}
	if len(cws.Files) != 0 {
		t.Errorf("Files: got %v, want none", cws.Files)
	}
	for _, field := range Fields() {
		if cws.Sources[field] != SourceDefault {
			t.Errorf("source of %s: got %q, want default", field, cws.Sources[field])
		}
	}
}

func TestLayering(t *testing.T) {
	home, project := isolate(t)

	writeFile(t, filepath.Join(home, ".todolist", "todolist.toml"), `
storage_driver = "sqlite"
storage_key = "user-key"
default_filter = "active"
log_level = "debug"
`)
	writeFile(t, filepath.Join(project, "todolist.toml"), `
storage_key = "project-key"
log_format = "json"
`)
	t.Setenv("TODOLIST_LOG_FORMAT", "logfmt")
	t.Setenv("TODOLIST_DATA_DIR", filepath.Join(project, "data"))
	t.Setenv("TODOLIST_LOG_CALLER", "yes")

	cws, err := LoadWithSources(newFlagSet(), []string{"-filter", "done", "-log-level", "warning", "ls"})
	if err != nil {
		t.Fatalf("LoadWithSources: %v", err)
	}
	cfg := cws.Config

	tests := []struct {
		field  string
		got    string
		want   string
		source ConfigSource
	}{
		{"storage_driver", cfg.StorageDriver, "sqlite", SourceUserFile},
		{"storage_key", cfg.StorageKey, "project-key", SourceProjFile},
		{"log_format", cfg.LogFormat, "logfmt", SourceEnv},
		{"data_dir", cfg.DataDir, filepath.Join(project, "data"), SourceEnv},
		{"default_filter", cfg.DefaultFilter, "completed", SourceFlag},
		{"log_level", cfg.LogLevel, "warn", SourceFlag},
		{"sqlite_path", cfg.SQLitePath, filepath.Join(project, "data", "todolist.db"), SourceDefault},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("value: got %q, want %q", tt.got, tt.want)
			}
			if cws.Sources[tt.field] != tt.source {
				t.Errorf("source: got %q, want %q", cws.Sources[tt.field], tt.source)
			}
		})
	}
	if !cfg.LogCaller {
		t.Errorf("LogCaller: got false, want true from environment")
	}
	if len(cws.Files) != 2 {
		t.Errorf("Files: got %v, want user and project file", cws.Files)
	}
}

func TestDotfileProjectConfig(t *testing.T) {
	_, project := isolate(t)
	writeFile(t, filepath.Join(project, ".todolist.toml"), `storage_driver = "memory"`)

	cfg, err := load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StorageDriver != "memory" {
		t.Errorf("StorageDriver: got %q, want memory", cfg.StorageDriver)
	}
}

func TestFlagsLeaveRemainingArgs(t *testing.T) {
	isolate(t)
	fs := newFlagSet()
	if _, err := load(fs, []string{"-storage", "memory", "add", "Buy", "milk"}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := strings.Join(fs.Args(), " "); got != "add Buy milk" {
		t.Errorf("Args: got %q, want %q", got, "add Buy milk")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		project string
		args    []string
		want    string
	}{
		{"unknown key", `colour = "blue"`, nil, "unknown keys: colour"},
		{"bad toml", `storage_driver = `, nil, "loading project config file"},
		{"bad driver", `storage_driver = "redis"`, nil, "unknown storage driver"},
		{"bad filter", ``, []string{"-filter", "someday"}, "default_filter"},
		{"bad level", `log_level = "loud"`, nil, `log_level: invalid value "loud", must be one of: debug, info, warn, error, fatal`},
		{"bad format", ``, []string{"-log-format", "xml"}, `log_format: invalid value "xml", must be one of: text, json, logfmt`},
		{"empty key", `storage_key = "  "`, nil, "storage_key"},
		{"undefined flag", ``, []string{"-nope"}, "parsing flags"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, project := isolate(t)
			if tt.project != "" {
				writeFile(t, filepath.Join(project, "todolist.toml"), tt.project)
			}
			_, err := load(newFlagSet(), tt.args)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}
}

func TestStorageOptions(t *testing.T) {
	cfg := &Config{StorageDriver: "sqlite", DataDir: "/data", SQLitePath: "/data/x.db"}
	got := cfg.StorageOptions()
	want := storage.Options{Driver: storage.DriverSQLite, Dir: "/data", SQLitePath: "/data/x.db"}
	if got != want {
		t.Errorf("StorageOptions: got %+v, want %+v", got, want)
	}
}

func TestFilterFallsBackToAll(t *testing.T) {
	cfg := &Config{DefaultFilter: "bogus"}
	if got := cfg.Filter(); got != todo.FilterAll {
		t.Errorf("Filter: got %q, want all", got)
	}
}

func TestExampleConfigDecodes(t *testing.T) {
	cfg := &Config{}
	md, err := toml.Decode(ExampleConfig(), cfg)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(md.Undecoded()) != 0 {
		t.Errorf("example has unknown keys: %v", md.Undecoded())
	}
	if err := finalizeConfig(cfg); err != nil {
		t.Errorf("example does not validate: %v", err)
	}
}
