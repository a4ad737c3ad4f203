package config

import (
	"path/filepath"

	"github.com/nibzard/todolist-go/internal/storage"
	"github.com/nibzard/todolist-go/internal/todo"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were read, lowest priority first.
	Files []string
}

// Default values.
const (
	DefaultStorageDriver = string(storage.DriverFile)
	DefaultDataDir       = "~/.todolist"
	DefaultStorageKey    = "todos"
	DefaultSQLiteFile    = "todolist.db"
	DefaultFilter        = string(todo.FilterAll)
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)

// Config holds the full configuration for todolist.
type Config struct {
	// Storage
	StorageDriver string `toml:"storage_driver" validate:"oneof=file sqlite memory"`
	DataDir       string `toml:"data_dir" validate:"required"`
	StorageKey    string `toml:"storage_key" validate:"required"`
	SQLitePath    string `toml:"sqlite_path"`

	// Initial view
	DefaultFilter string `toml:"default_filter"`

	// Command run with the saved list on stdin after every change
	HookCommand string `toml:"hook_command"`

	// Logging configuration
	LogLevel      string `toml:"log_level" validate:"loglevel"`
	LogFormat     string `toml:"log_format" validate:"logformat"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`
	// LogFile receives log output while the TUI owns the terminal.
	// Empty means <data_dir>/todolist.log.
	LogFile string `toml:"log_file"`
}

// StorageOptions converts the storage fields to slot options.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Driver:     storage.Driver(c.StorageDriver),
		Dir:        c.DataDir,
		SQLitePath: c.SQLitePath,
	}
}

// Filter returns the configured initial filter mode.
// Values are normalised during Load; an unparsable value yields FilterAll.
func (c *Config) Filter() todo.FilterMode {
	mode, err := todo.ParseFilterMode(c.DefaultFilter)
	if err != nil {
		return todo.FilterAll
	}
	return mode
}

// TUILogFile returns where the TUI writes its log.
func (c *Config) TUILogFile() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "todolist.log")
}
