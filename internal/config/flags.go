package config

import (
	"flag"
)

// flagBinding ties a CLI flag to a config field for source tracking.
type flagBinding struct {
	name  string
	field string
	apply func(cfg *Config)
}

// parseFlags defines the global flags on fs, parses args, and applies the
// flags that were explicitly set. Flags left at their defaults do not
// override values from files or the environment.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("todolist", flag.ContinueOnError)
	}

	var (
		storageDriver, dataDir, storageKey, sqlitePath string
		defaultFilter, hookCommand                     string
		logLevel, logFormat, logFile                   string
		logTimestamps, logCaller                       bool
	)

	fs.StringVar(&storageDriver, "storage", cfg.StorageDriver, "Storage driver (file, sqlite, memory)")
	fs.StringVar(&dataDir, "data-dir", cfg.DataDir, "Data directory for the file driver, database and logs")
	fs.StringVar(&storageKey, "key", cfg.StorageKey, "Key of the durable slot holding the task list")
	fs.StringVar(&sqlitePath, "db", cfg.SQLitePath, "SQLite database path (default <data-dir>/todolist.db)")
	fs.StringVar(&defaultFilter, "filter", cfg.DefaultFilter, "Initial filter (all, active, completed)")
	fs.StringVar(&hookCommand, "hook", cfg.HookCommand, "Command run with the saved task list on stdin after every change")
	fs.StringVar(&logLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&logFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&logTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&logCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")
	fs.StringVar(&logFile, "log-file", cfg.LogFile, "Log file used by the terminal UI")

	bindings := []flagBinding{
		{"storage", "storage_driver", func(c *Config) { c.StorageDriver = storageDriver }},
		{"data-dir", "data_dir", func(c *Config) { c.DataDir = dataDir }},
		{"key", "storage_key", func(c *Config) { c.StorageKey = storageKey }},
		{"db", "sqlite_path", func(c *Config) { c.SQLitePath = sqlitePath }},
		{"filter", "default_filter", func(c *Config) { c.DefaultFilter = defaultFilter }},
		{"hook", "hook_command", func(c *Config) { c.HookCommand = hookCommand }},
		{"log-level", "log_level", func(c *Config) { c.LogLevel = logLevel }},
		{"log-format", "log_format", func(c *Config) { c.LogFormat = logFormat }},
		{"log-timestamps", "log_timestamps", func(c *Config) { c.LogTimestamps = logTimestamps }},
		{"log-caller", "log_caller", func(c *Config) { c.LogCaller = logCaller }},
		{"log-file", "log_file", func(c *Config) { c.LogFile = logFile }},
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	for _, b := range bindings {
		if !set[b.name] {
			continue
		}
		b.apply(cfg)
		if sources != nil {
			sources[b.field] = SourceFlag
		}
	}
	return nil
}
