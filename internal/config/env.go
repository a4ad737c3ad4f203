package config

import (
	"os"

	"github.com/nibzard/todolist-go/internal/utils"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "TODOLIST_"

// envBinding maps an environment variable to a config field.
type envBinding struct {
	name  string
	field string
	set   func(cfg *Config, v string)
}

func envBindings() []envBinding {
	str := func(dst func(*Config) *string) func(*Config, string) {
		return func(cfg *Config, v string) { *dst(cfg) = v }
	}
	boolean := func(dst func(*Config) *bool) func(*Config, string) {
		return func(cfg *Config, v string) { *dst(cfg) = utils.BoolFromString(v) }
	}
	// Later entries win when several are set.
	return []envBinding{
		{"STORAGE", "storage_driver", str(func(c *Config) *string { return &c.StorageDriver })},
		{"STORAGE_DRIVER", "storage_driver", str(func(c *Config) *string { return &c.StorageDriver })},
		{"DATA_DIR", "data_dir", str(func(c *Config) *string { return &c.DataDir })},
		{"STORAGE_KEY", "storage_key", str(func(c *Config) *string { return &c.StorageKey })},
		{"SQLITE_PATH", "sqlite_path", str(func(c *Config) *string { return &c.SQLitePath })},
		{"FILTER", "default_filter", str(func(c *Config) *string { return &c.DefaultFilter })},
		{"HOOK", "hook_command", str(func(c *Config) *string { return &c.HookCommand })},
		{"LOG_LEVEL", "log_level", str(func(c *Config) *string { return &c.LogLevel })},
		{"LOG_FORMAT", "log_format", str(func(c *Config) *string { return &c.LogFormat })},
		{"LOG_TIMESTAMPS", "log_timestamps", boolean(func(c *Config) *bool { return &c.LogTimestamps })},
		{"LOG_CALLER", "log_caller", boolean(func(c *Config) *bool { return &c.LogCaller })},
		{"LOG_FILE", "log_file", str(func(c *Config) *string { return &c.LogFile })},
	}
}

// loadFromEnv overrides config from TODOLIST_* environment variables and
// records SourceEnv for every field it sets.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) {
	for _, b := range envBindings() {
		v := os.Getenv(EnvPrefix + b.name)
		if v == "" {
			continue
		}
		b.set(cfg, v)
		if sources != nil {
			sources[b.field] = SourceEnv
		}
	}
}
