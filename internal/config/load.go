package config

import (
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/nibzard/todolist-go/internal/logging"
	"github.com/nibzard/todolist-go/internal/storage"
	"github.com/nibzard/todolist-go/internal/todo"
	"github.com/nibzard/todolist-go/internal/utils"
)

// LoadWithSources loads configuration from multiple sources in priority order
// and tracks the source of each value:
// 1. Defaults
// 2. User config file (~/.todolist/todolist.toml or OS-specific config dir)
// 3. Project config file (todolist.toml or .todolist.toml in current directory)
// 4. Environment variables
// 5. CLI flags
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	sources := make(map[string]ConfigSource)
	cfg := &Config{}

	// 1. Set defaults (all fields start with default source)
	setDefaults(cfg)
	for _, field := range configFields() {
		sources[field] = SourceDefault
	}

	var files []string

	// 2. Try to load from user config file
	if userConfigFile := findUserConfigFile(); userConfigFile != "" {
		if err := loadConfigFile(cfg, userConfigFile, sources, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", userConfigFile, err)
		}
		files = append(files, userConfigFile)
	}

	// 3. Try to load from project config file (overrides user config)
	if projectConfigFile := findProjectConfigFile(); projectConfigFile != "" {
		if err := loadConfigFile(cfg, projectConfigFile, sources, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", projectConfigFile, err)
		}
		files = append(files, projectConfigFile)
	}

	// 4. Override from environment
	loadFromEnv(cfg, sources)

	// 5. Parse CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args, sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 6. Compute derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}

	return &ConfigWithSources{
		Config:  cfg,
		Sources: sources,
		Files:   files,
	}, nil
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"storage_driver",
		"data_dir",
		"storage_key",
		"sqlite_path",
		"default_filter",
		"hook_command",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
		"log_file",
	}
}

// Fields returns the configurable field names in display order.
func Fields() []string {
	return configFields()
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.StorageDriver = DefaultStorageDriver
	cfg.DataDir = DefaultDataDir
	cfg.StorageKey = DefaultStorageKey
	cfg.SQLitePath = ""
	cfg.DefaultFilter = DefaultFilter
	cfg.HookCommand = ""
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.LogTimestamps = false
	cfg.LogCaller = false
	cfg.LogFile = ""
}

// loadConfigFile decodes the TOML file at path over cfg and marks every key
// present in the file with source. Unknown keys are an error.
func loadConfigFile(cfg *Config, path string, sources map[string]ConfigSource, source ConfigSource) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	for _, field := range configFields() {
		if md.IsDefined(field) {
			sources[field] = source
		}
	}
	return nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func configValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			return tomlName(f.Tag.Get("toml"))
		})
		_ = validate.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
			return logging.ValidLevel(fl.Field().String())
		})
		_ = validate.RegisterValidation("logformat", func(fl validator.FieldLevel) bool {
			return logging.ValidFormat(fl.Field().String())
		})
	})
	return validate
}

// choices lists the accepted values for validation tags that check membership.
func choices(fe validator.FieldError) []string {
	switch fe.Tag() {
	case "oneof":
		return strings.Fields(fe.Param())
	case "loglevel":
		return logging.Levels
	case "logformat":
		return logging.Formats
	}
	return nil
}

// tomlName returns the key part of a toml struct tag.
func tomlName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	return name
}

// finalizeConfig normalizes values, computes derived paths, and validates.
func finalizeConfig(cfg *Config) error {
	driver, err := storage.ParseDriver(cfg.StorageDriver)
	if err != nil {
		return err
	}
	cfg.StorageDriver = string(driver)

	mode, err := todo.ParseFilterMode(cfg.DefaultFilter)
	if err != nil {
		return fmt.Errorf("default_filter: %w", err)
	}
	cfg.DefaultFilter = string(mode)

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.StorageKey = strings.TrimSpace(cfg.StorageKey)

	// Expand ~ in paths
	cfg.DataDir = utils.ExpandPath(cfg.DataDir)
	cfg.SQLitePath = utils.ExpandPath(cfg.SQLitePath)
	cfg.LogFile = utils.ExpandPath(cfg.LogFile)
	if cfg.SQLitePath == "" && cfg.DataDir != "" {
		cfg.SQLitePath = filepath.Join(cfg.DataDir, DefaultSQLiteFile)
	}

	return cfg.Validate()
}

// Validate checks field values. All problems are joined into the returned error.
func (c *Config) Validate() error {
	err := configValidator().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if allowed := choices(fe); allowed != nil {
			errs = append(errs, fmt.Errorf("%s: invalid value %q, must be one of: %s",
				fe.Field(), fe.Value(), strings.Join(allowed, ", ")))
			continue
		}
		errs = append(errs, fmt.Errorf("%s: failed %q check", fe.Field(), fe.Tag()))
	}
	return errors.Join(errs...)
}
