// Package storage provides the durable key-value slot that holds serialized
// task lists between sessions.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Driver identifies a slot backend implementation.
type Driver string

const (
	DriverFile   Driver = "file"   // one file per key on disk (default)
	DriverSQLite Driver = "sqlite" // kv table in a SQLite database
	DriverMemory Driver = "memory" // in-process map (tests, throwaway sessions)
)

// Drivers lists the supported drivers.
var Drivers = []Driver{DriverFile, DriverSQLite, DriverMemory}

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Slot is a minimal durable key-value store. Set overwrites unconditionally;
// concurrent writers to the same key resolve as last writer wins.
type Slot interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Driver returns the backend driver.
	Driver() Driver
	// Close releases backend resources.
	Close() error
}

// Options selects and configures a slot backend.
type Options struct {
	Driver Driver
	// Dir is the directory for the file driver.
	Dir string
	// SQLitePath is the database file for the sqlite driver.
	SQLitePath string
}

// ParseDriver normalizes s into a Driver. An empty string means DriverFile.
func ParseDriver(s string) (Driver, error) {
	d := Driver(strings.ToLower(strings.TrimSpace(s)))
	if d == "" {
		return DriverFile, nil
	}
	for _, known := range Drivers {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown storage driver %q, must be one of: file, sqlite, memory", s)
}

// Open returns the Slot selected by opts.
func Open(ctx context.Context, opts Options) (Slot, error) {
	switch opts.Driver {
	case DriverFile, "":
		return NewFile(opts.Dir)
	case DriverSQLite:
		return NewSQLite(ctx, opts.SQLitePath)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", opts.Driver)
	}
}

// validateKey rejects keys that are empty or could escape a directory.
func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("empty key")
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("invalid key %q: contains '..'", key)
	}
	if strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("invalid key %q: contains a path separator", key)
	}
	return nil
}
