// Package persist mirrors a task list into a durable storage slot.
package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/nibzard/todolist-go/internal/storage"
	"github.com/nibzard/todolist-go/internal/todo"
)

// DefaultKey is the slot key used when none is configured.
const DefaultKey = "todos"

// Adapter loads and saves the full task list under a single key.
type Adapter struct {
	slot   storage.Slot
	key    string
	logger *log.Logger
}

// New returns an Adapter for key on slot. An empty key means DefaultKey.
func New(slot storage.Slot, key string, logger *log.Logger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Adapter{slot: slot, key: key, logger: logger}
}

// Key returns the slot key.
func (a *Adapter) Key() string { return a.key }

// Load returns the stored list. An absent, empty or malformed value yields
// an empty list; the cause is logged and never returned.
func (a *Adapter) Load(ctx context.Context) todo.List {
	list, err := a.Inspect(ctx)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound), errors.Is(err, ErrEmpty):
			a.logger.Debug("no saved tasks", "key", a.key, "driver", a.slot.Driver())
		default:
			a.logger.Warn("failed to load tasks, starting empty", "key", a.key, "driver", a.slot.Driver(), "err", err)
		}
		return todo.List{}
	}
	a.logger.Debug("loaded tasks", "key", a.key, "count", len(list))
	return list
}

// ErrEmpty is returned by Inspect when the slot holds only whitespace.
var ErrEmpty = errors.New("stored value is empty")

// Inspect reads and decodes the stored list, returning the failure instead
// of recovering from it. Used by diagnostics.
func (a *Adapter) Inspect(ctx context.Context) (todo.List, error) {
	data, err := a.slot.Get(ctx, a.key)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmpty
	}
	list, err := todo.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", a.key, err)
	}
	return list, nil
}

// Save encodes list and overwrites the slot.
func (a *Adapter) Save(ctx context.Context, list todo.List) error {
	data, err := todo.Encode(list)
	if err != nil {
		return err
	}
	if err := a.slot.Set(ctx, a.key, data); err != nil {
		return fmt.Errorf("save %s: %w", a.key, err)
	}
	a.logger.Debug("saved tasks", "key", a.key, "count", len(list))
	return nil
}

// Hook returns a post-mutation callback that saves the list and logs
// failures before handing them back to the caller.
func (a *Adapter) Hook() func(context.Context, todo.List) error {
	return func(ctx context.Context, list todo.List) error {
		if err := a.Save(ctx, list); err != nil {
			a.logger.Error("failed to save tasks", "key", a.key, "err", err)
			return err
		}
		return nil
	}
}
