package todo

import (
	"errors"
	"fmt"
	"strings"
)

// FilterMode selects a subset of a list for display.
type FilterMode string

const (
	FilterAll       FilterMode = "all"
	FilterActive    FilterMode = "active"
	FilterCompleted FilterMode = "completed"
)

// FilterModes lists the modes in display order.
var FilterModes = []FilterMode{FilterAll, FilterActive, FilterCompleted}

// ErrUnknownFilter is returned by ParseFilterMode for unrecognised input.
var ErrUnknownFilter = errors.New("unknown filter")

// ParseFilterMode normalises s and maps it to a FilterMode.
// An empty string means FilterAll.
func ParseFilterMode(s string) (FilterMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "active", "open", "todo":
		return FilterActive, nil
	case "completed", "done":
		return FilterCompleted, nil
	default:
		return FilterAll, fmt.Errorf("%w %q, must be one of: all, active, completed", ErrUnknownFilter, s)
	}
}

// Next returns the mode after m, wrapping around.
func (m FilterMode) Next() FilterMode {
	for i, mode := range FilterModes {
		if mode == m {
			return FilterModes[(i+1)%len(FilterModes)]
		}
	}
	return FilterAll
}

// Matches reports whether t belongs to the view selected by m.
// Unknown modes match everything.
func (m FilterMode) Matches(t Task) bool {
	switch m {
	case FilterActive:
		return !t.Completed
	case FilterCompleted:
		return t.Completed
	default:
		return true
	}
}

// EmptyMessage is the text shown when the view selected by m has no tasks.
func (m FilterMode) EmptyMessage() string {
	switch m {
	case FilterActive:
		return "No active tasks"
	case FilterCompleted:
		return "No completed tasks"
	default:
		return "Nothing to do. Add a task to get started!"
	}
}

// Filter returns the tasks of l selected by mode, in list order.
// The result never aliases l.
func Filter(l List, mode FilterMode) List {
	out := make(List, 0, len(l))
	for _, t := range l {
		if mode.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}
