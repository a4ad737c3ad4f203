// Package session owns the current task list and filter for one user
// session and runs the post-mutation hook after every action.
package session

import (
	"context"
	"time"

	"github.com/nibzard/todolist-go/internal/todo"
)

// Hook is invoked with the new list after every mutation, including no-ops.
type Hook func(ctx context.Context, list todo.List) error

// Chain returns a Hook that runs hooks in order and stops at the first error.
// Nil hooks are skipped.
func Chain(hooks ...Hook) Hook {
	return func(ctx context.Context, list todo.List) error {
		for _, h := range hooks {
			if h == nil {
				continue
			}
			if err := h(ctx, list); err != nil {
				return err
			}
		}
		return nil
	}
}

// Option configures a Session.
type Option func(*Session)

// WithHook sets the post-mutation hook.
func WithHook(h Hook) Option {
	return func(s *Session) {
		s.hook = h
	}
}

// WithClock overrides the time source used for new task ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithFilter sets the initial filter mode.
func WithFilter(mode todo.FilterMode) Option {
	return func(s *Session) {
		s.filter = mode
	}
}

// Session holds the task list value for a single user. It is not safe for
// concurrent use; all actions are expected to come from one event loop.
type Session struct {
	list   todo.List
	filter todo.FilterMode
	hook   Hook
	now    func() time.Time
}

// New creates a session starting from list.
func New(list todo.List, opts ...Option) *Session {
	s := &Session{
		list:   list.Clone(),
		filter: todo.FilterAll,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result describes the outcome of an action.
type Result struct {
	// Changed is false when the action was a no-op (empty text, unknown id).
	Changed bool
	// Task is the task that was added, toggled or removed, when there was one.
	Task todo.Task
}

// Submit adds a task with text. Blank text leaves the list unchanged.
// The hook runs either way; its error is returned.
func (s *Session) Submit(ctx context.Context, text string) (Result, error) {
	next := todo.Add(s.list, text, s.now())
	var res Result
	if len(next) > len(s.list) {
		res = Result{Changed: true, Task: next[len(next)-1]}
	}
	return res, s.commit(ctx, next)
}

// Toggle flips completion on the task with id.
func (s *Session) Toggle(ctx context.Context, id int64) (Result, error) {
	var res Result
	if _, ok := s.list.Find(id); ok {
		res.Changed = true
	}
	next := todo.Toggle(s.list, id)
	if res.Changed {
		res.Task, _ = next.Find(id)
	}
	return res, s.commit(ctx, next)
}

// Delete removes the task with id.
func (s *Session) Delete(ctx context.Context, id int64) (Result, error) {
	var res Result
	if task, ok := s.list.Find(id); ok {
		res = Result{Changed: true, Task: task}
	}
	return res, s.commit(ctx, todo.Remove(s.list, id))
}

// commit replaces the owned list and runs the hook.
func (s *Session) commit(ctx context.Context, next todo.List) error {
	s.list = next
	if s.hook == nil {
		return nil
	}
	return s.hook(ctx, s.list.Clone())
}

// SetFilter changes the current filter mode.
func (s *Session) SetFilter(mode todo.FilterMode) {
	s.filter = mode
}

// Filter returns the current filter mode.
func (s *Session) Filter() todo.FilterMode {
	return s.filter
}

// List returns a copy of the full task list.
func (s *Session) List() todo.List {
	return s.list.Clone()
}

// Visible returns the tasks selected by the current filter.
func (s *Session) Visible() todo.List {
	return todo.Filter(s.list, s.filter)
}

// Stats summarises the full list, independent of the filter.
func (s *Session) Stats() todo.Stats {
	return todo.ComputeStats(s.list)
}
