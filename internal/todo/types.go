package todo

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TimestampLayout is the createdAt format: ISO-8601 UTC with milliseconds.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Task represents a single to-do item.
type Task struct {
	ID        int64  `json:"id" validate:"gt=0"`
	Text      string `json:"text" validate:"required"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"createdAt"`
}

// Created parses CreatedAt. The zero time is returned when it cannot be parsed.
func (t Task) Created() time.Time {
	ts, err := time.Parse(time.RFC3339Nano, t.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// List is an ordered sequence of tasks.
type List []Task

// Clone returns a copy that shares no backing array with l.
// A nil list clones to an empty, non-nil list.
func (l List) Clone() List {
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Find returns the task with the given id.
func (l List) Find(id int64) (Task, bool) {
	for _, t := range l {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// maxID returns the largest id in the list, or 0 when empty.
func (l List) maxID() int64 {
	var max int64
	for _, t := range l {
		if t.ID > max {
			max = t.ID
		}
	}
	return max
}

// NextID returns the id a task created at now would receive: the Unix
// millisecond reading, bumped past the largest existing id when the clock
// has not moved beyond it.
func (l List) NextID(now time.Time) int64 {
	id := now.UnixMilli()
	if max := l.maxID(); id <= max {
		id = max + 1
	}
	return id
}

// Add appends a new active task built from text. Text is trimmed and invalid
// UTF-8 is replaced with U+FFFD; when nothing is left the list is returned
// unchanged.
func Add(l List, text string, now time.Time) List {
	text = strings.ToValidUTF8(strings.TrimSpace(text), "\uFFFD")
	if text == "" {
		return l
	}
	out := make(List, len(l), len(l)+1)
	copy(out, l)
	return append(out, Task{
		ID:        l.NextID(now),
		Text:      text,
		Completed: false,
		CreatedAt: now.UTC().Format(TimestampLayout),
	})
}

// Toggle inverts Completed on the task with the given id.
// A missing id yields an unchanged copy.
func Toggle(l List, id int64) List {
	out := l.Clone()
	for i := range out {
		if out[i].ID == id {
			out[i].Completed = !out[i].Completed
		}
	}
	return out
}

// Remove drops the task with the given id.
// A missing id yields an unchanged copy.
func Remove(l List, id int64) List {
	out := make(List, 0, len(l))
	for _, t := range l {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// Stats summarises a list.
type Stats struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

// Percent returns the rounded share of completed tasks, 0 for an empty list.
func (s Stats) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
}

// Summary renders "N of M done", adding the percentage once something is
// completed. An empty list has no summary.
func (s Stats) Summary() string {
	if s.Total == 0 {
		return ""
	}
	line := fmt.Sprintf("%d of %d done", s.Completed, s.Total)
	if s.Completed > 0 {
		line += fmt.Sprintf(" (%d%%)", s.Percent())
	}
	return line
}

// ComputeStats counts total, active and completed tasks.
func ComputeStats(l List) Stats {
	s := Stats{Total: len(l)}
	for _, t := range l {
		if t.Completed {
			s.Completed++
		} else {
			s.Active++
		}
	}
	return s
}
