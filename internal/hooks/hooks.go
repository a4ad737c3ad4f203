// Package hooks runs an optional user command after the task list is saved.
package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a single hook run when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Options describes one hook invocation.
type Options struct {
	// Command is the executable, optionally followed by arguments separated
	// by whitespace. Empty means no hook.
	Command string
	// Payload is written to the command's stdin.
	Payload []byte
	// Env is appended to the inherited environment.
	Env     []string
	Timeout time.Duration
}

// Result reports what happened.
type Result struct {
	Ran      bool
	Command  string
	ExitCode int
	Output   string
	Duration time.Duration
}

// Invoke runs the hook command. A blank command returns without running.
// A non-zero exit status is returned as an error and recorded in Result.
func Invoke(ctx context.Context, opts Options) (Result, error) {
	fields := strings.Fields(opts.Command)
	if len(fields) == 0 {
		return Result{}, nil
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Stdin = bytes.NewReader(opts.Payload)
	cmd.Env = append(os.Environ(), opts.Env...)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()
	result := Result{
		Ran:      true,
		Command:  opts.Command,
		Output:   strings.TrimSpace(out.String()),
		Duration: time.Since(start),
	}
	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		if ctx.Err() != nil {
			return result, fmt.Errorf("hook %q: %w", fields[0], ctx.Err())
		}
		return result, fmt.Errorf("hook %q exited with status %d", fields[0], result.ExitCode)
	}
	result.Ran = false
	return result, fmt.Errorf("hook %q: %w", fields[0], err)
}

// Env builds KEY=value pairs for the hook environment.
func Env(key string, count, completed int) []string {
	return []string{
		"TODOLIST_KEY=" + key,
		"TODOLIST_TOTAL=" + strconv.Itoa(count),
		"TODOLIST_COMPLETED=" + strconv.Itoa(completed),
	}
}
