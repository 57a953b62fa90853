// Package runner executes a client binary for the task and captures what it
// prints.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/go-logr/logr"
)

// ErrStdErrOutput is returned when a command that must stay silent on
// stderr writes to it.
var ErrStdErrOutput = errors.New("command wrote to stderr")

// ErrorReporter receives each captured stderr line when a command fails.
type ErrorReporter interface {
	Error(msg string) error
}

// Command is a single invocation of a client binary.
//
//nolint:govet // fieldalignment: readability preferred over optimization
type Command struct {
	Path string
	Args []string
	// Env is appended to the current process environment; later entries win.
	Env []string
	Dir string
	Stdin io.Reader
	// Stdout and Stderr receive the live output in addition to capture.
	Stdout io.Writer
	Stderr io.Writer
	// FailOnStdErr fails the command when anything is written to stderr.
	FailOnStdErr bool
	Errors       ErrorReporter
	Log          logr.Logger
}

// Result is the captured output of a command.
type Result struct {
	Stdout   string
	Stderr   []string
	ExitCode int
}

// Exec runs the command to completion. stdout is captured in full; stderr
// is captured line by line and reported through Errors on failure.
func (c *Command) Exec(ctx context.Context) (Result, error) {
	if c.Path == "" {
		return Result{}, errors.New("no client binary to run")
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...) //nolint:gosec // running the resolved client is the point
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin
	cmd.Env = mergeEnv(os.Environ(), c.Env)

	var stdout bytes.Buffer

	cmd.Stdout = teeTo(&stdout, c.Stdout)

	lines := &lineCollector{}
	cmd.Stderr = teeTo(lines, c.Stderr)

	c.Log.V(1).Info("running", "path", c.Path, "args", strings.Join(c.Args, " "), "dir", c.Dir)

	runErr := cmd.Run()
	lines.flush()

	res := Result{
		Stdout:   stdout.String(),
		Stderr:   lines.Lines(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}

	err := runErr
	if err == nil && c.FailOnStdErr && len(res.Stderr) > 0 {
		err = fmt.Errorf("%w: %s", ErrStdErrOutput, res.Stderr[0])
	}

	if err != nil {
		c.reportErrors(res.Stderr)

		return res, fmt.Errorf("%s failed: %w", c.name(), err)
	}

	return res, nil
}

// String renders the command line for logs.
func (c *Command) String() string {
	return strings.TrimSpace(c.Path + " " + strings.Join(c.Args, " "))
}

func (c *Command) name() string {
	return c.Path[strings.LastIndexAny(c.Path, `/\`)+1:]
}

func (c *Command) reportErrors(lines []string) {
	if c.Errors == nil {
		return
	}

	for _, line := range lines {
		_ = c.Errors.Error(line) //nolint:errcheck // best effort issue reporting
	}
}

func teeTo(capture, live io.Writer) io.Writer {
	if live == nil {
		return capture
	}

	return io.MultiWriter(capture, live)
}

// mergeEnv overlays extra KEY=VALUE entries on base, replacing existing keys.
func mergeEnv(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}

	override := make(map[string]bool, len(extra))
	for _, kv := range extra {
		k, _, _ := strings.Cut(kv, "=")
		override[k] = true
	}

	env := make([]string, 0, len(base)+len(extra))

	for _, kv := range base {
		k, _, _ := strings.Cut(kv, "=")
		if !override[k] {
			env = append(env, kv)
		}
	}

	return append(env, extra...)
}

// lineCollector splits written bytes into lines.
type lineCollector struct {
	mu      sync.Mutex
	partial bytes.Buffer
	lines   []string
}

func (l *lineCollector) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.partial.Write(p)

	for {
		i := bytes.IndexByte(l.partial.Bytes(), '\n')
		if i < 0 {
			break
		}

		l.lines = append(l.lines, strings.TrimRight(string(l.partial.Next(i+1)), "\r\n"))
	}

	return len(p), nil
}

func (l *lineCollector) flush() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.partial.Len() > 0 {
		l.lines = append(l.lines, strings.TrimRight(l.partial.String(), "\r"))
		l.partial.Reset()
	}
}

// Lines returns the complete lines seen so far.
func (l *lineCollector) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.lines...)
}
