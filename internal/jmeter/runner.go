// Package jmeter runs Apache JMeter in non-GUI mode as a blocking
// subprocess.
package jmeter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/wesleyorama2/jtlens/internal/config"
)

// Output options passed to every run. They make JMeter write the timing log
// as CSV and include response times in it.
var fixedProperties = []string{
	"-Jjmeter.save.saveservice.output_format=csv",
	"-Jjmeter.save.saveservice.response_time=true",
}

// stderrTailLines is how much of JMeter's stderr an ExecutionError keeps.
const stderrTailLines = 20

// killWaitDelay bounds how long Run waits for output pipes to close once
// JMeter has been killed.
const killWaitDelay = 2 * time.Second

// ExecutionError reports a JMeter run that could not start or exited with
// a non-zero status.
type ExecutionError struct {
	Tool string
	Args []string

	// ExitCode is the process exit status, or -1 if it never ran or was killed
	ExitCode int

	// TimedOut is set when the configured tool timeout expired
	TimedOut bool

	// Stderr holds the last lines JMeter wrote to stderr
	Stderr string

	Err error
}

func (e *ExecutionError) Error() string {
	switch {
	case e.TimedOut:
		return fmt.Sprintf("%s did not finish before the configured timeout: %v", e.Tool, e.Err)
	case e.ExitCode >= 0:
		msg := fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
		if e.Stderr != "" {
			msg += ": " + lastLine(e.Stderr)
		}
		return msg
	default:
		return fmt.Sprintf("failed to run %s: %v", e.Tool, e.Err)
	}
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Args builds the JMeter argument list for cfg:
//
//	-n -t <plan> -l <results> -e -o <report dir> <fixed output properties>
func Args(cfg config.Config) []string {
	args := []string{
		"-n",
		"-t", cfg.TestPlanPath,
		"-l", cfg.ResultsPath,
		"-e", "-o", cfg.ReportDir,
	}
	return append(args, fixedProperties...)
}

type commandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Runner executes one JMeter test plan.
type Runner struct {
	tool    string
	args    []string
	timeout time.Duration
	stdout  io.Writer
	stderr  io.Writer
	command commandFunc
}

// Option configures a Runner.
type Option func(*Runner)

// WithStdout sets where JMeter's standard output is copied.
func WithStdout(w io.Writer) Option {
	return func(r *Runner) {
		r.stdout = w
	}
}

// WithStderr sets where JMeter's standard error is copied.
func WithStderr(w io.Writer) Option {
	return func(r *Runner) {
		r.stderr = w
	}
}

// NewRunner creates a Runner for the tool, plan and output paths in cfg.
//
// A zero cfg.ToolTimeout means the run is never cut short: Run returns when
// JMeter exits on its own or ctx is cancelled.
func NewRunner(cfg config.Config, options ...Option) *Runner {
	r := &Runner{
		tool:    cfg.ToolPath,
		args:    Args(cfg),
		timeout: cfg.ToolTimeout.Std(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		command: exec.CommandContext,
	}

	for _, option := range options {
		option(r)
	}

	return r
}

// CommandLine returns the command that Run executes, for display.
func (r *Runner) CommandLine() string {
	return strings.Join(append([]string{r.tool}, r.args...), " ")
}

// Run starts JMeter and blocks until it exits. Any non-zero exit status is
// returned as *ExecutionError.
func (r *Runner) Run(ctx context.Context) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	tail := &tailBuffer{max: stderrTailLines}

	cmd := r.command(ctx, r.tool, r.args...) //nolint:gosec // G204: tool path and arguments come from the run configuration
	cmd.Stdout = r.stdout
	cmd.Stderr = io.MultiWriter(r.stderr, tail)

	// The jmeter launcher runs java as a child; cancellation has to reach
	// the whole process tree.
	killProcessTree(cmd)
	cmd.WaitDelay = killWaitDelay

	err := cmd.Run()
	if err == nil {
		return nil
	}

	execErr := &ExecutionError{
		Tool:     r.tool,
		Args:     append([]string(nil), r.args...),
		ExitCode: -1,
		Stderr:   tail.String(),
		Err:      err,
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		execErr.TimedOut = true
		return execErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		execErr.ExitCode = exitErr.ExitCode()
	}

	return execErr
}

// tailBuffer keeps the last max lines written to it.
type tailBuffer struct {
	max     int
	lines   []string
	partial string
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	text := t.partial + string(p)
	parts := strings.Split(text, "\n")
	t.partial = parts[len(parts)-1]

	for _, line := range parts[:len(parts)-1] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		t.lines = append(t.lines, line)
		if len(t.lines) > t.max {
			t.lines = t.lines[1:]
		}
	}

	return len(p), nil
}

func (t *tailBuffer) String() string {
	lines := t.lines
	if strings.TrimSpace(t.partial) != "" {
		lines = append(append([]string(nil), lines...), t.partial)
		if len(lines) > t.max {
			lines = lines[1:]
		}
	}
	return strings.Join(lines, "\n")
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndex(s, "\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}
