package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"
)

const (
	maxStderrBytes = 512
	waitDelay      = time.Second
)

// Runner executes an external diagnostic tool and returns its stdout
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RunnerFunc adapts a function to the Runner interface
type RunnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Run calls f(ctx, name, args...)
func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

// ErrorKind classifies why a tool invocation failed
type ErrorKind string

const (
	KindNotFound  ErrorKind = "not_found"
	KindTimeout   ErrorKind = "timeout"
	KindCancelled ErrorKind = "cancelled"
	KindExit      ErrorKind = "exit"
	KindFailed    ErrorKind = "failed"
)

// CommandError describes a failed tool invocation in human-readable terms
type CommandError struct {
	Tool     string
	Kind     ErrorKind
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("%s not found", e.Tool)
	case KindTimeout:
		return fmt.Sprintf("%s timed out", e.Tool)
	case KindCancelled:
		return fmt.Sprintf("%s cancelled", e.Tool)
	case KindExit:
		if e.Stderr != "" {
			return fmt.Sprintf("%s exited with status %d: %s", e.Tool, e.ExitCode, e.Stderr)
		}
		return fmt.Sprintf("%s exited with status %d", e.Tool, e.ExitCode)
	default:
		return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
	}
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner runs tools as subprocesses bound to the caller's context
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec
func NewExecRunner() ExecRunner {
	return ExecRunner{}
}

// Run executes name with args. The process is killed when ctx expires.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- tool paths come from configuration
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		return stdout.Bytes(), classify(ctx, name, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

func classify(ctx context.Context, tool string, err error, stderr string) *CommandError {
	cmdErr := &CommandError{Tool: toolName(tool), Err: err}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		cmdErr.Kind = KindNotFound
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		cmdErr.Kind = KindTimeout
	case errors.Is(ctx.Err(), context.Canceled):
		cmdErr.Kind = KindCancelled
	case errors.As(err, &exitErr):
		cmdErr.Kind = KindExit
		cmdErr.ExitCode = exitErr.ExitCode()
		cmdErr.Stderr = truncate(strings.TrimSpace(stderr), maxStderrBytes)
	default:
		cmdErr.Kind = KindFailed
	}

	return cmdErr
}

// toolName strips directories so reasons read "nvidia-smi not found"
func toolName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 && i < len(path)-1 {
		return path[i+1:]
	}
	return path
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
