package process

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/core-tools/hsu-bootstrap/pkg/errors"
	"github.com/core-tools/hsu-bootstrap/pkg/logging"
)

// DefaultWaitDelay bounds how long a cancelled or timed out child may ignore
// SIGTERM before it is killed and its pipes are closed.
const DefaultWaitDelay = 5 * time.Second

type ExecutionConfig struct {
	ExecutablePath   string        `yaml:"executable_path"`
	Args             []string      `yaml:"args,omitempty"`
	Environment      []string      `yaml:"environment,omitempty"`
	WorkingDirectory string        `yaml:"working_directory,omitempty"`
	Timeout          time.Duration `yaml:"timeout,omitempty"`
	WaitDelay        time.Duration `yaml:"wait_delay,omitempty"`
}

// CommandLine renders the invocation the way a shell trace would.
func (c ExecutionConfig) CommandLine() string {
	return strings.Join(append([]string{c.ExecutablePath}, c.Args...), " ")
}

// StdIO holds the streams handed to the child. Nil streams are left unconnected.
type StdIO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// InheritedStdIO connects the child to this process's own streams.
func InheritedStdIO() StdIO {
	return StdIO{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

type ExecutionResult struct {
	ExitCode int
	Duration time.Duration
}

// Executor runs one command to completion.
// A non-zero exit is reported both in the result and as a command error.
type Executor interface {
	Execute(ctx context.Context, id string, execution ExecutionConfig, stdio StdIO) (ExecutionResult, error)
}

type stdExecutor struct {
	logger logging.Logger
}

func NewStdExecutor(logger logging.Logger) Executor {
	return &stdExecutor{logger: logger}
}

func (e *stdExecutor) Execute(ctx context.Context, id string, execution ExecutionConfig, stdio StdIO) (ExecutionResult, error) {
	if ctx == nil {
		e.logger.Errorf("Context cannot be nil, id: %s", id)
		return ExecutionResult{ExitCode: errors.ExitCodeGeneric}, errors.NewValidationError("context cannot be nil", nil).WithContext("id", id)
	}

	if err := ValidateExecutionConfig(execution); err != nil {
		e.logger.Errorf("Execution configuration validation failed, id: %s, error: %v", id, err)
		return ExecutionResult{ExitCode: errors.ExitCodeGeneric}, errors.NewValidationError("invalid execution configuration", err).WithContext("id", id)
	}

	path, resolveErr := ResolveExecutable(execution.ExecutablePath)
	if resolveErr != nil {
		e.logger.Errorf("Executable not found, id: %s, executable: '%s'", id, execution.ExecutablePath)
		return ExecutionResult{ExitCode: errors.ExitCodeNotFound}, resolveErr.WithContext("id", id)
	}

	runCtx := ctx
	if execution.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, execution.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, path, execution.Args...)
	cmd.Dir = execution.WorkingDirectory
	cmd.Env = append(os.Environ(), execution.Environment...)
	cmd.Stdin = stdio.Stdin
	cmd.Stdout = stdio.Stdout
	cmd.Stderr = stdio.Stderr

	// Ask the child to stop first; WaitDelay escalates to a kill
	cmd.Cancel = func() error {
		return terminateProcess(cmd.Process)
	}
	cmd.WaitDelay = execution.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	e.logger.Debugf("Executing command, id: %s, path: '%s', args: %v, working directory: '%s'",
		id, path, execution.Args, execution.WorkingDirectory)

	start := time.Now()
	err := cmd.Run()
	result := ExecutionResult{Duration: time.Since(start)}

	if err == nil {
		e.logger.Debugf("Command finished, id: %s, duration: %v", id, result.Duration)
		return result, nil
	}

	switch {
	case stderrors.Is(ctx.Err(), context.Canceled):
		result.ExitCode = errors.ExitCodeCancelled
		return result, errors.NewCancelledError("command interrupted", err).WithContext("id", id)
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded), stderrors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.ExitCode = errors.ExitCodeTimeout
		return result, errors.NewTimeoutError("command timed out", err).WithContext("id", id).WithContext("timeout", execution.Timeout.String())
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		result.ExitCode = exitStatus(exitErr)
		return result, errors.NewCommandError(
			fmt.Sprintf("command exited with status %d", result.ExitCode), result.ExitCode, err,
		).WithContext("id", id).WithContext("command", execution.CommandLine())
	}

	result.ExitCode = errors.ExitCodeGeneric
	return result, errors.NewProcessError("failed to run command", err).WithContext("id", id).WithContext("executable_path", path)
}

// ResolveExecutable finds name on PATH unless it already contains a path separator.
func ResolveExecutable(name string) (string, *errors.DomainError) {
	if strings.ContainsRune(name, filepath.Separator) || strings.ContainsRune(name, '/') {
		info, err := os.Stat(name)
		if err != nil {
			return "", errors.NewNotFoundError("executable not found: "+name, err).WithContext("executable_path", name)
		}
		if info.IsDir() {
			return "", errors.NewNotFoundError("executable path is a directory: "+name, nil).WithContext("executable_path", name)
		}
		return name, nil
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", errors.NewNotFoundError("executable not found on PATH: "+name, err).WithContext("executable_path", name)
	}
	return path, nil
}
