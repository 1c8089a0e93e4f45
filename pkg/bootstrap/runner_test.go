package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/core-tools/hsu-bootstrap/pkg/errors"
	"github.com/core-tools/hsu-bootstrap/pkg/process"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Simple test logger that implements logging.Logger interface
type TestLogger struct{}

func (l *TestLogger) LogLevelf(level int, format string, args ...interface{}) {}
func (l *TestLogger) Debugf(format string, args ...interface{})               {}
func (l *TestLogger) Infof(format string, args ...interface{})                {}
func (l *TestLogger) Warnf(format string, args ...interface{})                {}
func (l *TestLogger) Errorf(format string, args ...interface{})               {}

// fakeExecutor writes "<id> output" to the child stdout and exits with the configured code
type fakeExecutor struct {
	exitCodes   map[string]int
	calls       []string
	workingDirs []string
}

func (f *fakeExecutor) Execute(ctx context.Context, id string, execution process.ExecutionConfig, stdio process.StdIO) (process.ExecutionResult, error) {
	f.calls = append(f.calls, id)
	f.workingDirs = append(f.workingDirs, execution.WorkingDirectory)
	fmt.Fprintf(stdio.Stdout, "%s output\n", id)

	code := f.exitCodes[id]
	if code != 0 {
		return process.ExecutionResult{ExitCode: code, Duration: time.Millisecond},
			errors.NewCommandError(fmt.Sprintf("command exited with status %d", code), code, nil)
	}
	return process.ExecutionResult{Duration: time.Millisecond}, nil
}

func newTestRunner(t *testing.T, plan *Plan, executor process.Executor) (*Runner, *bytes.Buffer) {
	var out bytes.Buffer
	runner, err := NewRunner(plan, executor, RunnerOptions{
		RunID:  "test-run",
		Stdout: &out,
		StdIO:  &process.StdIO{Stdout: &out, Stderr: &out},
	}, &TestLogger{})
	require.NoError(t, err)
	return runner, &out
}

func TestRunner_AllStepsSucceed(t *testing.T) {
	executor := &fakeExecutor{}
	runner, out := newTestRunner(t, DefaultPlan(), executor)

	report, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, errors.ExitCode(err))
	assert.True(t, report.Completed)
	assert.Nil(t, report.FailedStep())
	assert.Equal(t, "test-run", report.RunID)
	assert.Equal(t, []string{"pip-upgrade", "pip-install-editable", "alembic-upgrade"}, executor.calls)
	assert.Equal(t,
		"=== Installing dependencies ===\n"+
			"pip-upgrade output\n"+
			"pip-install-editable output\n"+
			"=== Running migrations ===\n"+
			"alembic-upgrade output\n"+
			"=== Build complete ===\n",
		out.String())
}

func TestRunner_InstallFailureStopsRun(t *testing.T) {
	executor := &fakeExecutor{exitCodes: map[string]int{"pip-install-editable": 1}}
	runner, out := newTestRunner(t, DefaultPlan(), executor)

	report, err := runner.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1, errors.ExitCode(err))
	assert.True(t, errors.IsCommandError(err))
	assert.False(t, report.Completed)
	assert.Equal(t, []string{"pip-upgrade", "pip-install-editable"}, executor.calls)

	failed := report.FailedStep()
	require.NotNil(t, failed)
	assert.Equal(t, "pip-install-editable", failed.ID)
	assert.Equal(t, 1, failed.ExitCode)

	assert.Contains(t, out.String(), "=== Installing dependencies ===")
	assert.NotContains(t, out.String(), "=== Running migrations ===")
	assert.NotContains(t, out.String(), "=== Build complete ===")
	assert.NotContains(t, out.String(), "alembic-upgrade output")
}

func TestRunner_MigrationFailurePropagatesExitCode(t *testing.T) {
	executor := &fakeExecutor{exitCodes: map[string]int{"alembic-upgrade": 2}}
	runner, out := newTestRunner(t, DefaultPlan(), executor)

	report, err := runner.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, 2, errors.ExitCode(err))
	assert.False(t, report.Completed)
	assert.Equal(t,
		"=== Installing dependencies ===\n"+
			"pip-upgrade output\n"+
			"pip-install-editable output\n"+
			"=== Running migrations ===\n"+
			"alembic-upgrade output\n",
		out.String())
}

func TestRunner_FailFastAtEveryStep(t *testing.T) {
	ids := []string{"pip-upgrade", "pip-install-editable", "alembic-upgrade"}

	for k, failing := range ids {
		t.Run(failing, func(t *testing.T) {
			code := 10 + k
			executor := &fakeExecutor{exitCodes: map[string]int{failing: code}}
			runner, out := newTestRunner(t, DefaultPlan(), executor)

			_, err := runner.Run(context.Background())

			assert.Equal(t, code, errors.ExitCode(err))
			assert.Equal(t, ids[:k+1], executor.calls)
			assert.NotContains(t, out.String(), FormatBanner(BannerBuildComplete))
		})
	}
}

func TestRunner_RepeatedRunsPerformSameCalls(t *testing.T) {
	executor := &fakeExecutor{}
	runner, _ := newTestRunner(t, DefaultPlan(), executor)

	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	first := append([]string(nil), executor.calls...)

	executor.calls = nil
	_, err = runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, executor.calls)
}

func TestRunner_SkipsDisabledSteps(t *testing.T) {
	disabled := false
	plan := DefaultPlan()
	plan.Phases[0].Steps[0].Enabled = &disabled

	executor := &fakeExecutor{}
	runner, _ := newTestRunner(t, plan, executor)

	report, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"pip-install-editable", "alembic-upgrade"}, executor.calls)
	require.Len(t, report.Steps, 3)
	assert.True(t, report.Steps[0].Skipped)
	assert.Nil(t, report.FailedStep())
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executor := &fakeExecutor{}
	runner, out := newTestRunner(t, DefaultPlan(), executor)

	_, err := runner.Run(ctx)

	require.Error(t, err)
	assert.True(t, errors.IsCancelledError(err))
	assert.Equal(t, errors.ExitCodeCancelled, errors.ExitCode(err))
	assert.Empty(t, executor.calls)
	assert.NotContains(t, out.String(), FormatBanner(BannerBuildComplete))
}

func TestRunner_DryRun(t *testing.T) {
	var trace bytes.Buffer
	runner, out := newTestRunner(t, DefaultPlan(), process.NewDryRunExecutor(&trace, &TestLogger{}))

	report, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.True(t, report.Completed)
	assert.Equal(t,
		"+ pip install --upgrade pip\n"+
			"+ pip install -e .\n"+
			"+ alembic upgrade head\n",
		trace.String())
	assert.Equal(t,
		"=== Installing dependencies ===\n"+
			"=== Running migrations ===\n"+
			"=== Build complete ===\n",
		out.String())
}

func TestNewRunner_Validation(t *testing.T) {
	_, err := NewRunner(nil, &fakeExecutor{}, RunnerOptions{}, nil)
	assert.True(t, errors.IsValidationError(err))

	_, err = NewRunner(DefaultPlan(), nil, RunnerOptions{}, nil)
	assert.True(t, errors.IsValidationError(err))

	runner, err := NewRunner(DefaultPlan(), &fakeExecutor{}, RunnerOptions{}, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, runner.options.RunID)
	assert.NotNil(t, runner.options.Stdout)
	assert.NotNil(t, runner.options.StdIO)
}

func TestFormatBanner(t *testing.T) {
	assert.Equal(t, "=== Installing dependencies ===", FormatBanner(BannerInstallingDependencies))
	assert.Equal(t, "=== Running migrations ===", FormatBanner(BannerRunningMigrations))
	assert.Equal(t, "=== Build complete ===", FormatBanner(BannerBuildComplete))
}

func TestNewRunID_Unique(t *testing.T) {
	assert.NotEqual(t, NewRunID(), NewRunID())
	assert.Len(t, NewRunID(), 36)
}
