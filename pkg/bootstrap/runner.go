package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/core-tools/hsu-bootstrap/pkg/errors"
	"github.com/core-tools/hsu-bootstrap/pkg/logging"
	"github.com/core-tools/hsu-bootstrap/pkg/process"

	"github.com/google/uuid"
)

// NewRunID returns a fresh identifier for correlating one run's log lines.
func NewRunID() string {
	return uuid.NewString()
}

type StepReport struct {
	ID       string
	Phase    string
	Command  string
	ExitCode int
	Duration time.Duration
	Skipped  bool
}

type RunReport struct {
	RunID     string
	Steps     []StepReport
	Completed bool
	Duration  time.Duration
}

// FailedStep returns the step that stopped the run, if any.
func (r *RunReport) FailedStep() *StepReport {
	for i := range r.Steps {
		if !r.Steps[i].Skipped && r.Steps[i].ExitCode != 0 {
			return &r.Steps[i]
		}
	}
	return nil
}

type RunnerOptions struct {
	RunID string

	// Banners are written here, defaults to os.Stdout
	Stdout io.Writer

	// Streams handed to every step, defaults to this process's own
	StdIO *process.StdIO
}

// Runner executes a plan strictly in order and stops at the first failing step.
type Runner struct {
	plan     *Plan
	executor process.Executor
	options  RunnerOptions
	logger   logging.Logger
}

func NewRunner(plan *Plan, executor process.Executor, options RunnerOptions, logger logging.Logger) (*Runner, error) {
	if err := ValidatePlan(plan); err != nil {
		return nil, errors.NewValidationError("invalid plan", err)
	}
	if executor == nil {
		return nil, errors.NewValidationError("executor cannot be nil", nil)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	if options.RunID == "" {
		options.RunID = NewRunID()
	}
	if options.Stdout == nil {
		options.Stdout = os.Stdout
	}
	if options.StdIO == nil {
		stdio := process.InheritedStdIO()
		options.StdIO = &stdio
	}

	return &Runner{
		plan:     plan,
		executor: executor,
		options:  options,
		logger:   logger,
	}, nil
}

// Run prints each phase banner, runs its steps, and prints the completion
// banner only when every step succeeded. The returned error carries the
// failing step's exit status, see errors.ExitCode.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{RunID: r.options.RunID}
	start := time.Now()
	defer func() {
		report.Duration = time.Since(start)
	}()

	r.logger.Infof("Bootstrap run starting, run id: %s, phases: %d", report.RunID, len(r.plan.Phases))

	for _, phase := range r.plan.Phases {
		if err := r.printBanner(phase.Banner); err != nil {
			return report, err
		}

		for _, step := range phase.Steps {
			stepReport := StepReport{
				ID:      step.ID,
				Phase:   phase.Banner,
				Command: step.Execution.CommandLine(),
			}

			if !step.IsEnabled() {
				r.logger.Infof("Skipping disabled step, id: %s", step.ID)
				stepReport.Skipped = true
				report.Steps = append(report.Steps, stepReport)
				continue
			}

			if err := ctx.Err(); err != nil {
				r.logger.Warnf("Run cancelled before step, id: %s", step.ID)
				return report, errors.NewCancelledError("run cancelled", err).WithContext("step_id", step.ID)
			}

			r.logger.Infof("Running step, id: %s, command: %s", step.ID, stepReport.Command)

			result, err := r.executor.Execute(ctx, step.ID, step.Execution, *r.options.StdIO)
			stepReport.ExitCode = result.ExitCode
			stepReport.Duration = result.Duration
			if err != nil && stepReport.ExitCode == 0 {
				stepReport.ExitCode = errors.ExitCode(err)
			}
			report.Steps = append(report.Steps, stepReport)

			if err != nil {
				r.logger.Errorf("Step failed, id: %s, exit code: %d, error: %v", step.ID, stepReport.ExitCode, err)
				return report, withStepContext(err, step.ID)
			}

			r.logger.Infof("Step succeeded, id: %s, duration: %v", step.ID, stepReport.Duration)
		}
	}

	if err := r.printBanner(r.plan.CompletionBanner); err != nil {
		return report, err
	}
	report.Completed = true

	r.logger.Infof("Bootstrap run complete, run id: %s, steps: %d", report.RunID, len(report.Steps))

	return report, nil
}

func (r *Runner) printBanner(title string) error {
	if _, err := fmt.Fprintln(r.options.Stdout, FormatBanner(title)); err != nil {
		return errors.NewIOError("failed to write banner", err).WithContext("banner", title)
	}
	return nil
}

func withStepContext(err error, stepID string) error {
	if domainErr, ok := err.(*errors.DomainError); ok {
		return domainErr.WithContext("step_id", stepID)
	}
	return errors.NewProcessError(fmt.Sprintf("step %s failed", stepID), err).WithContext("step_id", stepID)
}
