package process

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/core-tools/hsu-bootstrap/pkg/errors"
	"github.com/core-tools/hsu-bootstrap/pkg/logging"
)

type dryRunExecutor struct {
	trace  io.Writer
	logger logging.Logger
}

// NewDryRunExecutor prints each command as "+ cmd args" instead of running it.
// A nil trace writes to stderr.
func NewDryRunExecutor(trace io.Writer, logger logging.Logger) Executor {
	if trace == nil {
		trace = os.Stderr
	}
	return &dryRunExecutor{trace: trace, logger: logger}
}

func (e *dryRunExecutor) Execute(ctx context.Context, id string, execution ExecutionConfig, stdio StdIO) (ExecutionResult, error) {
	if err := ValidateExecutionConfig(execution); err != nil {
		return ExecutionResult{ExitCode: errors.ExitCodeGeneric}, errors.NewValidationError("invalid execution configuration", err).WithContext("id", id)
	}
	e.logger.Debugf("Dry run, skipping execution, id: %s", id)
	fmt.Fprintln(e.trace, "+ "+execution.CommandLine())
	return ExecutionResult{}, nil
}
