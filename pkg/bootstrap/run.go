package bootstrap

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/core-tools/hsu-bootstrap/pkg/errors"
	"github.com/core-tools/hsu-bootstrap/pkg/logging"
	"github.com/core-tools/hsu-bootstrap/pkg/process"
)

type RunOptions struct {
	RunID      string
	ConfigFile string // Empty means the default plan
	WorkDir    string
	DryRun     bool

	Stdout io.Writer
	Stderr io.Writer
	StdIO  *process.StdIO

	// Executor replaces the real one, used by tests
	Executor process.Executor
}

// LoadRunConfig loads the plan file if one is given and applies the working directory override.
func LoadRunConfig(configFile string, workDir string) (*BootstrapConfig, error) {
	config := DefaultConfig()
	if configFile != "" {
		var err error
		config, err = LoadConfigFromFile(configFile)
		if err != nil {
			return nil, errors.NewIOError("failed to load configuration", err).WithContext("config_file", configFile)
		}
	}

	if err := config.SetWorkingDirectory(workDir); err != nil {
		return nil, err
	}

	if err := ValidateConfig(config); err != nil {
		return nil, errors.NewValidationError("configuration validation failed", err).WithContext("config_file", configFile)
	}

	return config, nil
}

// Run loads the configuration, builds a runner and executes it once.
func Run(ctx context.Context, options RunOptions, logger logging.Logger) (*RunReport, error) {
	config, err := LoadRunConfig(options.ConfigFile, options.WorkDir)
	if err != nil {
		return nil, err
	}
	return RunWithConfig(ctx, config, options, logger)
}

// RunWithConfig executes an already loaded and validated configuration once.
func RunWithConfig(ctx context.Context, config *BootstrapConfig, options RunOptions, logger logging.Logger) (*RunReport, error) {
	if options.ConfigFile != "" {
		logger.Infof("Using CONFIGURATION FILE: %s", options.ConfigFile)
	} else {
		logger.Debugf("No configuration file, using default plan")
	}

	executor := options.Executor
	if executor == nil {
		if options.DryRun {
			logger.Infof("DRY RUN: commands will be printed, not executed")
			executor = process.NewDryRunExecutor(options.Stderr, logger)
		} else {
			executor = process.NewStdExecutor(logger)
		}
	}

	runner, err := NewRunner(config.Plan(), executor, RunnerOptions{
		RunID:  options.RunID,
		Stdout: options.Stdout,
		StdIO:  options.StdIO,
	}, logger)
	if err != nil {
		return nil, err
	}

	report, err := runner.Run(ctx)
	logReport(report, logger)
	return report, err
}

func logReport(report *RunReport, logger logging.Logger) {
	if report == nil {
		return
	}

	lines := make([]string, 0, len(report.Steps))
	for _, step := range report.Steps {
		status := fmt.Sprintf("exit %d in %v", step.ExitCode, step.Duration)
		if step.Skipped {
			status = "skipped"
		}
		lines = append(lines, fmt.Sprintf("%s (%s)", step.ID, status))
	}

	if report.Completed {
		logger.Infof("Run report, run id: %s, duration: %v, steps: %s", report.RunID, report.Duration, strings.Join(lines, ", "))
		return
	}
	logger.Errorf("Run report, run id: %s, duration: %v, steps: %s, failed", report.RunID, report.Duration, strings.Join(lines, ", "))
}
