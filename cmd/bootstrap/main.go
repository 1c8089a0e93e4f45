package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/core-tools/hsu-bootstrap/pkg/bootstrap"
	"github.com/core-tools/hsu-bootstrap/pkg/errors"
	"github.com/core-tools/hsu-bootstrap/pkg/logging"
	"github.com/core-tools/hsu-bootstrap/pkg/process"

	flags "github.com/jessevdk/go-flags"
)

type flagOptions struct {
	Config    string `long:"config" short:"c" description:"path to a YAML bootstrap plan (default: upgrade pip, editable install, alembic upgrade head)"`
	WorkDir   string `long:"workdir" short:"C" description:"directory to install and migrate in"`
	LogLevel  string `long:"log-level" description:"log level: debug, info, warn, error"`
	LogFormat string `long:"log-format" description:"log format: console, json"`
	DryRun    bool   `long:"dry-run" description:"print commands instead of running them"`
	Validate  bool   `long:"validate" description:"validate the plan, print it and exit"`
}

func logPrefix(runID string) string {
	return fmt.Sprintf("module: hsu-bootstrap, run: %s, ", runID)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(argv []string, stdout, stderr io.Writer) int {
	var opts flagOptions
	var parser = flags.NewParser(&opts, flags.HelpFlag)
	args, err := parser.ParseArgs(argv)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, flagsErr.Message)
			return 0
		}
		fmt.Fprintf(stderr, "Command line flags parsing failed: %v\n", err)
		return errors.ExitCodeGeneric
	}
	if len(args) > 0 {
		fmt.Fprintf(stderr, "Unexpected arguments: %v\n", args)
		return errors.ExitCodeGeneric
	}

	config, err := bootstrap.LoadRunConfig(opts.Config, opts.WorkDir)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load bootstrap plan: %v\n", err)
		return errors.ExitCode(err)
	}

	if err := config.SetLogging(opts.LogLevel, opts.LogFormat); err != nil {
		fmt.Fprintf(stderr, "Invalid logging options: %v\n", err)
		return errors.ExitCode(err)
	}

	if opts.Validate {
		fmt.Fprint(stdout, bootstrap.GetPlanSummary(config.Plan()).String())
		return 0
	}

	zapConfig := logging.DefaultZapConfig()
	zapConfig.Level = config.Bootstrap.LogLevel
	zapConfig.Format = config.Bootstrap.LogFormat
	zapConfig.Writer = stderr

	runID := bootstrap.NewRunID()
	logger, err := logging.NewZapLogger(zapConfig, logPrefix(runID))
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create logger: %v\n", err)
		return errors.ExitCodeGeneric
	}
	defer logger.Sync()

	logger.Debugf("opts: %+v", opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = bootstrap.RunWithConfig(ctx, config, bootstrap.RunOptions{
		RunID:      runID,
		ConfigFile: opts.Config,
		DryRun:     opts.DryRun,
		Stdout:     stdout,
		Stderr:     stderr,
		StdIO:      &process.StdIO{Stdin: os.Stdin, Stdout: stdout, Stderr: stderr},
	}, logger)
	if err != nil {
		logger.Errorf("Bootstrap failed: %v", err)
		return errors.ExitCode(err)
	}

	return 0
}
