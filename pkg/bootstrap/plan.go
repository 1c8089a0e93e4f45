package bootstrap

import (
	"fmt"

	"github.com/core-tools/hsu-bootstrap/pkg/process"
)

const (
	BannerInstallingDependencies = "Installing dependencies"
	BannerRunningMigrations      = "Running migrations"
	BannerBuildComplete          = "Build complete"
)

// FormatBanner renders a phase title as "=== title ===".
func FormatBanner(title string) string {
	return fmt.Sprintf("=== %s ===", title)
}

// Step is a single external command.
type Step struct {
	ID        string                  `yaml:"id"`
	Enabled   *bool                   `yaml:"enabled,omitempty"` // Pointer to distinguish unset from false
	Execution process.ExecutionConfig `yaml:"execution"`
}

func (s Step) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Phase groups steps under one banner, printed before its first step runs.
type Phase struct {
	Banner string `yaml:"banner"`
	Steps  []Step `yaml:"steps"`
}

// Plan is the ordered work of one bootstrap run.
type Plan struct {
	Phases           []Phase
	CompletionBanner string
}

// Steps flattens the plan in execution order.
func (p *Plan) Steps() []Step {
	var steps []Step
	for _, phase := range p.Phases {
		steps = append(steps, phase.Steps...)
	}
	return steps
}

// DefaultPhases upgrades pip, installs the project in editable mode,
// then applies every pending migration.
func DefaultPhases() []Phase {
	return []Phase{
		{
			Banner: BannerInstallingDependencies,
			Steps: []Step{
				{
					ID: "pip-upgrade",
					Execution: process.ExecutionConfig{
						ExecutablePath: "pip",
						Args:           []string{"install", "--upgrade", "pip"},
					},
				},
				{
					ID: "pip-install-editable",
					Execution: process.ExecutionConfig{
						ExecutablePath: "pip",
						Args:           []string{"install", "-e", "."},
					},
				},
			},
		},
		{
			Banner: BannerRunningMigrations,
			Steps: []Step{
				{
					ID: "alembic-upgrade",
					Execution: process.ExecutionConfig{
						ExecutablePath: "alembic",
						Args:           []string{"upgrade", "head"},
					},
				},
			},
		},
	}
}

func DefaultPlan() *Plan {
	return &Plan{
		Phases:           DefaultPhases(),
		CompletionBanner: BannerBuildComplete,
	}
}
