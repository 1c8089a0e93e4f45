package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/core-tools/hsu-bootstrap/pkg/errors"
	"github.com/core-tools/hsu-bootstrap/pkg/logging"
	"github.com/core-tools/hsu-bootstrap/pkg/process"

	"gopkg.in/yaml.v3"
)

// BootstrapConfig represents the top-level plan file structure
type BootstrapConfig struct {
	Bootstrap BootstrapOptions `yaml:"bootstrap"`
	Phases    []Phase          `yaml:"phases,omitempty"` // Empty means the default plan
}

// BootstrapOptions apply to every step unless the step overrides them
type BootstrapOptions struct {
	LogLevel         string   `yaml:"log_level,omitempty"`
	LogFormat        string   `yaml:"log_format,omitempty"`
	WorkingDirectory string   `yaml:"working_directory,omitempty"`
	Environment      []string `yaml:"environment,omitempty"`
	CompletionBanner string   `yaml:"completion_banner,omitempty"`
}

// DefaultConfig is what runs when no plan file is given
func DefaultConfig() *BootstrapConfig {
	config := &BootstrapConfig{}
	_ = setConfigDefaults(config)
	return config
}

// LoadConfigFromFile loads bootstrap configuration from a YAML file
func LoadConfigFromFile(filename string) (*BootstrapConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError("failed to read configuration file", err).WithContext("filename", filename)
	}

	config, err := LoadConfig(data)
	if err != nil {
		return nil, errors.NewValidationError("invalid configuration file", err).WithContext("filename", filename)
	}

	// Relative working directories are relative to the plan file
	if config.Bootstrap.WorkingDirectory != "" && !filepath.IsAbs(config.Bootstrap.WorkingDirectory) {
		absFile, err := filepath.Abs(filename)
		if err != nil {
			return nil, errors.NewIOError("failed to get absolute path", err).WithContext("filename", filename)
		}
		config.Bootstrap.WorkingDirectory = filepath.Join(filepath.Dir(absFile), config.Bootstrap.WorkingDirectory)
	}

	return config, nil
}

// LoadConfig parses a YAML plan and applies defaults
func LoadConfig(data []byte) (*BootstrapConfig, error) {
	var config BootstrapConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.NewValidationError("failed to parse YAML configuration", err)
	}

	if err := setConfigDefaults(&config); err != nil {
		return nil, errors.NewValidationError("failed to apply configuration defaults", err)
	}

	return &config, nil
}

// SetWorkingDirectory overrides the plan's working directory, resolving it against the current directory
func (c *BootstrapConfig) SetWorkingDirectory(dir string) error {
	if dir == "" {
		return nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return errors.NewIOError("failed to get absolute path", err).WithContext("working_directory", dir)
	}
	c.Bootstrap.WorkingDirectory = abs
	return nil
}

// SetLogging overrides the plan's log settings, checked by the same rules as the plan file
func (c *BootstrapConfig) SetLogging(level string, format string) error {
	options := c.Bootstrap
	if level != "" {
		options.LogLevel = level
	}
	if format != "" {
		options.LogFormat = format
	}

	if err := validateBootstrapOptions(&options); err != nil {
		return errors.NewValidationError("invalid logging override", err)
	}

	c.Bootstrap = options
	return nil
}

// Plan resolves the configuration into the steps that will run.
// Global environment comes first so a step's own entries win.
func (c *BootstrapConfig) Plan() *Plan {
	phases := make([]Phase, 0, len(c.Phases))
	for _, phase := range c.Phases {
		steps := make([]Step, 0, len(phase.Steps))
		for _, step := range phase.Steps {
			execution := step.Execution
			execution.Args = append([]string(nil), step.Execution.Args...)
			if execution.WorkingDirectory == "" {
				execution.WorkingDirectory = c.Bootstrap.WorkingDirectory
			}
			if len(c.Bootstrap.Environment) > 0 {
				execution.Environment = append(append([]string(nil), c.Bootstrap.Environment...), step.Execution.Environment...)
			}
			step.Execution = execution
			steps = append(steps, step)
		}
		phases = append(phases, Phase{Banner: phase.Banner, Steps: steps})
	}

	return &Plan{
		Phases:           phases,
		CompletionBanner: c.Bootstrap.CompletionBanner,
	}
}

// ValidateConfig validates the entire configuration structure
func ValidateConfig(config *BootstrapConfig) error {
	if config == nil {
		return errors.NewValidationError("configuration cannot be nil", nil)
	}

	if err := validateBootstrapOptions(&config.Bootstrap); err != nil {
		return errors.NewValidationError("invalid bootstrap configuration", err)
	}

	if err := ValidatePlan(config.Plan()); err != nil {
		return errors.NewValidationError("invalid phases configuration", err)
	}

	return nil
}

// setConfigDefaults applies default values to configuration
func setConfigDefaults(config *BootstrapConfig) error {
	if config.Bootstrap.LogLevel == "" {
		config.Bootstrap.LogLevel = "info"
	}
	if config.Bootstrap.LogFormat == "" {
		config.Bootstrap.LogFormat = "console"
	}
	if config.Bootstrap.CompletionBanner == "" {
		config.Bootstrap.CompletionBanner = BannerBuildComplete
	}

	if len(config.Phases) == 0 {
		config.Phases = DefaultPhases()
	}

	for i := range config.Phases {
		phase := &config.Phases[i]
		for j := range phase.Steps {
			step := &phase.Steps[j]

			if step.ID == "" {
				step.ID = fmt.Sprintf("phase-%d-step-%d", i+1, j+1)
			}

			if step.Enabled == nil {
				enabled := true
				step.Enabled = &enabled
			}
		}
	}

	return nil
}

func validateBootstrapOptions(config *BootstrapOptions) error {
	if _, err := logging.ParseLevel(config.LogLevel); err != nil {
		return errors.NewValidationError(err.Error(), nil).WithContext("valid_levels", "debug, info, warn, error")
	}

	if err := logging.ValidateFormat(config.LogFormat); err != nil {
		return errors.NewValidationError(err.Error(), nil).WithContext("valid_formats", "console, json")
	}

	return nil
}

// ValidatePlan checks every phase and step in execution order
func ValidatePlan(plan *Plan) error {
	if plan == nil {
		return errors.NewValidationError("plan cannot be nil", nil)
	}

	if len(plan.Phases) == 0 {
		return errors.NewValidationError("at least one phase is required", nil)
	}

	if strings.TrimSpace(plan.CompletionBanner) == "" {
		return errors.NewValidationError("completion banner cannot be empty", nil)
	}

	seen := make(map[string]bool)
	for i, phase := range plan.Phases {
		if strings.TrimSpace(phase.Banner) == "" {
			return errors.NewValidationError(
				fmt.Sprintf("phase at index %d has no banner", i),
				nil,
			).WithContext("phase_index", i)
		}

		if len(phase.Steps) == 0 {
			return errors.NewValidationError(
				fmt.Sprintf("phase '%s' has no steps", phase.Banner),
				nil,
			).WithContext("phase", phase.Banner)
		}

		for _, step := range phase.Steps {
			if err := ValidateStepID(step.ID); err != nil {
				return errors.NewValidationError("invalid step ID", err).WithContext("phase", phase.Banner)
			}

			if seen[step.ID] {
				return errors.NewValidationError(
					fmt.Sprintf("duplicate step ID: %s", step.ID),
					nil,
				).WithContext("step_id", step.ID)
			}
			seen[step.ID] = true

			if err := process.ValidateExecutionConfig(step.Execution); err != nil {
				return errors.NewValidationError(
					fmt.Sprintf("invalid execution for step %s", step.ID),
					err,
				).WithContext("step_id", step.ID)
			}
		}
	}

	return nil
}
