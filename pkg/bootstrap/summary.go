package bootstrap

import (
	"fmt"
	"strings"
)

// PlanSummary provides a high-level overview of a plan
type PlanSummary struct {
	TotalSteps       int            `json:"total_steps"`
	EnabledSteps     int            `json:"enabled_steps"`
	CompletionBanner string         `json:"completion_banner"`
	Phases           []PhaseSummary `json:"phases"`
}

type PhaseSummary struct {
	Banner string        `json:"banner"`
	Steps  []StepSummary `json:"steps"`
}

type StepSummary struct {
	ID               string `json:"id"`
	Enabled          bool   `json:"enabled"`
	Command          string `json:"command"`
	WorkingDirectory string `json:"working_directory,omitempty"`
	Timeout          string `json:"timeout,omitempty"`
}

// GetPlanSummary returns a human-readable summary of the plan.
// Useful for checking a plan file in CI before it touches anything.
func GetPlanSummary(plan *Plan) PlanSummary {
	summary := PlanSummary{
		CompletionBanner: plan.CompletionBanner,
		Phases:           make([]PhaseSummary, 0, len(plan.Phases)),
	}

	for _, phase := range plan.Phases {
		phaseSummary := PhaseSummary{Banner: phase.Banner}
		for _, step := range phase.Steps {
			stepSummary := StepSummary{
				ID:               step.ID,
				Enabled:          step.IsEnabled(),
				Command:          step.Execution.CommandLine(),
				WorkingDirectory: step.Execution.WorkingDirectory,
			}
			if step.Execution.Timeout > 0 {
				stepSummary.Timeout = step.Execution.Timeout.String()
			}
			phaseSummary.Steps = append(phaseSummary.Steps, stepSummary)

			summary.TotalSteps++
			if stepSummary.Enabled {
				summary.EnabledSteps++
			}
		}
		summary.Phases = append(summary.Phases, phaseSummary)
	}

	return summary
}

func (s PlanSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan: %d phases, %d/%d steps enabled\n", len(s.Phases), s.EnabledSteps, s.TotalSteps)
	for _, phase := range s.Phases {
		fmt.Fprintf(&b, "%s\n", FormatBanner(phase.Banner))
		for _, step := range phase.Steps {
			marker := "+"
			if !step.Enabled {
				marker = "-"
			}
			fmt.Fprintf(&b, "  %s %s: %s", marker, step.ID, step.Command)
			if step.WorkingDirectory != "" {
				fmt.Fprintf(&b, " (in %s)", step.WorkingDirectory)
			}
			if step.Timeout != "" {
				fmt.Fprintf(&b, " (timeout %s)", step.Timeout)
			}
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "%s\n", FormatBanner(s.CompletionBanner))
	return b.String()
}
