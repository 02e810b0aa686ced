package config

import (
	"fmt"
	"strings"
	"time"
)

var validTargetTypes = map[string]bool{
	"file":       true,
	"dated_file": true,
	"null":       true,
	"sql":        true,
}

var validBackoffs = map[string]bool{
	"fixed":       true,
	"exponential": true,
	"":            true,
}

// ValidatePipeline validates a pipeline configuration: step names are
// non-empty and unique, every depends_on label resolves to a declared
// step, target specs name a known backend, and declared timeouts parse.
func ValidatePipeline(cfg *PipelineConfig) error {
	var errs []string

	if cfg.Name == "" {
		errs = append(errs, "name is required")
	}
	if len(cfg.Steps) == 0 {
		errs = append(errs, "at least one step is required")
	}

	stepNames := make(map[string]bool, len(cfg.Steps))
	for _, step := range cfg.Steps {
		if step.Name == "" {
			errs = append(errs, "step name is required")
			continue
		}
		if stepNames[step.Name] {
			errs = append(errs, fmt.Sprintf("duplicate step name: %s", step.Name))
		}
		stepNames[step.Name] = true

		if step.Command == "" {
			errs = append(errs, fmt.Sprintf("step %s requires a command", step.Name))
		}

		if !validTargetTypes[step.Target.Type] {
			errs = append(errs, fmt.Sprintf("step %s: invalid target type %q", step.Name, step.Target.Type))
		}
		if step.Target.Type == "file" || step.Target.Type == "dated_file" {
			if step.Target.Filename == "" {
				errs = append(errs, fmt.Sprintf("step %s: file target requires a filename", step.Name))
			}
		}
		if step.Target.Type == "dated_file" && step.Target.Date != "" {
			if _, err := time.Parse("2006-01-02", step.Target.Date); err != nil {
				errs = append(errs, fmt.Sprintf("step %s: invalid target date %q: %s", step.Name, step.Target.Date, err))
			}
		}
		if step.Target.Type == "sql" {
			if step.Target.Table == "" || step.Target.Key == "" {
				errs = append(errs, fmt.Sprintf("step %s: sql target requires a table and key", step.Name))
			}
		}

		if !validBackoffs[step.Retry.Backoff] {
			errs = append(errs, fmt.Sprintf("step %s: invalid backoff type: %s", step.Name, step.Retry.Backoff))
		}

		if step.Timeout != "" {
			if _, err := time.ParseDuration(step.Timeout); err != nil {
				errs = append(errs, fmt.Sprintf("step %s: invalid timeout format %q: %s", step.Name, step.Timeout, err))
			}
		}
	}

	for _, step := range cfg.Steps {
		for _, dep := range step.DependsOn {
			if !stepNames[dep] {
				errs = append(errs, fmt.Sprintf("step %s depends on unknown step %q", step.Name, dep))
			}
		}
	}

	if err := validateStepCycles(cfg.Steps); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("pipeline validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// validateStepCycles checks the declared depends_on edges for cycles using
// DFS. This is a config-time check over step labels, distinct from
// internal/dag.DetectCycles, which walks the runtime task graph.
func validateStepCycles(steps []StepConfig) error {
	deps := make(map[string][]string, len(steps))
	for _, s := range steps {
		deps[s.Name] = s.DependsOn
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int)

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		color[name] = gray
		path = append(path, name)

		for _, dep := range deps[name] {
			switch color[dep] {
			case gray:
				cycle := append(path, dep)
				return fmt.Errorf("circular dependency detected: %s", strings.Join(cycle, " -> "))
			case white:
				if err := visit(dep, path); err != nil {
					return err
				}
			}
		}

		color[name] = black
		return nil
	}

	for _, s := range steps {
		if color[s.Name] == white {
			if err := visit(s.Name, nil); err != nil {
				return err
			}
		}
	}

	return nil
}
