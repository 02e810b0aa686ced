package shelltask

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stxkxs/strata/internal/config"
	"github.com/stxkxs/strata/internal/target"
	"github.com/stxkxs/strata/internal/task"
)

// BuildTarget converts a declarative TargetSpec into a concrete
// target.Target. db is only consulted for TargetSpec.Type == "sql" and may
// be nil otherwise.
func BuildTarget(spec config.TargetSpec, db *sql.DB) (target.Target, error) {
	switch spec.Type {
	case "file":
		return target.NewFileTarget(spec.Dir, spec.Filename), nil
	case "dated_file":
		date := time.Now()
		if spec.Date != "" {
			parsed, err := time.Parse("2006-01-02", spec.Date)
			if err != nil {
				return nil, fmt.Errorf("invalid target date %q: %w", spec.Date, err)
			}
			date = parsed
		}
		return target.NewDatedFileTarget(spec.Dir, spec.Filename, date), nil
	case "null":
		return target.NullTarget{}, nil
	case "sql":
		if db == nil {
			return nil, fmt.Errorf("sql target requires a database connection")
		}
		return target.NewSQLTarget(db, spec.Table, spec.Key), nil
	default:
		return nil, fmt.Errorf("unknown target type %q", spec.Type)
	}
}

// BuildPipeline constructs one ShellTask per step of cfg, keyed by step
// name, with each task's Deps wired to the tasks of its depends_on steps;
// Leaves picks which of them to hand to dag.Build. db backs any "sql" targets; pass nil if the pipeline declares none.
func BuildPipeline(cfg *config.PipelineConfig, db *sql.DB) (map[string]*ShellTask, error) {
	byName := make(map[string]*ShellTask, len(cfg.Steps))
	specByName := make(map[string]config.StepConfig, len(cfg.Steps))

	for _, step := range cfg.Steps {
		tgt, err := BuildTarget(step.Target, db)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step.Name, err)
		}

		timeout, err := step.ParsedTimeout()
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step.Name, err)
		}

		st := New(step.Name, step.Command, step.Args, step.WorkDir, timeout, tgt, nil)
		st.MaxAttempts = step.Retry.MaxAttempts
		st.Backoff = step.Retry.Backoff
		byName[step.Name] = st
		specByName[step.Name] = step
	}

	for name, t := range byName {
		deps := make(map[string]task.Task, len(specByName[name].DependsOn))
		for _, depName := range specByName[name].DependsOn {
			dep, ok := byName[depName]
			if !ok {
				return nil, fmt.Errorf("step %s depends on unknown step %q", name, depName)
			}
			deps[depName] = dep
		}
		t.Deps = deps
	}

	return byName, nil
}

// Leaves returns the steps in cfg that nothing else depends on — the
// natural entry points for building one DAG per terminal step.
func Leaves(cfg *config.PipelineConfig) []string {
	depended := make(map[string]bool, len(cfg.Steps))
	for _, step := range cfg.Steps {
		for _, dep := range step.DependsOn {
			depended[dep] = true
		}
	}

	var leaves []string
	for _, step := range cfg.Steps {
		if !depended[step.Name] {
			leaves = append(leaves, step.Name)
		}
	}
	return leaves
}
