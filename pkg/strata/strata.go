// Package strata is the public API for embedding the scheduler without
// going through the CLI: load a pipeline, build its DAG, and run it,
// optionally recording the run in a run ledger — thin functions that glue config loading, DAG
// construction, and execution.
package strata

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stxkxs/strata/internal/config"
	"github.com/stxkxs/strata/internal/dag"
	"github.com/stxkxs/strata/internal/shelltask"
	"github.com/stxkxs/strata/internal/state"
	"github.com/stxkxs/strata/internal/target"
	"github.com/stxkxs/strata/internal/task"
	"github.com/stxkxs/strata/internal/telemetry"
)

// Options configures a Run call. The zero value runs with Sequential
// policy, no persisted run ledger, and no metrics export.
type Options struct {
	Policy      dag.Policy
	StateDriver string // "sqlite", "memory", or "" to skip recording entirely
	StatePath   string // consulted only when StateDriver == "sqlite"
	SQLTargetDB *sql.DB
	MetricsPath string // JSONL metrics export path, or "" to skip exporting
}

// Option mutates Options.
type Option func(*Options)

// WithPolicy selects the dispatch policy for Run.
func WithPolicy(p dag.Policy) Option {
	return func(o *Options) { o.Policy = p }
}

// WithStateDriver enables run-ledger recording via the named store driver.
func WithStateDriver(driver, path string) Option {
	return func(o *Options) { o.StateDriver = driver; o.StatePath = path }
}

// WithSQLTargetDB supplies the *sql.DB backing any "sql"-type targets the
// pipeline declares.
func WithSQLTargetDB(db *sql.DB) Option {
	return func(o *Options) { o.SQLTargetDB = db }
}

// WithMetricsExport enables JSONL metrics export to the given path; a
// snapshot is flushed when the run completes or fails.
func WithMetricsExport(path string) Option {
	return func(o *Options) { o.MetricsPath = path }
}

// Result summarizes a completed (or failed) pipeline run.
type Result struct {
	RunID    string
	Pipeline string
	Steps    map[string]bool // step name -> whether its target exists post-run
}

// Run loads the named pipeline manifest, builds one DAG per leaf step
// (a step nothing else depends on), and runs each to completion under the
// configured policy. Dispatch is strict: the first failing step's error
// is returned and the recorded run is marked failed. Pipeline manifests
// are resolved the way
// internal/config.LoadPipeline resolves them: pipelines/<name>.yaml,
// falling back to pipelines/default.yaml.
func Run(ctx context.Context, pipelineName string, opts ...Option) (*Result, error) {
	options := Options{Policy: dag.Sequential}
	for _, opt := range opts {
		opt(&options)
	}

	cfg, err := config.LoadPipeline(pipelineName)
	if err != nil {
		return nil, fmt.Errorf("load pipeline %s: %w", pipelineName, err)
	}

	tasks, err := shelltask.BuildPipeline(cfg, options.SQLTargetDB)
	if err != nil {
		return nil, fmt.Errorf("build pipeline %s: %w", pipelineName, err)
	}

	var mgr *state.Manager
	var runRecord *state.RunRecord
	if options.StateDriver != "" {
		mgr, err = state.NewManager(options.StateDriver, options.StatePath)
		if err != nil {
			return nil, fmt.Errorf("init run ledger: %w", err)
		}
		defer mgr.Close()

		policyName := "sequential"
		if options.Policy == dag.Parallel {
			policyName = "parallel"
		}
		runRecord, err = mgr.StartRun(cfg.Name, policyName)
		if err != nil {
			return nil, fmt.Errorf("start run: %w", err)
		}
	}

	leaves := shelltask.Leaves(cfg)
	result := &Result{Pipeline: cfg.Name, Steps: make(map[string]bool, len(tasks))}
	if runRecord != nil {
		result.RunID = runRecord.ID
	}

	logger := telemetry.NewLogger(false)
	metrics := telemetry.NewMetrics()
	if options.MetricsPath != "" {
		exporter, err := telemetry.NewJSONFileExporter(options.MetricsPath)
		if err != nil {
			return nil, fmt.Errorf("open metrics export: %w", err)
		}
		defer exporter.Close()
		metrics.SetExporter(exporter)
	}

	// When the ledger recorded this run, correlate per-node spans in logs
	// with its run ID; otherwise each DAG mints its own trace context.
	if result.RunID != "" {
		ctx = telemetry.ContextWithTrace(ctx, telemetry.NewTraceContext(result.RunID))
	}

	for _, leaf := range leaves {
		graph, err := dag.Build(tasks[leaf], dag.WithLogger(logger), dag.WithMetrics(metrics))
		if err != nil {
			if mgr != nil {
				mgr.FailRun(err)
			}
			metrics.Flush("run.failed", map[string]string{"pipeline": cfg.Name})
			return result, fmt.Errorf("build dag for step %s: %w", leaf, err)
		}
		// Strict dispatch: a failing step surfaces its error and fails
		// the recorded run, instead of the faithful advisory behavior
		// RunTask keeps.
		if err := graph.RunStrict(ctx, options.Policy); err != nil {
			if mgr != nil {
				mgr.FailRun(err)
			}
			metrics.Flush("run.failed", map[string]string{"pipeline": cfg.Name})
			return result, fmt.Errorf("run step %s: %w", leaf, err)
		}
	}
	metrics.Flush("run.completed", map[string]string{"pipeline": cfg.Name})

	for name, t := range tasks {
		tgt, tErr := t.TargetFactory()
		if tErr != nil {
			continue
		}
		exists, _ := tgt.Exists()
		result.Steps[name] = exists
	}

	if mgr != nil {
		if err := mgr.CompleteRun(); err != nil {
			return result, fmt.Errorf("complete run: %w", err)
		}
	}

	return result, nil
}

// RunTask builds t's DAG and runs it to completion under policy p. Useful
// for embedders that construct their own task.Task graphs in Go rather
// than through a PipelineConfig.
func RunTask(ctx context.Context, t task.Task, p dag.Policy) error {
	graph, err := dag.Build(t, dag.WithLogger(telemetry.NewLogger(false)))
	if err != nil {
		return fmt.Errorf("build dag: %w", err)
	}
	return graph.Run(ctx, p)
}

// DeleteAll builds t's DAG and deletes every node's target. ctx is
// accepted for symmetry with Run/RunTask and forward compatibility but is
// not currently consulted.
func DeleteAll(ctx context.Context, t task.Task) error {
	graph, err := dag.Build(t)
	if err != nil {
		return fmt.Errorf("build dag: %w", err)
	}
	return graph.DeleteAll()
}

// NewFileTarget is re-exported for embedders that want to construct
// task.Task implementations without importing internal/target directly.
func NewFileTarget(dir, filename string) target.Target {
	return target.NewFileTarget(dir, filename)
}
