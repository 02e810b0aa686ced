package cli

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stxkxs/strata/internal/config"
	"github.com/stxkxs/strata/internal/dag"
	"github.com/stxkxs/strata/internal/shelltask"
	"github.com/stxkxs/strata/internal/state"
	"github.com/stxkxs/strata/internal/telemetry"
)

var runPolicyFlag string

var runCmd = &cobra.Command{
	Use:   "run <pipeline>",
	Short: "Run a pipeline's DAG to completion",
	Long: `Loads a pipeline manifest, builds one DAG per step nothing else
depends on, and drives each to completion — skipping any step whose
target already exists and dispatching the rest under the chosen policy.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runPolicyFlag, "policy", "sequential", "dispatch policy: sequential or parallel")
}

func runRun(cmd *cobra.Command, args []string) error {
	pipelineName := args[0]

	policy, err := parsePolicy(runPolicyFlag)
	if err != nil {
		return err
	}

	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pipeline, err := config.LoadPipeline(pipelineName)
	if err != nil {
		return fmt.Errorf("load pipeline %s: %w", pipelineName, err)
	}

	var db *sql.DB
	if requiresSQL(pipeline) {
		db, err = sql.Open("sqlite3", cfg.CacheDir+"/targets.db")
		if err != nil {
			return fmt.Errorf("open sql target db: %w", err)
		}
		defer db.Close()
	}

	tasks, err := shelltask.BuildPipeline(pipeline, db)
	if err != nil {
		return fmt.Errorf("build pipeline %s: %w", pipelineName, err)
	}

	logger := telemetry.NewLogger(verbose)
	metrics := telemetry.NewMetrics()
	exporter, err := telemetry.NewJSONFileExporter(filepath.Join(cfg.CacheDir, "metrics.jsonl"))
	if err != nil {
		return fmt.Errorf("open metrics export: %w", err)
	}
	defer exporter.Close()
	metrics.SetExporter(exporter)
	bus := buildEventBus(cfg, logger)

	mgr, err := state.NewManager(cfg.State.Driver, cfg.State.Path)
	if err != nil {
		return fmt.Errorf("init run ledger: %w", err)
	}
	defer mgr.Close()

	runRecord, err := mgr.StartRun(pipeline.Name, runPolicyFlag)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	fmt.Printf("run %s: %s (%s)\n", runRecord.ID, pipeline.Name, runPolicyFlag)

	leaves := shelltask.Leaves(pipeline)
	ctx := telemetry.ContextWithTrace(context.Background(), telemetry.NewTraceContext(runRecord.ID))

	for _, leaf := range leaves {
		graph, err := dag.Build(tasks[leaf], dag.WithLogger(logger), dag.WithMetrics(metrics), dag.WithEventBus(bus))
		if err != nil {
			mgr.FailRun(err)
			metrics.Flush("run.failed", map[string]string{"pipeline": pipeline.Name})
			return fmt.Errorf("build dag for %s: %w", leaf, err)
		}

		if err := graph.Run(ctx, policy); err != nil {
			mgr.FailRun(err)
			metrics.Flush("run.failed", map[string]string{"pipeline": pipeline.Name})
			return fmt.Errorf("run %s: %w", leaf, err)
		}
		fmt.Printf("  %s: done (%d nodes)\n", leaf, graph.Len())
	}

	if err := mgr.CompleteRun(); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	metrics.Flush("run.completed", map[string]string{"pipeline": pipeline.Name})

	summary := metrics.GetSummary()
	fmt.Printf("run complete: %v dispatched, %v completed, %v failed\n",
		summary["nodes_dispatched"], summary["nodes_completed"], summary["nodes_failed"])
	return nil
}

func parsePolicy(name string) (dag.Policy, error) {
	switch name {
	case "sequential", "":
		return dag.Sequential, nil
	case "parallel":
		return dag.Parallel, nil
	default:
		return dag.Sequential, fmt.Errorf("unknown policy %q (want sequential or parallel)", name)
	}
}

func requiresSQL(cfg *config.PipelineConfig) bool {
	for _, step := range cfg.Steps {
		if step.Target.Type == "sql" {
			return true
		}
	}
	return false
}
