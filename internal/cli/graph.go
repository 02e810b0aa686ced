package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stxkxs/strata/internal/config"
	"github.com/stxkxs/strata/internal/dag"
	"github.com/stxkxs/strata/internal/shelltask"
	"github.com/stxkxs/strata/internal/task"
)

var graphValidateFlag bool

var graphCmd = &cobra.Command{
	Use:   "graph <pipeline>",
	Short: "Print a pipeline's DAG shape",
	Long: `Builds the DAG for each leaf step of the named pipeline and
prints every node's name, cached/pending state, and direct dependency
count. The declared step graph is always checked for cycles when the
manifest is loaded; with --validate, each leaf's built runtime graph is
also checked for cycles before that leaf is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().BoolVar(&graphValidateFlag, "validate", false, "check for cycles before printing")
}

func runGraph(cmd *cobra.Command, args []string) error {
	pipelineName := args[0]

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

	for _, leaf := range shelltask.Leaves(pipeline) {
		graph, err := dag.Build(tasks[leaf])
		if err != nil {
			return fmt.Errorf("build dag for %s: %w", leaf, err)
		}

		if graphValidateFlag {
			if err := dag.DetectCycles(graph); err != nil {
				return fmt.Errorf("%s: %w", leaf, err)
			}
		}

		fmt.Printf("%s (%d nodes)\n", leaf, graph.Len())
		for _, n := range graph.Nodes() {
			status := "pending"
			if n.Done {
				status = "cached"
			}
			fmt.Printf("  %-8s %-20s deps=%d  id=%s\n", status, task.Name(n.Task), len(n.Children), n.ID)
		}
	}

	return nil
}
