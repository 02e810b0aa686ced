package cli

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stxkxs/strata/internal/config"
	"github.com/stxkxs/strata/internal/dag"
	"github.com/stxkxs/strata/internal/shelltask"
)

var deleteAllCmd = &cobra.Command{
	Use:   "delete-all <pipeline>",
	Short: "Delete every cached target in a pipeline's DAG",
	Long: `Builds one DAG per leaf step of the named pipeline and invokes
DeleteAll on each, deleting every node's cached target and clearing its
done flag — invalidating the whole graph so the next run recomputes
everything.`,
	Args: cobra.ExactArgs(1),
	RunE: runDeleteAll,
}

func runDeleteAll(cmd *cobra.Command, args []string) error {
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
		if err := graph.DeleteAll(); err != nil {
			return fmt.Errorf("delete-all %s: %w", leaf, err)
		}
		fmt.Printf("%s: deleted %d targets\n", leaf, graph.Len())
	}

	return nil
}
