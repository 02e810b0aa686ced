package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stxkxs/strata/internal/config"
	"github.com/stxkxs/strata/internal/state"
)

var (
	historyLimitFlag int
	historyIDFlag    string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent pipeline runs from the run ledger",
	Long: `Lists recent run records (observability history of past DAG
runs, never consulted to reconstruct scheduler state — Build always
re-derives the DAG from the head task). Pass --id to show one run's full
per-node detail instead.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimitFlag, "limit", 20, "maximum number of runs to list")
	historyCmd.Flags().StringVar(&historyIDFlag, "id", "", "show detail for a single run ID")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	mgr, err := state.NewManager(cfg.State.Driver, cfg.State.Path)
	if err != nil {
		return fmt.Errorf("open run ledger: %w", err)
	}
	defer mgr.Close()

	if historyIDFlag != "" {
		run, err := mgr.GetRun(historyIDFlag)
		if err != nil {
			return fmt.Errorf("get run %s: %w", historyIDFlag, err)
		}
		printRunDetail(run)
		return nil
	}

	runs, err := mgr.ListRuns(historyLimitFlag)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	for _, run := range runs {
		fmt.Printf("%-36s %-20s %-10s %-9s %s\n", run.ID, run.Pipeline, run.Policy, run.Status, run.StartedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func printRunDetail(run *state.RunRecord) {
	fmt.Printf("run:      %s\n", run.ID)
	fmt.Printf("pipeline: %s\n", run.Pipeline)
	fmt.Printf("policy:   %s\n", run.Policy)
	fmt.Printf("status:   %s\n", run.Status)
	fmt.Printf("started:  %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if !run.CompletedAt.IsZero() {
		fmt.Printf("finished: %s\n", run.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	if run.Error != "" {
		fmt.Printf("error:    %s\n", run.Error)
	}
	if len(run.Nodes) > 0 {
		fmt.Println("nodes:")
		for _, n := range run.Nodes {
			fmt.Printf("  %-20s %-10s %s\n", n.Name, n.Status, n.Error)
		}
	}
}
