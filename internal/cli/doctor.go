package cli

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stxkxs/strata/internal/config"
	"github.com/stxkxs/strata/internal/state"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check environment and configuration",
	Long:  "Validate that the project configuration, run-ledger backend, and git are properly set up.",
	RunE:  runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("strata doctor — checking your environment")
	fmt.Println()
	allOK := true

	fmt.Printf("  Go version: %s ✓\n", runtime.Version())
	fmt.Printf("  Platform:   %s/%s ✓\n", runtime.GOOS, runtime.GOARCH)

	cfg, err := config.Load(".")
	if err != nil {
		fmt.Println("  Config:     INVALID ✗")
		fmt.Printf("    → %v\n", err)
		allOK = false
	} else {
		fmt.Printf("  Config:     %s v%s ✓\n", cfg.Name, cfg.Version)
	}

	if cfg != nil {
		mgr, err := state.NewManager(cfg.State.Driver, cfg.State.Path)
		if err != nil {
			fmt.Printf("  State DB:   FAILED (%s) ✗\n", err)
			allOK = false
		} else {
			fmt.Printf("  State DB:   %s (%s) ✓\n", cfg.State.Driver, cfg.State.Path)
			mgr.Close()
		}

		names, err := config.LoadPipelineList()
		if err != nil {
			fmt.Printf("  Pipelines:  FAILED (%s) ✗\n", err)
			allOK = false
		} else {
			fmt.Printf("  Pipelines:  %d found ✓\n", len(names))
		}
	}

	if _, err := exec.LookPath("git"); err == nil {
		fmt.Println("  Git:        available ✓")
	} else {
		fmt.Println("  Git:        NOT FOUND ✗")
		allOK = false
	}

	fmt.Println()
	if allOK {
		fmt.Println("All checks passed!")
	} else {
		fmt.Println("Some checks failed. See above for details.")
	}

	return nil
}
