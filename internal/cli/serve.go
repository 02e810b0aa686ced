package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stxkxs/strata/internal/config"
	"github.com/stxkxs/strata/internal/server"
	"github.com/stxkxs/strata/internal/state"
	"github.com/stxkxs/strata/internal/telemetry"
)

var serveAddrFlag string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run/graph/event HTTP observability surface",
	Long: `Starts the HTTP server exposing health, run-ledger, DAG-shape,
and a live Server-Sent Events stream of lifecycle events. Blocks until
interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddrFlag, "addr", ":8080", "address to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := telemetry.NewLogger(verbose)
	bus := buildEventBus(cfg, logger)

	mgr, err := state.NewManager(cfg.State.Driver, cfg.State.Path)
	if err != nil {
		return fmt.Errorf("init run ledger: %w", err)
	}
	defer mgr.Close()

	srv := server.New(cfg, mgr, bus, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx, serveAddrFlag)
}
