package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/counselflow/legal-research-agent/pkg/api"
	"github.com/counselflow/legal-research-agent/pkg/state"
	"github.com/counselflow/legal-research-agent/pkg/workflow"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the research HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer eng.shutdown()

	maxAge, err := eng.cfg.GetDuration(eng.cfg.Research.SessionMaxAge)
	if err != nil {
		return fmt.Errorf("invalid session_max_age: %w", err)
	}
	sessions := state.NewSessionStore(maxAge)

	pool, err := workflow.NewPool(&workflow.PoolConfig{
		MaxWorkers: eng.cfg.Research.MaxConcurrency,
		QueueSize:  eng.cfg.Research.QueueSize,
	}, eng.orchestrator)
	if err != nil {
		return fmt.Errorf("failed to create session pool: %w", err)
	}
	if err := pool.Start(); err != nil {
		return fmt.Errorf("failed to start session pool: %w", err)
	}

	addr := serveAddr
	if addr == "" {
		addr = fmt.Sprintf("%s:%d", eng.cfg.API.Host, eng.cfg.API.Port)
	}
	server := api.NewServer(addr, eng.orchestrator, sessions)
	server.SetPool(pool)

	sweepDone := make(chan struct{})
	startSessionSweeper(sessions, maxAge, sweepDone)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			close(sweepDone)
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-sigChan:
		log.Printf("Received %s, shutting down", sig)
	}
	close(sweepDone)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
	if err := pool.Stop(shutdownCtx); err != nil {
		log.Printf("Error stopping session pool: %v", err)
	}
	return nil
}

// startSessionSweeper sweeps expired terminal sessions in the background.
// A non-positive maxAge means age-based cleanup is off, so no sweeper runs.
func startSessionSweeper(sessions *state.SessionStore, maxAge time.Duration, done <-chan struct{}) {
	if maxAge <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(maxAge / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				sessions.Sweep()
			case <-done:
				return
			}
		}
	}()
}
