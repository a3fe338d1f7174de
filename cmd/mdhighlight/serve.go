package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/mdhighlight/internal/api"
	"github.com/dgallion1/mdhighlight/internal/config"
	"github.com/dgallion1/mdhighlight/internal/highlight"
	"github.com/dgallion1/mdhighlight/internal/pipeline"
	"github.com/dgallion1/mdhighlight/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the highlight HTTP API server",
	Long: `Serve starts the HTTP API: document uploads are queued as jobs, a
worker pool runs them through the highlight pipeline, and every run is
recorded in the sqlite ledger. Configuration comes from the environment;
MDHIGHLIGHT_API_KEY and ANTHROPIC_API_KEY are required.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := newLogger(os.Stdout)

		cfg := config.Load()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		rules, err := cfg.Rules()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		ledger, err := store.Open(ctx, cfg.LedgerPath)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer ledger.Close()

		ann := highlight.NewClaudeAnnotator(cfg.AnthropicAPIKey, cfg.AnthropicModel, highlight.SpanFormat(cfg.SpanFormat))
		stats := highlight.NewStats(15 * time.Minute)
		svc := highlight.NewService(ann, rules, cfg.RetryLimit, log, stats)

		orch := pipeline.NewOrchestrator(cfg, svc, ledger, log)
		orch.Start(ctx)

		srv := api.NewServer(orch, stats, cfg.AnthropicModel, log, cfg)

		httpServer := &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      srv,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Graceful shutdown.
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh
			log.Info("shutting down...")

			orch.Stop()

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			httpServer.Shutdown(shutdownCtx)

			ann.Close()
		}()

		log.Info("starting mdhighlight", "port", cfg.Port, "workers", cfg.WorkerCount, "model", cfg.AnthropicModel)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
