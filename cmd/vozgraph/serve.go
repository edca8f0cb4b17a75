package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/vozgraph"
	"github.com/aretw0/vozgraph/internal/cli"
	"github.com/aretw0/vozgraph/internal/presentation/tui"
	httpAdapter "github.com/aretw0/vozgraph/pkg/adapters/http"
	"github.com/aretw0/vozgraph/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the vozgraph HTTP service. Sessions live in the configured store
(memory, file or redis); the OpenAPI document is served at /openapi.yaml.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		var metrics *observability.Metrics
		if cfg.Metrics.Enabled {
			metrics = observability.NewMetrics()
		}
		eng, err := cli.NewEngine(cfg, logger, metrics)
		if err != nil {
			return err
		}
		defer eng.Close()

		opts := []httpAdapter.Option{
			httpAdapter.WithLogger(logger),
			httpAdapter.WithCORSOrigin(cfg.Server.CORSOrigin),
			httpAdapter.WithMaxInputSize(cfg.Input.MaxSize),
		}
		if metrics != nil {
			opts = append(opts, httpAdapter.WithMetrics(metrics))
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           httpAdapter.NewHandler(eng, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		tui.PrintBanner(cmd.ErrOrStderr(), strings.TrimSpace(vozgraph.Version))

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting HTTP server", "addr", srv.Addr, "store", cfg.Store.Kind, "metrics", metrics != nil)
			serverErrors <- srv.ListenAndServe()
		}()

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sc.Done():
			logger.Info("shutdown started", "signal", sc.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", cfg.Server.ShutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("could not stop server: %w", err)
				}
			}
			logger.Info("server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides server.addr)")
}
