package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pagesetter/internal/api"
	"github.com/matzehuels/pagesetter/pkg/cache"
	"github.com/matzehuels/pagesetter/pkg/pipeline"
)

const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		rateLimit int
		backend   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Endpoints live under /v1 (compose, render, plan, diff, apply, presets) with
a /healthz endpoint. The server caches in memory unless the config or
--cache selects redis or mongo for a shared deployment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			if !cmd.Flags().Changed("rate-limit") {
				rateLimit = c.Config.Server.RateLimit
			}
			return c.runServe(cmd.Context(), addr, rateLimit, backend)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "requests per minute per client IP, 0 disables")
	cmd.Flags().StringVar(&backend, "cache", "", "cache backend: memory, redis, mongo, none (default from config)")

	return cmd
}

// serverBackend picks the server's cache backend. The CLI's file cache is
// replaced by memory; shared backends are kept.
func serverBackend(configured, flag string) string {
	if flag != "" {
		return flag
	}
	if configured == "" || configured == cache.BackendFile {
		return cache.BackendMemory
	}
	return configured
}

func (c *CLI) runServe(ctx context.Context, addr string, rateLimit int, backend string) error {
	logger := loggerFromContext(ctx)

	opts := c.Config.CacheOptions()
	opts.Backend = serverBackend(opts.Backend, backend)
	store, err := cache.Open(ctx, opts)
	if err != nil {
		return fmt.Errorf("open %s cache: %w", opts.Backend, err)
	}
	runner := pipeline.NewRunner(store, nil, logger)
	defer runner.Close()

	handler := api.NewServer(runner, logger, api.Options{
		RateLimit:    rateLimit,
		MaxBodyBytes: c.Config.Server.MaxBodyBytes,
		Defaults: pipeline.Options{
			Zoom:     c.Config.Extract.Zoom,
			Template: c.Config.Template(),
			Labels:   c.Config.Render.Labels,
		},
	})
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "cache", opts.Backend, "rate_limit", rateLimit)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
