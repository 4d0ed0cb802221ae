package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/HDA-AWA/roomplan/pkg/cache"
	"github.com/HDA-AWA/roomplan/pkg/pipeline"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		redisAddr string
		mongoURI  string
		mongoDB   string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Endpoints:

  GET  /healthz       liveness probe
  POST /v1/optimize   run the placement search on a room description
  POST /v1/validate   check a layout against the accessibility rules

By default results are cached in the local file cache. For multi-instance
deployments point --redis or --mongo at a shared backend.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, redisAddr, mongoURI, mongoDB, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address (host:port) for shared caching")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "MongoDB URI for shared caching")
	cmd.Flags().StringVar(&mongoDB, "mongo-db", appName, "MongoDB database name")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// serverCache selects the cache backend from the serve flags.
func serverCache(ctx context.Context, redisAddr, mongoURI, mongoDB string, noCache bool) (cache.Cache, error) {
	switch {
	case noCache:
		return cache.NewNullCache(), nil
	case redisAddr != "":
		return cache.NewRedisCache(ctx, redisAddr)
	case mongoURI != "":
		return cache.NewMongoCache(ctx, mongoURI, mongoDB, "cache")
	default:
		return newCache(false)
	}
}

// runServe starts the HTTP server and blocks until the context is cancelled.
func (c *CLI) runServe(ctx context.Context, addr, redisAddr, mongoURI, mongoDB string, noCache bool) error {
	cc, err := serverCache(ctx, redisAddr, mongoURI, mongoDB, noCache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}

	runner := pipeline.NewRunner(cc, nil, c.Logger)
	defer runner.Close()

	api := &apiServer{runner: runner, logger: c.Logger}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
