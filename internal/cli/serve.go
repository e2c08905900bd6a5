package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cartoflow/cartoflow/internal/server"
	"github.com/cartoflow/cartoflow/pkg/cache"
	"github.com/cartoflow/cartoflow/pkg/pipeline"
	"github.com/cartoflow/cartoflow/pkg/store"
)

func newServeCmd() *cobra.Command {
	var (
		addr      string
		redisURL  string
		mongoURI  string
		mongoDB   string
		mongoColl string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP layout API.

Without flags the server uses the local file cache and keeps saved
layouts in memory. Pass --redis for a shared result cache and --mongo
for durable layout storage.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var (
				resultCache cache.Cache
				err         error
			)
			switch {
			case noCache:
				resultCache = cache.NewNullCache()
			case redisURL != "":
				resultCache, err = cache.NewRedisCache(ctx, redisURL)
				if err != nil {
					return err
				}
				logger.Info("using redis cache", "url", redisURL)
			default:
				resultCache, err = newCache(false)
				if err != nil {
					return err
				}
			}

			var layoutStore store.Store
			if mongoURI != "" {
				layoutStore, err = store.NewMongoStore(ctx, mongoURI, mongoDB, mongoColl)
				if err != nil {
					return err
				}
				logger.Info("using mongo store", "database", mongoDB, "collection", mongoColl)
			} else {
				layoutStore = store.NewMemoryStore()
			}
			defer layoutStore.Close(context.Background())

			runner := pipeline.NewRunner(resultCache, nil, logger)
			defer runner.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           server.New(runner, layoutStore, logger).Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", addr)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "listen address")
	cmd.Flags().StringVar(&redisURL, "redis", "", "redis URL for a shared result cache")
	cmd.Flags().StringVar(&mongoURI, "mongo", "", "mongodb URI for durable layout storage")
	cmd.Flags().StringVar(&mongoDB, "mongo-db", appName, "mongodb database name")
	cmd.Flags().StringVar(&mongoColl, "mongo-collection", "layouts", "mongodb collection name")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the result cache")

	return cmd
}
