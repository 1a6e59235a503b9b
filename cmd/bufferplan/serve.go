package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rgehrsitz/bufferplan/internal/blob"
	s3blob "github.com/rgehrsitz/bufferplan/internal/blob/s3"
	"github.com/rgehrsitz/bufferplan/internal/cache"
	rediscache "github.com/rgehrsitz/bufferplan/internal/cache/redis"
	"github.com/rgehrsitz/bufferplan/internal/calculation"
	"github.com/rgehrsitz/bufferplan/internal/config"
	"github.com/rgehrsitz/bufferplan/internal/planner"
	"github.com/rgehrsitz/bufferplan/internal/server"
	"github.com/rgehrsitz/bufferplan/internal/store"
	"github.com/rgehrsitz/bufferplan/internal/store/postgres"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

// backends are the optional services the API uses when configured.
type backends struct {
	cache    cache.ResponseCache
	runs     store.RunStore
	exporter blob.Exporter
	closers  []func()
}

func (b *backends) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// connectBackends dials redis, postgres and s3 for every section that is configured.
func connectBackends(ctx context.Context, cfg *config.ServiceConfig, logger *slog.Logger) (*backends, error) {
	b := &backends{}

	if cfg.Redis.Addr != "" {
		rc, err := rediscache.New(ctx, rediscache.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = rc.Close() })
		b.cache = rediscache.NewResponseCache(rc, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
		logger.Info("response cache enabled", slog.String("addr", cfg.Redis.Addr))
	}

	if dsn := cfg.PostgresDSN(); dsn != "" {
		pg, err := postgres.New(ctx, dsn)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, pg.Close)
		if err := pg.RunMigrations(ctx); err != nil {
			b.Close()
			return nil, err
		}
		b.runs = postgres.NewRunStore(pg.Pool())
		logger.Info("run archive enabled")
	}

	if cfg.S3.Bucket != "" {
		sc, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			b.Close()
			return nil, err
		}
		if err := sc.Health(ctx); err != nil {
			logger.Warn("export bucket not reachable", slog.String("bucket", cfg.S3.Bucket), slog.String("error", err.Error()))
		}
		b.exporter = s3blob.NewExporter(sc)
		logger.Info("exports enabled", slog.String("bucket", cfg.S3.Bucket))
	}
	return b, nil
}

func serveCmd(ro *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the plan engine over HTTP and WebSocket",
		Long: `Serve the plan engine.

Routes:
  GET  /api/health
  POST /api/simulate            body: plan request JSON, ?name= to label the run
  GET  /api/runs                ?limit=&offset=
  GET  /api/runs/{id}
  POST /api/runs/{id}/export    ?format=json|pdf|html|csv
  GET  /ws/simulate             streams progress, then the response

Redis, Postgres and S3 are used when their config sections are set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadService(ro.configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			level := calculation.ParseLevel(cfg.LogLevel)
			if ro.debug {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)

			ctx := cmd.Context()
			b, err := connectBackends(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			eng := planner.NewEngine(cfg.EngineOptions())
			eng.SetLogger(calculation.SlogLogger{L: logger})

			srv := server.NewServer(server.Config{
				Addr:          cfg.Server.Addr,
				MaxConcurrent: cfg.Server.MaxConcurrent,
				ExportPrefix:  cfg.S3.Prefix,
			}, server.Deps{
				Engine:   eng,
				Cache:    b.cache,
				Runs:     b.runs,
				Exporter: b.exporter,
				Logger:   logger,
			})

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if err := <-errCh; err != nil {
				return fmt.Errorf("server stopped: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}
