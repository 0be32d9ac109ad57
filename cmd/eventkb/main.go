package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/eventkb/internal/config"
	"github.com/xxxsen/eventkb/internal/handler"
	"github.com/xxxsen/eventkb/internal/job"
	"github.com/xxxsen/eventkb/internal/middleware"
	"github.com/xxxsen/eventkb/internal/schedule"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "eventkb",
		Short: "event scoped knowledge base server",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run eventkb server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			a, err := buildApp(context.Background(), cfg)
			if err != nil {
				return err
			}
			defer a.close()
			return runServer(a)
		},
	}

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "process every pending source once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			a, err := buildApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close()
			report, err := a.ingest.ProcessPending(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	rootCmd.AddCommand(runCmd, ingestCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path))
	return cfg, nil
}

func runServer(a *app) error {
	cfg := a.cfg
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	interval := time.Duration(cfg.Ingest.IntervalSeconds) * time.Second
	if err := scheduler.AddJob(job.NewIngestJob(a.ingest), schedule.Every(interval)); err != nil {
		return fmt.Errorf("schedule ingest: %w", err)
	}
	if a.cacheRepo != nil && cfg.AI.EmbeddingCache.DBCache {
		cleanup := job.NewEmbeddingCacheCleanupJob(a.cacheRepo, cfg.AI.EmbeddingCache.MaxAgeDays)
		if err := scheduler.AddJob(cleanup, cfg.Ingest.CleanupSpec); err != nil {
			return fmt.Errorf("schedule cache cleanup: %w", err)
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	deps := handler.RouterDeps{
		Sources:        handler.NewSourceHandler(a.sources),
		Query:          handler.NewQueryHandler(a.queries),
		Health:         handler.NewHealthHandler(),
		QueryRateLimit: time.Duration(cfg.Query.RateLimitMillis) * time.Millisecond,
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORS),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening",
		zap.String("addr", addr),
		zap.String("storage", cfg.Storage),
	)

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
