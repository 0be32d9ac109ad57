package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/eventkb/internal/acquire"
	"github.com/xxxsen/eventkb/internal/ai"
	"github.com/xxxsen/eventkb/internal/chunker"
	"github.com/xxxsen/eventkb/internal/config"
	"github.com/xxxsen/eventkb/internal/db"
	"github.com/xxxsen/eventkb/internal/embedcache"
	"github.com/xxxsen/eventkb/internal/filestore"
	"github.com/xxxsen/eventkb/internal/repo"
	"github.com/xxxsen/eventkb/internal/service"
	"github.com/xxxsen/eventkb/internal/vectorindex"
)

type app struct {
	cfg        *config.Config
	db         *sql.DB
	cacheRepo  *repo.EmbeddingCacheRepo
	sources    *service.SourceService
	ingest     *service.IngestService
	queries    *service.QueryService
	sourceRepo service.SourceStore
	index      vectorindex.Index
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := logutil.GetLogger(ctx)
	a := &app{cfg: cfg}

	switch cfg.Storage {
	case config.StoragePostgres:
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		if err := db.ApplyMigrations(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		a.db = conn
		a.sourceRepo = repo.NewSourceRepo(conn)
		a.index = repo.NewVectorRepo(conn)
		a.cacheRepo = repo.NewEmbeddingCacheRepo(conn)
	default:
		a.sourceRepo = repo.NewMemorySourceRepo()
		a.index = vectorindex.NewMemoryIndex()
	}

	gen, emb, err := ai.Build(cfg.AI)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("init ai: %w", err)
	}
	cacheCfg := cfg.AI.EmbeddingCache
	if cacheCfg.DBCache && a.cacheRepo != nil {
		emb = embedcache.WithStore(emb, a.cacheRepo)
	}
	if cacheCfg.LRUSize > 0 {
		emb = embedcache.WithLRU(emb, cacheCfg.LRUSize, time.Duration(cacheCfg.LRUTTLMinutes)*time.Minute)
	}

	splitter, err := chunker.NewPunktSplitter()
	if err != nil {
		logger.Warn("sentence splitter unavailable, using paragraph chunking", zap.Error(err))
		splitter = nil
	}
	textChunker := chunker.New(cfg.Chunker.GroupSize, cfg.Chunker.MinWords, splitter)
	acquirer := acquire.New(
		time.Duration(cfg.Acquire.TimeoutSeconds)*time.Second,
		cfg.Acquire.MaxBodyBytes,
		cfg.Acquire.UserAgent,
	)

	var snapshots filestore.Store
	if cfg.Snapshot != nil {
		store, err := filestore.New(*cfg.Snapshot)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("init snapshot store: %w", err)
		}
		snapshots = store
	}

	a.sources = service.NewSourceService(a.sourceRepo)
	a.ingest = service.NewIngestService(a.sourceRepo, acquirer, textChunker, emb, a.index, snapshots, cfg.Ingest.BatchSize)
	aiTimeout := time.Duration(cfg.AI.Timeout) * time.Second
	a.queries = service.NewQueryService(
		service.NewRetriever(emb, a.index),
		service.NewIntentClassifier(cfg.AI.Intent, gen, aiTimeout),
		service.NewLLMCaller(gen, aiTimeout),
		cfg.Query.DefaultTopK,
		cfg.Query.MaxTopK,
	)
	logger.Info("app initialized",
		zap.String("storage", cfg.Storage),
		zap.String("embedder", emb.ModelName()),
		zap.Bool("snapshot", snapshots != nil),
	)
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}
