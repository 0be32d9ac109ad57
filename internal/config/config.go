package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xxxsen/common/logger"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	Port      int              `json:"port"`
	Storage   string           `json:"storage"`
	Database  DatabaseConfig   `json:"database"`
	LogConfig logger.LogConfig `json:"log_config"`
	AI        AIConfig         `json:"ai"`
	Ingest    IngestConfig     `json:"ingest"`
	Chunker   ChunkerConfig    `json:"chunker"`
	Acquire   AcquireConfig    `json:"acquire"`
	Query     QueryConfig      `json:"query"`
	Snapshot  *FileStoreConfig `json:"snapshot"`
	CORS      []string         `json:"cors_allowlist"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type AIProviderConfig struct {
	Name string      `json:"name"`
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AIModelConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type EmbeddingCacheConfig struct {
	LRUSize       int  `json:"lru_size"`
	LRUTTLMinutes int  `json:"lru_ttl_minutes"`
	DBCache       bool `json:"db_cache"`
	MaxAgeDays    int  `json:"max_age_days"`
}

type AIConfig struct {
	Providers      []AIProviderConfig   `json:"providers"`
	Generator      []AIModelConfig      `json:"generator"`
	Embedder       []AIModelConfig      `json:"embedder"`
	Timeout        int                  `json:"timeout"`
	Intent         string               `json:"intent"`
	EmbeddingCache EmbeddingCacheConfig `json:"embedding_cache"`
}

type IngestConfig struct {
	IntervalSeconds int    `json:"interval_seconds"`
	BatchSize       int    `json:"batch_size"`
	CleanupSpec     string `json:"cleanup_spec"`
}

type ChunkerConfig struct {
	GroupSize int `json:"group_size"`
	MinWords  int `json:"min_words"`
}

type AcquireConfig struct {
	TimeoutSeconds int    `json:"timeout_seconds"`
	MaxBodyBytes   int64  `json:"max_body_bytes"`
	UserAgent      string `json:"user_agent"`
}

type QueryConfig struct {
	DefaultTopK     int `json:"default_top_k"`
	MaxTopK         int `json:"max_top_k"`
	RateLimitMillis int `json:"rate_limit_millis"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) normalize() error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	cfg.Storage = strings.ToLower(strings.TrimSpace(cfg.Storage))
	if cfg.Storage == "" {
		cfg.Storage = StoragePostgres
	}
	switch cfg.Storage {
	case StorageMemory:
	case StoragePostgres:
		if cfg.Database.DSN == "" && cfg.Database.Host == "" {
			return fmt.Errorf("database.dsn or database.host is required for postgres storage")
		}
		if cfg.Database.Port == 0 {
			cfg.Database.Port = 5432
		}
	default:
		return fmt.Errorf("storage must be memory or postgres")
	}
	if len(cfg.AI.Providers) == 0 {
		return fmt.Errorf("ai.providers is required")
	}
	names := make(map[string]bool, len(cfg.AI.Providers))
	for i, p := range cfg.AI.Providers {
		if p.Name == "" || p.Type == "" {
			return fmt.Errorf("ai.providers[%d] name/type are required", i)
		}
		names[p.Name] = true
	}
	if len(cfg.AI.Generator) == 0 || len(cfg.AI.Embedder) == 0 {
		return fmt.Errorf("ai.generator and ai.embedder are required")
	}
	if len(cfg.AI.Embedder) > 1 {
		return fmt.Errorf("ai.embedder must name exactly one model")
	}
	for _, m := range append(append([]AIModelConfig{}, cfg.AI.Generator...), cfg.AI.Embedder...) {
		if !names[m.Provider] {
			return fmt.Errorf("unknown ai provider reference: %s", m.Provider)
		}
		if m.Model == "" {
			return fmt.Errorf("model is required for provider %s", m.Provider)
		}
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60
	}
	if cfg.AI.Intent == "" {
		cfg.AI.Intent = "keyword"
	}
	if cfg.AI.Intent != "keyword" && cfg.AI.Intent != "model" {
		return fmt.Errorf("ai.intent must be keyword or model")
	}
	if cfg.AI.EmbeddingCache.LRUTTLMinutes == 0 {
		cfg.AI.EmbeddingCache.LRUTTLMinutes = 120
	}
	if cfg.AI.EmbeddingCache.MaxAgeDays == 0 {
		cfg.AI.EmbeddingCache.MaxAgeDays = 30
	}
	if cfg.AI.EmbeddingCache.DBCache && cfg.Storage != StoragePostgres {
		return fmt.Errorf("ai.embedding_cache.db_cache requires postgres storage")
	}
	if cfg.Ingest.IntervalSeconds == 0 {
		cfg.Ingest.IntervalSeconds = 60
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = 100
	}
	if cfg.Ingest.CleanupSpec == "" {
		cfg.Ingest.CleanupSpec = "0 4 * * *"
	}
	if cfg.Chunker.GroupSize == 0 {
		cfg.Chunker.GroupSize = 5
	}
	if cfg.Chunker.MinWords == 0 {
		cfg.Chunker.MinWords = 20
	}
	if cfg.Acquire.TimeoutSeconds == 0 {
		cfg.Acquire.TimeoutSeconds = 15
	}
	if cfg.Acquire.MaxBodyBytes == 0 {
		cfg.Acquire.MaxBodyBytes = 4 << 20
	}
	if cfg.Query.DefaultTopK == 0 {
		cfg.Query.DefaultTopK = 3
	}
	if cfg.Query.MaxTopK == 0 {
		cfg.Query.MaxTopK = 50
	}
	if cfg.Snapshot != nil {
		cfg.Snapshot.Type = strings.ToLower(strings.TrimSpace(cfg.Snapshot.Type))
		if cfg.Snapshot.Type != "local" && cfg.Snapshot.Type != "s3" {
			return fmt.Errorf("snapshot.type must be local or s3")
		}
	}
	return nil
}
