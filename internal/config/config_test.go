package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `{
	"port": 8080,
	"storage": "memory",
	"ai": {
		"providers": [{"name": "g", "type": "gemini", "data": {"api_key": "k"}}],
		"generator": [{"provider": "g", "model": "gemini-2.0-flash"}],
		"embedder": [{"provider": "g", "model": "text-embedding-004"}]
	}
}`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	require.Equal(t, StorageMemory, cfg.Storage)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, 60, cfg.AI.Timeout)
	require.Equal(t, "keyword", cfg.AI.Intent)
	require.Equal(t, 5, cfg.Chunker.GroupSize)
	require.Equal(t, 20, cfg.Chunker.MinWords)
	require.Equal(t, 3, cfg.Query.DefaultTopK)
	require.Equal(t, 50, cfg.Query.MaxTopK)
	require.Equal(t, 60, cfg.Ingest.IntervalSeconds)
	require.Equal(t, 100, cfg.Ingest.BatchSize)
	require.Equal(t, "0 4 * * *", cfg.Ingest.CleanupSpec)
	require.Equal(t, int64(4<<20), cfg.Acquire.MaxBodyBytes)
	require.Nil(t, cfg.Snapshot)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing port":     `{"storage": "memory"}`,
		"bad storage":      `{"port": 1, "storage": "mysql"}`,
		"postgres no host": `{"port": 1, "storage": "postgres"}`,
		"no providers":     `{"port": 1, "storage": "memory", "ai": {}}`,
		"unknown provider": `{"port": 1, "storage": "memory", "ai": {
			"providers": [{"name": "g", "type": "gemini"}],
			"generator": [{"provider": "x", "model": "m"}],
			"embedder": [{"provider": "g", "model": "m"}]}}`,
		"two embedders": `{"port": 1, "storage": "memory", "ai": {
			"providers": [{"name": "g", "type": "gemini"}],
			"generator": [{"provider": "g", "model": "m"}],
			"embedder": [{"provider": "g", "model": "m"}, {"provider": "g", "model": "n"}]}}`,
		"bad intent": `{"port": 1, "storage": "memory", "ai": {
			"providers": [{"name": "g", "type": "gemini"}],
			"generator": [{"provider": "g", "model": "m"}],
			"embedder": [{"provider": "g", "model": "m"}],
			"intent": "oracle"}}`,
		"db cache on memory": `{"port": 1, "storage": "memory", "ai": {
			"providers": [{"name": "g", "type": "gemini"}],
			"generator": [{"provider": "g", "model": "m"}],
			"embedder": [{"provider": "g", "model": "m"}],
			"embedding_cache": {"db_cache": true}}}`,
		"bad snapshot": `{"port": 1, "storage": "memory", "ai": {
			"providers": [{"name": "g", "type": "gemini"}],
			"generator": [{"provider": "g", "model": "m"}],
			"embedder": [{"provider": "g", "model": "m"}]},
			"snapshot": {"type": "ftp"}}`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			require.Error(t, err)
		})
	}
}

func TestLoadPostgres(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"port": 1,
		"database": {"host": "localhost", "user": "eventkb"},
		"ai": {
			"providers": [{"name": "o", "type": "openai"}],
			"generator": [{"provider": "o", "model": "gpt-4o-mini"}],
			"embedder": [{"provider": "o", "model": "text-embedding-3-small"}],
			"embedding_cache": {"db_cache": true}
		},
		"snapshot": {"type": " S3 ", "data": {"bucket": "b"}}
	}`))
	require.NoError(t, err)
	require.Equal(t, StoragePostgres, cfg.Storage)
	require.Equal(t, 5432, cfg.Database.Port)
	require.Equal(t, "s3", cfg.Snapshot.Type)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
