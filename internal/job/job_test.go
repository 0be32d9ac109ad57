package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/eventkb/internal/chunker"
	"github.com/xxxsen/eventkb/internal/model"
	"github.com/xxxsen/eventkb/internal/repo"
	"github.com/xxxsen/eventkb/internal/service"
	"github.com/xxxsen/eventkb/internal/vectorindex"
)

type fakeCleaner struct {
	cutoff int64
}

func (f *fakeCleaner) DeleteBefore(ctx context.Context, cutoff int64) (int64, error) {
	f.cutoff = cutoff
	return 3, nil
}

func TestEmbeddingCacheCleanupCutoff(t *testing.T) {
	cleaner := &fakeCleaner{}
	j := NewEmbeddingCacheCleanupJob(cleaner, 0)
	now := time.Date(2026, 3, 31, 4, 0, 0, 0, time.UTC)
	j.now = func() time.Time { return now }
	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, now.AddDate(0, 0, -30).Unix(), cleaner.cutoff)
	require.Equal(t, "embedding_cache_cleanup", j.Name())
}

type textAcquirer struct{}

func (textAcquirer) Acquire(ctx context.Context, typ model.SourceType, content string) (string, error) {
	return content, nil
}

type constEmbedder struct{}

func (constEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (constEmbedder) ModelName() string {
	return "const"
}

func TestIngestJobRunsPendingSources(t *testing.T) {
	ctx := context.Background()
	sources := repo.NewMemorySourceRepo()
	require.NoError(t, sources.Create(ctx, &model.Source{
		ID: "s1", EventID: "ev", Title: "t", Type: model.SourceTypeText,
		Content: "short text", Status: model.SourceStatusPending,
	}))
	index := vectorindex.NewMemoryIndex()
	svc := service.NewIngestService(sources, textAcquirer{}, chunker.New(5, 20, nil), constEmbedder{}, index, nil, 10)

	j := NewIngestJob(svc)
	require.Equal(t, "source_ingest", j.Name())
	require.NoError(t, j.Run(ctx))

	got, err := sources.GetByID(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, model.SourceStatusCompleted, got.Status)
	res, err := index.Query(ctx, "ev", []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
}
