package embedcache

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/eventkb/internal/ai"
	"github.com/xxxsen/eventkb/internal/model"
	"go.uber.org/zap"
)

// Store persists embeddings across restarts. repo.EmbeddingCacheRepo is
// the postgres implementation.
type Store interface {
	Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error)
	Save(ctx context.Context, item *model.EmbeddingCache) error
}

func WithStore(e ai.IEmbedder, store Store) ai.IEmbedder {
	if e == nil || store == nil {
		return e
	}
	return &storeEmbedder{next: e, store: store}
}

type storeEmbedder struct {
	next  ai.IEmbedder
	store Store
}

func (s *storeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	key := newCacheKey(s.next.ModelName(), taskType, text)
	values, ok, err := s.store.Get(ctx, key.model, key.taskType, key.contentHash)
	if err != nil {
		logutil.GetLogger(ctx).Warn("read embedding cache failed", zap.Error(err))
	}
	if ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit", zap.String("layer", "store"), zap.String("task_type", taskType))
		return values, nil
	}
	res, err := s.next.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return res, nil
	}
	if err := s.store.Save(ctx, &model.EmbeddingCache{
		ModelName:   key.model,
		TaskType:    key.taskType,
		ContentHash: key.contentHash,
		Embedding:   res,
		Ctime:       time.Now().Unix(),
	}); err != nil {
		logutil.GetLogger(ctx).Warn("write embedding cache failed", zap.Error(err))
	}
	return res, nil
}

func (s *storeEmbedder) ModelName() string {
	return s.next.ModelName()
}
