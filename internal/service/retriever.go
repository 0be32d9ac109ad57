package service

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/eventkb/internal/ai"
	"github.com/xxxsen/eventkb/internal/model"
	appErr "github.com/xxxsen/eventkb/internal/pkg/errors"
	"github.com/xxxsen/eventkb/internal/vectorindex"
)

type Retriever struct {
	embedder ai.IEmbedder
	index    vectorindex.Index
}

func NewRetriever(embedder ai.IEmbedder, index vectorindex.Index) *Retriever {
	return &Retriever{embedder: embedder, index: index}
}

// Retrieve returns the k chunks of the event closest to queryText. An empty
// selectedSourceIDs searches every source of the event.
func (r *Retriever) Retrieve(ctx context.Context, eventID, queryText string, k int, selectedSourceIDs []string) ([]model.ChunkMatch, error) {
	if r.embedder == nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrEmbedding, ai.ErrUnavailable)
	}
	vec, err := r.embedder.Embed(ctx, queryText, ai.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrEmbedding, err)
	}
	var filter []string
	if len(selectedSourceIDs) > 0 {
		filter = selectedSourceIDs
	}
	matches, err := r.index.Query(ctx, eventID, vec, k, filter)
	if err != nil {
		if appErr.IsIndexNotFound(err) {
			return nil, fmt.Errorf("%w: event %s", appErr.ErrKnowledgeBaseNotFound, eventID)
		}
		return nil, err
	}
	logutil.GetLogger(ctx).Debug("retrieved context",
		zap.String("event_id", eventID),
		zap.Int("top_k", k),
		zap.Int("filter", len(filter)),
		zap.Int("matches", len(matches)),
	)
	return matches, nil
}
