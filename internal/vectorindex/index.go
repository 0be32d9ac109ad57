package vectorindex

import (
	"context"
	"fmt"
	"math"

	"github.com/xxxsen/eventkb/internal/model"
	appErr "github.com/xxxsen/eventkb/internal/pkg/errors"
)

// Index stores chunk embeddings in one collection per event.
type Index interface {
	// Upsert writes chunks into the event collection, creating it on first
	// use. Writing an existing chunk id replaces it.
	Upsert(ctx context.Context, eventID string, chunks []model.Chunk) error
	// Query returns up to k matches ordered by descending similarity. A
	// non-empty sourceIDs restricts matches to those sources. A missing
	// collection yields errors.ErrIndexNotFound.
	Query(ctx context.Context, eventID string, vector []float32, k int, sourceIDs []string) ([]model.ChunkMatch, error)
}

func CollectionName(eventID string) string {
	return "event_" + eventID
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// ChunkDimension returns the shared embedding dimension of chunks, or 0 for
// an empty batch. Missing ids, empty embeddings and mixed dimensions are
// rejected with ErrIndexWrite.
func ChunkDimension(chunks []model.Chunk) (int, error) {
	dim := 0
	for _, c := range chunks {
		if c.ChunkID == "" || len(c.Embedding) == 0 {
			return 0, fmt.Errorf("%w: chunk %q has no id or embedding", appErr.ErrIndexWrite, c.ChunkID)
		}
		if dim == 0 {
			dim = len(c.Embedding)
		}
		if len(c.Embedding) != dim {
			return 0, fmt.Errorf("%w: chunk %q has dimension %d, want %d", appErr.ErrIndexWrite, c.ChunkID, len(c.Embedding), dim)
		}
	}
	return dim, nil
}
