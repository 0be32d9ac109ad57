package vectorindex

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/eventkb/internal/model"
	appErr "github.com/xxxsen/eventkb/internal/pkg/errors"
	"go.uber.org/zap"
)

type memoryEntry struct {
	sourceID string
	text     string
	vector   []float32
}

type memoryCollection struct {
	dim     int
	order   []string
	entries map[string]memoryEntry
}

// MemoryIndex is a brute-force cosine index kept in process memory.
type MemoryIndex struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{collections: make(map[string]*memoryCollection)}
}

func (m *MemoryIndex) Upsert(ctx context.Context, eventID string, chunks []model.Chunk) error {
	dim, err := ChunkDimension(chunks)
	if err != nil {
		return err
	}
	if dim == 0 {
		return nil
	}
	name := CollectionName(eventID)
	m.mu.Lock()
	defer m.mu.Unlock()
	col, ok := m.collections[name]
	if ok && col.dim != dim {
		return fmt.Errorf("%w: dimension %d does not match collection %s (%d)", appErr.ErrIndexWrite, dim, name, col.dim)
	}
	if !ok {
		col = &memoryCollection{dim: dim, entries: make(map[string]memoryEntry)}
		m.collections[name] = col
		logutil.GetLogger(ctx).Info("collection created", zap.String("collection", name), zap.Int("dim", dim))
	}
	for _, c := range chunks {
		if _, exists := col.entries[c.ChunkID]; !exists {
			col.order = append(col.order, c.ChunkID)
		}
		vec := make([]float32, len(c.Embedding))
		copy(vec, c.Embedding)
		col.entries[c.ChunkID] = memoryEntry{sourceID: c.SourceID, text: c.Text, vector: vec}
	}
	return nil
}

func (m *MemoryIndex) Query(ctx context.Context, eventID string, vector []float32, k int, sourceIDs []string) ([]model.ChunkMatch, error) {
	name := CollectionName(eventID)
	m.mu.RLock()
	defer m.mu.RUnlock()
	col, ok := m.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", appErr.ErrIndexNotFound, name)
	}
	if k <= 0 {
		return []model.ChunkMatch{}, nil
	}
	var allowed map[string]struct{}
	if len(sourceIDs) > 0 {
		allowed = make(map[string]struct{}, len(sourceIDs))
		for _, id := range sourceIDs {
			allowed[id] = struct{}{}
		}
	}
	type scored struct {
		pos   int
		match model.ChunkMatch
	}
	hits := make([]scored, 0, len(col.order))
	for pos, id := range col.order {
		entry := col.entries[id]
		if allowed != nil {
			if _, ok := allowed[entry.sourceID]; !ok {
				continue
			}
		}
		hits = append(hits, scored{
			pos: pos,
			match: model.ChunkMatch{
				SourceID: entry.sourceID,
				Text:     entry.text,
				Score:    cosineSimilarity(vector, entry.vector),
			},
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].match.Score != hits[j].match.Score {
			return hits[i].match.Score > hits[j].match.Score
		}
		return hits[i].pos < hits[j].pos
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]model.ChunkMatch, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.match)
	}
	return out, nil
}
