package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/xxxsen/eventkb/internal/model"
	"github.com/xxxsen/eventkb/internal/vectorindex"
)

// sentenceSplitter splits on ". " so tests do not depend on a trained model.
type sentenceSplitter struct{}

func (sentenceSplitter) Split(text string) ([]string, error) {
	parts := strings.SplitAfter(text, ". ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

type keywordEmbedder struct {
	mu     sync.Mutex
	calls  []string
	failOn string
}

// Embed maps text onto three axes: water, energy and everything else.
func (k *keywordEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	k.mu.Lock()
	k.calls = append(k.calls, taskType)
	k.mu.Unlock()
	if k.failOn != "" && strings.Contains(text, k.failOn) {
		return nil, errors.New("embedding quota exceeded")
	}
	lower := strings.ToLower(text)
	vec := []float32{0, 0, 0.1}
	if strings.Contains(lower, "water") {
		vec[0] = 1
	}
	if strings.Contains(lower, "energy") {
		vec[1] = 1
	}
	return vec, nil
}

func (k *keywordEmbedder) ModelName() string {
	return "keyword"
}

type recordingGenerator struct {
	prompts []string
	answer  string
	err     error
}

func (r *recordingGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	return r.answer, r.err
}

type recordingIndex struct {
	vectorindex.Index
	mu       sync.Mutex
	upserted []model.Chunk
	filters  [][]string
}

func newRecordingIndex() *recordingIndex {
	return &recordingIndex{Index: vectorindex.NewMemoryIndex()}
}

func (r *recordingIndex) Upsert(ctx context.Context, eventID string, chunks []model.Chunk) error {
	r.mu.Lock()
	r.upserted = append(r.upserted, chunks...)
	r.mu.Unlock()
	return r.Index.Upsert(ctx, eventID, chunks)
}

func (r *recordingIndex) Query(ctx context.Context, eventID string, vector []float32, k int, sourceIDs []string) ([]model.ChunkMatch, error) {
	r.mu.Lock()
	r.filters = append(r.filters, sourceIDs)
	r.mu.Unlock()
	return r.Index.Query(ctx, eventID, vector, k, sourceIDs)
}

func strPtr(s string) *string {
	return &s
}

func boolPtr(b bool) *bool {
	return &b
}
