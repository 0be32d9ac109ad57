package ai

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	appErr "github.com/xxxsen/eventkb/internal/pkg/errors"
)

const embedConcurrency = 4

// EmbedTexts embeds texts with bounded concurrency and returns vectors in
// input order. Every vector must share the dimension of the first one.
func EmbedTexts(ctx context.Context, e IEmbedder, texts []string, taskType string) ([][]float32, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: %w", appErr.ErrEmbedding, ErrUnavailable)
	}
	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i, text := range texts {
		g.Go(func() error {
			vec, err := e.Embed(gctx, text, taskType)
			if err != nil {
				return fmt.Errorf("%w: text %d: %w", appErr.ErrEmbedding, i, err)
			}
			if len(vec) == 0 {
				return fmt.Errorf("%w: text %d: empty vector", appErr.ErrEmbedding, i)
			}
			out[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i := 1; i < len(out); i++ {
		if len(out[i]) != len(out[0]) {
			return nil, fmt.Errorf("%w: text %d: dimension %d, want %d", appErr.ErrEmbedding, i, len(out[i]), len(out[0]))
		}
	}
	return out, nil
}
