package ai

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type GeneratorEntry struct {
	Name      string
	Generator IGenerator
}

// fallback calls fn for each entry in order until one succeeds. Entries
// for which fn reports skip are ignored.
func fallback[T any](ctx context.Context, kind string, names []string, fn func(i int) (T, bool, error)) (T, error) {
	var zero T
	var lastErr error
	for i, name := range names {
		res, skip, err := fn(i)
		if skip {
			continue
		}
		if err == nil {
			return res, nil
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn(kind+" failed", zap.Int("index", i), zap.String("name", name), zap.Error(err))
	}
	if lastErr == nil {
		return zero, ErrUnavailable
	}
	return zero, lastErr
}

type groupGenerator struct {
	items []GeneratorEntry
	names []string
}

func NewGroupGenerator(items []GeneratorEntry) IGenerator {
	if len(items) == 0 {
		return nil
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return &groupGenerator{items: items, names: names}
}

func (g *groupGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return fallback(ctx, "generator", g.names, func(i int) (string, bool, error) {
		gen := g.items[i].Generator
		if gen == nil {
			return "", true, nil
		}
		res, err := gen.Generate(ctx, prompt)
		return res, false, err
	})
}
