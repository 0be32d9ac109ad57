package ai

import (
	"fmt"

	"github.com/xxxsen/eventkb/internal/config"
)

// Build wires the configured generators into a fallback group and returns
// the single configured embedder.
func Build(cfg config.AIConfig) (IGenerator, IEmbedder, error) {
	byName := make(map[string]config.AIProviderConfig, len(cfg.Providers))
	for _, p := range cfg.Providers {
		byName[p.Name] = p
	}
	gens := make([]GeneratorEntry, 0, len(cfg.Generator))
	for _, m := range cfg.Generator {
		pc, ok := byName[m.Provider]
		if !ok {
			return nil, nil, fmt.Errorf("unknown ai provider: %s", m.Provider)
		}
		p, err := NewProvider(pc.Type, pc.Data)
		if err != nil {
			return nil, nil, fmt.Errorf("init generator %s: %w", m.Provider, err)
		}
		gens = append(gens, GeneratorEntry{Name: m.Provider + ":" + m.Model, Generator: NewGenerator(p, m.Model)})
	}
	// Embeddings never fall back to another model: vectors of one event
	// must share a single vector space.
	if len(cfg.Embedder) != 1 {
		return nil, nil, fmt.Errorf("exactly one embedder is required, got %d", len(cfg.Embedder))
	}
	m := cfg.Embedder[0]
	pc, ok := byName[m.Provider]
	if !ok {
		return nil, nil, fmt.Errorf("unknown ai provider: %s", m.Provider)
	}
	p, err := NewEmbedProvider(pc.Type, pc.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("init embedder %s: %w", m.Provider, err)
	}
	return NewGroupGenerator(gens), NewEmbedder(p, m.Model), nil
}
