package service

import (
	"context"

	"github.com/xxxsen/eventkb/internal/model"
)

// SourceStore is the source registry. repo.SourceRepo and
// repo.MemorySourceRepo implement it.
type SourceStore interface {
	Create(ctx context.Context, src *model.Source) error
	GetByID(ctx context.Context, id string) (*model.Source, error)
	ListByEvent(ctx context.Context, eventID string) ([]model.Source, error)
	ListByStatus(ctx context.Context, status model.SourceStatus, limit int) ([]model.Source, error)
	UpdateStatusIf(ctx context.Context, id string, from, to model.SourceStatus, errMsg *string, mtime int64) (bool, error)
}

type ContentAcquirer interface {
	Acquire(ctx context.Context, typ model.SourceType, content string) (string, error)
}

type TextChunker interface {
	Chunk(ctx context.Context, text string) []string
}
